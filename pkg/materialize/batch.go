package materialize

import (
	"fmt"

	"github.com/matzehuels/levelforge/pkg/asset"
)

// Decision classifies one prospective copy against the target level.
type Decision int

const (
	// DecisionNew marks a node absent from the target: it must be
	// materialized.
	DecisionNew Decision = iota

	// DecisionDuplicate marks a node the target already holds under the
	// same kind and effective name. It is skipped; records copied
	// alongside it keep referencing it by name, which now resolves to
	// the target's existing copy.
	DecisionDuplicate
)

func (d Decision) String() string {
	switch d {
	case DecisionNew:
		return "new"
	case DecisionDuplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Batch scopes duplicate detection to one user operation. Every decision is
// cached for the lifetime of the batch, so a node classified new at the
// start of a run stays new for the whole run even after its bytes land on
// disk. Persistent IDs never participate in the comparison; they differ per
// level by construction.
type Batch struct {
	target    *asset.Graph
	decisions map[asset.Key]Decision
}

// NewBatch opens a classification scope against the target level's graph.
func NewBatch(target *asset.Graph) *Batch {
	return &Batch{
		target:    target,
		decisions: make(map[asset.Key]Decision),
	}
}

// Classify reports whether the node must be copied or already exists in the
// target, matching by kind and effective name.
func (b *Batch) Classify(n *asset.Node) Decision {
	key := asset.Key{Kind: n.Kind, Name: n.EffectiveName()}
	if d, ok := b.decisions[key]; ok {
		return d
	}
	d := DecisionNew
	if _, ok := b.target.Lookup(n.Kind, n.EffectiveName()); ok {
		d = DecisionDuplicate
	}
	if b.decisions != nil {
		b.decisions[key] = d
	}
	return d
}

// Close ends the scope and discards its decisions. The next operation must
// open its own batch; a closed batch still classifies but no longer caches.
func (b *Batch) Close() {
	b.decisions = nil
}
