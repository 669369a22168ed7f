package materialize

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/errors"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// =============================================================================
// Merge Staging
// =============================================================================

// stagedRecord is one container record ready to write: the source node and
// its cloned, rewritten document.
type stagedRecord struct {
	node *asset.Node
	doc  *jsondoc.Object
}

// mergeSet stages container records per target file so each file is read
// and written at most once per run.
type mergeSet struct {
	order  []string
	byPath map[string][]stagedRecord
}

func newMergeSet() *mergeSet {
	return &mergeSet{byPath: make(map[string][]stagedRecord)}
}

func (m *mergeSet) add(n *asset.Node, doc *jsondoc.Object) {
	rel := n.Container.Path
	if _, ok := m.byPath[rel]; !ok {
		m.order = append(m.order, rel)
	}
	m.byPath[rel] = append(m.byPath[rel], stagedRecord{node: n, doc: doc})
}

// flush writes every staged container. Files are processed in first-staged
// order, which follows the source graph's insertion order, so parent
// records land before their children.
func (c *Copier) flush(ctx context.Context, sink diag.Sink, plan Plan, merges *mergeSet, res *Result) error {
	for _, rel := range merges.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		recs := merges.byPath[rel]
		target := filepath.Join(plan.TargetDir, filepath.FromSlash(rel))

		var err error
		if lineOriented(recs[0].node.Kind) {
			err = c.appendLines(target, recs, res)
		} else {
			err = mergeKeyed(target, recs, res)
		}
		if err != nil {
			diag.Errorf(sink, rel, "merge container: %v", err)
		}
	}
	return nil
}

// lineOriented reports whether a kind's container stores one record per
// line rather than one keyed object.
func lineOriented(k asset.Kind) bool {
	switch k {
	case asset.KindForestBrush, asset.KindForestBrushElement, asset.KindGenericManaged, asset.KindRoad:
		return true
	default:
		return false
	}
}

// =============================================================================
// Line-Oriented Containers
// =============================================================================

// recordKey identifies a record on disk for idempotence checks.
type recordKey struct {
	class string
	name  string
}

// appendLines merges staged records into a line-oriented container by
// appending. Existing bytes are preserved verbatim, including lines the
// engine cannot parse; records already present by class and name count as
// duplicates. Grouping objects that staged brushes parent to are
// synthesized when neither the file nor the batch provides them.
func (c *Copier) appendLines(target string, recs []stagedRecord, res *Result) error {
	raw, err := os.ReadFile(target)
	if err != nil && !os.IsNotExist(err) {
		res.Failed += len(recs)
		return errors.Wrap(errors.ErrCodeIO, err, "read %q", target)
	}

	existing := make(map[recordKey]struct{})
	names := make(map[string]struct{})
	if len(raw) > 0 {
		records, _, rerr := jsondoc.ReadNDJSON(bytes.NewReader(raw))
		if rerr != nil {
			res.Failed += len(recs)
			return errors.Wrap(errors.ErrCodeParse, rerr, "read %q", target)
		}
		for _, r := range records {
			obj, ok := r.Value.(*jsondoc.Object)
			if !ok {
				continue
			}
			k := lineRecordKey(obj)
			existing[k] = struct{}{}
			if k.name != "" {
				names[k.name] = struct{}{}
			}
		}
	}

	var fresh []stagedRecord
	for _, r := range recs {
		k := lineRecordKey(r.doc)
		if _, dup := existing[k]; dup {
			res.Duplicates++
			continue
		}
		existing[k] = struct{}{}
		if k.name != "" {
			names[k.name] = struct{}{}
		}
		fresh = append(fresh, r)
	}
	if len(fresh) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.Write(raw)
	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, group := range c.missingBrushGroups(names, fresh) {
		if err := writeLine(&buf, group); err != nil {
			res.Failed += len(fresh)
			return err
		}
	}
	for _, r := range fresh {
		if err := writeLine(&buf, r.doc); err != nil {
			res.Failed += len(fresh)
			return err
		}
	}

	if err := writeContainer(target, buf.Bytes()); err != nil {
		res.Failed += len(fresh)
		return err
	}
	res.Copied += len(fresh)
	return nil
}

// lineRecordKey extracts the identity of a line record: its class plus its
// name, falling back to the internal name.
func lineRecordKey(obj *jsondoc.Object) recordKey {
	class, _ := obj.GetString("class")
	name := strings.TrimSpace(firstString(obj, "name", "internalName"))
	return recordKey{class: class, name: name}
}

func firstString(obj *jsondoc.Object, keys ...string) string {
	for _, k := range keys {
		if v, ok := obj.GetString(k); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// missingBrushGroups synthesizes one grouping record per parent name that
// staged brushes reference but that neither the target file nor this batch
// provides.
func (c *Copier) missingBrushGroups(names map[string]struct{}, staged []stagedRecord) []*jsondoc.Object {
	var out []*jsondoc.Object
	for _, r := range staged {
		if r.node.Kind != asset.KindForestBrush {
			continue
		}
		parent := strings.TrimSpace(firstString(r.doc, "__parent"))
		if parent == "" {
			continue
		}
		if _, ok := names[parent]; ok {
			continue
		}
		names[parent] = struct{}{}
		group := jsondoc.NewObject()
		group.Set("class", "ForestBrushGroup")
		group.Set("name", parent)
		group.Set("persistentId", c.newID())
		out = append(out, group)
	}
	return out
}

func writeLine(buf *bytes.Buffer, obj *jsondoc.Object) error {
	data, err := jsondoc.Marshal(obj)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "serialize record")
	}
	buf.Write(data)
	buf.WriteByte('\n')
	return nil
}

// =============================================================================
// Keyed Containers
// =============================================================================

// mergeKeyed merges staged records into a keyed container, adding each
// record under its source key. Existing entries keep their order and
// unknown fields; an existing key counts as a duplicate and is left alone.
func mergeKeyed(target string, recs []stagedRecord, res *Result) error {
	obj := jsondoc.NewObject()
	raw, err := os.ReadFile(target)
	switch {
	case err == nil:
		v, _, perr := jsondoc.Parse(raw)
		if perr != nil {
			res.Failed += len(recs)
			return errors.Wrap(errors.ErrCodeParse, perr, "parse %q", target)
		}
		parsed, ok := v.(*jsondoc.Object)
		if !ok {
			res.Failed += len(recs)
			return errors.New(errors.ErrCodeParse, "%q: top-level value is not an object", target)
		}
		obj = parsed
	case os.IsNotExist(err):
		// First record creates the container.
	default:
		res.Failed += len(recs)
		return errors.Wrap(errors.ErrCodeIO, err, "read %q", target)
	}

	added := 0
	for _, r := range recs {
		key := r.node.Container.Key
		if key == "" {
			key = r.node.Name
		}
		if obj.Has(key) {
			res.Duplicates++
			continue
		}
		obj.Set(key, r.doc)
		added++
	}
	if added == 0 {
		return nil
	}

	data, err := jsondoc.MarshalIndent(obj, "", "  ")
	if err != nil {
		res.Failed += added
		return errors.Wrap(errors.ErrCodeInternal, err, "serialize %q", target)
	}
	if err := writeContainer(target, append(data, '\n')); err != nil {
		res.Failed += added
		return err
	}
	res.Copied += added
	return nil
}

// =============================================================================
// File I/O
// =============================================================================

func writeContainer(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %q", filepath.Dir(target))
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %q", target)
	}
	return nil
}

// copyFile copies src to dst byte for byte, creating parent directories and
// removing a partial dst on failure.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "open %q", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %q", filepath.Dir(dst))
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %q", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrap(errors.ErrCodeIO, err, "copy to %q", dst)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return errors.Wrap(errors.ErrCodeIO, err, "close %q", dst)
	}
	return nil
}
