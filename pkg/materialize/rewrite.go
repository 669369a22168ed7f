package materialize

import (
	"strings"

	"github.com/matzehuels/levelforge/pkg/jsondoc"
)

// RewritePath replaces the level-name segment directly following a "levels"
// segment, when it matches src case-insensitively, with dst. Separator
// style and the rest of the path are preserved. Strings without such a
// segment pass through untouched, so plain object names never change.
func RewritePath(p, src, dst string) string {
	if p == "" || src == "" || src == dst {
		return p
	}
	var b strings.Builder
	b.Grow(len(p))
	start := 0
	prev := ""
	for i := 0; i <= len(p); i++ {
		if i < len(p) && p[i] != '/' && p[i] != '\\' {
			continue
		}
		seg := p[start:i]
		if strings.EqualFold(prev, "levels") && strings.EqualFold(seg, src) {
			b.WriteString(dst)
		} else {
			b.WriteString(seg)
		}
		if i < len(p) {
			b.WriteByte(p[i])
		}
		prev = seg
		start = i + 1
	}
	return b.String()
}

// rewriteValue rewrites every string in a value in place, descending into
// nested objects and arrays. The return value aliases the input.
func rewriteValue(v jsondoc.Value, src, dst string) jsondoc.Value {
	switch t := v.(type) {
	case string:
		return RewritePath(t, src, dst)
	case *jsondoc.Object:
		for _, key := range t.Keys() {
			inner, _ := t.Get(key)
			t.Set(key, rewriteValue(inner, src, dst))
		}
		return t
	case jsondoc.Array:
		for i, e := range t {
			t[i] = rewriteValue(e, src, dst)
		}
		return t
	default:
		return v
	}
}
