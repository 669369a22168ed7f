package graphio

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DotOptions configures DOT conversion.
type DotOptions struct {
	// Detailed includes kind, size, and container path in node labels.
	// When false, only the display name is shown.
	Detailed bool
}

// kindFill colors nodes by what they are, so a rendered graph separates
// payloads from records at a glance.
var kindFill = map[string]string{
	"shape":              "lightyellow",
	"texture":            "lightcyan",
	"material":           "mistyrose",
	"terrainMaterial":    "mistyrose",
	"forestItemData":     "honeydew",
	"forestBrush":        "palegreen",
	"forestBrushElement": "palegreen",
}

// ToDOT converts a document to Graphviz DOT. Incomplete nodes are drawn
// dashed; unresolved references become dashed red edges to phantom targets.
func ToDOT(doc *Document, opts DotOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph assets {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range doc.Nodes {
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges {
		fmt.Fprintf(&buf, "  n%d -> n%d [label=%q, fontsize=9];\n", e.From, e.To, e.Field)
	}
	for i, u := range doc.Unresolved {
		fmt.Fprintf(&buf, "  missing%d [label=%q, style=\"rounded,dashed\", fontcolor=red, color=red];\n",
			i, u.Kind+"\n"+u.Name)
		fmt.Fprintf(&buf, "  n%d -> missing%d [label=%q, fontsize=9, style=dashed, color=red];\n",
			u.From, i, u.Field)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n Node, detailed bool) []string {
	label := n.Name
	if label == "" {
		label = n.InternalName
	}
	if detailed {
		parts := []string{label, n.Kind}
		if n.SizeBytes > 0 {
			parts = append(parts, fmt.Sprintf("%d bytes", n.SizeBytes))
		}
		if n.Container != "" {
			parts = append(parts, n.Container)
		}
		label = strings.Join(parts, "\n")
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	style := "rounded,filled"
	if n.Incomplete {
		style = "rounded,filled,dashed"
	}
	attrs = append(attrs, fmt.Sprintf("style=%q", style))
	if fill, ok := kindFill[n.Kind]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root tag so the origin sits at 0,0 and
// explicit pixel dimensions are present, which embedding frontends expect.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
