package materialize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/levelforge/pkg/asset"
	"github.com/matzehuels/levelforge/pkg/diag"
	"github.com/matzehuels/levelforge/pkg/jsondoc"
	"github.com/matzehuels/levelforge/pkg/level"
	"github.com/matzehuels/levelforge/pkg/reach"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixtureLevels builds a source level with one brush chain (brush → element
// → item data → shape → material → texture) and a target level holding only
// its descriptor.
func fixtureLevels(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "meadow")

	writeFile(t, src, "info.json", `{"title":"Meadow"}`)
	writeFile(t, src, "art/forest/managedItemData.json",
		`{"oak_small":{"internalName":"oak_small","persistentId":"src-item","shapeFile":"/levels/meadow/art/shapes/trees/oak.dae"}}`)
	writeFile(t, src, "art/forest/forestBrushes.json",
		`{"class":"ForestBrushGroup","name":"ForestBrushGroup","persistentId":"src-group"}`+"\n"+
			`{"class":"ForestBrush","name":"oak_brush","persistentId":"src-brush","__parent":"ForestBrushGroup"}`+"\n"+
			`{"class":"ForestBrushElement","name":"oak_elem","persistentId":"src-elem","__parent":"oak_brush","forestItemData":"oak_small"}`+"\n")
	writeFile(t, src, "art/shapes/trees/oak.dae", "dae-bytes")
	writeFile(t, src, "art/shapes/trees/oak.cdae", "cdae-bytes")
	writeFile(t, src, "art/shapes/trees/main.materials.json",
		`{"oak_mat":{"class":"Material","internalName":"oak_mat","persistentId":"src-mat","Stages":[{"colorMap":"/levels/meadow/art/shapes/trees/oak_d.dds"}]}}`)
	writeFile(t, src, "art/shapes/trees/oak_d.dds", "dds-bytes")

	writeFile(t, filepath.Join(root, "quarry"), "info.json", `{"title":"Quarry"}`)
	return root
}

func scanLevel(t *testing.T, root, name string) *asset.Graph {
	t.Helper()
	res, err := level.Build(context.Background(), level.Options{LevelsRoot: root, Level: name})
	if err != nil {
		t.Fatalf("scan %s: %v", name, err)
	}
	return res.Graph
}

func requiredFromBrush(t *testing.T, g *asset.Graph) []asset.NodeID {
	t.Helper()
	id, ok := g.Lookup(asset.KindForestBrush, "oak_brush")
	if !ok {
		t.Fatal("oak_brush missing from source graph")
	}
	req, _ := reach.RequiredSet(g, []asset.NodeID{id})
	return req
}

func seqCopier() *Copier {
	n := 0
	return &Copier{NewID: func() string {
		n++
		return fmt.Sprintf("fresh-%03d", n)
	}}
}

func brushPlan(t *testing.T, root string, sink diag.Sink) Plan {
	t.Helper()
	srcGraph := scanLevel(t, root, "meadow")
	return Plan{
		SourceName: "meadow",
		SourceDir:  filepath.Join(root, "meadow"),
		Graph:      srcGraph,
		TargetName: "quarry",
		TargetDir:  filepath.Join(root, "quarry"),
		Target:     scanLevel(t, root, "quarry"),
		Required:   requiredFromBrush(t, srcGraph),
		Sink:       sink,
	}
}

func readTarget(t *testing.T, root, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "quarry", filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return data
}

func parseKeyed(t *testing.T, data []byte) *jsondoc.Object {
	t.Helper()
	v, _, err := jsondoc.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obj, ok := v.(*jsondoc.Object)
	if !ok {
		t.Fatalf("top-level value is %T, want object", v)
	}
	return obj
}

func TestCopyBrushSubgraph(t *testing.T) {
	root := fixtureLevels(t)
	collector := diag.NewCollector()
	plan := brushPlan(t, root, collector)
	if len(plan.Required) != 6 {
		t.Fatalf("required = %d nodes, want 6", len(plan.Required))
	}

	res, err := seqCopier().Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Copied != 6 || res.Duplicates != 0 || res.Failed != 0 || res.Partial {
		t.Fatalf("result = %+v, want 6 copied", *res)
	}

	t.Run("payload bytes", func(t *testing.T) {
		for rel, want := range map[string]string{
			"art/shapes/trees/oak.dae":   "dae-bytes",
			"art/shapes/trees/oak.cdae":  "cdae-bytes",
			"art/shapes/trees/oak_d.dds": "dds-bytes",
		} {
			if got := string(readTarget(t, root, rel)); got != want {
				t.Errorf("%s = %q, want %q", rel, got, want)
			}
		}
	})

	t.Run("brush container", func(t *testing.T) {
		records, lineErrs, err := jsondoc.ReadNDJSON(bytes.NewReader(readTarget(t, root, "art/forest/forestBrushes.json")))
		if err != nil || len(lineErrs) > 0 {
			t.Fatalf("read brushes: %v, %v", err, lineErrs)
		}
		if len(records) != 3 {
			t.Fatalf("got %d records, want group + brush + element", len(records))
		}
		group := records[0].Value.(*jsondoc.Object)
		if class, _ := group.GetString("class"); class != "ForestBrushGroup" {
			t.Errorf("first record class = %q, want synthesized group", class)
		}
		brush := records[1].Value.(*jsondoc.Object)
		if parent, _ := brush.GetString("__parent"); parent != "ForestBrushGroup" {
			t.Errorf("brush parent = %q", parent)
		}
		elem := records[2].Value.(*jsondoc.Object)
		if item, _ := elem.GetString("forestItemData"); item != "oak_small" {
			t.Errorf("element item ref = %q", item)
		}
	})

	t.Run("rewritten references", func(t *testing.T) {
		items := parseKeyed(t, readTarget(t, root, "art/forest/managedItemData.json"))
		rec, _ := items.GetObject("oak_small")
		if rec == nil {
			t.Fatal("oak_small missing from target item data")
		}
		if v, _ := rec.GetString("shapeFile"); v != "/levels/quarry/art/shapes/trees/oak.dae" {
			t.Errorf("shapeFile = %q", v)
		}

		mats := parseKeyed(t, readTarget(t, root, "art/shapes/trees/main.materials.json"))
		mat, _ := mats.GetObject("oak_mat")
		if mat == nil {
			t.Fatal("oak_mat missing from target materials")
		}
		stages, _ := mat.GetArray("Stages")
		if len(stages) != 1 {
			t.Fatalf("Stages = %v", stages)
		}
		if v, _ := stages[0].(*jsondoc.Object).GetString("colorMap"); v != "/levels/quarry/art/shapes/trees/oak_d.dds" {
			t.Errorf("colorMap = %q", v)
		}
	})

	t.Run("fresh persistent ids", func(t *testing.T) {
		for _, rel := range []string{
			"art/forest/forestBrushes.json",
			"art/forest/managedItemData.json",
			"art/shapes/trees/main.materials.json",
		} {
			if data := readTarget(t, root, rel); bytes.Contains(data, []byte("src-")) {
				t.Errorf("%s still carries a source persistent id", rel)
			}
		}
	})

	if errs := countLevel(collector, diag.Error); errs != 0 {
		t.Errorf("run published %d error events", errs)
	}
}

func TestCopySecondRunIsAllDuplicates(t *testing.T) {
	root := fixtureLevels(t)
	if _, err := seqCopier().Run(context.Background(), brushPlan(t, root, nil)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before := map[string][]byte{}
	for _, rel := range []string{
		"art/forest/forestBrushes.json",
		"art/forest/managedItemData.json",
		"art/shapes/trees/main.materials.json",
	} {
		before[rel] = readTarget(t, root, rel)
	}

	// The second operation classifies against the target as scanned from
	// disk, not against any state from the first run.
	res, err := seqCopier().Run(context.Background(), brushPlan(t, root, nil))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Duplicates != 6 || res.Copied != 0 || res.Failed != 0 {
		t.Fatalf("second run result = %+v, want 6 duplicates", *res)
	}
	for rel, want := range before {
		if got := readTarget(t, root, rel); !bytes.Equal(got, want) {
			t.Errorf("%s changed on duplicate run", rel)
		}
	}
}

func TestCopyMergesIntoExistingContainers(t *testing.T) {
	root := fixtureLevels(t)
	existing := `{"class":"ForestBrushGroup","name":"ForestBrushGroup","persistentId":"tgt-group"}` + "\n" +
		`{"class":"ForestBrush","name":"quarry_brush","persistentId":"tgt-brush","__parent":"ForestBrushGroup"}` + "\n"
	writeFile(t, filepath.Join(root, "quarry"), "art/forest/forestBrushes.json", existing)

	res, err := seqCopier().Run(context.Background(), brushPlan(t, root, nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Copied != 6 || res.Duplicates != 0 {
		t.Fatalf("result = %+v", *res)
	}

	raw := readTarget(t, root, "art/forest/forestBrushes.json")
	if !bytes.HasPrefix(raw, []byte(existing)) {
		t.Error("existing records were disturbed")
	}
	records, _, err := jsondoc.ReadNDJSON(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (no second group synthesized)", len(records))
	}
	groups := 0
	for _, r := range records {
		if class, _ := r.Value.(*jsondoc.Object).GetString("class"); class == "ForestBrushGroup" {
			groups++
		}
	}
	if groups != 1 {
		t.Errorf("found %d grouping records, want 1", groups)
	}
}

func TestCopyPartialFailure(t *testing.T) {
	root := fixtureLevels(t)
	collector := diag.NewCollector()
	plan := brushPlan(t, root, collector)

	// The shape payload disappears between scan and copy.
	for _, rel := range []string{"art/shapes/trees/oak.dae", "art/shapes/trees/oak.cdae"} {
		if err := os.Remove(filepath.Join(root, "meadow", filepath.FromSlash(rel))); err != nil {
			t.Fatal(err)
		}
	}

	res, err := seqCopier().Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Copied != 5 || !res.Partial {
		t.Fatalf("result = %+v, want 1 failed, 5 copied, partial", *res)
	}
	if countLevel(collector, diag.Error) == 0 {
		t.Error("failure published no error event")
	}
	// Siblings in the batch still landed.
	if _, err := os.Stat(filepath.Join(root, "quarry", "art", "forest", "managedItemData.json")); err != nil {
		t.Errorf("item data not materialized: %v", err)
	}
}

func TestCopyCanceled(t *testing.T) {
	root := fixtureLevels(t)
	plan := brushPlan(t, root, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := seqCopier().Run(ctx, plan)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if res == nil || !res.Partial {
		t.Fatalf("result = %+v, want partial", res)
	}
}

func TestCopyValidation(t *testing.T) {
	root := fixtureLevels(t)
	plan := brushPlan(t, root, nil)

	bad := plan
	bad.TargetName = "../escape"
	if _, err := seqCopier().Run(context.Background(), bad); err == nil {
		t.Error("path-escaping target name accepted")
	}

	bad = plan
	bad.Target = nil
	if _, err := seqCopier().Run(context.Background(), bad); err == nil {
		t.Error("nil target graph accepted")
	}

	bad = plan
	bad.TargetDir = filepath.Join(root, "missing")
	if _, err := seqCopier().Run(context.Background(), bad); err == nil {
		t.Error("missing target directory accepted")
	}
}

func countLevel(c *diag.Collector, lvl diag.Level) int {
	n := 0
	for _, e := range c.Events() {
		if e.Level == lvl {
			n++
		}
	}
	return n
}
