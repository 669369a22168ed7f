package jsondoc

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseObject(t *testing.T) {
	v, info, err := Parse([]byte(`{"name":"oak_tree","scale":1.50,"hidden":false}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if info.Repaired {
		t.Error("valid input should not be marked repaired")
	}
	if len(info.DuplicateKeys) != 0 {
		t.Errorf("DuplicateKeys = %v, want none", info.DuplicateKeys)
	}

	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("value type = %T, want *Object", v)
	}
	if got := obj.Keys(); len(got) != 3 || got[0] != "name" || got[1] != "scale" || got[2] != "hidden" {
		t.Errorf("Keys() = %v, want [name scale hidden]", got)
	}
	if s, _ := obj.GetString("name"); s != "oak_tree" {
		t.Errorf("name = %q, want %q", s, "oak_tree")
	}
	if n, _ := obj.GetNumber("scale"); n != json.Number("1.50") {
		t.Errorf("scale literal = %q, want %q", n, "1.50")
	}
}

func TestParseDuplicateKeyKeepsFirst(t *testing.T) {
	v, info, err := Parse([]byte(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(info.DuplicateKeys) != 1 {
		t.Fatalf("DuplicateKeys = %v, want exactly one entry", info.DuplicateKeys)
	}
	if info.DuplicateKeys[0] != "a" {
		t.Errorf("duplicate key path = %q, want %q", info.DuplicateKeys[0], "a")
	}

	obj := v.(*Object)
	if obj.Len() != 1 {
		t.Errorf("Len() = %d, want 1", obj.Len())
	}
	if n, _ := obj.GetNumber("a"); n != json.Number("1") {
		t.Errorf("a = %v, want first-seen value 1", n)
	}
}

func TestParseDuplicateKeyNested(t *testing.T) {
	input := `{"stages":[{"colorMap":"a.dds","colorMap":"b.dds"}],"name":"m"}`
	v, info, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(info.DuplicateKeys) != 1 {
		t.Fatalf("DuplicateKeys = %v, want one entry", info.DuplicateKeys)
	}
	if info.DuplicateKeys[0] != "stages[0].colorMap" {
		t.Errorf("path = %q, want %q", info.DuplicateKeys[0], "stages[0].colorMap")
	}

	obj := v.(*Object)
	arr, _ := obj.GetArray("stages")
	stage := arr[0].(*Object)
	if s, _ := stage.GetString("colorMap"); s != "a.dds" {
		t.Errorf("colorMap = %q, want first-seen %q", s, "a.dds")
	}
}

func TestParseRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing comma", `{"a":1,}`},
		{"trailing comma in array", `{"a":[1,2,],}`},
		{"line comment", "{\"a\":1 // comment\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, info, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if !info.Repaired {
				t.Error("Repaired = false, want true")
			}
			obj := v.(*Object)
			if !obj.Has("a") {
				t.Error("repaired object lost key a")
			}
		})
	}
}

func TestParseFatal(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed object", `{"a":`},
		{"garbage", `{{{`},
		{"trailing value", `{"a":1} {"b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Parse([]byte(tt.input)); err == nil {
				t.Error("Parse should fail")
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	input := []byte(`{"b":2,"a":1,"a":3,"c":[1,{"x":true,"x":false}]}`)

	first, _, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	second, _, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	m1, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	m2, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if !bytes.Equal(m1, m2) {
		t.Errorf("identical input produced different output:\n%s\n%s", m1, m2)
	}
}

func TestMarshalPreservesOrderAndLiterals(t *testing.T) {
	input := `{"zeta":"z","alpha":1.50,"mid":{"y":2,"x":1}}`
	v, _, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	out, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != input {
		t.Errorf("Marshal = %s, want %s", out, input)
	}
}

func TestMarshalIndent(t *testing.T) {
	obj := NewObject()
	obj.Set("name", "oak")
	obj.Set("tags", Array{"tree", "dry"})

	out, err := MarshalIndent(obj, "", "  ")
	if err != nil {
		t.Fatalf("MarshalIndent error: %v", err)
	}

	want := "{\n  \"name\": \"oak\",\n  \"tags\": [\n    \"tree\",\n    \"dry\"\n  ]\n}"
	if string(out) != want {
		t.Errorf("MarshalIndent =\n%s\nwant\n%s", out, want)
	}
}

func TestObjectSetDelete(t *testing.T) {
	obj := NewObject()
	obj.Set("a", "1")
	obj.Set("b", "2")
	obj.Set("a", "3") // replace in place, order unchanged

	if got := obj.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	if s, _ := obj.GetString("a"); s != "3" {
		t.Errorf("a = %q, want %q", s, "3")
	}

	obj.Delete("a")
	if obj.Has("a") {
		t.Error("a should be deleted")
	}
	if got := obj.Keys(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Keys() after delete = %v, want [b]", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	v, _, err := Parse([]byte(`{"outer":{"inner":"x"},"list":[{"k":"v"}]}`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	obj := v.(*Object)

	clone := obj.Clone()
	nested, _ := clone.GetObject("outer")
	nested.Set("inner", "changed")

	orig, _ := obj.GetObject("outer")
	if s, _ := orig.GetString("inner"); s != "x" {
		t.Errorf("original mutated through clone: inner = %q", s)
	}
}

func TestReadNDJSON(t *testing.T) {
	input := strings.Join([]string{
		`{"name":"first","scale":1.0}`,
		``,
		`{"name":"second"}`,
		`this is not json`,
		`{"name":"third","a":1,"a":2}`,
	}, "\n")

	records, skipped, err := ReadNDJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadNDJSON error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(skipped))
	}
	if skipped[0].Line != 4 {
		t.Errorf("skipped line = %d, want 4", skipped[0].Line)
	}

	if records[0].Line != 1 || records[1].Line != 3 || records[2].Line != 5 {
		t.Errorf("record lines = %d,%d,%d, want 1,3,5",
			records[0].Line, records[1].Line, records[2].Line)
	}
	if len(records[2].Info.DuplicateKeys) != 1 {
		t.Errorf("third record DuplicateKeys = %v, want one entry", records[2].Info.DuplicateKeys)
	}
}

func TestNDJSONRoundTrip(t *testing.T) {
	// No duplicates, no repairs: unmodified records must round-trip
	// byte-for-byte.
	input := `{"name":"oak_tree","pos":[1,2,3],"scale":1.50}` + "\n" +
		`{"name":"birch","pos":[4.0,5.25,6],"scale":0.8}` + "\n"

	records, skipped, err := ReadNDJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadNDJSON error: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}

	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, records); err != nil {
		t.Fatalf("WriteNDJSON error: %v", err)
	}
	if buf.String() != input {
		t.Errorf("round trip =\n%q\nwant\n%q", buf.String(), input)
	}
}

func TestWriteNDJSONMarshalsWhenRawCleared(t *testing.T) {
	records, _, err := ReadNDJSON(strings.NewReader(`{"name":"oak","scale":2}`))
	if err != nil {
		t.Fatalf("ReadNDJSON error: %v", err)
	}

	obj := records[0].Value.(*Object)
	obj.Set("name", "pine")
	records[0].Raw = nil

	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, records); err != nil {
		t.Fatalf("WriteNDJSON error: %v", err)
	}
	want := `{"name":"pine","scale":2}` + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
