package graphio

import (
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/levelforge/pkg/errors"
)

// WriteJSON encodes a document to w, indented for hand inspection. The
// output round-trips through [ReadJSON].
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph document")
	}
	return nil
}

// ExportJSON writes a document to a file at path.
func ExportJSON(doc *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %q", path)
	}
	defer f.Close()
	return WriteJSON(doc, f)
}

// ReadJSON decodes a document from r. It validates JSON shape only; use
// [Rebuild] to restore a graph and check referential integrity.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode graph document")
	}
	return &doc, nil
}

// ImportJSON reads a document from a file at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %q", path)
	}
	defer f.Close()
	return ReadJSON(f)
}
