package jsondoc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// maxLineBytes bounds a single NDJSON line. Placement files from the level
// editor can carry very long records.
const maxLineBytes = 8 * 1024 * 1024

// Record is one NDJSON record: the parsed value plus the exact bytes of the
// source line it came from.
type Record struct {
	// Line is the 1-based line number in the source file.
	Line int

	// Value is the parsed value, typically an *Object.
	Value Value

	// Raw holds the original line bytes without the trailing newline.
	// [WriteNDJSON] emits Raw verbatim when present, so records that were
	// not modified round-trip byte-for-byte. Code that modifies Value must
	// clear Raw.
	Raw []byte

	// Info reports repairs and duplicate keys for this record.
	Info ParseInfo
}

// LineError describes one skipped NDJSON line.
type LineError struct {
	Line int
	Err  error
}

// Error implements the error interface.
func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *LineError) Unwrap() error { return e.Err }

// ReadNDJSON parses newline-delimited JSON: one value per non-blank line.
// Malformed lines are skipped and reported in the returned slice; they never
// fail the whole file. The error return covers read failures only.
func ReadNDJSON(r io.Reader) ([]Record, []LineError, error) {
	var (
		records []Record
		skipped []LineError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			continue
		}

		v, info, err := Parse(trimmed)
		if err != nil {
			skipped = append(skipped, LineError{Line: line, Err: err})
			continue
		}

		records = append(records, Record{
			Line:  line,
			Value: v,
			Raw:   bytes.Clone(raw),
			Info:  info,
		})
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("read: %w", err)
	}
	return records, skipped, nil
}

// WriteNDJSON writes records one per line. Records with Raw set are written
// verbatim; others are marshaled from Value. Every record is terminated with
// a single newline.
func WriteNDJSON(w io.Writer, records []Record) error {
	for i := range records {
		line := records[i].Raw
		if line == nil {
			data, err := Marshal(records[i].Value)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			line = data
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}
