package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/jsonc"
)

// ParseInfo reports what happened while parsing a value.
type ParseInfo struct {
	// Repaired is true when the strict parse failed and the value was
	// recovered by the repair pass (comments, trailing commas, stray
	// punctuation stripped).
	Repaired bool

	// DuplicateKeys lists the dotted paths of object keys that were
	// dropped because an earlier key with the same name was already
	// present. One entry per removed key, in document order.
	DuplicateKeys []string
}

// Parse parses a single JSON value (object, array, or scalar).
//
// A strict parse is attempted first. If it fails, the input is run through
// a repair pass and reparsed; a second failure is returned as an error.
// Duplicate object keys never fail the parse: later occurrences are dropped
// and reported in [ParseInfo.DuplicateKeys].
func Parse(data []byte) (Value, ParseInfo, error) {
	v, info, err := parseStrict(data)
	if err == nil {
		return v, info, nil
	}

	v, info, repairErr := parseStrict(jsonc.ToJSON(data))
	if repairErr != nil {
		// Report the original failure; the repaired input failing too
		// adds nothing actionable.
		return nil, ParseInfo{}, fmt.Errorf("invalid JSON (after repair): %w", err)
	}
	info.Repaired = true
	return v, info, nil
}

// parseStrict tokenizes data into ordered values, keeping the first value
// for any duplicated object key.
func parseStrict(data []byte) (Value, ParseInfo, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var info ParseInfo
	v, err := decodeValue(dec, &info, "")
	if err != nil {
		return nil, ParseInfo{}, err
	}

	// A single JSON value must consume the whole input.
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, ParseInfo{}, err
		}
		return nil, ParseInfo{}, fmt.Errorf("unexpected trailing token %v", tok)
	}
	return v, info, nil
}

// decodeValue reads the next complete value from the decoder. path is the
// dotted location of the value within the document, used for duplicate-key
// reporting.
func decodeValue(dec *json.Decoder, info *ParseInfo, path string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok, info, path)
}

func decodeFromToken(dec *json.Decoder, tok json.Token, info *ParseInfo, path string) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, info, path)
		case '[':
			return decodeArray(dec, info, path)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return t, nil
	case json.Number:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder, info *ParseInfo, path string) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key is not a string: %v", keyTok)
		}

		keyPath := joinPath(path, key)
		v, err := decodeValue(dec, info, keyPath)
		if err != nil {
			return nil, err
		}

		// First-seen wins. The removed key is reported, not fatal:
		// duplicate keys are a known defect of upstream level exports.
		if obj.Has(key) {
			info.DuplicateKeys = append(info.DuplicateKeys, keyPath)
			continue
		}
		obj.Set(key, v)
	}

	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder, info *ParseInfo, path string) (Array, error) {
	arr := Array{}
	for i := 0; dec.More(); i++ {
		v, err := decodeValue(dec, info, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}

	// Consume the closing ']'.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
