package jsondoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Marshal serializes a value compactly. Object keys keep their insertion
// order and numbers are written as their original literals, so a parse →
// Marshal cycle of an untouched object preserves order, field set, and
// numeric formatting.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, "", ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalIndent serializes a value with the given indentation, for keyed
// container files that are usually hand-inspected.
func MarshalIndent(v Value, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeValue writes v to buf. A non-empty indent selects multi-line
// output; prefix is the indentation already accumulated for this depth.
func encodeValue(buf *bytes.Buffer, v Value, prefix, indent string) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(t))
	case string:
		return encodeString(buf, t)
	case json.Number:
		buf.WriteString(t.String())
	case int:
		buf.WriteString(strconv.Itoa(t))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case *Object:
		return encodeObject(buf, t, prefix, indent)
	case Array:
		return encodeArray(buf, t, prefix, indent)
	default:
		return fmt.Errorf("cannot marshal %T", v)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func encodeObject(buf *bytes.Buffer, o *Object, prefix, indent string) error {
	if o == nil || o.Len() == 0 {
		buf.WriteString("{}")
		return nil
	}

	inner := prefix + indent
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if indent != "" {
			buf.WriteByte('\n')
			buf.WriteString(inner)
		}
		if err := encodeString(buf, key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if indent != "" {
			buf.WriteByte(' ')
		}
		if err := encodeValue(buf, o.vals[key], inner, indent); err != nil {
			return err
		}
	}
	if indent != "" {
		buf.WriteByte('\n')
		buf.WriteString(prefix)
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, a Array, prefix, indent string) error {
	if len(a) == 0 {
		buf.WriteString("[]")
		return nil
	}

	inner := prefix + indent
	buf.WriteByte('[')
	for i, v := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		if indent != "" {
			buf.WriteByte('\n')
			buf.WriteString(inner)
		}
		if err := encodeValue(buf, v, inner, indent); err != nil {
			return err
		}
	}
	if indent != "" {
		buf.WriteByte('\n')
		buf.WriteString(prefix)
	}
	buf.WriteByte(']')
	return nil
}
