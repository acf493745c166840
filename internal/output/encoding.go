// Package output encodes command and export results deterministically:
// object keys sorted, floats rounded to FloatPrecision places, so equal
// results produce byte-identical JSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DeterministicEncode produces compact byte-identical JSON output.
func DeterministicEncode(v interface{}) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DeterministicEncodeIndented is DeterministicEncode with indentation.
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize round-trips v through its JSON form so struct tags and
// omitempty apply as usual, then rounds every fractional number. Integers
// keep their exact text.
func normalize(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to normalize output: %w", err)
	}
	return roundNumbers(generic), nil
}

func roundNumbers(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			val[k] = roundNumbers(child)
		}
		return val
	case []interface{}:
		for i, child := range val {
			val[i] = roundNumbers(child)
		}
		return val
	case json.Number:
		s := val.String()
		if !strings.ContainsAny(s, ".eE") {
			return val
		}
		f, err := val.Float64()
		if err != nil {
			return val
		}
		return json.Number(FormatFloat(f))
	default:
		return v
	}
}
