// Package canon produces the deterministic byte encoding of a structured
// value that the manifest signer and verifier both sign/verify over.
//
// The contract (spec 4.1): mapping keys sorted by Unicode code point, no
// insignificant whitespace, UTF-8 strings escaped only as JSON requires
// (no HTML escaping of <, > or &; the characters U+2028 and U+2029 are
// still written as JSON unicode escapes), decimal numbers, array order
// preserved, recursive application.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Encode renders v as canonical JSON bytes. v must be built from the
// types json.Unmarshal into an any produces when decoded with
// UseNumber (map[string]any, []any, json.Number, string, bool, nil),
// or a plain Go value accepted by encoding/json for the scalar cases.
func Encode(v any) ([]byte, error) {
	node, err := canonicalize(v)
	if err != nil {
		return nil, err
	}
	return marshal(node)
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// canonicalize walks v, turning every map into an orderedObject whose
// MarshalJSON emits keys sorted by Go's native (byte-wise, hence
// code-point-wise for valid UTF-8) string ordering.
func canonicalize(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			c, err := canonicalize(elem)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case json.Number, string, bool, nil:
		return val, nil
	default:
		// Scalars coming from hand-built Go structs (int, float64, ...)
		// round-trip through json.Marshal/Unmarshal untouched.
		return val, nil
	}
}

func canonicalizeMap(m map[string]any) (*orderedObject, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys) // byte-wise == Unicode code-point order for UTF-8

	obj := &orderedObject{keys: keys, values: make(map[string]any, len(m))}
	for _, k := range keys {
		c, err := canonicalize(m[k])
		if err != nil {
			return nil, fmt.Errorf("canon: key %q: %w", k, err)
		}
		obj.values[k] = c
	}
	return obj, nil
}

// orderedObject marshals a map in the key order stored in keys, so the
// canonical order is explicit in this package rather than left to
// encoding/json.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	if len(o.keys) == 0 {
		return []byte("{}"), nil
	}
	buf := make([]byte, 0, 64)
	buf = append(buf, '{')
	for i, k := range o.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// FilesMap converts a plain path→hash mapping into the map[string]any
// shape Encode expects, so callers don't have to do the conversion by
// hand at every call site.
func FilesMap(files map[string]string) map[string]any {
	out := make(map[string]any, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out
}
