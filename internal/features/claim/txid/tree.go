package txid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// MaxDepth bounds nesting for both parsing and search.
const MaxDepth = 32

type kind int

const (
	kindNull kind = iota
	kindString
	kindScalar
	kindObject
	kindArray
)

type field struct {
	key   string
	value *node
}

// node is a JSON value that keeps object fields in document order.
type node struct {
	kind   kind
	str    string
	fields []field
	items  []*node
}

func (n *node) get(key string) (*node, bool) {
	for _, f := range n.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

func (n *node) stringField(key string) (string, bool) {
	v, ok := n.get(key)
	if !ok || v.kind != kindString {
		return "", false
	}
	return v.str, true
}

// parse decodes raw into an ordered tree. Values nested deeper than MaxDepth
// are skipped and appear as null.
func parse(raw []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	n, err := parseValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after JSON value")
	}
	return n, nil
}

func parseValue(dec *json.Decoder, depth int) (*node, error) {
	if depth > MaxDepth {
		var skipped json.RawMessage
		if err := dec.Decode(&skipped); err != nil {
			return nil, err
		}
		return &node{kind: kindNull}, nil
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return &node{kind: kindNull}, nil
	case string:
		return &node{kind: kindString, str: t}, nil
	case json.Delim:
		switch t {
		case '{':
			n := &node{kind: kindObject}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				v, err := parseValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.fields = append(n.fields, field{key: key, value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		case '[':
			n := &node{kind: kindArray}
			for dec.More() {
				v, err := parseValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				n.items = append(n.items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return n, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	default:
		return &node{kind: kindScalar}, nil
	}
}

// fromValue converts a decoded Go value. Map keys have no inherent order and
// are visited sorted.
func fromValue(v interface{}, depth int) (*node, error) {
	if depth > MaxDepth {
		return &node{kind: kindNull}, nil
	}

	switch t := v.(type) {
	case nil:
		return &node{kind: kindNull}, nil
	case json.RawMessage:
		return parse(t)
	case []byte:
		return parse(t)
	case string:
		return &node{kind: kindString, str: t}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &node{kind: kindObject}
		for _, k := range keys {
			child, err := fromValue(t[k], depth+1)
			if err != nil {
				return nil, err
			}
			n.fields = append(n.fields, field{key: k, value: child})
		}
		return n, nil
	case map[string]string:
		generic := make(map[string]interface{}, len(t))
		for k, s := range t {
			generic[k] = s
		}
		return fromValue(generic, depth)
	case []interface{}:
		n := &node{kind: kindArray}
		for _, item := range t {
			child, err := fromValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			n.items = append(n.items, child)
		}
		return n, nil
	case []string:
		n := &node{kind: kindArray}
		for _, s := range t {
			n.items = append(n.items, &node{kind: kindString, str: s})
		}
		return n, nil
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return parse(raw)
	}
}
