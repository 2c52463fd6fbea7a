// Package txid recovers a transaction identifier from a wallet bridge
// response whose shape is not known in advance.
package txid

import (
	"encoding/json"
	"strings"
)

// singularKeys are checked in this order on every object.
var singularKeys = []string{
	"transaction_id",
	"transactionHash",
	"txHash",
	"hash",
	"id",
	"transaction",
	"tx",
	"txId",
	"transactionId",
}

// Extract returns a 0x-prefixed identifier found in v, or "". It never
// panics and is deterministic for a given input. json.RawMessage and []byte
// are parsed as JSON; other values are walked as decoded Go values.
func Extract(v interface{}) string {
	root, err := fromValue(v, 0)
	if err != nil {
		return ""
	}
	return extract(root)
}

// ExtractJSON is Extract for a raw bridge response.
func ExtractJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	root, err := parse(raw)
	if err != nil {
		return ""
	}
	return extract(root)
}

func extract(root *node) string {
	if id := matchVariant(root, 0); id != "" {
		return id
	}
	return scan(root, 0)
}

// matchVariant recognizes the response shapes bridges are known to return:
//
//	"0xabc"                                   bare string
//	{"commandPayload":…, "finalPayload":{…}}   command envelope
//	{"status":"success", "transaction_id":…}   final payload
//	{"transactionHash":"0x…"}                  hash receipt
func matchVariant(n *node, depth int) string {
	if n == nil || depth > MaxDepth {
		return ""
	}
	switch n.kind {
	case kindString:
		return normalize(n.str)
	case kindObject:
		if id := singularField(n); id != "" {
			return id
		}
		if final, ok := n.get("finalPayload"); ok {
			if id := matchVariant(final, depth+1); id != "" {
				return id
			}
			return scan(final, depth+1)
		}
	}
	return ""
}

// scan is the field-scan heuristic: singular keys first, then the first
// element of an array, then nested objects and arrays in order.
func scan(n *node, depth int) string {
	if n == nil || depth > MaxDepth {
		return ""
	}

	switch n.kind {
	case kindString:
		return normalize(n.str)
	case kindArray:
		if len(n.items) == 0 {
			return ""
		}
		return scan(n.items[0], depth+1)
	case kindObject:
		if id := singularField(n); id != "" {
			return id
		}
		for _, f := range n.fields {
			if f.value.kind != kindObject && f.value.kind != kindArray {
				continue
			}
			if id := scan(f.value, depth+1); id != "" {
				return id
			}
		}
	}
	return ""
}

// singularField returns the first usable identifier under a singular key of
// an object. Top-level keys win over anything nested.
func singularField(n *node) string {
	for _, key := range singularKeys {
		if s, ok := n.stringField(key); ok {
			if id := normalize(s); id != "" {
				return id
			}
		}
	}
	return ""
}

// normalize keeps 0x-prefixed strings verbatim and prefixes pure hex.
func normalize(s string) string {
	if strings.HasPrefix(s, "0x") {
		return s
	}
	if s == "" {
		return ""
	}
	for _, c := range s {
		if !isHexDigit(c) {
			return ""
		}
	}
	return "0x" + s
}

func isHexDigit(c rune) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
