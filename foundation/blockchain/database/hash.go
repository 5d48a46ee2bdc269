package database

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// ZeroHash represents a hash code of zeros. It is only returned when a block
// can't be serialized.
var ZeroHash = strings.Repeat("0", 64)

// Hash returns the hex encoded sha256 digest of the canonical form of the
// block. Every node must agree on this value for the same logical block.
func Hash(block Block) string {
	data, err := CanonicalJSON(block)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// CanonicalJSON returns the exact bytes that are hashed for a block.
//
// Keys are sorted at every level, separators are compact with no spaces,
// HTML characters are not escaped and there is no trailing newline. A nil
// transaction list is serialized as an empty list.
func CanonicalJSON(block Block) ([]byte, error) {
	trans := make([]map[string]any, len(block.Transactions))
	for i, tx := range block.Transactions {
		trans[i] = tx.canonical()
	}

	doc := map[string]any{
		"index":         block.Index,
		"previous_hash": block.PrevHash,
		"proof":         block.Proof,
		"timestamp":     block.Timestamp,
		"transactions":  trans,
	}

	return marshalCanonical(doc)
}

// marshalCanonical encodes maps with their keys sorted, which encoding/json
// guarantees for map values.
func marshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
