// Package witness computes deterministic witness identifiers for gate
// failures. The id is a pure function of (class, lawRef, tokenPath, context):
// any two conforming implementations must emit byte-identical ids for
// identical inputs, because ids are embedded in persisted audit artifacts
// that independent tool runs compare verbatim.
package witness

import (
	"crypto/sha256"
	"encoding/base32"
	"strings"

	"github.com/workingdoge/premath-sub002/pkg/canonjson"
)

// Schema is the witness key schema version baked into every id.
const Schema = 1

var base32hex = base32.HexEncoding.WithPadding(base32.NoPadding)

// ComputeWitnessID builds the canonical key object
// {schema:1, class, context|null, lawRef, tokenPath|null}, serializes it as
// RFC 8785 canonical JSON, hashes the canonical bytes with SHA-256, and
// encodes the digest as lowercase unpadded RFC 4648 base32hex under a "w1_"
// prefix.
func ComputeWitnessID(class, lawRef string, tokenPath *string, context map[string]any) (string, error) {
	key := map[string]any{
		"schema":  Schema,
		"class":   class,
		"lawRef":  lawRef,
		"context": nil,
	}
	if context != nil {
		key["context"] = context
	}
	if tokenPath != nil {
		key["tokenPath"] = *tokenPath
	} else {
		key["tokenPath"] = nil
	}
	b, err := canonjson.Marshal(key)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "w1_" + strings.ToLower(base32hex.EncodeToString(sum[:])), nil
}
