// Package contenthash provides the content-addressed identity primitive.
// A ContentHash is the lowercase hex SHA-256 of a definable's content; two
// equal hashes mean semantically identical content at the Set coherence
// level.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
)

type ContentHash string

func FromBytes(b []byte) ContentHash {
	sum := sha256.Sum256(b)
	return ContentHash(hex.EncodeToString(sum[:]))
}

func FromString(s string) ContentHash {
	return FromBytes([]byte(s))
}

func (h ContentHash) String() string { return string(h) }

// Short returns a 12-character prefix for logs and messages.
func (h ContentHash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// Builder accumulates named fields into a running SHA-256 state. Each field
// is framed as "name:value\n" and fed to the hash in the order the caller
// invokes the Field methods. The field order used for a given domain type is
// part of that type's hash contract: recomputing over unchanged fields must
// reproduce the identical hash.
type Builder struct {
	h hash.Hash
}

func NewBuilder() *Builder {
	return &Builder{h: sha256.New()}
}

func (b *Builder) Field(name, value string) *Builder {
	b.h.Write([]byte(name))
	b.h.Write([]byte{':'})
	b.h.Write([]byte(value))
	b.h.Write([]byte{'\n'})
	return b
}

func (b *Builder) FieldInt(name string, value int64) *Builder {
	return b.Field(name, strconv.FormatInt(value, 10))
}

func (b *Builder) FieldBool(name string, value bool) *Builder {
	return b.Field(name, strconv.FormatBool(value))
}

// FieldOpt feeds the field only when value is non-nil. A nil optional is
// indistinguishable from never calling FieldOpt for that name.
func (b *Builder) FieldOpt(name string, value *string) *Builder {
	if value == nil {
		return b
	}
	return b.Field(name, *value)
}

func (b *Builder) Finish() ContentHash {
	return ContentHash(hex.EncodeToString(b.h.Sum(nil)))
}
