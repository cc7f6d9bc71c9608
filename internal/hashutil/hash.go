// Package hashutil provides deterministic content hashing shared by the
// repository snapshot's content_hash and the podcast record's cache_key,
// both of which need stable hashes over structured inputs. The hash is
// order-sensitive: each field's position matters, so callers sort fields
// wherever their order should not change the result.
package hashutil

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Hasher accumulates fields into a single SHA-256 digest. Each WriteString
// call is length-prefixed so that ("ab", "c") and ("a", "bc") never collide.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a fresh hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// WriteString appends s to the digest, length-prefixed.
func (s *Hasher) WriteString(str string) *Hasher {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(str)))
	s.h.Write(lenBuf[:])
	s.h.Write([]byte(str))
	return s
}

// Sum returns the lowercase hex digest.
func (s *Hasher) Sum() string {
	return hex.EncodeToString(s.h.Sum(nil))
}
