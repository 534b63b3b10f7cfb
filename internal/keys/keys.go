// Package keys parses the natural keys accepted by the gateway: decimal
// heights, 16-hex u64 identifiers, 64-hex transaction hashes, 24-hex store
// document ids, and account addresses in base32 or hex form.
//
// Parsers reject with errs.ErrInvalidFormat so the route layer can map a
// malformed key to 409 without inspecting the message.
package keys

import (
	"encoding/hex"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haasonsaas/chaingate/internal/errs"
)

const (
	// HashSize is the byte length of a transaction or block hash.
	HashSize = 32

	// PublicKeySize is the byte length of an account public key.
	PublicKeySize = 32
)

// ParseHeight parses a decimal block height. Zero is a valid height for
// range-window purposes; callers that need a positive height check it.
func ParseHeight(s string) (uint64, error) {
	h, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.InvalidFormat("height %q", s)
	}
	return h, nil
}

// ParseUint64Hex parses a 16-character hex identifier (mosaic id,
// namespace id) into its u64 value.
func ParseUint64Hex(s string) (uint64, error) {
	if len(s) != 16 {
		return 0, errs.InvalidFormat("u64 id %q: want 16 hex chars", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errs.InvalidFormat("u64 id %q", s)
	}
	return v, nil
}

// ParseHash parses a 64-character hex hash.
func ParseHash(s string) ([]byte, error) {
	if len(s) != 2*HashSize {
		return nil, errs.InvalidFormat("hash %q: want %d hex chars", s, 2*HashSize)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.InvalidFormat("hash %q", s)
	}
	return b, nil
}

// ParsePublicKey parses a 64-character hex public key.
func ParsePublicKey(s string) ([]byte, error) {
	if len(s) != 2*PublicKeySize {
		return nil, errs.InvalidFormat("public key %q: want %d hex chars", s, 2*PublicKeySize)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errs.InvalidFormat("public key %q", s)
	}
	return b, nil
}

// ParseObjectID parses a 24-character hex store document id.
func ParseObjectID(s string) (primitive.ObjectID, error) {
	if len(s) != 24 {
		return primitive.NilObjectID, errs.InvalidFormat("document id %q: want 24 hex chars", s)
	}
	id, err := primitive.ObjectIDFromHex(strings.ToLower(s))
	if err != nil {
		return primitive.NilObjectID, errs.InvalidFormat("document id %q", s)
	}
	return id, nil
}

// IsHexOfLength reports whether s is exactly n hex characters. Used by
// resolver ordering to pick a parser without consuming the error.
func IsHexOfLength(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
