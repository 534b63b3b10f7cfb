package keys

import (
	"bytes"
	"encoding/base32"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address format mandates ripemd160
	"golang.org/x/crypto/sha3"

	"github.com/haasonsaas/chaingate/internal/errs"
)

// AddressSize is the byte length of a decoded account address: one network
// byte, a 160-bit public-key hash, and a 4-byte checksum.
const AddressSize = 25

const addressChecksumSize = 4

// Network identifies the address network byte derived from config.
type Network byte

const (
	NetworkMijin      Network = 0x60
	NetworkMijinTest  Network = 0x90
	NetworkPublic     Network = 0x68
	NetworkPublicTest Network = 0x98
)

// NetworkByName maps the configured network name to its address byte.
func NetworkByName(name string) (Network, error) {
	switch name {
	case "mijin":
		return NetworkMijin, nil
	case "mijinTest":
		return NetworkMijinTest, nil
	case "public", "mainnet":
		return NetworkPublic, nil
	case "publicTest", "testnet":
		return NetworkPublicTest, nil
	default:
		return 0, errs.InvalidFormat("network name %q", name)
	}
}

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// Address is a decoded 25-byte account address.
type Address [AddressSize]byte

// ParseAddress parses an address given as 40-character base32 or
// 50-character hex. The checksum is verified in both forms.
func ParseAddress(s string) (Address, error) {
	var raw []byte
	switch {
	case len(s) == 2*AddressSize && IsHexOfLength(s, 2*AddressSize):
		raw, _ = hex.DecodeString(s)
	case len(s) == 40:
		b, err := addressEncoding.DecodeString(strings.ToUpper(s))
		if err != nil || len(b) != AddressSize {
			return Address{}, errs.InvalidFormat("address %q", s)
		}
		raw = b
	default:
		return Address{}, errs.InvalidFormat("address %q: want 40 base32 or 50 hex chars", s)
	}

	var a Address
	copy(a[:], raw)
	if !a.checksumOK() {
		return Address{}, errs.InvalidFormat("address %q: bad checksum", s)
	}
	return a, nil
}

// AddressFromPublicKey derives the address of a public key on the given
// network: sha3-256 of the key, ripemd160 of that, network byte prefix,
// then a 4-byte sha3-256 checksum over the first 21 bytes.
func AddressFromPublicKey(publicKey []byte, network Network) (Address, error) {
	if len(publicKey) != PublicKeySize {
		return Address{}, errs.InvalidFormat("public key: want %d bytes", PublicKeySize)
	}

	keyHash := sha3.Sum256(publicKey)
	r := ripemd160.New()
	r.Write(keyHash[:]) // never fails
	hash160 := r.Sum(nil)

	var a Address
	a[0] = byte(network)
	copy(a[1:], hash160)
	sum := sha3.Sum256(a[:1+ripemd160.Size])
	copy(a[1+ripemd160.Size:], sum[:addressChecksumSize])
	return a, nil
}

// String returns the 40-character base32 form.
func (a Address) String() string {
	return addressEncoding.EncodeToString(a[:])
}

// Bytes returns the raw 25-byte form, the shape stored in account documents.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

func (a Address) checksumOK() bool {
	sum := sha3.Sum256(a[:1+ripemd160.Size])
	return bytes.Equal(a[1+ripemd160.Size:], sum[:addressChecksumSize])
}
