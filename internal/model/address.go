package model

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"
)

// AddressSize is the encoded size of an Address: 1-byte kind + 32-byte hash.
const AddressSize = 1 + HashSize

// AddressKind distinguishes externally owned accounts from smart contracts.
type AddressKind uint8

const (
	// AddressUser is an account controlled by a key pair.
	AddressUser AddressKind = 0
	// AddressSC is a smart contract account.
	AddressSC AddressKind = 1
)

const (
	prefixUser = "AU"
	prefixSC   = "AS"

	addressVersion  = 0
	addressChecksum = 4
)

// Address identifies a ledger account.
type Address struct {
	Kind AddressKind
	Hash Hash
}

// UserAddress derives a user address from arbitrary seed bytes (typically a public key).
func UserAddress(seed []byte) Address {
	return Address{Kind: AddressUser, Hash: Hash(blake3.Sum256(seed))}
}

// SCAddress derives a smart contract address from arbitrary seed bytes.
func SCAddress(seed []byte) Address {
	return Address{Kind: AddressSC, Hash: Hash(blake3.Sum256(seed))}
}

// Compare orders addresses by kind, then hash bytes.
func (a Address) Compare(o Address) int {
	if a.Kind != o.Kind {
		if a.Kind < o.Kind {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.Hash[:], o.Hash[:])
}

// String renders the address as a prefixed base58 string with a 4-byte checksum.
func (a Address) String() string {
	prefix := prefixUser
	if a.Kind == AddressSC {
		prefix = prefixSC
	}
	payload := make([]byte, 0, 1+HashSize+addressChecksum)
	payload = append(payload, addressVersion)
	payload = append(payload, a.Hash[:]...)
	sum := blake3.Sum256(payload)
	payload = append(payload, sum[:addressChecksum]...)
	return prefix + base58.Encode(payload)
}

// ParseAddress parses the form produced by String.
func ParseAddress(s string) (Address, error) {
	var kind AddressKind
	switch {
	case strings.HasPrefix(s, prefixUser):
		kind = AddressUser
	case strings.HasPrefix(s, prefixSC):
		kind = AddressSC
	default:
		return Address{}, fmt.Errorf("parse address %q: unknown prefix", s)
	}
	raw, err := base58.Decode(s[2:])
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	if len(raw) != 1+HashSize+addressChecksum {
		return Address{}, fmt.Errorf("parse address %q: wrong length %d", s, len(raw))
	}
	if raw[0] != addressVersion {
		return Address{}, fmt.Errorf("parse address %q: unsupported version %d", s, raw[0])
	}
	body := raw[:1+HashSize]
	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:addressChecksum], raw[1+HashSize:]) {
		return Address{}, fmt.Errorf("parse address %q: bad checksum", s)
	}
	var a Address
	a.Kind = kind
	copy(a.Hash[:], raw[1:1+HashSize])
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func appendAddress(buf []byte, a Address) []byte {
	buf = append(buf, byte(a.Kind))
	return append(buf, a.Hash[:]...)
}
