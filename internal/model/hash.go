package model

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// HashSize is the size in bytes of every hash in the pool.
const HashSize = 32

// Domain prefixes for content-addressed hashes.
// The version suffix follows CodecVersion.
const (
	DomainMessage = "asyncpool/message/v" + CodecVersion
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [HashSize]byte

// ZeroHash is the integrity hash of the empty pool and the identity element of Xor.
var ZeroHash Hash

// Xor returns h XOR o. Xor is commutative, associative and self-inverse, so
// folding an entry hash in twice removes it again.
func (h Hash) Xor(o Hash) Hash {
	var out Hash
	for i := range h {
		out[i] = h[i] ^ o[i]
	}
	return out
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == ZeroHash }

// String renders the hash as lowercase hex.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// HashFromBytes converts a persisted hash value. Anything other than exactly
// HashSize bytes is rejected.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("hash: expected %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// hashWithDomain computes BLAKE3 with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) Hash {
	hasher := blake3.New(HashSize, nil)
	hasher.Write([]byte(domain))
	hasher.Write([]byte{0x00})
	hasher.Write(data)
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}

// EntryHash is the contribution of one stored entry to the pool integrity hash:
// BLAKE3(serialized id ++ serialized message).
func EntryHash(idBytes, messageBytes []byte) Hash {
	hasher := blake3.New(HashSize, nil)
	hasher.Write(idBytes)
	hasher.Write(messageBytes)
	var h Hash
	copy(h[:], hasher.Sum(nil))
	return h
}
