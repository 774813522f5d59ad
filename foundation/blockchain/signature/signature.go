// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ZeroHash represents a hash code of zeros. The genesis block uses this
// value as the hash of its non-existent parent.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Prefix is the marker every signature produced by this package starts with.
const Prefix = "signed_"

// hashLength is the number of hex digits in a hash, not counting the 0x.
const hashLength = 64

// =============================================================================

// Hash returns a unique string for the value. The value is encoded as JSON
// which keeps the field order of the struct, so the same value always
// produces the same hash. A value that can't be encoded has no hash and an
// empty string is returned, which never passes IsHash or IsHashSolved.
func Hash(value any) string {
	hash, err := Digest(value)
	if err != nil {
		return ""
	}

	return hash
}

// Digest works like Hash but reports why the value could not be encoded.
func Digest(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding value: %w", err)
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:]), nil
}

// IsHash validates the string is a 0x prefixed hex encoding of 32 bytes.
func IsHash(hash string) bool {
	b, err := hexutil.Decode(hash)
	if err != nil {
		return false
	}

	return len(b) == sha256.Size
}

// IsHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0 hex digits.
func IsHashSolved(difficulty uint, hash string) bool {
	if !strings.HasPrefix(hash, "0x") || len(hash) != hashLength+2 {
		return false
	}

	if difficulty > hashLength {
		return false
	}

	digits := hash[2:]
	for i := uint(0); i < difficulty; i++ {
		if digits[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// Signer represents the behavior required to sign the content hash of a
// transaction. This allows a different signature scheme to be used without
// changing how blocks or the ledger work.
type Signer interface {
	Sign(hash string) (string, error)
}

// Placeholder is the default signer. It is not cryptography: the signature
// is derived from the content hash and an optional key string, so anyone can
// produce it.
type Placeholder struct {
	Key string
}

// Sign implements the Signer interface. Signing the same hash with the same
// key always produces the same signature.
func (p Placeholder) Sign(hash string) (string, error) {
	if p.Key == "" {
		return Prefix + hash, nil
	}

	return Prefix + "with_" + p.Key + "_" + hash, nil
}

// WellFormed checks the signature follows the signature convention.
func WellFormed(sig string) bool {
	return len(sig) > len(Prefix) && strings.HasPrefix(sig, Prefix)
}
