// Package callhash derives the identifier the multisig pallet uses for a call.
package callhash

import (
	"encoding/hex"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/blake2b"
)

// Fingerprint is the blake2b-256 hash of an encoded call. It keys pending
// operations on chain.
type Fingerprint [blake2b.Size256]byte

// Of returns the fingerprint of an encoded call (call index followed by
// encoded arguments).
func Of(encodedCall []byte) Fingerprint {
	return blake2b.Sum256(encodedCall)
}

// Parse reads a 0x-prefixed or bare hex fingerprint.
func Parse(s string) (Fingerprint, error) {
	var fp Fingerprint
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fp, errors.Wrap(err, "call hash hex")
	}
	if len(raw) != len(fp) {
		return fp, errors.Errorf("call hash must be %d bytes, got %d", len(fp), len(raw))
	}
	copy(fp[:], raw)
	return fp, nil
}

func (f Fingerprint) Bytes() []byte {
	return f[:]
}

func (f Fingerprint) Hex() string {
	return "0x" + hex.EncodeToString(f[:])
}

func (f Fingerprint) String() string {
	return f.Hex()
}

func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
