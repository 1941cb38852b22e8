// Package keys holds the signers extrinsics are signed with. Key material
// never leaves a Signer.
package keys

import (
	"encoding/hex"
	"strings"

	"go-multisig/internal/codec"

	"github.com/ChainSafe/gossamer/lib/crypto/sr25519"
	"github.com/go-faster/errors"
	"golang.org/x/crypto/ed25519"
)

const seedLength = 32

// Scheme is the MultiSignature variant tag of a signature.
type Scheme uint8

const (
	SchemeEd25519 Scheme = 0
	SchemeSr25519 Scheme = 1
)

func (s Scheme) String() string {
	switch s {
	case SchemeEd25519:
		return "ed25519"
	case SchemeSr25519:
		return "sr25519"
	}
	return "unknown"
}

// ParseScheme accepts "sr25519" or "ed25519".
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(s) {
	case "sr25519", "":
		return SchemeSr25519, nil
	case "ed25519":
		return SchemeEd25519, nil
	}
	return 0, errors.Errorf("unknown signature scheme %q", s)
}

// Signer signs extrinsic payloads for one account.
type Signer interface {
	AccountID() codec.AccountID
	Scheme() Scheme
	Sign(payload []byte) ([]byte, error)
}

type sr25519Signer struct {
	keypair *sr25519.Keypair
	account codec.AccountID
}

// NewSr25519Signer builds a signer from a 32 byte mini secret seed.
func NewSr25519Signer(seed []byte) (Signer, error) {
	if len(seed) != seedLength {
		return nil, errors.Errorf("sr25519 seed must be %d bytes, got %d", seedLength, len(seed))
	}
	kp, err := sr25519.NewKeypairFromSeed(seed)
	if err != nil {
		return nil, errors.Wrap(err, "sr25519 keypair")
	}
	account, err := codec.AccountIDFromBytes(kp.Public().Encode())
	if err != nil {
		return nil, err
	}
	return &sr25519Signer{keypair: kp, account: account}, nil
}

func (s *sr25519Signer) AccountID() codec.AccountID {
	return s.account
}

func (s *sr25519Signer) Scheme() Scheme {
	return SchemeSr25519
}

func (s *sr25519Signer) Sign(payload []byte) ([]byte, error) {
	return s.keypair.Sign(payload)
}

type ed25519Signer struct {
	key     ed25519.PrivateKey
	account codec.AccountID
}

// NewEd25519Signer builds a signer from a 32 byte seed.
func NewEd25519Signer(seed []byte) (Signer, error) {
	if len(seed) != seedLength {
		return nil, errors.Errorf("ed25519 seed must be %d bytes, got %d", seedLength, len(seed))
	}
	key := ed25519.NewKeyFromSeed(seed)
	account, err := codec.AccountIDFromBytes(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &ed25519Signer{key: key, account: account}, nil
}

func (s *ed25519Signer) AccountID() codec.AccountID {
	return s.account
}

func (s *ed25519Signer) Scheme() Scheme {
	return SchemeEd25519
}

func (s *ed25519Signer) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}

// FromSeedHex builds a signer of the named scheme from a hex seed.
func FromSeedHex(scheme string, seedHex string) (Signer, error) {
	sch, err := ParseScheme(scheme)
	if err != nil {
		return nil, err
	}
	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "seed hex")
	}
	if sch == SchemeEd25519 {
		return NewEd25519Signer(seed)
	}
	return NewSr25519Signer(seed)
}
