package extrinsic

import (
	"encoding/binary"
	"math/bits"

	"go-multisig/internal/codec"
	"go-multisig/internal/keys"

	"golang.org/x/crypto/blake2b"
)

const (
	extrinsicVersionSigned = 0x84
	multiAddressID         = 0x00
	maxUnhashedPayload     = 256

	minEraPeriod = 4
	maxEraPeriod = 1 << 16
)

// Era is the validity window of a transaction.
type Era struct {
	Immortal bool
	Period   uint64
	Phase    uint64
}

// MortalEra builds the era valid for period blocks from current. The
// period is rounded up to a power of two in [4, 65536].
func MortalEra(current uint64, period uint64) Era {
	if period == 0 {
		return Era{Immortal: true}
	}
	p := uint64(1) << bits.Len64(period-1)
	if p < minEraPeriod {
		p = minEraPeriod
	}
	if p > maxEraPeriod {
		p = maxEraPeriod
	}
	quantizeFactor := p >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	phase := current % p / quantizeFactor * quantizeFactor
	return Era{Period: p, Phase: phase}
}

func (e Era) Encode() []byte {
	if e.Immortal {
		return []byte{0x00}
	}
	quantizeFactor := e.Period >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	low := uint64(bits.TrailingZeros64(e.Period)) - 1
	if low < 1 {
		low = 1
	}
	if low > 15 {
		low = 15
	}
	encoded := uint16(low) | uint16(e.Phase/quantizeFactor)<<4
	out := make([]byte, 2)
	binary.LittleEndian.PutUint16(out, encoded)
	return out
}

// Birth is the first block of the era that contains current.
func (e Era) Birth(current uint64) uint64 {
	if e.Immortal {
		return 0
	}
	start := current
	if start < e.Phase {
		start = e.Phase
	}
	return (start-e.Phase)/e.Period*e.Period + e.Phase
}

// SigningPayload is what the signer signs for a v4 extrinsic.
type SigningPayload struct {
	Call               []byte
	Era                Era
	Nonce              uint64
	Tip                uint64
	SpecVersion        uint32
	TransactionVersion uint32
	GenesisHash        [32]byte
	// BlockHash is the era's birth block, the genesis hash when immortal.
	BlockHash [32]byte
}

// Bytes returns the bytes to sign: the encoded payload, or its blake2b-256
// hash when longer than 256 bytes.
func (p SigningPayload) Bytes() ([]byte, error) {
	encoded, err := (&codec.Encoder{}).
		Raw(p.Call).
		Raw(p.Era.Encode()).
		Compact(p.Nonce).
		Compact(p.Tip).
		Push(p.SpecVersion).
		Push(p.TransactionVersion).
		Raw(p.GenesisHash[:]).
		Raw(p.BlockHash[:]).
		Bytes()
	if err != nil {
		return nil, err
	}
	if len(encoded) > maxUnhashedPayload {
		hashed := blake2b.Sum256(encoded)
		return hashed[:], nil
	}
	return encoded, nil
}

// EncodeSigned builds a signed v4 extrinsic, length prefixed as submitted.
func EncodeSigned(signer codec.AccountID, scheme keys.Scheme, signature []byte, era Era, nonce, tip uint64, call []byte) ([]byte, error) {
	body, err := (&codec.Encoder{}).
		Byte(extrinsicVersionSigned).
		Byte(multiAddressID).
		Raw(signer.Bytes()).
		Byte(byte(scheme)).
		Raw(signature).
		Raw(era.Encode()).
		Compact(nonce).
		Compact(tip).
		Raw(call).
		Bytes()
	if err != nil {
		return nil, err
	}
	return (&codec.Encoder{}).Compact(uint64(len(body))).Raw(body).Bytes()
}

// Hash is the transaction hash the node reports for an encoded extrinsic.
func Hash(encoded []byte) [32]byte {
	return blake2b.Sum256(encoded)
}
