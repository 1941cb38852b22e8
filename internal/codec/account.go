package codec

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/go-faster/errors"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

const (
	accountIDLength = 32
	ss58Prefix      = "SS58PRE"
	checksumLength  = 2
	maxSS58Format   = 16383
)

// AccountID is a 32 byte Substrate account identifier (a public key).
type AccountID [accountIDLength]byte

// ParseAccountID accepts a 0x-prefixed hex public key or an SS58 address.
func ParseAccountID(s string) (AccountID, error) {
	if strings.HasPrefix(s, "0x") {
		return AccountIDFromHex(s)
	}
	id, _, err := DecodeSS58(s)
	return id, err
}

func AccountIDFromHex(s string) (AccountID, error) {
	var id AccountID
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, errors.Wrap(err, "account id hex")
	}
	return AccountIDFromBytes(raw)
}

func AccountIDFromBytes(raw []byte) (AccountID, error) {
	var id AccountID
	if len(raw) != accountIDLength {
		return id, errors.Errorf("account id must be %d bytes, got %d", accountIDLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id AccountID) Bytes() []byte {
	return id[:]
}

func (id AccountID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id AccountID) String() string {
	return id.Hex()
}

// Less orders account ids the way the runtime sorts signatories.
func (id AccountID) Less(other AccountID) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// SS58 encodes the account id with the given network format.
func (id AccountID) SS58(format uint16) string {
	var ident []byte
	switch {
	case format < 64:
		ident = []byte{byte(format)}
	default:
		format &= maxSS58Format
		first := byte((format&0b0000_0000_1111_1100)>>2) | 0b0100_0000
		second := byte(format>>8) | byte(format&0b0000_0000_0000_0011)<<6
		ident = []byte{first, second}
	}

	payload := append(ident, id[:]...)
	checksum := ss58Checksum(payload)
	return base58.Encode(append(payload, checksum[:checksumLength]...))
}

// DecodeSS58 decodes an SS58 address into its account id and network format.
func DecodeSS58(address string) (AccountID, uint16, error) {
	var id AccountID
	data, err := base58.Decode(address)
	if err != nil {
		return id, 0, errors.Wrap(err, "ss58 base58")
	}
	if len(data) < 2 {
		return id, 0, errors.New("ss58 address too short")
	}

	var (
		format    uint16
		prefixLen int
	)
	switch {
	case data[0] < 64:
		format = uint16(data[0])
		prefixLen = 1
	case data[0] < 128:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		format = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return id, 0, errors.Errorf("ss58 reserved prefix byte %d", data[0])
	}

	if len(data) != prefixLen+accountIDLength+checksumLength {
		return id, 0, errors.Errorf("ss58 address has unexpected length %d", len(data))
	}
	payload := data[:len(data)-checksumLength]
	checksum := ss58Checksum(payload)
	if !bytes.Equal(checksum[:checksumLength], data[len(data)-checksumLength:]) {
		return id, 0, errors.New("ss58 checksum mismatch")
	}
	copy(id[:], payload[prefixLen:])
	return id, format, nil
}

func ss58Checksum(payload []byte) [blake2b.Size]byte {
	return blake2b.Sum512(append([]byte(ss58Prefix), payload...))
}
