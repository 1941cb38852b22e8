package codec

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/OneOfOne/xxhash"
	"github.com/go-faster/errors"
	"golang.org/x/crypto/blake2b"
)

// Hasher is a storage map key hasher.
type Hasher func(key []byte) []byte

// Twox64Concat hashes key with xxhash64 and appends the key.
func Twox64Concat(key []byte) []byte {
	out := make([]byte, 8, 8+len(key))
	binary.LittleEndian.PutUint64(out, xxhash.Checksum64S(key, 0))
	return append(out, key...)
}

// Blake2_128Concat hashes key with blake2b-128 and appends the key.
func Blake2_128Concat(key []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(key)
	return append(h.Sum(nil), key...)
}

func Identity(key []byte) []byte {
	return key
}

// StorageKey builds the raw key of a storage item, or of one entry of a map
// when keys are given as already hashed parts.
func StorageKey(pallet, item string, hashedKeys ...[]byte) ([]byte, error) {
	palletHash, err := common.Twox128Hash([]byte(pallet))
	if err != nil {
		return nil, errors.Wrap(err, "pallet prefix")
	}
	itemHash, err := common.Twox128Hash([]byte(item))
	if err != nil {
		return nil, errors.Wrap(err, "item prefix")
	}

	key := append(palletHash, itemHash...)
	for _, k := range hashedKeys {
		key = append(key, k...)
	}
	return key, nil
}

// HexKey formats a storage key as the 0x-prefixed string the RPC expects.
func HexKey(key []byte) string {
	return "0x" + hex.EncodeToString(key)
}
