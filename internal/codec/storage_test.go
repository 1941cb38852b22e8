package codec

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey_PlainValue(t *testing.T) {
	key, err := StorageKey("System", "Events")
	require.NoError(t, err)
	assert.Equal(t, "26aa394eea5630e07c48ae0c9558cef780d41e5e16056765bc8461851072c9d7", hex.EncodeToString(key))
}

func TestStorageKey_Blake2MapEntry(t *testing.T) {
	alice, err := AccountIDFromHex(aliceHex)
	require.NoError(t, err)

	key, err := StorageKey("System", "Account", Blake2_128Concat(alice.Bytes()))
	require.NoError(t, err)
	assert.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"+
			"de1e86a9a8c739864cf3cc5ec2bea59f"+
			"d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
		HexKey(key))
}

func TestTwox64Concat(t *testing.T) {
	key := []byte{1, 2, 3}
	hashed := Twox64Concat(key)
	require.Len(t, hashed, 8+len(key))
	assert.Equal(t, key, hashed[8:])
	assert.Equal(t, hashed, Twox64Concat(key))
	assert.NotEqual(t, hashed[:8], Twox64Concat([]byte{1, 2, 4})[:8])
}

func TestIdentity(t *testing.T) {
	assert.Equal(t, []byte{9, 9}, Identity([]byte{9, 9}))
}
