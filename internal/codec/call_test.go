package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCall(t *testing.T) {
	reg := NewStaticRegistry().AddCall("Balances", "transfer", CallIndex{Section: 5, Method: 0})

	call, err := NewCall(reg, "Balances", "transfer", []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 0, 0xde, 0xad}, call.Encode())
	assert.Equal(t, "Balances.transfer(0xdead)", call.String())

	_, err = NewCall(reg, "Balances", "burn", nil)
	require.Error(t, err)
}

func TestParseCallIndex(t *testing.T) {
	idx, err := ParseCallIndex("1f02")
	require.NoError(t, err)
	assert.Equal(t, CallIndex{Section: 0x1f, Method: 2}, idx)
	assert.Equal(t, "1f02", idx.String())

	for _, bad := range []string{"", "1f", "zz00", "1f0203"} {
		_, err := ParseCallIndex(bad)
		require.Error(t, err, bad)
	}
}

func TestStaticRegistry_ErrorName(t *testing.T) {
	reg := NewStaticRegistry().AddError(31, 3, "Multisig", "AlreadyApproved")

	pallet, name, ok := reg.ErrorName(31, 3)
	require.True(t, ok)
	assert.Equal(t, "Multisig", pallet)
	assert.Equal(t, "AlreadyApproved", name)

	_, _, ok = reg.ErrorName(31, 4)
	assert.False(t, ok)
}

func TestDecodeCall(t *testing.T) {
	call, err := DecodeCall([]byte{0x00, 0x01, 0x10, 0x68, 0x69})
	require.NoError(t, err)
	assert.Equal(t, CallIndex{Section: 0, Method: 1}, call.Index)
	assert.Equal(t, []byte{0x00, 0x01, 0x10, 0x68, 0x69}, call.Encode())

	_, err = DecodeCall([]byte{0x00})
	require.Error(t, err)
}
