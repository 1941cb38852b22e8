package callhash

import (
	"testing"

	"go-multisig/internal/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOf(t *testing.T) {
	reg := codec.NewStaticRegistry().
		AddCall("System", "remark", codec.CallIndex{Section: 0, Method: 1}).
		AddCall("System", "remark_with_event", codec.CallIndex{Section: 0, Method: 8})

	remark, err := codec.NewCall(reg, "System", "remark", []byte{0x04, 0x2a})
	require.NoError(t, err)
	again, err := codec.NewCall(reg, "System", "remark", []byte{0x04, 0x2a})
	require.NoError(t, err)
	other, err := codec.NewCall(reg, "System", "remark", []byte{0x04, 0x2b})
	require.NoError(t, err)
	otherCall, err := codec.NewCall(reg, "System", "remark_with_event", []byte{0x04, 0x2a})
	require.NoError(t, err)

	fp := Of(remark.Encode())
	assert.Equal(t, fp, Of(again.Encode()))
	assert.NotEqual(t, fp, Of(other.Encode()))
	assert.NotEqual(t, fp, Of(otherCall.Encode()))
	assert.False(t, fp.IsZero())
}

func TestOf_KnownVector(t *testing.T) {
	// blake2b-256 of the empty input
	assert.Equal(t, "0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8", Of(nil).Hex())
}

func TestParse(t *testing.T) {
	fp := Of([]byte{1, 2, 3})

	parsed, err := Parse(fp.Hex())
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	parsed, err = Parse(fp.Hex()[2:])
	require.NoError(t, err)
	assert.Equal(t, fp, parsed)

	_, err = Parse("0x1234")
	require.Error(t, err)
	_, err = Parse("0xzz")
	require.Error(t, err)
}
