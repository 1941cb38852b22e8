package extrinsic

import (
	"bytes"
	"testing"

	"go-multisig/internal/codec"
	"go-multisig/internal/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestMortalEra(t *testing.T) {
	tests := []struct {
		name    string
		current uint64
		period  uint64
		want    Era
		encoded []byte
	}{
		{name: "small", current: 42, period: 64, want: Era{Period: 64, Phase: 42}, encoded: []byte{0xa5, 0x02}},
		{name: "quantized", current: 20000, period: 32768, want: Era{Period: 32768, Phase: 20000}, encoded: []byte{0x4e, 0x9c}},
		{name: "rounded up", current: 300, period: 100, want: Era{Period: 128, Phase: 44}},
		{name: "clamped low", current: 7, period: 2, want: Era{Period: 4, Phase: 3}},
		{name: "clamped high", current: 70000, period: 1 << 20, want: Era{Period: 65536, Phase: 4464 / 16 * 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			era := MortalEra(tt.current, tt.period)
			assert.Equal(t, tt.want, era)
			if tt.encoded != nil {
				assert.Equal(t, tt.encoded, era.Encode())
			}
		})
	}
}

func TestEra_Immortal(t *testing.T) {
	era := MortalEra(100, 0)
	assert.True(t, era.Immortal)
	assert.Equal(t, []byte{0x00}, era.Encode())
	assert.Equal(t, uint64(0), era.Birth(100))
}

func TestEra_Birth(t *testing.T) {
	era := MortalEra(1000, 64)
	assert.Equal(t, uint64(1000), era.Birth(1000))
	assert.Equal(t, uint64(1000), era.Birth(1010))
	assert.Equal(t, uint64(1064), era.Birth(1064))

	early := MortalEra(6, 4)
	assert.Equal(t, uint64(6), early.Birth(7))
}

func TestSigningPayload_Bytes(t *testing.T) {
	payload := SigningPayload{
		Call:               []byte{0x1f, 0x02, 0xaa},
		Era:                Era{Immortal: true},
		Nonce:              5,
		Tip:                0,
		SpecVersion:        30,
		TransactionVersion: 11,
		GenesisHash:        [32]byte{1},
		BlockHash:          [32]byte{1},
	}
	raw, err := payload.Bytes()
	require.NoError(t, err)

	want := []byte{0x1f, 0x02, 0xaa, 0x00, 0x14, 0x00, 30, 0, 0, 0, 11, 0, 0, 0}
	want = append(want, payload.GenesisHash[:]...)
	want = append(want, payload.BlockHash[:]...)
	assert.Equal(t, want, raw)
}

func TestSigningPayload_LongPayloadIsHashed(t *testing.T) {
	payload := SigningPayload{Call: bytes.Repeat([]byte{0x01}, 300), Era: Era{Immortal: true}}
	raw, err := payload.Bytes()
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	full, err := (&codec.Encoder{}).
		Raw(payload.Call).Raw([]byte{0x00}).Compact(0).Compact(0).
		Push(uint32(0)).Push(uint32(0)).Raw(make([]byte, 64)).Bytes()
	require.NoError(t, err)
	hashed := blake2b.Sum256(full)
	assert.Equal(t, hashed[:], raw)
}

func TestEncodeSigned(t *testing.T) {
	signer := codec.AccountID{0xd4, 0x35}
	signature := bytes.Repeat([]byte{0x07}, 64)
	call := []byte{0x1f, 0x02, 0xaa}

	encoded, err := EncodeSigned(signer, keys.SchemeSr25519, signature, MortalEra(42, 64), 3, 0, call)
	require.NoError(t, err)

	// 1 version + 1 address tag + 32 signer + 1 scheme + 64 signature + 2 era + 1 nonce + 1 tip + 3 call
	bodyLen := 106
	require.Len(t, encoded, 2+bodyLen)
	assert.Equal(t, []byte{0xa9, 0x01}, encoded[:2])
	body := encoded[2:]
	assert.Equal(t, byte(0x84), body[0])
	assert.Equal(t, byte(0x00), body[1])
	assert.Equal(t, signer.Bytes(), body[2:34])
	assert.Equal(t, byte(keys.SchemeSr25519), body[34])
	assert.Equal(t, signature, body[35:99])
	assert.Equal(t, []byte{0xa5, 0x02}, body[99:101])
	assert.Equal(t, []byte{0x0c, 0x00}, body[101:103])
	assert.Equal(t, call, body[103:])
}
