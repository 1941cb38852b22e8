package extrinsic

import (
	"encoding/json"
	"testing"

	"go-multisig/internal/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		want     TxStatus
		rejected bool
	}{
		{raw: `"future"`, want: TxStatus{Kind: StatusFuture}},
		{raw: `"ready"`, want: TxStatus{Kind: StatusReady}},
		{raw: `"dropped"`, want: TxStatus{Kind: StatusDropped}, rejected: true},
		{raw: `"invalid"`, want: TxStatus{Kind: StatusInvalid}, rejected: true},
		{raw: `{"broadcast":["12D3KooW"]}`, want: TxStatus{Kind: StatusBroadcast}},
		{raw: `{"inBlock":"0xaa"}`, want: TxStatus{Kind: StatusInBlock, BlockHash: "0xaa"}},
		{raw: `{"retracted":"0xaa"}`, want: TxStatus{Kind: StatusRetracted, BlockHash: "0xaa"}},
		{raw: `{"finalityTimeout":"0xbb"}`, want: TxStatus{Kind: StatusFinalityTimeout, BlockHash: "0xbb"}},
		{raw: `{"finalized":"0xcc"}`, want: TxStatus{Kind: StatusFinalized, BlockHash: "0xcc"}},
		{raw: `{"usurped":"0xdd"}`, want: TxStatus{Kind: StatusUsurped, BlockHash: "0xdd"}, rejected: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, err := ParseStatus(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.rejected, status.Rejected())
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	for _, raw := range []string{`"pending"`, `{"inBlock":1}`, `{"a":"x","b":"y"}`, `{"somewhere":"0x"}`, `7`} {
		_, err := ParseStatus(json.RawMessage(raw))
		require.Error(t, err, raw)
		assert.True(t, errs.IsDecode(err), raw)
	}
}
