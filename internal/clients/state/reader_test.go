package state

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
	"go-multisig/internal/connection"
	"go-multisig/internal/errs"
	"go-multisig/internal/multisig"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

var (
	alice   = codec.AccountID{0x0a}
	bob     = codec.AccountID{0x0b}
	charlie = codec.AccountID{0x0c}
)

type fakeStorage struct {
	values map[string][]byte
	err    error
}

func (f *fakeStorage) GetStorage(_ context.Context, key []byte, _ string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.values[codec.HexKey(key)], nil
}

func encodeRecord(t *testing.T, when multisig.Timepoint, deposit uint64, depositor codec.AccountID, approvals ...codec.AccountID) []byte {
	t.Helper()
	var balance [balanceLength]byte
	for i := 0; i < 8; i++ {
		balance[i] = byte(deposit >> (8 * i))
	}
	raw, err := (&codec.Encoder{}).
		Push(when).
		Raw(balance[:]).
		Push(depositor).
		Push(approvals).
		Bytes()
	require.NoError(t, err)
	return raw
}

func signers(t *testing.T) multisig.SignerSet {
	t.Helper()
	set, err := multisig.NewSignerSet(2, charlie, alice, bob)
	require.NoError(t, err)
	return set
}

func TestMultisigAccount(t *testing.T) {
	set := signers(t)
	account, err := MultisigAccount(set)
	require.NoError(t, err)

	preimage := []byte(multisigAccountSeed)
	preimage = append(preimage, 0x0c)
	for _, id := range []codec.AccountID{alice, bob, charlie} {
		preimage = append(preimage, id[:]...)
	}
	preimage = append(preimage, 0x02, 0x00)
	assert.Equal(t, codec.AccountID(blake2b.Sum256(preimage)), account)

	reordered, err := multisig.NewSignerSet(2, bob, charlie, alice)
	require.NoError(t, err)
	same, err := MultisigAccount(reordered)
	require.NoError(t, err)
	assert.Equal(t, account, same)

	higher, err := multisig.NewSignerSet(3, alice, bob, charlie)
	require.NoError(t, err)
	other, err := MultisigAccount(higher)
	require.NoError(t, err)
	assert.NotEqual(t, account, other)
}

func TestReader_ReadPending(t *testing.T) {
	set := signers(t)
	fp := callhash.Of([]byte{0, 1, 4, 42})
	account, err := MultisigAccount(set)
	require.NoError(t, err)
	key, err := PendingKey(account, fp)
	require.NoError(t, err)

	storage := &fakeStorage{values: map[string][]byte{
		codec.HexKey(key): encodeRecord(t, multisig.Timepoint{Height: 77, Index: 3}, 4_000_000, alice, alice),
	}}
	reader := NewReader(storage, zap.NewNop())

	pending, err := reader.ReadPending(context.Background(), set, fp)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, fp, pending.Fingerprint)
	assert.Equal(t, multisig.Timepoint{Height: 77, Index: 3}, pending.When)
	assert.Equal(t, big.NewInt(4_000_000), pending.Deposit)
	assert.Equal(t, alice, pending.Depositor)
	assert.Equal(t, []codec.AccountID{alice}, pending.Approvals)

	absent, err := reader.ReadPending(context.Background(), set, callhash.Of([]byte{9}))
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestReader_ReadPendingConnectionError(t *testing.T) {
	reader := NewReader(&fakeStorage{err: fmt.Errorf("connection refused")}, zap.NewNop())
	_, err := reader.ReadPending(context.Background(), signers(t), callhash.Of([]byte{1}))
	require.True(t, errs.IsTransient(err))
}

func TestReader_ReadErrorsKeepTheirKind(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		check     func(error) bool
	}{
		{name: "undecodable storage value", err: errs.NewDecodeError("storage value", fmt.Errorf("not hex")), check: errs.IsDecode},
		{name: "node error object", err: &connection.RPCError{Code: -32602, Message: "invalid params"}, check: errs.IsNodeError},
		{name: "transport", err: fmt.Errorf("broken pipe"), transient: true, check: errs.IsTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewReader(&fakeStorage{err: tt.err}, zap.NewNop())
			_, err := reader.ReadPending(context.Background(), signers(t), callhash.Of([]byte{1}))
			require.Error(t, err)
			assert.Equal(t, tt.transient, errs.IsTransient(err))
			assert.True(t, tt.check(err))

			_, err = reader.ReadStoredCall(context.Background(), callhash.Of([]byte{1}))
			assert.Equal(t, tt.transient, errs.IsTransient(err))
		})
	}
}

func TestDecodePending_SchemaMismatch(t *testing.T) {
	valid := encodeRecord(t, multisig.Timepoint{Height: 1}, 1, alice, alice)

	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "truncated", raw: valid[:len(valid)-4]},
		{name: "trailing field", raw: append(append([]byte{}, valid...), 0x01)},
		{name: "empty", raw: []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePending(callhash.Fingerprint{}, tt.raw)
			require.True(t, errs.IsDecode(err), "got %v", err)
		})
	}
}

func TestBalanceToBig(t *testing.T) {
	var le [balanceLength]byte
	le[0] = 0x01
	le[15] = 0x01
	want := new(big.Int).Lsh(big.NewInt(1), 120)
	want.Add(want, big.NewInt(1))
	assert.Equal(t, want, balanceToBig(le))
}

func TestReader_ReadStoredCall(t *testing.T) {
	call := []byte{0, 1, 4, 42}
	fp := callhash.Of(call)
	key, err := codec.StorageKey(multisigPallet, callsStorage, fp.Bytes())
	require.NoError(t, err)

	raw, err := (&codec.Encoder{}).Push(call).Push(alice).Raw(make([]byte, balanceLength)).Bytes()
	require.NoError(t, err)

	reader := NewReader(&fakeStorage{values: map[string][]byte{codec.HexKey(key): raw}}, zap.NewNop())
	stored, err := reader.ReadStoredCall(context.Background(), fp)
	require.NoError(t, err)
	assert.Equal(t, call, stored)

	missing, err := reader.ReadStoredCall(context.Background(), callhash.Of([]byte{1}))
	require.NoError(t, err)
	assert.Nil(t, missing)
}
