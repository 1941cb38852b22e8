package state

import (
	"context"
	"math/big"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
	"go-multisig/internal/errs"
	"go-multisig/internal/messages"
	"go-multisig/internal/multisig"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Reader is the chain state reader for pending multisig operations.
type Reader struct {
	storage StorageReader
	logger  *zap.Logger
}

func NewReader(storage StorageReader, logger *zap.Logger) *Reader {
	return &Reader{storage: storage, logger: logger}
}

// ReadPending returns the pending record of fp under the multisig account of
// signers, or nil if there is none.
func (r *Reader) ReadPending(ctx context.Context, signers multisig.SignerSet, fp callhash.Fingerprint) (*multisig.PendingOperation, error) {
	account, err := MultisigAccount(signers)
	if err != nil {
		return nil, err
	}
	key, err := PendingKey(account, fp)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewReader), err, STATE_FAILED_TO_BUILD_KEY, fp).Log(r.logger)
		return nil, err
	}

	messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, messages.GetComponent(NewReader), nil, STATE_READING_PENDING, fp, account).Log(r.logger)
	raw, err := r.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, messages.GetComponent(NewReader), nil, STATE_NO_PENDING, fp, account).Log(r.logger)
		return nil, nil
	}

	pending, err := DecodePending(fp, raw)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewReader), err, STATE_FAILED_TO_DECODE, multisigsStorage, codec.HexKey(key)).Log(r.logger)
		return nil, err
	}
	return pending, nil
}

// ReadStoredCall returns the call body stored on chain for fp, or nil.
func (r *Reader) ReadStoredCall(ctx context.Context, fp callhash.Fingerprint) ([]byte, error) {
	key, err := codec.StorageKey(multisigPallet, callsStorage, codec.Identity(fp.Bytes()))
	if err != nil {
		return nil, err
	}
	raw, err := r.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, messages.GetComponent(NewReader), nil, STATE_STORED_CALL_NOT_FOUND, fp).Log(r.logger)
		return nil, nil
	}

	var record storedCallRecord
	if err := codec.Decode(raw, record.decode); err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewReader), err, STATE_FAILED_TO_DECODE, callsStorage, codec.HexKey(key)).Log(r.logger)
		return nil, errs.NewDecodeError("Multisig.Calls record", err)
	}
	return record.Call, nil
}

func (r *Reader) read(ctx context.Context, key []byte) ([]byte, error) {
	raw, err := r.storage.GetStorage(ctx, key, "")
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewReader), err, STATE_FAILED_TO_READ, codec.HexKey(key)).Log(r.logger)
		return nil, errs.NewReadError("state_getStorage", err)
	}
	return raw, nil
}

// MultisigAccount derives the account id the runtime uses for signers.
func MultisigAccount(signers multisig.SignerSet) (codec.AccountID, error) {
	preimage, err := (&codec.Encoder{}).
		Raw([]byte(multisigAccountSeed)).
		Push(signers.Signatories()).
		Push(signers.Threshold()).
		Bytes()
	if err != nil {
		return codec.AccountID{}, errors.Wrap(err, "multisig account preimage")
	}
	return codec.AccountID(blake2b.Sum256(preimage)), nil
}

// PendingKey is the Multisig.Multisigs storage key of fp under account.
func PendingKey(account codec.AccountID, fp callhash.Fingerprint) ([]byte, error) {
	return codec.StorageKey(
		multisigPallet,
		multisigsStorage,
		codec.Twox64Concat(account.Bytes()),
		codec.Blake2_128Concat(fp.Bytes()),
	)
}

// DecodePending decodes a Multisig.Multisigs value. Any layout mismatch,
// including trailing bytes, is a DecodeError.
func DecodePending(fp callhash.Fingerprint, raw []byte) (*multisig.PendingOperation, error) {
	var record multisigRecord
	if err := codec.Decode(raw, record.decode); err != nil {
		return nil, errs.NewDecodeError("Multisig.Multisigs record", err)
	}
	return &multisig.PendingOperation{
		Fingerprint: fp,
		When:        record.When,
		Deposit:     balanceToBig(record.Deposit),
		Depositor:   record.Depositor,
		Approvals:   record.Approvals,
	}, nil
}

func balanceToBig(le [balanceLength]byte) *big.Int {
	be := make([]byte, balanceLength)
	for i := range le {
		be[balanceLength-1-i] = le[i]
	}
	return new(big.Int).SetBytes(be)
}
