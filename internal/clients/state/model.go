package state

import (
	"context"

	"go-multisig/internal/codec"
	"go-multisig/internal/multisig"
)

const (
	multisigPallet      = "Multisig"
	multisigsStorage    = "Multisigs"
	callsStorage        = "Calls"
	multisigAccountSeed = "modlpy/utilisuba"
	balanceLength       = 16
)

type (
	// StorageReader reads raw storage. It returns nil, nil for an absent key.
	// An empty blockHash means the best block.
	StorageReader interface {
		GetStorage(ctx context.Context, key []byte, blockHash string) ([]byte, error)
	}

	// multisigRecord is the Multisig.Multisigs value of the pinned runtime.
	multisigRecord struct {
		When      multisig.Timepoint
		Deposit   [balanceLength]byte
		Depositor codec.AccountID
		Approvals []codec.AccountID
	}

	// storedCallRecord is the Multisig.Calls value: call, depositor, deposit.
	storedCallRecord struct {
		Call      []byte
		Depositor codec.AccountID
		Deposit   [balanceLength]byte
	}
)

func (r *multisigRecord) decode(d *codec.Decoder) {
	r.When = decodeTimepoint(d)
	copy(r.Deposit[:], d.Fixed(balanceLength))
	r.Depositor = d.AccountID()
	r.Approvals = d.AccountIDs()
}

func (r *storedCallRecord) decode(d *codec.Decoder) {
	r.Call = d.Bytes()
	r.Depositor = d.AccountID()
	copy(r.Deposit[:], d.Fixed(balanceLength))
}

func decodeTimepoint(d *codec.Decoder) multisig.Timepoint {
	return multisig.Timepoint{Height: d.Uint32(), Index: d.Uint32()}
}

var (
	STATE_READING_PENDING       = "Reading pending operation %s of multisig account %s"
	STATE_NO_PENDING            = "No pending operation %s for multisig account %s"
	STATE_FAILED_TO_READ        = "Failed to read storage key %s"
	STATE_FAILED_TO_DECODE      = "Failed to decode %s record at %s"
	STATE_FAILED_TO_BUILD_KEY   = "Failed to build storage key for %s"
	STATE_STORED_CALL_NOT_FOUND = "No stored call for %s"
)
