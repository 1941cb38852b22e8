package multisig

import (
	"fmt"
	"math/big"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
)

const (
	// maxSignatories mirrors the MaxSignatories constant of the pinned runtime.
	maxSignatories = 100
)

type (
	// Timepoint locates the extrinsic that first proposed an operation.
	Timepoint struct {
		Height uint32
		Index  uint32
	}

	// PendingOperation is the on-chain record of an operation awaiting approvals.
	PendingOperation struct {
		Fingerprint callhash.Fingerprint
		When        Timepoint
		Deposit     *big.Int
		Depositor   codec.AccountID
		Approvals   []codec.AccountID
	}

	// Options are the hints every produced extrinsic carries.
	Options struct {
		// MaxWeight bounds the weight of the inner call when it is executed.
		MaxWeight uint64
		// StoreCall asks the chain to keep the call body on propose so that a
		// final approver who only knows the hash can still execute it.
		StoreCall bool
	}
)

var (
	COORDINATOR_DECIDED            = "Signer %s on %s: state %s, building %s"
	COORDINATOR_THRESHOLD_ONE      = "Threshold 1 for %s, proposing without reading pending state"
	COORDINATOR_FAILED_TO_READ     = "Failed to read pending operation %s"
	COORDINATOR_USING_STORED_CALL  = "Using call body stored on chain for %s"
	COORDINATOR_FAILED_STORED_CALL = "Failed to read stored call for %s"
	COORDINATOR_REJECTED_DECISION  = "No extrinsic built for %s"
)

func (t Timepoint) String() string {
	return fmt.Sprintf("#%d-%d", t.Height, t.Index)
}

// HasApproved reports whether id is among the recorded approvals.
func (p *PendingOperation) HasApproved(id codec.AccountID) bool {
	for _, a := range p.Approvals {
		if a == id {
			return true
		}
	}
	return false
}

// Copy returns a deep copy, so callers can keep a snapshot.
func (p *PendingOperation) Copy() *PendingOperation {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Deposit != nil {
		cp.Deposit = new(big.Int).Set(p.Deposit)
	}
	cp.Approvals = append([]codec.AccountID(nil), p.Approvals...)
	return &cp
}
