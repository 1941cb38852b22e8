package multisig

import (
	"fmt"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"

	"github.com/go-faster/errors"
)

// ErrCallBodyRequired is returned when an action needs the full call body but
// the operation was only known by its fingerprint and the chain does not store it.
var ErrCallBodyRequired = errors.New("full call body required")

// ErrNotPending is returned for a cancel of an operation that was never
// seen pending.
var ErrNotPending = errors.New("operation is not pending")

type (
	// AlreadyApprovedError means the signer's approval is already recorded.
	AlreadyApprovedError struct {
		Fingerprint callhash.Fingerprint
		Signer      codec.AccountID
		Pending     *PendingOperation
	}

	// AlreadyExistsError means a propose lost the race to another signer's
	// propose of the same call. The caller should approve instead.
	AlreadyExistsError struct {
		Fingerprint callhash.Fingerprint
		Reason      string
	}

	// OperationNoLongerPendingError means the operation was seen pending
	// before and is gone now: it was executed or cancelled.
	OperationNoLongerPendingError struct {
		Fingerprint callhash.Fingerprint
		LastKnown   *PendingOperation
	}

	// NotDepositorError means a cancel was requested by someone other than
	// the depositor.
	NotDepositorError struct {
		Fingerprint callhash.Fingerprint
		Signer      codec.AccountID
		Depositor   codec.AccountID
	}

	InvalidSignerSetError struct {
		Reason string
	}
)

func (e *AlreadyApprovedError) Error() string {
	approvals := 0
	if e.Pending != nil {
		approvals = len(e.Pending.Approvals)
	}
	return fmt.Sprintf("%s already approved %s (%d approvals recorded)", e.Signer, e.Fingerprint, approvals)
}

func (e *AlreadyExistsError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("operation %s already exists", e.Fingerprint)
	}
	return fmt.Sprintf("operation %s already exists: %s", e.Fingerprint, e.Reason)
}

func (e *OperationNoLongerPendingError) Error() string {
	if e.LastKnown == nil {
		return fmt.Sprintf("operation %s is no longer pending", e.Fingerprint)
	}
	return fmt.Sprintf("operation %s is no longer pending (last seen with %d approvals at %s)",
		e.Fingerprint, len(e.LastKnown.Approvals), e.LastKnown.When)
}

func (e *NotDepositorError) Error() string {
	return fmt.Sprintf("%s cannot cancel %s, depositor is %s", e.Signer, e.Fingerprint, e.Depositor)
}

func (e *InvalidSignerSetError) Error() string {
	return "invalid signer set: " + e.Reason
}

func IsAlreadyApproved(err error) bool {
	var target *AlreadyApprovedError
	return errors.As(err, &target)
}

func IsAlreadyExists(err error) bool {
	var target *AlreadyExistsError
	return errors.As(err, &target)
}

func IsNoLongerPending(err error) bool {
	var target *OperationNoLongerPendingError
	return errors.As(err, &target)
}

// IsTerminal reports whether err is one of the business outcomes that end an
// operation for this signer rather than a fault.
func IsTerminal(err error) bool {
	return IsAlreadyApproved(err) || IsAlreadyExists(err) || IsNoLongerPending(err)
}
