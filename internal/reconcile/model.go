package reconcile

import (
	"go-multisig/internal/callhash"
	"go-multisig/internal/clients/extrinsic"
	"go-multisig/internal/codec"
	"go-multisig/internal/errs"
	"go-multisig/internal/multisig"
)

const (
	multisigPallet = "Multisig"

	eventMultisigApproval = "MultisigApproval"
	eventMultisigExecuted = "MultisigExecuted"
	executedResultParam   = "result"

	errAlreadyApproved = "AlreadyApproved"
	errNoTimepoint     = "NoTimepoint"
	errAlreadyStored   = "AlreadyStored"
	errAlreadyExists   = "AlreadyExists"
	errNotFound        = "NotFound"
)

// Verdict is what a submission did to the multisig operation.
type Verdict int

const (
	// VerdictProposed: the operation now exists with the signer as depositor.
	VerdictProposed Verdict = iota + 1
	// VerdictApproved: the signer's approval was recorded, threshold not reached.
	VerdictApproved
	// VerdictExecuted: the inner call was dispatched and succeeded.
	VerdictExecuted
	// VerdictCancelled: the operation was removed and the deposit returned.
	VerdictCancelled
	// VerdictRejected: the chain or the pool refused the action, or the
	// inner call failed on execution.
	VerdictRejected
	// VerdictUnconfirmed: inclusion was not observed. The extrinsic may
	// still land, chain state has to be read again.
	VerdictUnconfirmed
)

func (v Verdict) String() string {
	switch v {
	case VerdictProposed:
		return "proposed"
	case VerdictApproved:
		return "approved"
	case VerdictExecuted:
		return "executed"
	case VerdictCancelled:
		return "cancelled"
	case VerdictRejected:
		return "rejected"
	case VerdictUnconfirmed:
		return "unconfirmed"
	}
	return "unknown"
}

type (
	// Input is one terminal submission with what it was meant to do.
	Input struct {
		Spec    *multisig.ExtrinsicSpec
		Outcome *extrinsic.Outcome
		Self    codec.AccountID
		// LastKnown is the pending record the decision was based on.
		LastKnown *multisig.PendingOperation
		Registry  codec.Registry
	}

	// Result is the business level reading of a submission.
	Result struct {
		Verdict     Verdict
		Action      multisig.ActionKind
		Fingerprint callhash.Fingerprint
		// Timepoint is where a propose created the operation.
		Timepoint *multisig.Timepoint
		Reason    string
		// Dispatch is the chain error of a rejected extrinsic or of a failed
		// inner call.
		Dispatch *errs.DispatchError
		Outcome  *extrinsic.Outcome
	}
)
