package multisig

import "go-multisig/internal/codec"

// State is the position of an operation from one signer's point of view.
type State int

const (
	StateUnproposed State = iota
	StateProposedByOther
	StateFinalApprovalPending
	StateAlreadyApproved
	// StateNoLongerPending covers both executed and cancelled: the chain
	// keeps no record that tells them apart.
	StateNoLongerPending
)

func (s State) String() string {
	switch s {
	case StateUnproposed:
		return "unproposed"
	case StateProposedByOther:
		return "proposed_by_other"
	case StateFinalApprovalPending:
		return "final_approval_pending"
	case StateAlreadyApproved:
		return "already_approved"
	case StateNoLongerPending:
		return "no_longer_pending"
	}
	return "unknown"
}

// Classify places self relative to the pending record. seenBefore tells
// whether the operation was observed pending by an earlier read, which turns
// absence into StateNoLongerPending.
func Classify(self codec.AccountID, signers SignerSet, pending *PendingOperation, seenBefore bool) State {
	if pending == nil {
		if seenBefore {
			return StateNoLongerPending
		}
		return StateUnproposed
	}
	if pending.HasApproved(self) {
		return StateAlreadyApproved
	}
	if len(pending.Approvals) >= int(signers.Threshold())-1 {
		return StateFinalApprovalPending
	}
	return StateProposedByOther
}
