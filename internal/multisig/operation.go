package multisig

import (
	"sort"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
)

// Operation is the caller's handle on one multisig operation. It holds the
// immutable signer set and call, plus the last pending record observed, which
// is only used to detect and report disappearance. Decisions always use a
// fresh read.
//
// An Operation must not be advanced concurrently by the same signer.
type Operation struct {
	signers     SignerSet
	call        []byte
	fingerprint callhash.Fingerprint
	lastKnown   *PendingOperation
}

// NewOperation starts tracking call for signers.
func NewOperation(signers SignerSet, call codec.Call) *Operation {
	encoded := call.Encode()
	return &Operation{
		signers:     signers,
		call:        encoded,
		fingerprint: callhash.Of(encoded),
	}
}

// NewOperationByHash tracks an operation whose call body is unknown locally.
// Such an operation can approve, cancel, and execute only if the chain stored
// the call on propose.
func NewOperationByHash(signers SignerSet, fp callhash.Fingerprint) *Operation {
	return &Operation{signers: signers, fingerprint: fp}
}

func (o *Operation) Signers() SignerSet {
	return o.signers
}

func (o *Operation) Fingerprint() callhash.Fingerprint {
	return o.fingerprint
}

// Call returns the encoded call body, nil if unknown.
func (o *Operation) Call() []byte {
	return o.call
}

func (o *Operation) HasCall() bool {
	return len(o.call) > 0
}

// Observe records the result of a pending read. Absence does not erase the
// last known record.
func (o *Operation) Observe(pending *PendingOperation) {
	if pending != nil {
		o.lastKnown = pending.Copy()
	}
}

// Submitted records the pending record implied by a confirmed propose or
// approval from self at when. A later read that finds nothing then means the
// operation executed or was cancelled, not that it was never proposed.
func (o *Operation) Submitted(self codec.AccountID, when Timepoint) {
	next := o.lastKnown.Copy()
	if next == nil {
		next = &PendingOperation{Fingerprint: o.fingerprint, Depositor: self}
	}
	next.When = when
	if !next.HasApproved(self) {
		next.Approvals = append(next.Approvals, self)
		sort.Slice(next.Approvals, func(i, j int) bool { return next.Approvals[i].Less(next.Approvals[j]) })
	}
	o.lastKnown = next
}

// LastKnown returns the last observed pending record, nil if never seen.
func (o *Operation) LastKnown() *PendingOperation {
	return o.lastKnown.Copy()
}

func (o *Operation) seen() bool {
	return o.lastKnown != nil
}

func (o *Operation) learnCall(call []byte) {
	if len(o.call) == 0 && callhash.Of(call) == o.fingerprint {
		o.call = append([]byte(nil), call...)
	}
}
