// Package reconcile turns submission outcomes into multisig verdicts.
package reconcile

import (
	"strings"

	"go-multisig/internal/clients/extrinsic"
	"go-multisig/internal/codec"
	"go-multisig/internal/errs"
	"go-multisig/internal/multisig"

	"github.com/go-faster/errors"
)

// Reconcile reads the verdict of a terminal submission. Chain rejections that
// are business outcomes come back as both a Rejected result and the matching
// typed error: AlreadyApprovedError, AlreadyExistsError or
// OperationNoLongerPendingError. Other chain rejections return the
// *errs.DispatchError verbatim.
func Reconcile(in Input) (*Result, error) {
	if in.Spec == nil || in.Outcome == nil {
		return nil, errors.New("reconcile needs a spec and an outcome")
	}
	result := &Result{
		Action:      in.Spec.Kind,
		Fingerprint: in.Spec.Fingerprint,
		Outcome:     in.Outcome,
		Reason:      in.Outcome.Reason,
	}

	switch in.Outcome.Kind {
	case extrinsic.OutcomeNotFinalized:
		result.Verdict = VerdictUnconfirmed
		return result, nil
	case extrinsic.OutcomeInvalid:
		result.Verdict = VerdictRejected
		return result, nil
	case extrinsic.OutcomeDispatchError:
		result.Verdict = VerdictRejected
		result.Dispatch = in.Outcome.Dispatch
		result.Reason = dispatchReason(in.Outcome.Dispatch)
		return result, classifyDispatch(in)
	case extrinsic.OutcomeIncluded:
		readIncluded(in, result)
		return result, nil
	}
	return nil, errors.Errorf("unknown outcome kind %d", in.Outcome.Kind)
}

func readIncluded(in Input, result *Result) {
	events := in.Outcome.Events
	switch in.Spec.Kind {
	case multisig.ActionCancel:
		result.Verdict = VerdictCancelled
		return
	case multisig.ActionPropose:
		if in.Spec.Threshold == 1 {
			// the inner call result is the extrinsic result
			result.Verdict = VerdictExecuted
			return
		}
		result.Verdict = VerdictProposed
		result.Timepoint = &multisig.Timepoint{Height: in.Outcome.BlockNumber, Index: uint32(in.Outcome.ExtrinsicIndex)}
		return
	}

	if evt, ok := findMultisigEvent(events, eventMultisigExecuted); ok {
		param, found := evt.ParamByName(executedResultParam)
		if !found {
			param, found = evt.Param(len(evt.Params) - 1)
		}
		if found {
			if dispatchErr := codec.DispatchResultFromValue(param.Value, in.Registry); dispatchErr != nil {
				result.Verdict = VerdictRejected
				result.Dispatch = dispatchErr
				result.Reason = dispatchReason(dispatchErr)
				return
			}
		}
		result.Verdict = VerdictExecuted
		return
	}
	if _, ok := findMultisigEvent(events, eventMultisigApproval); ok {
		result.Verdict = VerdictApproved
		return
	}

	// no pallet events to go by
	if in.Spec.Executes() {
		result.Verdict = VerdictExecuted
		return
	}
	result.Verdict = VerdictApproved
}

func classifyDispatch(in Input) error {
	dispatchErr := in.Outcome.Dispatch
	if dispatchErr == nil {
		return &errs.DispatchError{Name: "unknown", Index: -1, ErrorIndex: -1}
	}
	if !strings.EqualFold(dispatchErr.Module, multisigPallet) {
		return dispatchErr
	}

	switch dispatchErr.Name {
	case errAlreadyApproved:
		return &multisig.AlreadyApprovedError{Fingerprint: in.Spec.Fingerprint, Signer: in.Self, Pending: in.LastKnown.Copy()}
	case errAlreadyExists, errAlreadyStored:
		return &multisig.AlreadyExistsError{Fingerprint: in.Spec.Fingerprint, Reason: dispatchReason(dispatchErr)}
	case errNoTimepoint:
		if in.Spec.Kind == multisig.ActionPropose {
			return &multisig.AlreadyExistsError{Fingerprint: in.Spec.Fingerprint, Reason: dispatchReason(dispatchErr)}
		}
	case errNotFound:
		if in.Spec.Kind != multisig.ActionPropose {
			return &multisig.OperationNoLongerPendingError{Fingerprint: in.Spec.Fingerprint, LastKnown: in.LastKnown.Copy()}
		}
	}
	return dispatchErr
}

func findMultisigEvent(events []codec.Event, name string) (codec.Event, bool) {
	for _, evt := range events {
		if evt.Is(multisigPallet, name) {
			return evt, true
		}
	}
	return codec.Event{}, false
}

func dispatchReason(dispatchErr *errs.DispatchError) string {
	if dispatchErr == nil {
		return ""
	}
	if dispatchErr.Module != "" {
		return dispatchErr.Module + "." + dispatchErr.Name
	}
	if dispatchErr.Name != "" {
		return dispatchErr.Name
	}
	return dispatchErr.Raw
}
