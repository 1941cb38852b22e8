package multisig

import (
	"context"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
	"go-multisig/internal/messages"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

type (
	// PendingReader reads the authoritative pending record. It returns nil,
	// nil when no record exists.
	PendingReader interface {
		ReadPending(ctx context.Context, signers SignerSet, fp callhash.Fingerprint) (*PendingOperation, error)
	}

	// StoredCallReader reads a call body the chain stored on propose. It
	// returns nil, nil when nothing is stored.
	StoredCallReader interface {
		ReadStoredCall(ctx context.Context, fp callhash.Fingerprint) ([]byte, error)
	}

	// Coordinator decides the next extrinsic of a signer for an operation.
	// It keeps no state between calls and is safe for concurrent use on
	// distinct operations.
	Coordinator struct {
		reader PendingReader
		calls  StoredCallReader
		opts   Options
		logger *zap.Logger
	}
)

// NewCoordinator returns a coordinator reading through reader. If reader also
// implements StoredCallReader, calls stored on chain are used for final
// approvals of operations known only by hash.
func NewCoordinator(reader PendingReader, opts Options, logger *zap.Logger) *Coordinator {
	c := &Coordinator{reader: reader, opts: opts, logger: logger}
	if calls, ok := reader.(StoredCallReader); ok {
		c.calls = calls
	}
	return c
}

// Prepare reads the current on-chain state of op and builds the extrinsic
// self must submit next. Read failures are returned unchanged in kind.
func (c *Coordinator) Prepare(ctx context.Context, self codec.AccountID, op *Operation) (*ExtrinsicSpec, error) {
	component := messages.GetComponent(NewCoordinator)

	if op.Signers().Threshold() == 1 {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, component, nil, COORDINATOR_THRESHOLD_ONE, op.Fingerprint()).Log(c.logger)
		spec, state, err := Decide(self, op, nil, c.opts)
		return c.finish(self, op, spec, state, err)
	}

	pending, err := c.read(ctx, op)
	if err != nil {
		return nil, err
	}

	state := Classify(self, op.Signers(), pending, op.seen())
	if state == StateFinalApprovalPending && !op.HasCall() {
		if err := c.fetchStoredCall(ctx, op); err != nil {
			return nil, err
		}
	}

	spec, state, err := Decide(self, op, pending, c.opts)
	op.Observe(pending)
	return c.finish(self, op, spec, state, err)
}

// PrepareCancel builds the cancel extrinsic for an operation self deposited for.
func (c *Coordinator) PrepareCancel(ctx context.Context, self codec.AccountID, op *Operation) (*ExtrinsicSpec, error) {
	pending, err := c.read(ctx, op)
	if err != nil {
		return nil, err
	}
	state := Classify(self, op.Signers(), pending, op.seen())
	spec, err := DecideCancel(self, op, pending)
	op.Observe(pending)
	return c.finish(self, op, spec, state, err)
}

// Inspect reads the pending record of op and classifies it for self without
// building anything.
func (c *Coordinator) Inspect(ctx context.Context, self codec.AccountID, op *Operation) (*PendingOperation, State, error) {
	if op.Signers().Threshold() == 1 {
		return nil, StateUnproposed, nil
	}
	pending, err := c.read(ctx, op)
	if err != nil {
		return nil, 0, err
	}
	state := Classify(self, op.Signers(), pending, op.seen())
	op.Observe(pending)
	return pending, state, nil
}

func (c *Coordinator) read(ctx context.Context, op *Operation) (*PendingOperation, error) {
	pending, err := c.reader.ReadPending(ctx, op.Signers(), op.Fingerprint())
	if err != nil {
		messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewCoordinator),
			err,
			COORDINATOR_FAILED_TO_READ,
			op.Fingerprint(),
		).Log(c.logger)
		return nil, errors.Wrapf(err, "read pending %s", op.Fingerprint())
	}
	return pending, nil
}

func (c *Coordinator) fetchStoredCall(ctx context.Context, op *Operation) error {
	if c.calls == nil {
		return nil
	}
	call, err := c.calls.ReadStoredCall(ctx, op.Fingerprint())
	if err != nil {
		messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(NewCoordinator),
			err,
			COORDINATOR_FAILED_STORED_CALL,
			op.Fingerprint(),
		).Log(c.logger)
		return errors.Wrapf(err, "read stored call %s", op.Fingerprint())
	}
	if call != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, messages.GetComponent(NewCoordinator), nil, COORDINATOR_USING_STORED_CALL, op.Fingerprint()).Log(c.logger)
		op.learnCall(call)
	}
	return nil
}

func (c *Coordinator) finish(self codec.AccountID, op *Operation, spec *ExtrinsicSpec, state State, err error) (*ExtrinsicSpec, error) {
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, messages.GetComponent(NewCoordinator), err, COORDINATOR_REJECTED_DECISION, op.Fingerprint()).Log(c.logger)
		return nil, err
	}
	messages.NewMultisigMessage(
		messages.LOG_LEVEL_INFO,
		messages.GetComponent(NewCoordinator),
		nil,
		COORDINATOR_DECIDED,
		self,
		op.Fingerprint(),
		state,
		spec.Kind,
	).Log(c.logger)
	return spec, nil
}

// Decide maps the state of op for self to the extrinsic to build. It does no
// I/O and does not modify op.
func Decide(self codec.AccountID, op *Operation, pending *PendingOperation, opts Options) (*ExtrinsicSpec, State, error) {
	signers := op.Signers()
	if !signers.Contains(self) {
		return nil, 0, &InvalidSignerSetError{Reason: self.String() + " is not a signatory"}
	}

	spec := &ExtrinsicSpec{
		Fingerprint:      op.Fingerprint(),
		Threshold:        signers.Threshold(),
		OtherSignatories: signers.Others(self),
		MaxWeight:        opts.MaxWeight,
	}

	// a threshold 1 operation executes on propose and never has a record
	if signers.Threshold() == 1 {
		if !op.HasCall() {
			return nil, StateUnproposed, ErrCallBodyRequired
		}
		spec.Kind = ActionPropose
		spec.Call = op.Call()
		return spec, StateUnproposed, nil
	}

	state := Classify(self, signers, pending, op.seen())
	switch state {
	case StateUnproposed:
		if !op.HasCall() {
			return nil, state, ErrCallBodyRequired
		}
		spec.Kind = ActionPropose
		spec.Call = op.Call()
		spec.StoreCall = opts.StoreCall
	case StateProposedByOther:
		tp := pending.When
		spec.Kind = ActionApprove
		spec.Timepoint = &tp
	case StateFinalApprovalPending:
		if !op.HasCall() {
			return nil, state, ErrCallBodyRequired
		}
		tp := pending.When
		spec.Kind = ActionApproveAsMulti
		spec.Timepoint = &tp
		spec.Call = op.Call()
	case StateAlreadyApproved:
		return nil, state, &AlreadyApprovedError{Fingerprint: op.Fingerprint(), Signer: self, Pending: pending.Copy()}
	case StateNoLongerPending:
		return nil, state, &OperationNoLongerPendingError{Fingerprint: op.Fingerprint(), LastKnown: op.LastKnown()}
	}
	return spec, state, nil
}

// DecideCancel builds a cancel for self. Only the depositor may cancel.
func DecideCancel(self codec.AccountID, op *Operation, pending *PendingOperation) (*ExtrinsicSpec, error) {
	signers := op.Signers()
	if !signers.Contains(self) {
		return nil, &InvalidSignerSetError{Reason: self.String() + " is not a signatory"}
	}
	if pending == nil {
		if op.seen() {
			return nil, &OperationNoLongerPendingError{Fingerprint: op.Fingerprint(), LastKnown: op.LastKnown()}
		}
		return nil, ErrNotPending
	}
	if pending.Depositor != self {
		return nil, &NotDepositorError{Fingerprint: op.Fingerprint(), Signer: self, Depositor: pending.Depositor}
	}

	tp := pending.When
	return &ExtrinsicSpec{
		Kind:             ActionCancel,
		Fingerprint:      op.Fingerprint(),
		Threshold:        signers.Threshold(),
		OtherSignatories: signers.Others(self),
		Timepoint:        &tp,
	}, nil
}
