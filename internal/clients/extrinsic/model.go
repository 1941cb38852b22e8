package extrinsic

import (
	"context"
	"time"

	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/codec"
	"go-multisig/internal/connection"
	"go-multisig/internal/errs"
)

const (
	extrinsicCallModuleField = "call_module"
	extrinsicFunctionField   = "call_module_function"
	extrinsicSignatureField  = "signature"

	systemPallet          = "System"
	eventExtrinsicSuccess = "ExtrinsicSuccess"
	eventExtrinsicFailed  = "ExtrinsicFailed"

	defaultTimeout    = 2 * time.Minute
	defaultRetryDelay = 2 * time.Second
)

type (
	// ChainRPC is the node surface the submitter uses.
	ChainRPC interface {
		GetRuntimeVersion(ctx context.Context, blockHash string) (*connection.RuntimeVersion, error)
		GetBlockHash(ctx context.Context, blockHeight int) (string, error)
		GetHeader(ctx context.Context, blockHash string) (*connection.Header, error)
		GetBlock(ctx context.Context, blockHash string) (*connection.SignedBlock, error)
		AccountNextIndex(ctx context.Context, account string) (uint64, error)
		SubmitAndWatch(ctx context.Context, extrinsicHex string) (*connection.Subscription, error)
	}

	// RuntimeSource resolves the decoded metadata of a spec version.
	RuntimeSource interface {
		Runtime(ctx context.Context, specVersion int, blockHash string) (*metadata.Runtime, error)
	}

	// EventSource reads the decoded events of a block.
	EventSource interface {
		EventsAt(ctx context.Context, blockHash string, runtime *metadata.Runtime) ([]codec.Event, error)
	}

	// Config tunes submission. Zero values take the defaults.
	Config struct {
		WaitFor WaitFor
		Timeout time.Duration
		// Retries is the number of resubmissions of the same signed bytes
		// after a transient connection failure.
		Retries    uint
		RetryDelay time.Duration
		// EraPeriod is the mortality in blocks, 0 for an immortal transaction.
		EraPeriod  uint64
		Tip        uint64
		SS58Format uint16
	}

	// Outcome is the terminal state of one submission.
	Outcome struct {
		Kind           OutcomeKind
		ExtrinsicHash  string
		BlockHash      string
		BlockNumber    uint32
		ExtrinsicIndex int
		Finalized      bool
		// Events are the events emitted while applying the extrinsic.
		Events   []codec.Event
		Dispatch *errs.DispatchError
		// Reason explains NotFinalized and Invalid outcomes.
		Reason       string
		CallModule   string
		CallFunction string
		// Registry is the call and error registry of the runtime the
		// extrinsic was signed against.
		Registry codec.Registry
	}
)

// WaitFor is the status a submission waits for before it reads events.
type WaitFor int

const (
	WaitInBlock WaitFor = iota
	WaitFinalized
)

// ParseWaitFor accepts "in_block" and "finalized".
func ParseWaitFor(s string) (WaitFor, bool) {
	switch s {
	case "in_block", "inblock", "":
		return WaitInBlock, true
	case "finalized":
		return WaitFinalized, true
	}
	return 0, false
}

// OutcomeKind classifies a submission.
type OutcomeKind int

const (
	// OutcomeIncluded means the extrinsic was applied successfully.
	OutcomeIncluded OutcomeKind = iota + 1
	// OutcomeDispatchError means the extrinsic was included but failed.
	OutcomeDispatchError
	// OutcomeNotFinalized means the wait ended before inclusion was seen.
	// The extrinsic may still land; chain state must be read again.
	OutcomeNotFinalized
	// OutcomeInvalid means the pool refused or dropped the extrinsic.
	OutcomeInvalid
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeIncluded:
		return "included"
	case OutcomeDispatchError:
		return "dispatch_error"
	case OutcomeNotFinalized:
		return "not_finalized"
	case OutcomeInvalid:
		return "invalid"
	}
	return "unknown"
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	return c
}

var (
	EXTRINSIC_SUBMITTING        = "Submitting %s for call %s from %s with nonce %d"
	EXTRINSIC_SUBMIT_RETRY      = "Retrying submission of %s, attempt %d"
	EXTRINSIC_FAILED_TO_SUBMIT  = "Failed to submit %s"
	EXTRINSIC_STATUS            = "Extrinsic %s is %s"
	EXTRINSIC_REJECTED          = "Extrinsic %s was rejected by the pool: %s"
	EXTRINSIC_NOT_FINALIZED     = "Extrinsic %s not included: %s"
	EXTRINSIC_NOT_IN_BLOCK      = "Extrinsic %s not found in block %s"
	EXTRINSIC_DECODE_FAILED     = "Failed to decode extrinsic %s in block %s"
	EXTRINSIC_INCLUDED          = "Extrinsic %s included in block #%d at index %d"
	EXTRINSIC_DISPATCH_FAILED   = "Extrinsic %s failed in block #%d: %s"
	EXTRINSIC_UNEXPECTED_STATUS = "Ignoring unknown status of %s: %s"
	EXTRINSIC_FAILED_TO_UNWATCH = "Failed to stop watching %s"
	EXTRINSIC_NO_RESULT_EVENT   = "No System result event for %s at index %d"
)
