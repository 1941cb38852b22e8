package clients

import (
	"context"

	"go-multisig/internal/clients/extrinsic"
	"go-multisig/internal/clients/state"
	"go-multisig/internal/connection"
	"go-multisig/internal/journal"
	"go-multisig/internal/keys"
	"go-multisig/internal/multisig"
	"go-multisig/internal/reconcile"
)

const (
	defaultParallelism    = 4
	defaultRequestTimeout = 30
)

type (
	// RuntimeGuard checks the node runtime before any decision is made.
	RuntimeGuard interface {
		Check(ctx context.Context, blockHash string) (*connection.RuntimeVersion, error)
	}

	// parts are the collaborators an Orchestrator drives.
	parts struct {
		chain    extrinsic.ChainRPC
		storage  state.StorageReader
		runtimes extrinsic.RuntimeSource
		events   extrinsic.EventSource
		guard    RuntimeGuard
		journal  journal.Recorder
		history  journal.HistoryReader
		signer   keys.Signer
		closers  []func()
	}

	// ActionResult is the reconciled result of one submitted action.
	ActionResult struct {
		Spec *multisig.ExtrinsicSpec
		*reconcile.Result
	}

	// BatchResult pairs an operation of AdvanceAll with its result or error.
	BatchResult struct {
		Operation *multisig.Operation
		Result    *ActionResult
		Err       error
	}
)

var (
	ORCHESTRATOR_INITIALIZING         = "The multisig orchestrator is initializing all the necessary services"
	ORCHESTRATOR_CLOSE                = "Closing multisig orchestrator"
	ORCHESTRATOR_MULTISIG_ACCOUNT     = "Multisig account %s, threshold %d of %d, signing as %s"
	ORCHESTRATOR_SUBMITTING           = "Submitting %s for %s"
	ORCHESTRATOR_RESULT               = "Operation %s: %s %s"
	ORCHESTRATOR_UNCONFIRMED          = "Operation %s: %s not confirmed, read chain state before retrying"
	ORCHESTRATOR_BATCH                = "Advancing %d operations with %d workers"
	ORCHESTRATOR_FAILED_TO_SUBMIT     = "Failed to submit %s for %s"
	ORCHESTRATOR_FAILED_TO_INIT       = "Failed to initialize %s"
	ORCHESTRATOR_SIGNER_NOT_SIGNATORY = "Signer %s is not one of the configured signatories"
	ORCHESTRATOR_JOURNAL_DISABLED     = "The submission journal is disabled, no history for %s"
)

// Failed reports whether the operation ended in a fault. Business outcomes
// such as an approval already recorded or an operation that already executed
// are not failures.
func (r BatchResult) Failed() bool {
	return r.Err != nil && !multisig.IsTerminal(r.Err)
}
