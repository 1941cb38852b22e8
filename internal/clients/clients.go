package clients

import (
	"context"
	"fmt"
	"time"

	"go-multisig/internal/callhash"
	"go-multisig/internal/clients/event"
	"go-multisig/internal/clients/extrinsic"
	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/clients/specversion"
	"go-multisig/internal/clients/state"
	"go-multisig/internal/codec"
	"go-multisig/internal/config"
	"go-multisig/internal/connection"
	"go-multisig/internal/db/postgres"
	"go-multisig/internal/journal"
	"go-multisig/internal/keys"
	"go-multisig/internal/messages"
	"go-multisig/internal/multisig"
	"go-multisig/internal/reconcile"
	"go-multisig/models"

	"github.com/go-faster/errors"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// Orchestrator drives multisig operations of one signer set for one signer:
// decide from chain state, submit, reconcile.
type Orchestrator struct {
	configuration config.Config
	signer        keys.Signer
	signers       multisig.SignerSet
	account       codec.AccountID
	guard         RuntimeGuard
	coordinator   *multisig.Coordinator
	submitter     *extrinsic.Submitter
	journal       journal.Recorder
	history       journal.HistoryReader
	closers       []func()
	logger        *zap.Logger
}

// NewOrchestrator connects to the node and wires every client from the config
func NewOrchestrator(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Orchestrator, error) {
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, ORCHESTRATOR_INITIALIZING).Log(logger)

	// Register custom types
	if cfg.ChainConfig.DecoderTypesFile != "" {
		if err := metadata.RegisterCustomTypes(cfg.ChainConfig.DecoderTypesFile, logger); err != nil {
			return nil, err
		}
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Websocket for submission, optionally HTTP for reads
	timeout := cfg.ChainConfig.RequestTimeoutSeconds
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	requestTimeout := time.Duration(timeout) * time.Second
	wsClient, err := connection.InitWSClient(ctx, cfg.ChainConfig.WsRpcEndpoint, cfg.ChainConfig.WsSockets, requestTimeout, logger)
	if err != nil {
		return nil, err
	}
	closers = append(closers, wsClient.Close)
	chain := connection.NewChainClient(wsClient)
	reads := chain
	if cfg.ChainConfig.HttpRpcEndpoint != "" {
		reads = connection.NewChainClient(connection.NewHttpClient(cfg.ChainConfig.HttpRpcEndpoint, requestTimeout, logger))
	}

	signer, err := keys.FromSeedHex(cfg.SignerConfig.Scheme, cfg.SignerConfig.SeedHex)
	if err != nil {
		closeAll()
		return nil, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewOrchestrator), err, ORCHESTRATOR_FAILED_TO_INIT, "signer").Err()
	}

	// Journal
	var (
		recorder journal.Recorder = journal.Nop{}
		history  journal.HistoryReader
	)
	if cfg.JournalConfig.Enabled {
		pgClient, err := postgres.Connect(ctx, cfg.JournalConfig.PostgresConfig, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, pgClient.Close)
		store := journal.NewPostgresStore(pgClient, logger)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, err
		}
		recorder = journal.New(store, cfg.JournalConfig.BufferSize, logger)
		history = store
	}

	ranges := make(specversion.SpecVersionRangeList, 0, len(cfg.ChainConfig.SupportedSpecVersions))
	for _, r := range cfg.ChainConfig.SupportedSpecVersions {
		ranges = append(ranges, specversion.SpecVersionRange{SpecName: r.SpecName, First: r.First, Last: r.Last})
	}

	orchestrator, err := newOrchestrator(cfg, parts{
		chain:    chain,
		storage:  reads,
		runtimes: metadata.NewMetadataClient(reads, cfg.ChainConfig.MetadataFile, logger),
		events:   event.NewEventClient(reads, logger),
		guard:    specversion.NewGuard(reads, ranges, logger),
		journal:  recorder,
		history:  history,
		signer:   signer,
		closers:  closers,
	}, logger)
	if err != nil {
		recorder.Close()
		closeAll()
		return nil, err
	}
	return orchestrator, nil
}

func newOrchestrator(cfg config.Config, p parts, logger *zap.Logger) (*Orchestrator, error) {
	signers, err := multisig.NewSignerSet(cfg.MultisigConfig.Threshold, cfg.MultisigConfig.Signatories...)
	if err != nil {
		return nil, err
	}
	self := p.signer.AccountID()
	if !signers.Contains(self) {
		return nil, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, "", nil, ORCHESTRATOR_SIGNER_NOT_SIGNATORY, self.SS58(cfg.ChainConfig.SS58Format)).Err()
	}
	account, err := state.MultisigAccount(signers)
	if err != nil {
		return nil, err
	}
	if p.journal == nil {
		p.journal = journal.Nop{}
	}

	reader := state.NewReader(p.storage, logger)
	messages.NewMultisigMessage(
		messages.LOG_LEVEL_INFO,
		"",
		nil,
		ORCHESTRATOR_MULTISIG_ACCOUNT,
		account.SS58(cfg.ChainConfig.SS58Format),
		signers.Threshold(),
		len(signers.Signatories()),
		self.SS58(cfg.ChainConfig.SS58Format),
	).Log(logger)

	return &Orchestrator{
		configuration: cfg,
		signer:        p.signer,
		signers:       signers,
		account:       account,
		guard:         p.guard,
		coordinator: multisig.NewCoordinator(reader, multisig.Options{
			MaxWeight: cfg.MultisigConfig.MaxWeight,
			StoreCall: cfg.MultisigConfig.StoreCall,
		}, logger),
		submitter: extrinsic.NewSubmitter(p.chain, p.runtimes, p.events, cfg.SubmitterSettings(), logger),
		journal:   p.journal,
		history:   p.history,
		closers:   p.closers,
		logger:    logger,
	}, nil
}

// Account is the multisig account of the configured signer set.
func (orchestrator *Orchestrator) Account() codec.AccountID {
	return orchestrator.account
}

// Operation starts tracking the operation for an encoded call.
func (orchestrator *Orchestrator) Operation(encodedCall []byte) (*multisig.Operation, error) {
	call, err := codec.DecodeCall(encodedCall)
	if err != nil {
		return nil, err
	}
	return multisig.NewOperation(orchestrator.signers, call), nil
}

// OperationByHash starts tracking an operation known only by its fingerprint.
func (orchestrator *Orchestrator) OperationByHash(fp callhash.Fingerprint) *multisig.Operation {
	return multisig.NewOperationByHash(orchestrator.signers, fp)
}

// Advance submits the next action of the signer for op: propose, approve or
// the final approval. Business outcomes come back as typed errors from the
// multisig package, together with the result when something was submitted.
func (orchestrator *Orchestrator) Advance(ctx context.Context, op *multisig.Operation) (*ActionResult, error) {
	if _, err := orchestrator.guard.Check(ctx, ""); err != nil {
		return nil, err
	}
	spec, err := orchestrator.coordinator.Prepare(ctx, orchestrator.signer.AccountID(), op)
	if err != nil {
		return nil, err
	}
	return orchestrator.submit(ctx, op, spec)
}

// Cancel cancels op. Only the depositor can cancel.
func (orchestrator *Orchestrator) Cancel(ctx context.Context, op *multisig.Operation) (*ActionResult, error) {
	if _, err := orchestrator.guard.Check(ctx, ""); err != nil {
		return nil, err
	}
	spec, err := orchestrator.coordinator.PrepareCancel(ctx, orchestrator.signer.AccountID(), op)
	if err != nil {
		return nil, err
	}
	return orchestrator.submit(ctx, op, spec)
}

// Status reads the pending state of op.
func (orchestrator *Orchestrator) Status(ctx context.Context, op *multisig.Operation) (*multisig.Status, error) {
	if _, err := orchestrator.guard.Check(ctx, ""); err != nil {
		return nil, err
	}
	self := orchestrator.signer.AccountID()
	pending, st, err := orchestrator.coordinator.Inspect(ctx, self, op)
	if err != nil {
		return nil, err
	}
	return &multisig.Status{
		Account:       orchestrator.account,
		Fingerprint:   op.Fingerprint(),
		Signers:       orchestrator.signers,
		Self:          self,
		State:         st,
		Pending:       pending,
		SS58Format:    orchestrator.configuration.ChainConfig.SS58Format,
		TokenDecimals: orchestrator.configuration.ChainConfig.TokenDecimals,
	}, nil
}

// History returns the journaled submissions of op, oldest first.
func (orchestrator *Orchestrator) History(ctx context.Context, op *multisig.Operation) ([]models.Submission, error) {
	if orchestrator.history == nil {
		return nil, messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, ORCHESTRATOR_JOURNAL_DISABLED, op.Fingerprint()).Err()
	}
	return orchestrator.history.History(ctx, op.Fingerprint().Hex())
}

// AdvanceAll advances distinct operations in parallel. Results keep the order
// of ops. The same fingerprint twice in one batch is refused up front.
func (orchestrator *Orchestrator) AdvanceAll(ctx context.Context, ops []*multisig.Operation) ([]BatchResult, error) {
	seen := make(map[callhash.Fingerprint]struct{}, len(ops))
	for _, op := range ops {
		if _, ok := seen[op.Fingerprint()]; ok {
			return nil, errors.Errorf("operation %s appears twice in the batch", op.Fingerprint())
		}
		seen[op.Fingerprint()] = struct{}{}
	}

	workers := orchestrator.configuration.MultisigConfig.Parallelism
	if workers <= 0 {
		workers = defaultParallelism
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, ORCHESTRATOR_BATCH, len(ops), workers).Log(orchestrator.logger)

	mapper := iter.Mapper[*multisig.Operation, BatchResult]{MaxGoroutines: workers}
	return mapper.Map(ops, func(op **multisig.Operation) BatchResult {
		result, err := orchestrator.Advance(ctx, *op)
		return BatchResult{Operation: *op, Result: result, Err: err}
	}), nil
}

func (orchestrator *Orchestrator) submit(ctx context.Context, op *multisig.Operation, spec *multisig.ExtrinsicSpec) (*ActionResult, error) {
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, ORCHESTRATOR_SUBMITTING, spec.Kind, op.Fingerprint()).Log(orchestrator.logger)
	submittedAt := time.Now().UTC()

	outcome, err := orchestrator.submitter.Submit(ctx, spec, orchestrator.signer)
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewOrchestrator), err, ORCHESTRATOR_FAILED_TO_SUBMIT, spec.Kind, op.Fingerprint()).Log(orchestrator.logger)
		return nil, err
	}

	result, reconcileErr := reconcile.Reconcile(reconcile.Input{
		Spec:      spec,
		Outcome:   outcome,
		Self:      orchestrator.signer.AccountID(),
		LastKnown: op.LastKnown(),
		Registry:  outcome.Registry,
	})
	if result == nil {
		return nil, reconcileErr
	}
	orchestrator.record(spec, result, submittedAt)

	switch {
	case result.Verdict == reconcile.VerdictProposed && result.Timepoint != nil:
		op.Submitted(orchestrator.signer.AccountID(), *result.Timepoint)
	case result.Verdict == reconcile.VerdictApproved && spec.Timepoint != nil:
		op.Submitted(orchestrator.signer.AccountID(), *spec.Timepoint)
	}

	if result.Verdict == reconcile.VerdictUnconfirmed {
		messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, ORCHESTRATOR_UNCONFIRMED, op.Fingerprint(), spec.Kind).Log(orchestrator.logger)
	} else {
		messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, ORCHESTRATOR_RESULT, op.Fingerprint(), spec.Kind, result.Verdict).Log(orchestrator.logger)
	}
	return &ActionResult{Spec: spec, Result: result}, reconcileErr
}

func (orchestrator *Orchestrator) record(spec *multisig.ExtrinsicSpec, result *reconcile.Result, submittedAt time.Time) {
	format := orchestrator.configuration.ChainConfig.SS58Format
	submission := &models.Submission{
		Fingerprint:     spec.Fingerprint.Hex(),
		Action:          spec.Kind.String(),
		Signer:          orchestrator.signer.AccountID().SS58(format),
		MultisigAccount: orchestrator.account.SS58(format),
		Verdict:         result.Verdict.String(),
		Reason:          result.Reason,
		SubmittedAt:     submittedAt,
		ExtrinsicIndex:  -1,
	}
	if outcome := result.Outcome; outcome != nil {
		submission.Id = outcome.ExtrinsicHash
		submission.ExtrinsicHash = outcome.ExtrinsicHash
		submission.BlockHash = outcome.BlockHash
		submission.BlockHeight = int(outcome.BlockNumber)
		submission.ExtrinsicIndex = outcome.ExtrinsicIndex
		submission.Outcome = outcome.Kind.String()
	}
	if submission.Id == "" {
		submission.Id = fmt.Sprintf("%s-%s-%d", submission.Fingerprint, submission.Action, submittedAt.UnixNano())
	}
	orchestrator.journal.Record(submission)
}

func (orchestrator *Orchestrator) Close() {
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, ORCHESTRATOR_CLOSE).Log(orchestrator.logger)
	orchestrator.journal.Close()
	for i := len(orchestrator.closers) - 1; i >= 0; i-- {
		orchestrator.closers[i]()
	}
}
