package extrinsic

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/codec"
	"go-multisig/internal/connection"
	"go-multisig/internal/errs"
	"go-multisig/internal/keys"
	"go-multisig/internal/messages"
	"go-multisig/internal/multisig"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/avast/retry-go"
	"github.com/go-faster/errors"
	"github.com/itering/substrate-api-rpc/util"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
)

const unwatchTimeout = 5 * time.Second

// Submitter signs multisig actions, submits them and waits for their
// inclusion.
type Submitter struct {
	chain    ChainRPC
	runtimes RuntimeSource
	events   EventSource
	cfg      Config
	logger   *zap.Logger

	genesisMu sync.Mutex
	genesis   [32]byte

	// accountLocks serialise nonce lookup and pool submission per signer.
	accountLocks *xsync.MapOf[string, *sync.Mutex]
}

type signedExtrinsic struct {
	action  string
	encoded []byte
	hash    string
	runtime *metadata.Runtime
}

func NewSubmitter(chain ChainRPC, runtimes RuntimeSource, events EventSource, cfg Config, logger *zap.Logger) *Submitter {
	return &Submitter{
		chain:    chain,
		runtimes: runtimes,
		events:   events,
		cfg:      cfg.withDefaults(),
		logger:   logger,

		accountLocks: xsync.NewMapOf[*sync.Mutex](),
	}
}

// Submit signs spec with signer and submits it once. The same signed bytes
// are resubmitted only after a transient connection failure, up to
// Config.Retries times. An error means the submission state is unknown
// beyond what the error says; a non nil Outcome is terminal.
func (submitter *Submitter) Submit(ctx context.Context, spec *multisig.ExtrinsicSpec, signer keys.Signer) (*Outcome, error) {
	started := time.Now()

	// the next nonce only accounts for this extrinsic once the pool has it
	lock, _ := submitter.accountLocks.LoadOrStore(signer.AccountID().Hex(), &sync.Mutex{})
	lock.Lock()
	signed, err := submitter.sign(ctx, spec, signer)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	submittedCounter.With(map[string]string{"action": signed.action}).Inc()
	sub, outcome, err := submitter.submit(ctx, signed)
	lock.Unlock()

	if err == nil && outcome == nil {
		outcome, err = submitter.wait(ctx, sub, signed)
	}
	if err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewSubmitter), err, EXTRINSIC_FAILED_TO_SUBMIT, signed.hash).Log(submitter.logger)
		return nil, err
	}
	observeSubmission(signed.action, outcome.Kind, started)
	return outcome, nil
}

func (submitter *Submitter) sign(ctx context.Context, spec *multisig.ExtrinsicSpec, signer keys.Signer) (*signedExtrinsic, error) {
	version, err := submitter.chain.GetRuntimeVersion(ctx, "")
	if err != nil {
		return nil, err
	}
	runtime, err := submitter.runtimes.Runtime(ctx, version.SpecVersion, "")
	if err != nil {
		return nil, err
	}
	reg := registryOf(runtime)
	if reg == nil {
		return nil, errors.Errorf("runtime %d has no call registry", version.SpecVersion)
	}
	call, err := spec.Build(reg)
	if err != nil {
		return nil, err
	}

	genesis, err := submitter.genesisHash(ctx)
	if err != nil {
		return nil, err
	}
	era, birthHash := Era{Immortal: true}, genesis
	if submitter.cfg.EraPeriod > 0 {
		if era, birthHash, err = submitter.mortalEra(ctx); err != nil {
			return nil, err
		}
	}

	account := signer.AccountID()
	nonce, err := submitter.chain.AccountNextIndex(ctx, account.SS58(submitter.cfg.SS58Format))
	if err != nil {
		return nil, err
	}

	payload := SigningPayload{
		Call:               call.Encode(),
		Era:                era,
		Nonce:              nonce,
		Tip:                submitter.cfg.Tip,
		SpecVersion:        uint32(version.SpecVersion),
		TransactionVersion: uint32(version.TransactionVersion),
		GenesisHash:        genesis,
		BlockHash:          birthHash,
	}
	toSign, err := payload.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "encode signing payload")
	}
	signature, err := signer.Sign(toSign)
	if err != nil {
		return nil, errors.Wrap(err, "sign payload")
	}
	encoded, err := EncodeSigned(account, signer.Scheme(), signature, era, nonce, submitter.cfg.Tip, call.Encode())
	if err != nil {
		return nil, errors.Wrap(err, "encode extrinsic")
	}

	hash := Hash(encoded)
	signed := &signedExtrinsic{
		action:  spec.Kind.String(),
		encoded: encoded,
		hash:    common.BytesToHex(hash[:]),
		runtime: runtime,
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, EXTRINSIC_SUBMITTING, signed.action, spec.Fingerprint, account.SS58(submitter.cfg.SS58Format), nonce).Log(submitter.logger)
	return signed, nil
}

func (submitter *Submitter) genesisHash(ctx context.Context) ([32]byte, error) {
	submitter.genesisMu.Lock()
	defer submitter.genesisMu.Unlock()
	if submitter.genesis != [32]byte{} {
		return submitter.genesis, nil
	}
	hash, err := submitter.chain.GetBlockHash(ctx, 0)
	if err != nil {
		return [32]byte{}, err
	}
	genesis, err := hashFromHex(hash)
	if err != nil {
		return [32]byte{}, err
	}
	submitter.genesis = genesis
	return genesis, nil
}

func (submitter *Submitter) mortalEra(ctx context.Context) (Era, [32]byte, error) {
	header, err := submitter.chain.GetHeader(ctx, "")
	if err != nil {
		return Era{}, [32]byte{}, err
	}
	number, err := header.BlockNumber()
	if err != nil {
		return Era{}, [32]byte{}, err
	}
	era := MortalEra(uint64(number), submitter.cfg.EraPeriod)
	birth, err := submitter.chain.GetBlockHash(ctx, int(era.Birth(uint64(number))))
	if err != nil {
		return Era{}, [32]byte{}, err
	}
	birthHash, err := hashFromHex(birth)
	if err != nil {
		return Era{}, [32]byte{}, err
	}
	return era, birthHash, nil
}

// submit hands the signed bytes to the pool. A pool rejection is a terminal
// Invalid outcome.
func (submitter *Submitter) submit(ctx context.Context, signed *signedExtrinsic) (*connection.Subscription, *Outcome, error) {
	var sub *connection.Subscription
	err := retry.Do(
		func() error {
			var err error
			sub, err = submitter.chain.SubmitAndWatch(ctx, common.BytesToHex(signed.encoded))
			return err
		},
		retry.Attempts(submitter.cfg.Retries+1),
		retry.Delay(submitter.cfg.RetryDelay),
		retry.RetryIf(errs.IsTransient),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", err, EXTRINSIC_SUBMIT_RETRY, signed.hash, n+1).Log(submitter.logger)
		}),
	)
	if err != nil {
		var rpcErr *connection.RPCError
		if errors.As(err, &rpcErr) {
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, EXTRINSIC_REJECTED, signed.hash, rpcErr.Message).Log(submitter.logger)
			return nil, &Outcome{Kind: OutcomeInvalid, ExtrinsicHash: signed.hash, ExtrinsicIndex: -1, Reason: rpcErr.Message}, nil
		}
		return nil, nil, err
	}
	return sub, nil, nil
}

func (submitter *Submitter) wait(ctx context.Context, sub *connection.Subscription, signed *signedExtrinsic) (*Outcome, error) {
	defer submitter.unwatch(sub, signed.hash)

	status, outcome := submitter.watch(ctx, sub, signed.hash)
	if outcome != nil {
		return outcome, nil
	}
	return submitter.locate(ctx, signed, status)
}

// watch follows the pool status until the configured inclusion status is
// reached. It returns a terminal outcome instead when that cannot happen.
func (submitter *Submitter) watch(ctx context.Context, sub *connection.Subscription, hash string) (TxStatus, *Outcome) {
	timer := time.NewTimer(submitter.cfg.Timeout)
	defer timer.Stop()

	var inBlock string
	notFinalized := func(reason string) (TxStatus, *Outcome) {
		messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, EXTRINSIC_NOT_FINALIZED, hash, reason).Log(submitter.logger)
		return TxStatus{}, &Outcome{Kind: OutcomeNotFinalized, ExtrinsicHash: hash, BlockHash: inBlock, ExtrinsicIndex: -1, Reason: reason}
	}

	for {
		var (
			raw json.RawMessage
			ok  bool
		)
		select {
		case <-ctx.Done():
			return notFinalized(ctx.Err().Error())
		case <-timer.C:
			return notFinalized("timed out waiting for inclusion")
		case raw, ok = <-sub.Notifications:
			if !ok {
				return notFinalized("status subscription closed")
			}
		}

		status, err := ParseStatus(raw)
		if err != nil {
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", err, EXTRINSIC_UNEXPECTED_STATUS, hash, string(raw)).Log(submitter.logger)
			continue
		}
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, EXTRINSIC_STATUS, hash, status.Kind).Log(submitter.logger)

		switch {
		case status.Rejected():
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, EXTRINSIC_REJECTED, hash, status.Kind).Log(submitter.logger)
			return TxStatus{}, &Outcome{Kind: OutcomeInvalid, ExtrinsicHash: hash, ExtrinsicIndex: -1, Reason: string(status.Kind)}
		case status.Kind == StatusFinalityTimeout:
			return notFinalized("finality timeout in block " + status.BlockHash)
		case status.Kind == StatusRetracted:
			inBlock = ""
		case status.Kind == StatusInBlock:
			inBlock = status.BlockHash
			if submitter.cfg.WaitFor == WaitInBlock {
				return status, nil
			}
		case status.Kind == StatusFinalized:
			return status, nil
		}
	}
}

// locate finds the extrinsic in the block status points at and classifies
// it from its System result event.
func (submitter *Submitter) locate(ctx context.Context, signed *signedExtrinsic, status TxStatus) (*Outcome, error) {
	block, err := submitter.chain.GetBlock(ctx, status.BlockHash)
	if err != nil {
		return nil, err
	}
	number, err := block.Block.Header.BlockNumber()
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		ExtrinsicHash:  signed.hash,
		BlockHash:      status.BlockHash,
		BlockNumber:    number,
		ExtrinsicIndex: -1,
		Finalized:      status.Kind == StatusFinalized,
		Registry:       registryOf(signed.runtime),
	}
	for idx, raw := range block.Block.Extrinsics {
		hash := Hash(util.HexToBytes(raw))
		if common.BytesToHex(hash[:]) != signed.hash {
			continue
		}
		outcome.ExtrinsicIndex = idx
		if included, err := decodeIncluded(raw, signed.runtime); err != nil {
			messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", err, EXTRINSIC_DECODE_FAILED, signed.hash, status.BlockHash).Log(submitter.logger)
		} else {
			outcome.CallModule, outcome.CallFunction = included.Module, included.Function
		}
		break
	}
	if outcome.ExtrinsicIndex < 0 {
		messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewSubmitter), nil, EXTRINSIC_NOT_IN_BLOCK, signed.hash, status.BlockHash).Log(submitter.logger)
		return nil, errs.NewDecodeError("block body", errors.Errorf("extrinsic %s not in block %s", signed.hash, status.BlockHash))
	}

	events, err := submitter.events.EventsAt(ctx, status.BlockHash, signed.runtime)
	if err != nil {
		return nil, err
	}
	outcome.Events = codec.FilterByExtrinsic(events, outcome.ExtrinsicIndex)

	for _, evt := range outcome.Events {
		switch {
		case evt.Is(systemPallet, eventExtrinsicSuccess):
			outcome.Kind = OutcomeIncluded
			messages.NewMultisigMessage(messages.LOG_LEVEL_SUCCESS, "", nil, EXTRINSIC_INCLUDED, signed.hash, number, outcome.ExtrinsicIndex).Log(submitter.logger)
			return outcome, nil
		case evt.Is(systemPallet, eventExtrinsicFailed):
			param, _ := evt.Param(0)
			outcome.Kind = OutcomeDispatchError
			outcome.Dispatch = codec.DispatchErrorFromValue(param.Value, outcome.Registry)
			messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, EXTRINSIC_DISPATCH_FAILED, signed.hash, number, outcome.Dispatch).Log(submitter.logger)
			return outcome, nil
		}
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewSubmitter), nil, EXTRINSIC_NO_RESULT_EVENT, signed.hash, outcome.ExtrinsicIndex).Log(submitter.logger)
	return nil, errs.NewDecodeError("extrinsic events", errors.Errorf("no result event for %s", signed.hash))
}

func (submitter *Submitter) unwatch(sub *connection.Subscription, hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), unwatchTimeout)
	defer cancel()
	if err := sub.Unsubscribe(ctx); err != nil {
		messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", err, EXTRINSIC_FAILED_TO_UNWATCH, hash).Log(submitter.logger)
	}
}

func registryOf(runtime *metadata.Runtime) codec.Registry {
	if runtime == nil || runtime.Registry == nil {
		return nil
	}
	return runtime.Registry
}

func hashFromHex(s string) ([32]byte, error) {
	var hash [32]byte
	raw, err := common.HexToBytes(s)
	if err != nil || len(raw) != len(hash) {
		return hash, errs.NewDecodeError("block hash", errors.Errorf("invalid hash %q", s))
	}
	copy(hash[:], raw)
	return hash, nil
}
