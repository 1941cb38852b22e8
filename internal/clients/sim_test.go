package clients

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	"go-multisig/internal/callhash"
	"go-multisig/internal/clients/metadata"
	"go-multisig/internal/clients/state"
	"go-multisig/internal/codec"
	"go-multisig/internal/connection"
	"go-multisig/internal/multisig"

	"github.com/ChainSafe/gossamer/lib/common"
	"github.com/go-faster/errors"
	"github.com/itering/scale.go/types"
	"github.com/stretchr/testify/require"
)

const (
	multisigIndex = 31
	depositAmount = 2_000_000
)

// multisig pallet errors in index order
var palletErrors = []string{
	"MinimumThreshold",
	"AlreadyApproved",
	"NoApprovalsNeeded",
	"TooFewSignatories",
	"TooManySignatories",
	"SignatoriesOutOfOrder",
	"SenderInSignatories",
	"NotFound",
	"NotOwner",
	"NoTimepoint",
	"WrongTimepoint",
	"UnexpectedTimepoint",
	"MaxWeightTooLow",
	"AlreadyStored",
}

type (
	asMultiArgs struct {
		Threshold uint16
		Others    []codec.AccountID
		Timepoint *multisig.Timepoint
		Call      []byte
		StoreCall bool
		MaxWeight uint64
	}

	approveArgs struct {
		Threshold uint16
		Others    []codec.AccountID
		Timepoint *multisig.Timepoint
		Hash      [32]byte
		MaxWeight uint64
	}

	cancelArgs struct {
		Threshold uint16
		Others    []codec.AccountID
		Timepoint multisig.Timepoint
		Hash      [32]byte
	}

	pendingRecord struct {
		When      multisig.Timepoint
		Deposit   [16]byte
		Depositor codec.AccountID
		Approvals []codec.AccountID
	}

	simBlock struct {
		number     uint32
		extrinsics []string
		events     []codec.Event
	}

	// chainSim applies submitted multisig extrinsics the way the pallet does
	// and serves the resulting blocks, events and storage.
	chainSim struct {
		mu       sync.Mutex
		runtime  *metadata.Runtime
		height   uint32
		blocks   map[string]*simBlock
		storage  map[string][]byte
		nonces   map[string]uint64
		executed [][]byte
		// beforeApply runs once, before the next submission is applied.
		beforeApply func(sim *chainSim)
		// innerResult is the DispatchResult of executed calls, Ok when nil.
		innerResult interface{}
	}
)

func newChainSim(t *testing.T) *chainSim {
	t.Helper()
	return &chainSim{
		runtime: simRuntime(t, 30, palletErrors),
		height:  100,
		blocks:  map[string]*simBlock{},
		storage: map[string][]byte{},
		nonces:  map[string]uint64{},
	}
}

// simRuntime builds a runtime with the multisig calls and the given pallet
// errors in index order.
func simRuntime(t *testing.T, specVersion int, errorNames []string) *metadata.Runtime {
	t.Helper()
	moduleErrors := make([]types.MetadataModuleError, 0, len(errorNames))
	for _, name := range errorNames {
		moduleErrors = append(moduleErrors, types.MetadataModuleError{Name: name})
	}
	reg, err := metadata.NewRegistry(&types.MetadataStruct{
		Metadata: types.MetadataTag{
			Modules: []types.MetadataModules{{
				Name:  "Multisig",
				Index: multisigIndex,
				Calls: []types.MetadataCalls{
					{Name: "as_multi_threshold_1", Lookup: "1f00"},
					{Name: "as_multi", Lookup: "1f01"},
					{Name: "approve_as_multi", Lookup: "1f02"},
					{Name: "cancel_as_multi", Lookup: "1f03"},
				},
				Errors: moduleErrors,
			}},
		},
	})
	require.NoError(t, err)
	return &metadata.Runtime{SpecVersion: specVersion, Registry: reg}
}

func blockHashAt(height uint32) string {
	return fmt.Sprintf("0x%064x", height)
}

func (sim *chainSim) GetRuntimeVersion(context.Context, string) (*connection.RuntimeVersion, error) {
	return &connection.RuntimeVersion{SpecName: "aleph-node", SpecVersion: sim.runtime.SpecVersion, TransactionVersion: 11}, nil
}

func (sim *chainSim) Check(ctx context.Context, blockHash string) (*connection.RuntimeVersion, error) {
	return sim.GetRuntimeVersion(ctx, blockHash)
}

func (sim *chainSim) Runtime(context.Context, int, string) (*metadata.Runtime, error) {
	return sim.runtime, nil
}

func (sim *chainSim) GetBlockHash(_ context.Context, height int) (string, error) {
	return blockHashAt(uint32(height)), nil
}

func (sim *chainSim) GetHeader(context.Context, string) (*connection.Header, error) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return &connection.Header{Number: fmt.Sprintf("0x%x", sim.height)}, nil
}

func (sim *chainSim) GetBlock(_ context.Context, blockHash string) (*connection.SignedBlock, error) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	b, ok := sim.blocks[blockHash]
	if !ok {
		return nil, errors.Errorf("unknown block %s", blockHash)
	}
	block := &connection.SignedBlock{}
	block.Block.Header.Number = fmt.Sprintf("0x%x", b.number)
	block.Block.Extrinsics = b.extrinsics
	return block, nil
}

func (sim *chainSim) EventsAt(_ context.Context, blockHash string, _ *metadata.Runtime) ([]codec.Event, error) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	b, ok := sim.blocks[blockHash]
	if !ok {
		return nil, errors.Errorf("unknown block %s", blockHash)
	}
	return b.events, nil
}

func (sim *chainSim) GetStorage(_ context.Context, key []byte, _ string) ([]byte, error) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.storage[common.BytesToHex(key)], nil
}

func (sim *chainSim) AccountNextIndex(_ context.Context, account string) (uint64, error) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.nonces[account], nil
}

// SubmitAndWatch applies the extrinsic in a new block and reports it in block.
func (sim *chainSim) SubmitAndWatch(_ context.Context, extrinsicHex string) (*connection.Subscription, error) {
	sim.mu.Lock()
	hook := sim.beforeApply
	sim.beforeApply = nil
	sim.mu.Unlock()
	if hook != nil {
		hook(sim)
	}

	raw, err := common.HexToBytes(extrinsicHex)
	if err != nil {
		return nil, err
	}
	signer, nonce, call, err := parseSigned(raw)
	if err != nil {
		return nil, err
	}

	sim.mu.Lock()
	account := signer.SS58(42)
	if nonce != sim.nonces[account] {
		sim.mu.Unlock()
		return nil, &connection.RPCError{Code: 1010, Message: "Invalid Transaction: stale or future nonce"}
	}
	sim.nonces[account]++
	sim.height++
	tp := multisig.Timepoint{Height: sim.height, Index: 1}
	events := sim.apply(signer, tp, call)
	hash := blockHashAt(sim.height)
	sim.blocks[hash] = &simBlock{
		number:     sim.height,
		extrinsics: []string{"0x280403000b207eba5c8101", extrinsicHex},
		events:     append([]codec.Event{{Index: 0, ExtrinsicIndex: 0, Pallet: "System", Name: "ExtrinsicSuccess"}}, events...),
	}
	sim.mu.Unlock()

	ch := make(chan json.RawMessage, 2)
	ch <- json.RawMessage(`"ready"`)
	ch <- json.RawMessage(`{"inBlock":"` + hash + `"}`)
	return connection.NewSubscription("sub", ch, func(context.Context) error { return nil }), nil
}

// parseSigned reads a v4 signed extrinsic with an immortal era.
func parseSigned(raw []byte) (codec.AccountID, uint64, []byte, error) {
	_, n := readCompact(raw)
	body := raw[n:]
	if len(body) < 100 || body[0] != 0x84 || body[1] != 0x00 {
		return codec.AccountID{}, 0, nil, errors.New("not a signed v4 extrinsic")
	}
	signer, err := codec.AccountIDFromBytes(body[2:34])
	if err != nil {
		return codec.AccountID{}, 0, nil, err
	}
	rest := body[99:]
	if rest[0] != 0x00 {
		return codec.AccountID{}, 0, nil, errors.New("simulator only takes immortal extrinsics")
	}
	rest = rest[1:]
	nonce, n := readCompact(rest)
	rest = rest[n:]
	_, n = readCompact(rest)
	return signer, nonce, rest[n:], nil
}

func readCompact(b []byte) (uint64, int) {
	switch b[0] & 0x03 {
	case 0:
		return uint64(b[0] >> 2), 1
	case 1:
		return uint64(binary.LittleEndian.Uint16(b[:2]) >> 2), 2
	default:
		return uint64(binary.LittleEndian.Uint32(b[:4]) >> 2), 4
	}
}

func timepointArg(d *codec.Decoder) multisig.Timepoint {
	return multisig.Timepoint{Height: d.Uint32(), Index: d.Uint32()}
}

func optionalTimepointArg(d *codec.Decoder) *multisig.Timepoint {
	if !d.Option() {
		return nil
	}
	tp := timepointArg(d)
	return &tp
}

func (a *asMultiArgs) decode(d *codec.Decoder) {
	a.Threshold = d.Uint16()
	a.Others = d.AccountIDs()
	a.Timepoint = optionalTimepointArg(d)
	a.Call = d.Bytes()
	a.StoreCall = d.Bool()
	a.MaxWeight = d.Uint64()
}

func (a *approveArgs) decode(d *codec.Decoder) {
	a.Threshold = d.Uint16()
	a.Others = d.AccountIDs()
	a.Timepoint = optionalTimepointArg(d)
	copy(a.Hash[:], d.Fixed(32))
	a.MaxWeight = d.Uint64()
}

func (a *cancelArgs) decode(d *codec.Decoder) {
	a.Threshold = d.Uint16()
	a.Others = d.AccountIDs()
	a.Timepoint = timepointArg(d)
	copy(a.Hash[:], d.Fixed(32))
}

func (r *pendingRecord) decode(d *codec.Decoder) {
	r.When = timepointArg(d)
	copy(r.Deposit[:], d.Fixed(16))
	r.Depositor = d.AccountID()
	r.Approvals = d.AccountIDs()
}

func (sim *chainSim) apply(who codec.AccountID, tp multisig.Timepoint, call []byte) []codec.Event {
	if len(call) < 2 || call[0] != multisigIndex {
		panic(fmt.Sprintf("unexpected call %x", call))
	}
	args := call[2:]
	switch call[1] {
	case 0x00:
		count, n := readCompact(args)
		sim.executed = append(sim.executed, args[n+int(count)*32:])
		return succeeded()
	case 0x01:
		var a asMultiArgs
		if err := codec.Decode(args, a.decode); err != nil {
			panic(err)
		}
		return sim.approve(who, tp, a.Threshold, a.Others, a.Timepoint, callhash.Of(a.Call), a.Call)
	case 0x02:
		var a approveArgs
		if err := codec.Decode(args, a.decode); err != nil {
			panic(err)
		}
		return sim.approve(who, tp, a.Threshold, a.Others, a.Timepoint, callhash.Fingerprint(a.Hash), nil)
	case 0x03:
		var a cancelArgs
		if err := codec.Decode(args, a.decode); err != nil {
			panic(err)
		}
		return sim.cancel(who, a.Threshold, a.Others, a.Timepoint, callhash.Fingerprint(a.Hash))
	}
	panic(fmt.Sprintf("unexpected call %x", call))
}

func (sim *chainSim) key(who codec.AccountID, threshold uint16, others []codec.AccountID, fp callhash.Fingerprint) string {
	signers, err := multisig.NewSignerSet(threshold, append([]codec.AccountID{who}, others...)...)
	if err != nil {
		panic(err)
	}
	account, err := state.MultisigAccount(signers)
	if err != nil {
		panic(err)
	}
	key, err := state.PendingKey(account, fp)
	if err != nil {
		panic(err)
	}
	return common.BytesToHex(key)
}

func (sim *chainSim) approve(who codec.AccountID, tp multisig.Timepoint, threshold uint16, others []codec.AccountID, maybeTp *multisig.Timepoint, fp callhash.Fingerprint, call []byte) []codec.Event {
	key := sim.key(who, threshold, others, fp)
	raw, exists := sim.storage[key]
	if !exists {
		if maybeTp != nil {
			return palletError("UnexpectedTimepoint")
		}
		sim.storePending(key, pendingRecord{When: tp, Deposit: deposit(), Depositor: who, Approvals: []codec.AccountID{who}})
		return succeeded(codec.Event{Pallet: "Multisig", Name: "NewMultisig"})
	}

	var record pendingRecord
	if err := codec.Decode(raw, record.decode); err != nil {
		panic(err)
	}
	if maybeTp == nil {
		return palletError("NoTimepoint")
	}
	if *maybeTp != record.When {
		return palletError("WrongTimepoint")
	}
	for _, a := range record.Approvals {
		if a == who {
			return palletError("AlreadyApproved")
		}
	}
	if len(record.Approvals)+1 >= int(threshold) && call != nil {
		delete(sim.storage, key)
		sim.executed = append(sim.executed, call)
		return succeeded(codec.Event{
			Pallet: "Multisig",
			Name:   "MultisigExecuted",
			Params: []codec.EventParam{{Type: "DispatchResult", Name: "result", Value: sim.dispatchResult()}},
		})
	}
	record.Approvals = append(record.Approvals, who)
	sort.Slice(record.Approvals, func(i, j int) bool { return record.Approvals[i].Less(record.Approvals[j]) })
	sim.storePending(key, record)
	return succeeded(codec.Event{Pallet: "Multisig", Name: "MultisigApproval"})
}

func (sim *chainSim) dispatchResult() interface{} {
	if sim.innerResult != nil {
		return sim.innerResult
	}
	return map[string]interface{}{"Ok": nil}
}

func (sim *chainSim) cancel(who codec.AccountID, threshold uint16, others []codec.AccountID, tp multisig.Timepoint, fp callhash.Fingerprint) []codec.Event {
	key := sim.key(who, threshold, others, fp)
	raw, exists := sim.storage[key]
	if !exists {
		return palletError("NotFound")
	}
	var record pendingRecord
	if err := codec.Decode(raw, record.decode); err != nil {
		panic(err)
	}
	if record.When != tp {
		return palletError("WrongTimepoint")
	}
	if record.Depositor != who {
		return palletError("NotOwner")
	}
	delete(sim.storage, key)
	return succeeded(codec.Event{Pallet: "Multisig", Name: "MultisigCancelled"})
}

func (sim *chainSim) storePending(key string, record pendingRecord) {
	raw, err := (&codec.Encoder{}).Push(record).Bytes()
	if err != nil {
		panic(err)
	}
	sim.storage[key] = raw
}

// propose inserts a pending record directly, as if another client proposed.
func (sim *chainSim) propose(who codec.AccountID, signers multisig.SignerSet, call []byte) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.height++
	key := sim.key(who, signers.Threshold(), signers.Others(who), callhash.Of(call))
	sim.storePending(key, pendingRecord{
		When:      multisig.Timepoint{Height: sim.height, Index: 1},
		Deposit:   deposit(),
		Depositor: who,
		Approvals: []codec.AccountID{who},
	})
}

func (sim *chainSim) executedCalls() [][]byte {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return append([][]byte(nil), sim.executed...)
}

func deposit() [16]byte {
	var d [16]byte
	binary.LittleEndian.PutUint64(d[:8], depositAmount)
	return d
}

func succeeded(events ...codec.Event) []codec.Event {
	out := make([]codec.Event, 0, len(events)+1)
	for i, evt := range events {
		evt.Index = i + 1
		evt.ExtrinsicIndex = 1
		out = append(out, evt)
	}
	return append(out, codec.Event{Index: len(events) + 1, ExtrinsicIndex: 1, Pallet: "System", Name: "ExtrinsicSuccess"})
}

func palletError(name string) []codec.Event {
	for i, e := range palletErrors {
		if e == name {
			return failed(multisigIndex, i)
		}
	}
	panic("unknown pallet error " + name)
}

func failed(module, errorIndex int) []codec.Event {
	return []codec.Event{{
		Index:          1,
		ExtrinsicIndex: 1,
		Pallet:         "System",
		Name:           "ExtrinsicFailed",
		Params: []codec.EventParam{{
			Type:  "DispatchError",
			Value: map[string]interface{}{"Module": map[string]interface{}{"index": module, "error": errorIndex}},
		}},
	}}
}
