package multisig

import (
	"context"
	"math/big"
	"sync"

	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"
)

var (
	alice   = codec.AccountID{0x0a}
	bob     = codec.AccountID{0x0b}
	charlie = codec.AccountID{0x0c}
	dave    = codec.AccountID{0x0d}

	testRegistry = codec.NewStaticRegistry().
			AddCall("System", "remark", codec.CallIndex{Section: 0, Method: 1}).
			AddCall(palletName, callAsMultiThreshold1, codec.CallIndex{Section: 31, Method: 0}).
			AddCall(palletName, callAsMulti, codec.CallIndex{Section: 31, Method: 1}).
			AddCall(palletName, callApproveAsMulti, codec.CallIndex{Section: 31, Method: 2}).
			AddCall(palletName, callCancelAsMulti, codec.CallIndex{Section: 31, Method: 3})
)

func mustSigners(threshold uint16, ids ...codec.AccountID) SignerSet {
	s, err := NewSignerSet(threshold, ids...)
	if err != nil {
		panic(err)
	}
	return s
}

func remark(payload byte) codec.Call {
	call, err := codec.NewCall(testRegistry, "System", "remark", []byte{0x04, payload})
	if err != nil {
		panic(err)
	}
	return call
}

func pendingWith(fp callhash.Fingerprint, depositor codec.AccountID, approvals ...codec.AccountID) *PendingOperation {
	return &PendingOperation{
		Fingerprint: fp,
		When:        Timepoint{Height: 120, Index: 2},
		Deposit:     big.NewInt(1_000_000),
		Depositor:   depositor,
		Approvals:   approvals,
	}
}

// fakeReader serves pending records and stored calls from maps.
type fakeReader struct {
	mu      sync.Mutex
	pending map[callhash.Fingerprint]*PendingOperation
	calls   map[callhash.Fingerprint][]byte
	err     error
	reads   int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		pending: map[callhash.Fingerprint]*PendingOperation{},
		calls:   map[callhash.Fingerprint][]byte{},
	}
}

func (r *fakeReader) ReadPending(_ context.Context, _ SignerSet, fp callhash.Fingerprint) (*PendingOperation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return r.pending[fp].Copy(), nil
}

func (r *fakeReader) ReadStoredCall(_ context.Context, fp callhash.Fingerprint) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[fp], nil
}

func (r *fakeReader) set(p *PendingOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.Fingerprint] = p
}

func (r *fakeReader) remove(fp callhash.Fingerprint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, fp)
}

// pendingOnly exposes only ReadPending of the wrapped reader.
type pendingOnly struct {
	reader *fakeReader
}

func (p pendingOnly) ReadPending(ctx context.Context, signers SignerSet, fp callhash.Fingerprint) (*PendingOperation, error) {
	return p.reader.ReadPending(ctx, signers, fp)
}
