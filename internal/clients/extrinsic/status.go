package extrinsic

import (
	"encoding/json"

	"go-multisig/internal/errs"

	"github.com/go-faster/errors"
)

// StatusKind is a transaction pool status reported by author_submitAndWatchExtrinsic.
type StatusKind string

const (
	StatusFuture          StatusKind = "future"
	StatusReady           StatusKind = "ready"
	StatusBroadcast       StatusKind = "broadcast"
	StatusInBlock         StatusKind = "inBlock"
	StatusRetracted       StatusKind = "retracted"
	StatusFinalityTimeout StatusKind = "finalityTimeout"
	StatusFinalized       StatusKind = "finalized"
	StatusUsurped         StatusKind = "usurped"
	StatusDropped         StatusKind = "dropped"
	StatusInvalid         StatusKind = "invalid"
)

// TxStatus is one watch notification. BlockHash is set for the block
// carrying statuses, Usurped carries the usurping transaction hash.
type TxStatus struct {
	Kind      StatusKind
	BlockHash string
}

// Rejected reports whether the pool gave up on the transaction without
// including it.
func (s TxStatus) Rejected() bool {
	switch s.Kind {
	case StatusDropped, StatusInvalid, StatusUsurped:
		return true
	}
	return false
}

// ParseStatus decodes a watch notification. Plain statuses are JSON strings,
// the others single key objects.
func ParseStatus(raw json.RawMessage) (TxStatus, error) {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		switch kind := StatusKind(plain); kind {
		case StatusFuture, StatusReady, StatusDropped, StatusInvalid:
			return TxStatus{Kind: kind}, nil
		}
		return TxStatus{}, errs.NewDecodeError("transaction status", errors.Errorf("unknown status %q", plain))
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tagged); err != nil || len(tagged) != 1 {
		return TxStatus{}, errs.NewDecodeError("transaction status", errors.Errorf("unexpected status %s", string(raw)))
	}
	for key, value := range tagged {
		kind := StatusKind(key)
		switch kind {
		case StatusBroadcast:
			return TxStatus{Kind: kind}, nil
		case StatusInBlock, StatusRetracted, StatusFinalityTimeout, StatusFinalized, StatusUsurped:
			var hash string
			if err := json.Unmarshal(value, &hash); err != nil {
				return TxStatus{}, errs.NewDecodeError("transaction status", err)
			}
			return TxStatus{Kind: kind, BlockHash: hash}, nil
		}
		return TxStatus{}, errs.NewDecodeError("transaction status", errors.Errorf("unknown status %q", key))
	}
	return TxStatus{}, nil
}
