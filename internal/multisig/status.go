package multisig

import (
	"go-multisig/internal/callhash"
	"go-multisig/internal/codec"

	"github.com/qdm12/gotree"
	"github.com/shopspring/decimal"
)

// Status is a printable snapshot of an operation for one signer.
type Status struct {
	Account       codec.AccountID
	Fingerprint   callhash.Fingerprint
	Signers       SignerSet
	Self          codec.AccountID
	State         State
	Pending       *PendingOperation
	SS58Format    uint16
	TokenDecimals int32
}

func (s Status) String() string {
	return s.toLinesNode().String()
}

func (s Status) toLinesNode() *gotree.Node {
	node := gotree.New("Multisig operation %s:", s.Fingerprint)
	node.Appendf("Account: %s", s.Account.SS58(s.SS58Format))
	node.Appendf("Threshold: %d of %d", s.Signers.Threshold(), len(s.signatories()))
	node.Appendf("State for %s: %s", s.Self.SS58(s.SS58Format), s.State)

	signersNode := gotree.New("Signatories:")
	for _, id := range s.signatories() {
		mark := ""
		if s.Pending != nil && s.Pending.HasApproved(id) {
			mark = " (approved)"
		}
		signersNode.Appendf("%s%s", id.SS58(s.SS58Format), mark)
	}
	node.AppendNode(signersNode)

	if s.Pending == nil {
		node.Appendf("Pending: no")
		return node
	}

	pendingNode := gotree.New("Pending:")
	pendingNode.Appendf("Timepoint: %s", s.Pending.When)
	pendingNode.Appendf("Approvals: %d/%d", len(s.Pending.Approvals), s.Signers.Threshold())
	pendingNode.Appendf("Depositor: %s", s.Pending.Depositor.SS58(s.SS58Format))
	pendingNode.Appendf("Deposit: %s", s.deposit())
	node.AppendNode(pendingNode)
	return node
}

func (s Status) signatories() []codec.AccountID {
	return s.Signers.Signatories()
}

func (s Status) deposit() string {
	if s.Pending.Deposit == nil {
		return "0"
	}
	return decimal.NewFromBigInt(s.Pending.Deposit, -s.TokenDecimals).String()
}
