package multisig

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_String(t *testing.T) {
	signers := mustSigners(2, alice, bob, charlie)
	op := NewOperation(signers, remark(1))
	pending := pendingWith(op.Fingerprint(), alice, alice)
	pending.Deposit = big.NewInt(1_500_000_000_000)

	status := Status{
		Fingerprint:   op.Fingerprint(),
		Signers:       signers,
		Self:          bob,
		State:         StateFinalApprovalPending,
		Pending:       pending,
		SS58Format:    42,
		TokenDecimals: 12,
	}
	out := status.String()

	assert.Contains(t, out, op.Fingerprint().Hex())
	assert.Contains(t, out, "Threshold: 2 of 3")
	assert.Contains(t, out, "final_approval_pending")
	assert.Contains(t, out, alice.SS58(42)+" (approved)")
	assert.Contains(t, out, "Approvals: 1/2")
	assert.Contains(t, out, "Deposit: 1.5")
	assert.Contains(t, out, "Timepoint: #120-2")

	status.Pending = nil
	assert.Contains(t, status.String(), "Pending: no")
}
