package models

import "time"

// Submission is one submitted multisig action and what came of it.
type Submission struct {
	Id              string //extrinsicHash or fingerprint-action-submittedAt when not submitted
	Fingerprint     string
	Action          string
	Signer          string
	MultisigAccount string
	ExtrinsicHash   string
	BlockHash       string
	BlockHeight     int
	ExtrinsicIndex  int
	Outcome         string
	Verdict         string
	Reason          string
	SubmittedAt     time.Time
}
