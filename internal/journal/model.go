package journal

import (
	"context"

	"go-multisig/models"
)

const (
	defaultBufferSize  = 64
	tableSubmissions   = "multisig_submissions"
	colId              = "id"
	colFingerprint     = "fingerprint"
	colAction          = "action"
	colSigner          = "signer"
	colMultisigAccount = "multisig_account"
	colExtrinsicHash   = "extrinsic_hash"
	colBlockHash       = "block_hash"
	colBlockHeight     = "block_height"
	colExtrinsicIndex  = "extrinsic_index"
	colOutcome         = "outcome"
	colVerdict         = "verdict"
	colReason          = "reason"
	colSubmittedAt     = "submitted_at"

	createTableQuery = `CREATE TABLE IF NOT EXISTS multisig_submissions (
	id TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	action TEXT NOT NULL,
	signer TEXT NOT NULL,
	multisig_account TEXT NOT NULL,
	extrinsic_hash TEXT,
	block_hash TEXT,
	block_height INTEGER,
	extrinsic_index INTEGER,
	outcome TEXT NOT NULL,
	verdict TEXT NOT NULL,
	reason TEXT,
	submitted_at TIMESTAMPTZ NOT NULL
)`
	createIndexQuery = "CREATE INDEX IF NOT EXISTS multisig_submissions_fingerprint_idx ON multisig_submissions (fingerprint)"
	historyQuery     = `SELECT id, fingerprint, action, signer, multisig_account, extrinsic_hash, block_hash,
	block_height, extrinsic_index, outcome, verdict, reason, submitted_at
	FROM multisig_submissions WHERE fingerprint = $1 ORDER BY submitted_at`
)

var columns = []string{
	colId,
	colFingerprint,
	colAction,
	colSigner,
	colMultisigAccount,
	colExtrinsicHash,
	colBlockHash,
	colBlockHeight,
	colExtrinsicIndex,
	colOutcome,
	colVerdict,
	colReason,
	colSubmittedAt,
}

type (
	// Recorder keeps an audit trail of submissions. It is never read back
	// for decisions.
	Recorder interface {
		Record(submission *models.Submission)
		Close()
	}

	// Store persists batches of journal rows.
	Store interface {
		InsertBatch(ctx context.Context, rows [][]interface{}) error
	}

	// HistoryReader reads back the rows of one operation fingerprint.
	HistoryReader interface {
		History(ctx context.Context, fingerprint string) ([]models.Submission, error)
	}
)

var (
	JOURNAL_STARTING           = "Starting submission journal"
	JOURNAL_FAILED_TO_INSERT   = "Failed to write %d journal rows"
	JOURNAL_INSERTED           = "Wrote %d journal rows"
	JOURNAL_FAILED_SCHEMA      = "Failed to create journal schema"
	JOURNAL_WRONG_COPIED_ROWS  = "Copied %d journal rows instead of %d"
	JOURNAL_FAILED_TRANSACTION = "Failed to start journal transaction"
	JOURNAL_CLOSED             = "Journal closed, dropping %s submission %s"
	JOURNAL_FAILED_HISTORY     = "Failed to read journal history of %s"
)
