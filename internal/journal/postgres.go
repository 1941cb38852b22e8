package journal

import (
	"context"

	"go-multisig/internal/db/postgres"
	"go-multisig/internal/messages"
	"go-multisig/models"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"
)

// PostgresStore writes journal rows with COPY inside a transaction.
type PostgresStore struct {
	*postgres.PostgresClient
	logger *zap.Logger
}

func NewPostgresStore(pgClient *postgres.PostgresClient, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{PostgresClient: pgClient, logger: logger}
}

// EnsureSchema creates the journal table if it does not exist.
func (store *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, query := range []string{createTableQuery, createIndexQuery} {
		if _, err := store.Pool.Exec(ctx, query); err != nil {
			return messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewPostgresStore), err, JOURNAL_FAILED_SCHEMA).Err()
		}
	}
	return nil
}

func (store *PostgresStore) InsertBatch(ctx context.Context, batch [][]interface{}) error {
	tx, err := store.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewPostgresStore), err, JOURNAL_FAILED_TRANSACTION).Err()
	}
	defer tx.Rollback(ctx)

	copyLen, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{tableSubmissions},
		columns,
		pgx.CopyFromRows(batch),
	)
	if err != nil {
		return err
	}
	if copyLen != int64(len(batch)) {
		return errors.Errorf(JOURNAL_WRONG_COPIED_ROWS, copyLen, len(batch))
	}
	return tx.Commit(ctx)
}

// History returns the journal rows of an operation fingerprint, oldest first.
func (store *PostgresStore) History(ctx context.Context, fingerprint string) ([]models.Submission, error) {
	rows, err := store.Pool.Query(ctx, historyQuery, fingerprint)
	if err != nil {
		return nil, messages.NewMultisigMessage(messages.LOG_LEVEL_ERROR, messages.GetComponent(NewPostgresStore), err, JOURNAL_FAILED_HISTORY, fingerprint).Err()
	}
	defer rows.Close()

	history := []models.Submission{}
	for rows.Next() {
		var submission models.Submission
		if err := rows.Scan(
			&submission.Id,
			&submission.Fingerprint,
			&submission.Action,
			&submission.Signer,
			&submission.MultisigAccount,
			&submission.ExtrinsicHash,
			&submission.BlockHash,
			&submission.BlockHeight,
			&submission.ExtrinsicIndex,
			&submission.Outcome,
			&submission.Verdict,
			&submission.Reason,
			&submission.SubmittedAt,
		); err != nil {
			return nil, err
		}
		history = append(history, submission)
	}
	return history, rows.Err()
}
