// Package journal writes an optional Postgres audit trail of submissions.
package journal

import (
	"context"
	"sync"
	"time"

	"go-multisig/internal/messages"
	"go-multisig/models"

	"go.uber.org/zap"
)

const flushTimeout = 10 * time.Second

// Journal buffers submissions and writes them from a single db worker.
type Journal struct {
	store  Store
	dbChan chan *models.Submission
	done   chan struct{}
	once   sync.Once
	// mu guards closed against Record racing Close.
	mu     sync.RWMutex
	closed bool
	logger *zap.Logger
}

// New starts the db worker. Records are written when the buffer fills up and
// on Close.
func New(store Store, bufferSize int, logger *zap.Logger) *Journal {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	journal := &Journal{
		store:  store,
		dbChan: make(chan *models.Submission, bufferSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_INFO, "", nil, JOURNAL_STARTING).Log(logger)
	go journal.startDbWorker(bufferSize)
	return journal
}

// Record queues a submission. Submissions recorded after Close are dropped.
func (journal *Journal) Record(submission *models.Submission) {
	if submission == nil {
		return
	}
	journal.mu.RLock()
	defer journal.mu.RUnlock()
	if journal.closed {
		messages.NewMultisigMessage(messages.LOG_LEVEL_WARNING, "", nil, JOURNAL_CLOSED, submission.Action, submission.Id).Log(journal.logger)
		return
	}
	journal.dbChan <- submission
}

// Close writes what is buffered and stops the worker.
func (journal *Journal) Close() {
	journal.once.Do(func() {
		journal.mu.Lock()
		journal.closed = true
		close(journal.dbChan)
		journal.mu.Unlock()
		<-journal.done
	})
}

func (journal *Journal) startDbWorker(bufferSize int) {
	defer close(journal.done)

	insertItems := make([][]interface{}, 0, bufferSize)
	for submission := range journal.dbChan {
		insertItems = append(insertItems, toRow(submission))
		if len(insertItems) == bufferSize || len(journal.dbChan) == 0 {
			journal.insertBatch(insertItems)
			insertItems = insertItems[:0]
		}
	}
	if len(insertItems) > 0 {
		journal.insertBatch(insertItems)
	}
}

func (journal *Journal) insertBatch(batch [][]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := journal.store.InsertBatch(ctx, batch); err != nil {
		messages.NewMultisigMessage(
			messages.LOG_LEVEL_ERROR,
			messages.GetComponent(New),
			err,
			JOURNAL_FAILED_TO_INSERT,
			len(batch),
		).Log(journal.logger)
		return
	}
	messages.NewMultisigMessage(messages.LOG_LEVEL_DEBUG, "", nil, JOURNAL_INSERTED, len(batch)).Log(journal.logger)
}

func toRow(submission *models.Submission) []interface{} {
	return []interface{}{
		submission.Id,
		submission.Fingerprint,
		submission.Action,
		submission.Signer,
		submission.MultisigAccount,
		submission.ExtrinsicHash,
		submission.BlockHash,
		submission.BlockHeight,
		submission.ExtrinsicIndex,
		submission.Outcome,
		submission.Verdict,
		submission.Reason,
		submission.SubmittedAt,
	}
}

// Nop is the Recorder used when the journal is disabled.
type Nop struct{}

func (Nop) Record(*models.Submission) {}

func (Nop) Close() {}
