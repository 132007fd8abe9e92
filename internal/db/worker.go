package db

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

var ErrWorkerClosed = errors.New("db worker closed")

type TxFn func(ctx context.Context, tx *sql.Tx) error

type txJob struct {
	ctx    context.Context
	fn     TxFn
	result chan error
}

// Worker runs write transactions one at a time on a single goroutine, so
// SQLite never sees two writers and read-modify-write sequences cannot
// interleave.
type Worker struct {
	db        *sql.DB
	jobs      chan txJob
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan txJob, 64),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

// Close stops the worker after the running job. Jobs still queued fail
// with ErrWorkerClosed.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
}

// Do queues fn and waits for its transaction to commit or roll back. ctx can
// cancel the job while it waits in the queue; once the transaction has begun
// it runs to completion and Do reports its real outcome.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	job := txJob{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case w.jobs <- job:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.result:
		return err
	case <-w.done:
		select {
		case err := <-job.result:
			return err
		default:
			return ErrWorkerClosed
		}
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case job := <-w.jobs:
			job.result <- w.exec(job)
		case <-w.quit:
			for {
				select {
				case job := <-w.jobs:
					job.result <- ErrWorkerClosed
				default:
					return
				}
			}
		}
	}
}

func (w *Worker) exec(job txJob) error {
	if err := job.ctx.Err(); err != nil {
		return err
	}

	ctx := context.WithoutCancel(job.ctx)
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := job.fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
