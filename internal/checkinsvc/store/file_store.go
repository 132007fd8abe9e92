package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
)

const lockRetryDelay = 10 * time.Millisecond

var errFileStoreClosed = errors.New("file store closed")

type mutateFn func(records []models.Checkin) ([]models.Checkin, error)

type fileJob struct {
	ctx    context.Context
	fn     mutateFn
	result chan error
}

// FileStore keeps every record in one JSON array on disk. Mutations are
// read-modify-write cycles executed one at a time by a single writer
// goroutine while holding an advisory lock on <path>.lock, so other
// processes sharing the file (checkinctl, replicas) serialize with it. Each
// new version of the file replaces the old one with an atomic rename.
type FileStore struct {
	path string

	// mu guards lock: a flock.Flock held by one goroutine is not reentrant
	// for another in the same process.
	mu   sync.Mutex
	lock *flock.Flock

	jobs      chan fileJob
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
		jobs: make(chan fileJob, 64),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	if err := s.ensureFile(context.Background()); err != nil {
		return nil, err
	}
	go s.run()
	return s, nil
}

func (s *FileStore) List(ctx context.Context) ([]models.Checkin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.read()
}

func (s *FileStore) Create(ctx context.Context, c models.Checkin) (models.Checkin, error) {
	err := s.mutate(ctx, func(records []models.Checkin) ([]models.Checkin, error) {
		return append(records, c), nil
	})
	if err != nil {
		return models.Checkin{}, err
	}
	return c, nil
}

func (s *FileStore) Update(ctx context.Context, id string, p models.CheckinPatch) (models.Checkin, error) {
	var updated models.Checkin
	err := s.mutate(ctx, func(records []models.Checkin) ([]models.Checkin, error) {
		for i := range records {
			if records[i].ID == id {
				p.Apply(&records[i])
				updated = records[i]
				return records, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return models.Checkin{}, err
	}
	return updated, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(records []models.Checkin) ([]models.Checkin, error) {
		kept := make([]models.Checkin, 0, len(records))
		for _, r := range records {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(records) {
			return nil, ErrNotFound
		}
		return kept, nil
	})
}

func (s *FileStore) DeleteAll(ctx context.Context) error {
	return s.mutate(ctx, func([]models.Checkin) ([]models.Checkin, error) {
		return []models.Checkin{}, nil
	})
}

// Ping checks that the data file exists (creating it if needed) and parses.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureFile(ctx); err != nil {
		return err
	}
	_, err := s.read()
	return err
}

func (s *FileStore) Close() error {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
	return nil
}

// mutate queues fn for the writer goroutine. ctx only bounds the wait for a
// queue slot and the lock; once fn has run its outcome is what mutate
// reports, so a nil error always means the change is on disk.

func (s *FileStore) mutate(ctx context.Context, fn mutateFn) error {
	job := fileJob{ctx: ctx, fn: fn, result: make(chan error, 1)}

	select {
	case s.jobs <- job:
	case <-s.quit:
		return errFileStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.result:
		return err
	case <-s.done:
		select {
		case err := <-job.result:
			return err
		default:
			return errFileStoreClosed
		}
	}
}

func (s *FileStore) run() {
	defer close(s.done)

	for {
		select {
		case job := <-s.jobs:
			job.result <- s.apply(job)
		case <-s.quit:
			for {
				select {
				case job := <-s.jobs:
					job.result <- errFileStoreClosed
				default:
					return
				}
			}
		}
	}
}

func (s *FileStore) apply(job fileJob) error {
	if err := job.ctx.Err(); err != nil {
		return err
	}

	return s.withLock(job.ctx, func() error {
		records, err := s.read()
		if err != nil {
			return err
		}

		next, err := job.fn(records)
		if err != nil {
			return err
		}
		return s.write(next)
	})
}

// withLock runs fn holding both the in-process mutex and the file lock.
func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer s.lock.Unlock()

	return fn()
}

func (s *FileStore) ensureFile(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	return s.withLock(ctx, func() error {
		_, err := os.Stat(s.path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", s.path, err)
		}
		return s.write([]models.Checkin{})
	})
}

func (s *FileStore) read() ([]models.Checkin, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Checkin{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return []models.Checkin{}, nil
	}

	var records []models.Checkin
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if records == nil {
		records = []models.Checkin{}
	}
	return records, nil
}

func (s *FileStore) write(records []models.Checkin) error {
	if records == nil {
		records = []models.Checkin{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkins: %w", err)
	}

	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
