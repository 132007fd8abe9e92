package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	dbpkg "github.com/avvvet/checkin-services/internal/db"
)

// SQLiteStore reads on the shared connection and sends every write through
// the single-writer worker.
type SQLiteStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSQLiteStore(db *sql.DB, writer *dbpkg.Worker) *SQLiteStore {
	return &SQLiteStore{db: db, writer: writer}
}

const sqliteColumns = `id, name, contact, is_new, guests, event_id, timestamp_ms`

func (s *SQLiteStore) List(ctx context.Context) ([]models.Checkin, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+sqliteColumns+`
FROM checkins
ORDER BY timestamp_ms DESC, rowid ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	checkins := []models.Checkin{}
	for rows.Next() {
		c, err := scanSQLiteCheckin(rows)
		if err != nil {
			return nil, err
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkins rows: %w", err)
	}
	return checkins, nil
}

func (s *SQLiteStore) Create(ctx context.Context, c models.Checkin) (models.Checkin, error) {
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO checkins (`+sqliteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
			c.ID, c.Name, c.Contact, boolToInt(c.IsNew), c.Guests, c.EventID, c.Timestamp.UTC().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("insert checkin: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Checkin{}, err
	}

	// match what a later List returns
	c.Timestamp = time.UnixMilli(c.Timestamp.UnixMilli()).UTC()
	return c, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, p models.CheckinPatch) (models.Checkin, error) {
	var isNew any
	if p.IsNew != nil {
		isNew = boolToInt(*p.IsNew)
	}

	var updated models.Checkin
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE checkins
SET name    = COALESCE(?, name),
    contact = COALESCE(?, contact),
    guests  = COALESCE(?, guests),
    is_new  = COALESCE(?, is_new)
WHERE id = ?;`,
			p.Name, p.Contact, p.Guests, isNew, id,
		)
		if err != nil {
			return fmt.Errorf("update checkin %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update checkin %s rows: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}

		row := tx.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM checkins WHERE id = ?;`, id)
		updated, err = scanSQLiteCheckin(row)
		return err
	})
	if err != nil {
		return models.Checkin{}, err
	}
	return updated, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM checkins WHERE id = ?;`, id)
		if err != nil {
			return fmt.Errorf("delete checkin %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete checkin %s rows: %w", id, err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checkins;`); err != nil {
			return fmt.Errorf("clear checkins: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	s.writer.Close()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCheckin(row rowScanner) (models.Checkin, error) {
	var (
		c     models.Checkin
		isNew int
		tsMs  int64
	)
	err := row.Scan(&c.ID, &c.Name, &c.Contact, &isNew, &c.Guests, &c.EventID, &tsMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Checkin{}, ErrNotFound
		}
		return models.Checkin{}, fmt.Errorf("scan checkin: %w", err)
	}
	c.IsNew = isNew != 0
	c.Timestamp = time.UnixMilli(tsMs).UTC()
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
