package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const checkinColumns = `id, name, contact, is_new, guests, event_id, checked_in_at`

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Checkin, error) {
	query := `
		SELECT ` + checkinColumns + `
		FROM checkins
		ORDER BY checked_in_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	defer rows.Close()

	checkins := []models.Checkin{}
	for rows.Next() {
		c, err := scanCheckin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkin: %w", err)
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return checkins, nil
}

func (s *PostgresStore) Create(ctx context.Context, c models.Checkin) (models.Checkin, error) {
	query := `
		INSERT INTO checkins (` + checkinColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + checkinColumns

	row := s.db.QueryRow(ctx, query, c.ID, c.Name, c.Contact, c.IsNew, c.Guests, c.EventID, c.Timestamp)
	created, err := scanCheckin(row)
	if err != nil {
		return models.Checkin{}, fmt.Errorf("could not create checkin: %w", err)
	}
	return created, nil
}

// Update sets only the non-nil fields of p; COALESCE keeps the stored value
// for the others.
func (s *PostgresStore) Update(ctx context.Context, id string, p models.CheckinPatch) (models.Checkin, error) {
	query := `
		UPDATE checkins
		SET name    = COALESCE($2, name),
		    contact = COALESCE($3, contact),
		    guests  = COALESCE($4, guests),
		    is_new  = COALESCE($5, is_new)
		WHERE id = $1
		RETURNING ` + checkinColumns

	row := s.db.QueryRow(ctx, query, id, p.Name, p.Contact, p.Guests, p.IsNew)
	updated, err := scanCheckin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Checkin{}, ErrNotFound
		}
		return models.Checkin{}, fmt.Errorf("failed to update checkin %s: %w", id, err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM checkins WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete checkin %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM checkins`); err != nil {
		return fmt.Errorf("failed to clear checkins: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanCheckin(row pgx.Row) (models.Checkin, error) {
	var c models.Checkin
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Contact,
		&c.IsNew,
		&c.Guests,
		&c.EventID,
		&c.Timestamp,
	)
	if err != nil {
		return models.Checkin{}, err
	}
	c.Timestamp = c.Timestamp.UTC()
	return c, nil
}
