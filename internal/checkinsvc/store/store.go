package store

import (
	"context"
	"errors"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
)

// ErrNotFound is returned by Update and Delete when no record has the id.
var ErrNotFound = errors.New("not found")

// CheckinStore persists check-in records. Implementations store what they are
// given: ids, defaults and validation are the service's job.
type CheckinStore interface {
	List(ctx context.Context) ([]models.Checkin, error)
	Create(ctx context.Context, c models.Checkin) (models.Checkin, error)
	Update(ctx context.Context, id string, p models.CheckinPatch) (models.Checkin, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
