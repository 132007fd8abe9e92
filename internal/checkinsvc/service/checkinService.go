package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/checkinsvc/store"
	"github.com/avvvet/checkin-services/internal/comm"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNameContactRequired = errors.New("name and contact required")
	ErrIDRequired          = errors.New("id required")
)

// EventPublisher receives a notification after every successful mutation.
type EventPublisher interface {
	PublishCheckinEvent(eventType string, ev comm.CheckinEvent)
}

type CheckinService struct {
	store   store.CheckinStore
	events  EventPublisher
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// NewCheckinService wires a store and an optional publisher. A zero timeout
// leaves store calls bounded only by the caller's context.
func NewCheckinService(s store.CheckinStore, events EventPublisher, timeout time.Duration) *CheckinService {
	return &CheckinService{
		store:   s,
		events:  events,
		timeout: timeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *CheckinService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// List returns every record, newest first. Records sharing a timestamp keep
// the order the store returned them in.
func (s *CheckinService) List(ctx context.Context) ([]models.Checkin, error) {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	records, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Checkin{}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

func (s *CheckinService) Create(ctx context.Context, in models.CheckinInput) (models.Checkin, error) {
	c := models.Checkin{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name.String()),
		Contact:   strings.TrimSpace(in.Contact.String()),
		IsNew:     in.IsNew.Bool(),
		Guests:    in.Guests.Int(),
		EventID:   strings.TrimSpace(in.EventID.String()),
		Timestamp: s.timestamp(strings.TrimSpace(in.Timestamp.String())),
	}
	if c.Name == "" || c.Contact == "" {
		return models.Checkin{}, ErrNameContactRequired
	}
	if c.EventID == "" {
		c.EventID = models.DefaultEventID
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return models.Checkin{}, err
	}

	s.publish(comm.CheckinCreated, comm.CheckinEvent{Checkin: &created})
	return created, nil
}

// clientTimeLayouts are the ISO 8601 forms accepted from clients. Layouts
// without an offset are read as UTC.
var clientTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timestamp honours a client supplied ISO 8601 time and falls back to the
// server clock for anything else.
func (s *CheckinService) timestamp(raw string) time.Time {
	if raw != "" {
		for _, layout := range clientTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC().Truncate(time.Millisecond)
			}
		}
		log.Warnf("ignoring unparseable client timestamp %q", raw)
	}
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *CheckinService) Update(ctx context.Context, u models.CheckinUpdate) (models.Checkin, error) {
	id := strings.TrimSpace(u.ID.String())
	if id == "" {
		return models.Checkin{}, ErrIDRequired
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	updated, err := s.store.Update(ctx, id, u.Patch())
	if err != nil {
		return models.Checkin{}, err
	}

	s.publish(comm.CheckinUpdated, comm.CheckinEvent{Checkin: &updated})
	return updated, nil
}

func (s *CheckinService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrIDRequired
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(comm.CheckinDeleted, comm.CheckinEvent{ID: id})
	return nil
}

func (s *CheckinService) DeleteAll(ctx context.Context) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.DeleteAll(ctx); err != nil {
		return err
	}

	s.publish(comm.CheckinsCleared, comm.CheckinEvent{})
	return nil
}

// Ping probes the underlying store.
func (s *CheckinService) Ping(ctx context.Context) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *CheckinService) publish(eventType string, ev comm.CheckinEvent) {
	if s.events == nil {
		return
	}
	s.events.PublishCheckinEvent(eventType, ev)
}
