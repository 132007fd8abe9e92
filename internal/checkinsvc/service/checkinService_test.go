package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/checkinsvc/store"
	"github.com/avvvet/checkin-services/internal/comm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	Type  string
	Event comm.CheckinEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishCheckinEvent(eventType string, ev comm.CheckinEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Event: ev})
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// blockingStore waits for the context on every call.
type blockingStore struct{ store.MemoryStore }

func (b *blockingStore) List(ctx context.Context) ([]models.Checkin, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestService(t *testing.T) (*CheckinService, *store.MemoryStore, *fakePublisher) {
	t.Helper()
	st := store.NewMemoryStore()
	pub := &fakePublisher{}
	svc := NewCheckinService(st, pub, time.Second)
	return svc, st, pub
}

func decodeInput(t *testing.T, body string) models.CheckinInput {
	t.Helper()
	var in models.CheckinInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func decodeUpdate(t *testing.T, body string) models.CheckinUpdate {
	t.Helper()
	var u models.CheckinUpdate
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	return u
}

func TestCreate_RoundTripWithDefaults(t *testing.T) {
	svc, _, pub := newTestService(t)
	fixed := time.Date(2024, 3, 10, 15, 4, 5, 123456789, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	created, err := svc.Create(ctx, decodeInput(t, `{"name":"  Ana ","contact":"8888-0000"}`))
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ana", created.Name)
	assert.Equal(t, "8888-0000", created.Contact)
	assert.Equal(t, models.DefaultEventID, created.EventID)
	assert.Equal(t, 0, created.Guests)
	assert.False(t, created.IsNew)
	assert.True(t, fixed.Truncate(time.Millisecond).Equal(created.Timestamp))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])

	assert.Equal(t, []string{comm.CheckinCreated}, pub.types())
}

func TestCreate_RequiresNameAndContact(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	bodies := []string{
		`{}`,
		`{"name":"Ana"}`,
		`{"contact":"8888-0000"}`,
		`{"name":"   ","contact":"8888-0000"}`,
		`{"name":"Ana","contact":null}`,
	}
	for _, body := range bodies {
		_, err := svc.Create(ctx, decodeInput(t, body))
		assert.ErrorIs(t, err, ErrNameContactRequired, body)
	}

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, pub.types())
}

func TestCreate_GuestsCoercion(t *testing.T) {
	svc, _, _ := newTestService(t)

	created, err := svc.Create(context.Background(),
		decodeInput(t, `{"name":"A","contact":"B","guests":"-5"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, created.Guests)

	created, err = svc.Create(context.Background(),
		decodeInput(t, `{"name":"A","contact":"B","guests":"3","isNew":"yes","eventId":"culto"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, created.Guests)
	assert.True(t, created.IsNew)
	assert.Equal(t, "culto", created.EventID)
}

func TestCreate_ClientTimestamp(t *testing.T) {
	svc, _, _ := newTestService(t)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	created, err := svc.Create(context.Background(),
		decodeInput(t, `{"name":"A","contact":"B","timestamp":"2024-12-24T20:30:00.250-06:00"}`))
	require.NoError(t, err)
	want := time.Date(2024, 12, 25, 2, 30, 0, 250*int(time.Millisecond), time.UTC)
	assert.True(t, want.Equal(created.Timestamp), created.Timestamp)

	created, err = svc.Create(context.Background(),
		decodeInput(t, `{"name":"A","contact":"B","timestamp":"next sunday"}`))
	require.NoError(t, err)
	assert.True(t, fixed.Equal(created.Timestamp))
}

func TestCreate_ClientTimestampWithoutOffsetIsUTC(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	cases := map[string]time.Time{
		"2024-01-01":              time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"2024-01-01T10:00:00":     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01T10:00:00.125": time.Date(2024, 1, 1, 10, 0, 0, 125*int(time.Millisecond), time.UTC),
		"2024-01-01T10:00":        time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		"2024-01-01 10:00:00":     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		created, err := svc.Create(context.Background(),
			decodeInput(t, `{"name":"A","contact":"B","timestamp":"`+raw+`"}`))
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(created.Timestamp), "%s: got %s", raw, created.Timestamp)
	}
}

func TestList_SortedNewestFirstAndStable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	times := []time.Time{base, base.Add(2 * time.Hour), base.Add(time.Hour), base.Add(2 * time.Hour)}
	var ids []string
	for i, ts := range times {
		tsCopy := ts
		svc.now = func() time.Time { return tsCopy }
		c, err := svc.Create(ctx, decodeInput(t, `{"name":"n","contact":"c"}`))
		require.NoError(t, err, i)
		ids = append(ids, c.ID)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	got := []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	assert.Equal(t, []string{ids[1], ids[3], ids[2], ids[0]}, got)

	again, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, list, again)
}

func TestUpdate(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, decodeInput(t, `{"name":"Ana","contact":"8888-0000"}`))
	require.NoError(t, err)

	_, err = svc.Update(ctx, decodeUpdate(t, `{"guests":2}`))
	assert.ErrorIs(t, err, ErrIDRequired)

	_, err = svc.Update(ctx, decodeUpdate(t, `{"id":"missing","guests":2}`))
	assert.ErrorIs(t, err, store.ErrNotFound)

	updated, err := svc.Update(ctx, decodeUpdate(t, `{"id":"`+created.ID+`","guests":"4","isNew":1}`))
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Guests)
	assert.True(t, updated.IsNew)
	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, created.Timestamp, updated.Timestamp)
	assert.Equal(t, created.EventID, updated.EventID)

	assert.Equal(t, []string{comm.CheckinCreated, comm.CheckinUpdated}, pub.types())
}

func TestDelete(t *testing.T) {
	svc, st, pub := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, decodeInput(t, `{"name":"A","contact":"1"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, decodeInput(t, `{"name":"B","contact":"2"}`))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "  "), ErrIDRequired)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), store.ErrNotFound)

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.Delete(ctx, a.ID))
	list, err = st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)

	require.NoError(t, svc.DeleteAll(ctx))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Equal(t, []string{
		comm.CheckinCreated, comm.CheckinCreated, comm.CheckinDeleted, comm.CheckinsCleared,
	}, pub.types())
	assert.Equal(t, a.ID, pub.events[2].Event.ID)
}

func TestStoreTimeout(t *testing.T) {
	svc := NewCheckinService(&blockingStore{}, nil, 20*time.Millisecond)

	_, err := svc.List(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err)
}

func TestNilPublisher(t *testing.T) {
	svc := NewCheckinService(store.NewMemoryStore(), nil, 0)

	_, err := svc.Create(context.Background(), decodeInput(t, `{"name":"A","contact":"B"}`))
	assert.NoError(t, err)
}
