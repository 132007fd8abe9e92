package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
	"github.com/avvvet/checkin-services/internal/db"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) CheckinStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) CheckinStore {
			return NewMemoryStore()
		},
		"file": func(t *testing.T) CheckinStore {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "checkins.json"))
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
		"sqlite": func(t *testing.T) CheckinStore {
			conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "checkins.db"))
			require.NoError(t, err)
			s := NewSQLiteStore(conn, db.NewWorker(conn))
			t.Cleanup(func() { s.Close() })
			return s
		},
		"postgres": func(t *testing.T) CheckinStore {
			dsn := os.Getenv("POSTGRES_TEST_URL")
			if dsn == "" {
				t.Skip("POSTGRES_TEST_URL not set")
			}
			ctx := context.Background()
			pool, err := db.ConnectPostgres(ctx, dsn)
			require.NoError(t, err)
			require.NoError(t, db.EnsurePostgresSchema(ctx, pool))
			s := NewPostgresStore(pool)
			require.NoError(t, s.DeleteAll(ctx))
			t.Cleanup(func() { s.Close() })
			return s
		},
		"mongo": func(t *testing.T) CheckinStore {
			uri := os.Getenv("MONGODB_TEST_URI")
			if uri == "" {
				t.Skip("MONGODB_TEST_URI not set")
			}
			ctx := context.Background()
			database, err := db.ConnectToMongo(ctx, uri)
			require.NoError(t, err)
			s := NewMongoStore(database, "checkins_test")
			require.NoError(t, s.DeleteAll(ctx))
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func newRecord(name string, ts time.Time) models.Checkin {
	return models.Checkin{
		ID:        uuid.NewString(),
		Name:      name,
		Contact:   "8888-0000",
		EventID:   models.DefaultEventID,
		Timestamp: ts.UTC().Truncate(time.Millisecond),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestCheckinStore_Contract(t *testing.T) {
	for name, factory := range backends() {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Run("CreateThenList", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()

				rec := newRecord("Ana", time.Now())
				created, err := s.Create(ctx, rec)
				require.NoError(t, err)
				assert.Equal(t, rec, created)

				list, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, rec, list[0])
			})

			t.Run("EmptyListIsNotNil", func(t *testing.T) {
				s := factory(t)
				list, err := s.List(context.Background())
				require.NoError(t, err)
				assert.NotNil(t, list)
				assert.Empty(t, list)
			})

			t.Run("UpdatePartial", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				rec := newRecord("Ana", time.Now())
				_, err := s.Create(ctx, rec)
				require.NoError(t, err)

				updated, err := s.Update(ctx, rec.ID, models.CheckinPatch{Guests: intPtr(3), IsNew: boolPtr(true)})
				require.NoError(t, err)
				assert.Equal(t, "Ana", updated.Name)
				assert.Equal(t, rec.Contact, updated.Contact)
				assert.Equal(t, 3, updated.Guests)
				assert.True(t, updated.IsNew)
				assert.Equal(t, rec.EventID, updated.EventID)
				assert.True(t, rec.Timestamp.Equal(updated.Timestamp))

				updated, err = s.Update(ctx, rec.ID, models.CheckinPatch{Name: strPtr("Ana María")})
				require.NoError(t, err)
				assert.Equal(t, "Ana María", updated.Name)
				assert.Equal(t, 3, updated.Guests)

				updated, err = s.Update(ctx, rec.ID, models.CheckinPatch{})
				require.NoError(t, err)
				assert.Equal(t, "Ana María", updated.Name)
			})

			t.Run("UpdateMissing", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				rec := newRecord("Ana", time.Now())
				_, err := s.Create(ctx, rec)
				require.NoError(t, err)

				_, err = s.Update(ctx, "does-not-exist", models.CheckinPatch{Name: strPtr("x")})
				assert.ErrorIs(t, err, ErrNotFound)

				list, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, "Ana", list[0].Name)
			})

			t.Run("DeleteOne", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				a := newRecord("A", time.Now())
				b := newRecord("B", time.Now().Add(time.Minute))
				_, err := s.Create(ctx, a)
				require.NoError(t, err)
				_, err = s.Create(ctx, b)
				require.NoError(t, err)

				require.NoError(t, s.Delete(ctx, a.ID))
				assert.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)

				list, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, b.ID, list[0].ID)
			})

			t.Run("DeleteAll", func(t *testing.T) {
				s := factory(t)
				ctx := context.Background()
				for i := 0; i < 3; i++ {
					_, err := s.Create(ctx, newRecord("x", time.Now()))
					require.NoError(t, err)
				}

				require.NoError(t, s.DeleteAll(ctx))
				list, err := s.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, list)
			})

			t.Run("Ping", func(t *testing.T) {
				s := factory(t)
				assert.NoError(t, s.Ping(context.Background()))
			})
		})
	}
}
