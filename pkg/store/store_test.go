package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/cv"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/session"
	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/store"
)

// newTestStore spins up a disposable Postgres container and opens a Store
// against it.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("cvwizard"),
		tcpostgres.WithUsername("cvwizard"),
		tcpostgres.WithPassword("cvwizard"),
		testcontainers.WithWaitStrategyAndDeadline(60*time.Second,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := store.Config{
		Host:     host,
		Port:     port.Int(),
		User:     "cvwizard",
		Password: "cvwizard",
		Database: "cvwizard",
		SSLMode:  "disable",
	}

	s, err := store.Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStore_PutGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := session.New("sess-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, rec, 0))

	got, err := s.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, rec.SessionID, got.SessionID)

	d, err := got.CV()
	require.NoError(t, err)
	require.Equal(t, cv.LanguageEN, d.Language)
}

func TestStore_Put_VersionConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := session.New("sess-2", time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, rec, 0))

	rec.Version = 2
	require.NoError(t, s.Put(ctx, rec, 1))

	stale := *rec
	stale.Version = 3
	err = s.Put(ctx, &stale, 1)
	require.ErrorIs(t, err, store.ErrVersionConflict)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_Put_OffloadsOversizedField(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := session.New("sess-3", time.Hour)
	require.NoError(t, err)

	d, err := rec.CV()
	require.NoError(t, err)
	d.Profile = strings.Repeat("x", 40)
	for i := 0; i < 400; i++ {
		d.WorkExperience = append(d.WorkExperience, cv.WorkRole{
			DateRange: "2020-2021",
			Employer:  "Acme Corp",
			Location:  "Remote",
			Title:     "Engineer",
			Bullets:   []string{strings.Repeat("did a thing ", 10)},
		})
	}
	require.NoError(t, rec.SetCV(d))
	require.NoError(t, s.Put(ctx, rec, 0))

	raw, err := s.GetRaw(ctx, "sess-3")
	require.NoError(t, err)
	require.True(t, raw.CVData.IsOffloaded(), "large cv_data should have been offloaded")

	got, err := s.Get(ctx, "sess-3")
	require.NoError(t, err)
	resolved, err := got.CV()
	require.NoError(t, err)
	require.Len(t, resolved.WorkExperience, 400)
}
