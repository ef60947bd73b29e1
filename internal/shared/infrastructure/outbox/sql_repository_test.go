package outbox_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/outbox"
)

func newSQLiteRepository(t *testing.T) *outbox.SQLRepository {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "outbox.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return outbox.NewSQLRepository(conn)
}

func TestSQLRepository_Lifecycle(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()

	first := saveEvent(t, repo, eventbus.RoutingExecuted, "dfgAddVar")
	second := saveEvent(t, repo, eventbus.RoutingFailed, "dfgAddVar")
	third := saveEvent(t, repo, eventbus.RoutingUndone, "dfgAddVar")
	assert.Less(t, first.ID, second.ID)

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, first.EventID, pending[0].EventID)
	assert.Equal(t, eventbus.RoutingExecuted, pending[0].RoutingKey)
	assert.JSONEq(t, string(first.Payload), string(pending[0].Payload))
	assert.WithinDuration(t, first.CreatedAt, pending[0].CreatedAt, time.Microsecond)

	limited, err := repo.GetUnpublished(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.MarkPublished(ctx, first.ID))
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "broker down", time.Now().Add(time.Hour)))
	require.NoError(t, repo.MarkDead(ctx, third.ID, "gave up"))

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A failure that is due again comes back with its retry state.
	require.NoError(t, repo.MarkFailed(ctx, second.ID, "still down", time.Now().Add(-time.Second)))
	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "still down", *pending[0].LastError)

	deleted, err := repo.DeleteOld(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	deleted, err = repo.DeleteOld(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestPublisher_StoresEvents(t *testing.T) {
	repo := newSQLiteRepository(t)
	ctx := context.Background()
	publisher := outbox.NewPublisher(repo)

	event := eventbus.NewCommandEvent(eventbus.RoutingExecuted, "dfgAddVar")
	require.NoError(t, eventbus.PublishEvent(ctx, publisher, event))
	assert.Error(t, publisher.Publish(ctx, eventbus.RoutingExecuted, []byte("not json")))
	require.NoError(t, publisher.Close())

	pending, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, event.EventID, pending[0].EventID)

	relay := newMockPublisher()
	processor := outbox.NewProcessor(repo, relay, outbox.DefaultProcessorConfig(), nil)
	require.NoError(t, processor.ProcessOnce(ctx))
	assert.Equal(t, 1, relay.PublishedCount())

	pending, err = repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
