package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/outbox"
)

// mockRepository is a test double for outbox.Repository
type mockRepository struct {
	mu           sync.Mutex
	messages     []*outbox.Message
	publishedIDs []int64
	failedIDs    []int64
	deadIDs      []int64
	cleanups     int
	listErr      error
}

func newMockRepository() *mockRepository {
	return &mockRepository{}
}

func (r *mockRepository) Save(ctx context.Context, msg *outbox.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = int64(len(r.messages) + 1)
	r.messages = append(r.messages, msg)
	return nil
}

func (r *mockRepository) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	var result []*outbox.Message
	now := time.Now()
	for _, msg := range r.messages {
		if msg.PublishedAt != nil || msg.DeadLetteredAt != nil {
			continue
		}
		if msg.NextRetryAt != nil && msg.NextRetryAt.After(now) {
			continue
		}
		result = append(result, msg)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *mockRepository) MarkPublished(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishedIDs = append(r.publishedIDs, id)
	now := time.Now()
	r.messages[id-1].PublishedAt = &now
	return nil
}

func (r *mockRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failedIDs = append(r.failedIDs, id)
	msg := r.messages[id-1]
	msg.RetryCount++
	msg.LastError = &errMsg
	msg.NextRetryAt = &nextRetryAt
	return nil
}

func (r *mockRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deadIDs = append(r.deadIDs, id)
	now := time.Now()
	msg := r.messages[id-1]
	msg.DeadLetteredAt = &now
	msg.DeadLetterReason = &reason
	return nil
}

func (r *mockRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleanups++
	return 0, nil
}

func (r *mockRepository) cleanupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cleanups
}

// mockPublisher is a test double for eventbus.Publisher
type mockPublisher struct {
	mu          sync.Mutex
	published   []string
	failForKeys map[string]bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failForKeys: make(map[string]bool)}
}

func (p *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failForKeys[routingKey] {
		return errors.New("publish failed")
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *mockPublisher) Close() error {
	return nil
}

func (p *mockPublisher) PublishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func saveEvent(t *testing.T, repo outbox.Repository, routingKey, command string) *outbox.Message {
	t.Helper()
	event := eventbus.NewCommandEvent(routingKey, command)
	event.InvocationID = "inv-" + command
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), msg))
	return msg
}

func TestProcessor_ProcessOnce(t *testing.T) {
	repo := newMockRepository()
	publisher := newMockPublisher()
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	saveEvent(t, repo, eventbus.RoutingExecuted, "dfgAddVar")
	saveEvent(t, repo, eventbus.RoutingUndone, "dfgAddVar")

	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, 2, publisher.PublishedCount())
	assert.Equal(t, []int64{1, 2}, repo.publishedIDs)

	stats := processor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	assert.NotNil(t, stats.LastProcessedAt)
	assert.NotNil(t, stats.OldestMessageAt)
	assert.GreaterOrEqual(t, stats.LagSeconds, 0.0)

	// Nothing left to relay.
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, 2, publisher.PublishedCount())
	assert.Nil(t, processor.GetStats().OldestMessageAt)
}

func TestProcessor_ProcessOnce_PublishFailure(t *testing.T) {
	repo := newMockRepository()
	publisher := newMockPublisher()
	publisher.failForKeys[eventbus.RoutingFailed] = true
	processor := outbox.NewProcessor(repo, publisher, outbox.DefaultProcessorConfig(), nil)

	saveEvent(t, repo, eventbus.RoutingExecuted, "dfgAddVar")
	failing := saveEvent(t, repo, eventbus.RoutingFailed, "dfgAddVar")

	before := time.Now()
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, 1, publisher.PublishedCount())
	assert.Len(t, repo.publishedIDs, 1)
	assert.Equal(t, []int64{failing.ID}, repo.failedIDs)

	require.NotNil(t, failing.NextRetryAt)
	assert.WithinDuration(t, before.Add(time.Second), *failing.NextRetryAt, 500*time.Millisecond)
	assert.Equal(t, "publish failed", *failing.LastError)

	// The retry is not due yet.
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Len(t, repo.failedIDs, 1)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.PublishedCount)
	assert.Equal(t, uint64(1), stats.FailedCount)
	assert.NotNil(t, stats.LastErrorAt)
}

func TestProcessor_ProcessOnce_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := newMockRepository()
	publisher := newMockPublisher()
	publisher.failForKeys[eventbus.RoutingExecuted] = true
	config := outbox.DefaultProcessorConfig()
	config.MaxRetries = 2
	config.RetryBackoffBase = time.Nanosecond
	config.RetryBackoffMax = time.Nanosecond
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	msg := saveEvent(t, repo, eventbus.RoutingExecuted, "dfgAddVar")

	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Len(t, repo.failedIDs, 1)
	assert.Empty(t, repo.deadIDs)

	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, []int64{msg.ID}, repo.deadIDs)
	assert.NotNil(t, msg.DeadLetteredAt)
	assert.Equal(t, uint64(1), processor.GetStats().DeadCount)
	assert.Zero(t, publisher.PublishedCount())
}

func TestProcessor_ProcessOnce_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.listErr = errors.New("database is locked")
	processor := outbox.NewProcessor(repo, newMockPublisher(), outbox.DefaultProcessorConfig(), nil)

	err := processor.ProcessOnce(context.Background())
	assert.EqualError(t, err, "database is locked")
	assert.Equal(t, "database is locked", processor.GetStats().LastError)
}

func TestProcessor_StartStop(t *testing.T) {
	repo := newMockRepository()
	publisher := newMockPublisher()
	config := outbox.ProcessorConfig{
		PollInterval:     5 * time.Millisecond,
		BatchSize:        10,
		MaxRetries:       3,
		RetryBackoffBase: time.Millisecond,
		RetryBackoffMax:  10 * time.Millisecond,
		Retention:        time.Hour,
		CleanupInterval:  5 * time.Millisecond,
	}
	processor := outbox.NewProcessor(repo, publisher, config, nil)

	require.NoError(t, processor.Start(context.Background()))
	assert.True(t, processor.IsRunning())
	assert.True(t, processor.GetStats().IsRunning)

	// Start is idempotent.
	require.NoError(t, processor.Start(context.Background()))

	saveEvent(t, repo, eventbus.RoutingExecuted, "dfgAddVar")

	require.Eventually(t, func() bool { return publisher.PublishedCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return repo.cleanupCount() > 0 }, time.Second, 5*time.Millisecond)

	processor.Stop()
	assert.False(t, processor.IsRunning())
	processor.Stop()
}

func TestMessage(t *testing.T) {
	event := eventbus.NewCommandEvent(eventbus.RoutingExecuted, "dfgAddVar")
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID, msg.EventID)
	assert.Equal(t, eventbus.RoutingExecuted, msg.RoutingKey)
	assert.Equal(t, event.OccurredAt, msg.CreatedAt)
	assert.Contains(t, string(msg.Payload), `"command":"dfgAddVar"`)
	assert.Nil(t, msg.PublishedAt)
	assert.Zero(t, msg.ID)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		ceiling time.Duration
		attempt int
		want    time.Duration
	}{
		{"first retry", time.Second, time.Minute, 1, time.Second},
		{"doubles", time.Second, time.Minute, 3, 4 * time.Second},
		{"capped", time.Second, time.Minute, 10, time.Minute},
		{"huge attempt", time.Second, time.Minute, 200, time.Minute},
		{"zero attempt", time.Second, time.Minute, 0, time.Second},
		{"defaults", 0, 0, 2, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outbox.Backoff(tt.base, tt.ceiling, tt.attempt))
		})
	}
}
