package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthStatus_Worse(t *testing.T) {
	assert.Equal(t, HealthStatusDegraded, HealthStatusHealthy.Worse(HealthStatusDegraded))
	assert.Equal(t, HealthStatusUnhealthy, HealthStatusUnhealthy.Worse(HealthStatusDegraded))
	assert.Equal(t, HealthStatusHealthy, HealthStatusHealthy.Worse(HealthStatusHealthy))
}

func TestHealthRegistry(t *testing.T) {
	r := NewHealthRegistry()
	assert.Equal(t, HealthStatusHealthy, r.GetOverallHealth(context.Background()).Status)

	r.Register("journal", DatabaseHealthChecker(func(context.Context) error { return nil }))
	r.Register("events", BreakerHealthChecker(func() string { return "closed" }))

	h := r.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusHealthy, h.Status)
	assert.Len(t, h.Checks, 2)

	r.Register("events", BreakerHealthChecker(func() string { return "open" }))
	h = r.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusDegraded, h.Status)
	assert.Equal(t, "open", h.Checks["events"].Details["state"])
	assert.Equal(t, []string{"journal", "events"}, r.Names())

	r.Register("journal", DatabaseHealthChecker(func(context.Context) error { return errors.New("locked") }))
	h = r.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, h.Status)
	assert.Contains(t, h.Checks["journal"].Message, "locked")

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"unhealthy"`)
}

func TestHealthRegistry_CheckOne(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("journal", DatabaseHealthChecker(func(context.Context) error { return nil }))

	res, ok := r.CheckOne(context.Background(), "journal")
	require.True(t, ok)
	assert.Equal(t, HealthStatusHealthy, res.Status)
	assert.False(t, res.Timestamp.IsZero())

	_, ok = r.CheckOne(context.Background(), "missing")
	assert.False(t, ok)
}

func TestHealthRegistry_Timeout(t *testing.T) {
	r := NewHealthRegistry()
	r.SetTimeout(20 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	r.Register("journal", func(context.Context) HealthCheckResult {
		<-release
		return HealthCheckResult{Status: HealthStatusHealthy}
	})

	res, ok := r.CheckOne(context.Background(), "journal")
	require.True(t, ok)
	assert.Equal(t, HealthStatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "check timed out")
}
