package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamhub/pkg/metrics"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

func TestCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewWithRegistry(reg, reg)

	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed("slow_consumer")
	c.SubscriptionAdded(stream.KindPublic)
	c.SubscriptionAdded(stream.KindPublic)
	c.SubscriptionRemoved(stream.KindPublic)
	c.EventPublished(stream.EventStatusCreated)
	c.EventDelivered(stream.EventStatusCreated)
	c.EventDropped(stream.EventStatusCreated, stream.DropQueueFull)
	c.LookupFailed("followers")
	c.MessageIngested("ok")

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, count)

	expected := `
# HELP streaming_connections Number of open streaming connections.
# TYPE streaming_connections gauge
streaming_connections 1
# HELP streaming_connections_closed_total Closed streaming connections by reason.
# TYPE streaming_connections_closed_total counter
streaming_connections_closed_total{reason="slow_consumer"} 1
# HELP streaming_subscriptions Active subscriptions by stream kind.
# TYPE streaming_subscriptions gauge
streaming_subscriptions{stream="public"} 1
# HELP streaming_deliveries_dropped_total Deliveries dropped by kind and reason.
# TYPE streaming_deliveries_dropped_total counter
streaming_deliveries_dropped_total{kind="status.created",reason="queue_full"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"streaming_connections",
		"streaming_connections_closed_total",
		"streaming_subscriptions",
		"streaming_deliveries_dropped_total",
	))
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := metrics.New()
	c.EventPublished(stream.EventNotificationCreated)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `streaming_events_published_total{kind="notification.created"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
