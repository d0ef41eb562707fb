package metrics_test

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harwell-labs/snapforge/internal/invoker"
	"github.com/harwell-labs/snapforge/internal/metrics"
)

var _ invoker.Reporter = (*metrics.Metrics)(nil)

func TestRunCompleted_Live(t *testing.T) {
	m := metrics.New()

	m.RunCompleted("account-finance", 3, false, 50*time.Millisecond)
	m.RunCompleted("account-finance", 2, false, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("account-finance", "live")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RecordsWritten.WithLabelValues("account-finance")))
}

func TestRunCompleted_DryRunSkipsRecordCount(t *testing.T) {
	m := metrics.New()

	m.RunCompleted("account-finance", 3, true, 50*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("account-finance", "dry_run")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RecordsWritten.WithLabelValues("account-finance")))
}

func TestRunFailed(t *testing.T) {
	m := metrics.New()

	m.RunFailed("account-finance", errors.New("query failed"), 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("account-finance", "error")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	m := metrics.New()
	m.RunCompleted("account-finance", 1, false, time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "snapforge_runs_total")
	assert.Contains(t, rec.Body.String(), "snapforge_run_duration_seconds")
}
