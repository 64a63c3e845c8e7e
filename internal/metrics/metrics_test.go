package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New("bookly")

	m.BookingOutcome("created")
	m.Rejected("CONFLICT")
	m.Rejected("CONFLICT")
	m.Transitioned("CONFIRMED", "COMPLETED")
	m.Completed(3)
	m.CacheLookup(true)
	m.ObserveAvailability(5 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingAttempts.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingAttempts.WithLabelValues("rejected")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingRejections.WithLabelValues("CONFLICT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CompletedBySweep))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bookly_booking_rejections_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BookingOutcome("created")
	m.Rejected("CONFLICT")
	m.Transitioned("a", "b")
	m.ObserveAvailability(time.Second)
	m.Retried()
	m.CacheLookup(false)
	m.Completed(1)
	m.ObserveRPC("/x", "OK", time.Second)
	assert.Nil(t, m.Registry())
}
