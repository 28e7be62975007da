package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	m := New()

	m.MoodLogged()
	m.MoodLogged()
	m.CrisisAlertRaised()
	m.NotificationCreated("crisis_alert")
	m.NotificationCreated("appointment_created")
	m.NotificationCreated("crisis_alert")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.moodLogs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crisisAlerts))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("crisis_alert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("appointment_created")))
}

func TestRequestMetrics(t *testing.T) {
	m := New()

	m.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))

	m.RequestFinished("GET", "/api/mood/history", "200", 15*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/mood/history", "200")))
}

func TestJobRun(t *testing.T) {
	m := New()
	m.JobRun("appointment_reminders", nil)
	m.JobRun("appointment_reminders", errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("appointment_reminders", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("appointment_reminders", "false")))
}

func TestPanicRecovered(t *testing.T) {
	m := New()
	m.PanicRecovered("/api/mood")
	m.PanicRecovered("/api/mood")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.panics.WithLabelValues("/api/mood")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.panics.WithLabelValues("/api/gratitude")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted()
		m.RequestFinished("GET", "/", "200", time.Millisecond)
		m.MoodLogged()
		m.CrisisAlertRaised()
		m.NotificationCreated("x")
		m.JobRun("x", nil)
		m.PanicRecovered("/")
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.MoodLogged()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healingspace_mood_logs_total 1")
}
