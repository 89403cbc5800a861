package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestObserveRequest(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveRequest(http.MethodGet, "GET /api/bins", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "GET /api/bins", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "GET /api/bins", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestObserveSheetCall(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveSheetCall("get", 10*time.Millisecond, nil)
	m.ObserveSheetCall("get", 10*time.Millisecond, errors.New("quota"))
	m.ObserveSheetCall("append", 10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sheetCallsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sheetCallsTotal.WithLabelValues("get", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sheetCallsTotal.WithLabelValues("append", "success")))
}

func TestObserveAuthAndJournal(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveAuth("hit")
	m.ObserveAuth("hit")
	m.ObserveAuth("rejected")
	m.JournalWriteFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authVerificationsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authVerificationsTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.journalWriteErrors))
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveSheetCall("clear", time.Millisecond, nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `parrotops_sheet_calls_total{operation="clear",status="success"} 1`)
}
