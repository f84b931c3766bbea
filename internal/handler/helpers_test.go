package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkordes/hos-logbook/internal/domain"
	"github.com/pkordes/hos-logbook/internal/handler"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// deps bundles the mocks for one test server. Nil fields stay nil.
type deps struct {
	timeline *mockTimeline
	hours    *mockHours
	logs     *mockDailyLogs
	trips    *mockTrips
}

// newHTTPHandler wires a Server with the given mocks into a chi router,
// the same way main.go wires it in production.
func newHTTPHandler(d deps) http.Handler {
	var (
		tl handler.TimelineServicer
		hs handler.HoursServicer
		ls handler.DailyLogServicer
		ts handler.TripServicer
	)
	if d.timeline != nil {
		tl = d.timeline
	}
	if d.hours != nil {
		hs = d.hours
	}
	if d.logs != nil {
		ls = d.logs
	}
	if d.trips != nil {
		ts = d.trips
	}
	srv := handler.NewServer(tl, hs, ls, ts,
		handler.WithClock(domain.ClockFunc(func() time.Time { return testNow })),
		handler.WithLogger(discardLogger()),
	)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
