package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"worklog/backend/internal/model"
	"worklog/backend/internal/retry"
	"worklog/backend/internal/wire"
)

var errDropped = errors.New("connection dropped")

// flakyTransport fails the first failures round trips without a response.
type flakyTransport struct {
	failures int32
	calls    atomic.Int32
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) <= f.failures {
		return nil, errDropped
	}
	return f.next.RoundTrip(req)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastPolicy() retry.Policy {
	return retry.NewPolicy(retry.BackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func newClient(t *testing.T, handler http.Handler, transport *flakyTransport) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	httpClient := server.Client()
	if transport != nil {
		transport.next = httpClient.Transport
		httpClient = &http.Client{Transport: transport}
	}
	return New(server.URL+"/", httpClient, fastPolicy(), clockwork.NewRealClock(), time.UTC, quietLogger())
}

func TestIdempotentRequestsRetryNetworkErrors(t *testing.T) {
	var path, query string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[]}`))
	})
	transport := &flakyTransport{failures: 2}
	c := newClient(t, handler, transport)

	records, err := c.TimeRecords().RecordsForMonth(context.Background(), 2025, time.March)
	require.NoError(t, err)
	require.Empty(t, records)
	require.EqualValues(t, 3, transport.calls.Load())
	require.Equal(t, "/records", path)
	require.Equal(t, "month=3&year=2025", query)
}

func TestRetriesStopWhenPolicyIsExhausted(t *testing.T) {
	transport := &flakyTransport{failures: 10}
	c := newClient(t, http.NotFoundHandler(), transport)

	err := c.DeleteRecord(context.Background(), uuid.NewString())
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.MethodDelete, netErr.Method)
	require.ErrorIs(t, err, errDropped)
	require.EqualValues(t, 3, transport.calls.Load())
}

func TestPostIsNotRetried(t *testing.T) {
	transport := &flakyTransport{failures: 1}
	c := newClient(t, http.NotFoundHandler(), transport)

	checkIn := wire.NewTimestamp(time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))
	_, err := c.CreateRecord(context.Background(), wire.TimeRecord{ID: uuid.New(), CheckIn: &checkIn})
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.EqualValues(t, 1, transport.calls.Load())
}

func TestStatusErrorCarriesServerCode(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(wire.ErrorBody{Error: wire.ErrorDetail{Code: "break_time_not_found", Message: "break time not found"}})
	})
	c := newClient(t, handler, nil)

	_, err := c.BreakTimes().Get(context.Background(), uuid.New())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Equal(t, "break_time_not_found", statusErr.Code)
	require.True(t, IsNotFound(err))
	require.EqualValues(t, 1, calls.Load(), "status errors are not retried")
}

func TestStatusErrorWithoutBody(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	c := newClient(t, handler, nil)

	_, err := c.ListUptimes(context.Background(), 2025, time.March)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	require.Empty(t, statusErr.Code)
	require.Equal(t, "HTTP 502", statusErr.Error())
}

func TestUpdateSendsFullBreakList(t *testing.T) {
	id := uuid.New()
	var (
		received wire.TimeRecord
		method   string
		path     string
	)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(wire.Records{Records: []wire.TimeRecord{received}})
	})
	c := newClient(t, handler, nil)

	checkIn := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	record := model.NewTimeRecord(id, checkIn)

	stored, err := c.TimeRecords().Update(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, method)
	require.Equal(t, "/records/"+id.String(), path)
	require.NotNil(t, received.BreakTimes, "an empty break list is still sent")
	require.Empty(t, received.BreakTimes)
	require.Equal(t, id, stored.ID)
	require.True(t, checkIn.Equal(*stored.CheckIn))
	require.Equal(t, 2025, stored.Year)
	require.Equal(t, time.March, stored.Month)
}

func TestChildInsertsAndDeletesIssueNoRequests(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newClient(t, handler, nil)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	b := model.BreakTime{ID: uuid.New(), Start: &start}
	inserted, err := c.BreakTimes().InsertChild(ctx, uuid.New(), b)
	require.NoError(t, err)
	require.Equal(t, b.ID, inserted.ID)
	require.NoError(t, c.BreakTimes().DeleteChild(ctx, uuid.New(), b))

	s := model.SleepRecord{ID: uuid.New(), Start: start, End: start.Add(time.Hour)}
	_, err = c.SleepRecords().InsertChild(ctx, uuid.New(), s)
	require.NoError(t, err)
	require.NoError(t, c.SleepRecords().DeleteChild(ctx, uuid.New(), s))

	require.Zero(t, calls.Load())
}
