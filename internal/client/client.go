// Package client talks to the sync server on behalf of a secondary device.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/retry"
	"worklog/backend/internal/wire"
)

const maxErrorBody = 64 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	clock      clockwork.Clock
	loc        *time.Location
	logger     *slog.Logger
}

// New builds a client for the server at baseURL. Payload times are converted into loc.
func New(baseURL string, httpClient *http.Client, policy retry.Policy, clock clockwork.Clock, loc *time.Location, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		policy:     policy,
		clock:      clock,
		loc:        loc,
		logger:     logger,
	}
}

func (c *Client) Location() *time.Location {
	return c.loc
}

func (c *Client) ListRecords(ctx context.Context, year int, month time.Month) (wire.Records, error) {
	var out wire.Records
	err := c.do(ctx, http.MethodGet, "/records", monthValues(year, month), nil, &out)
	return out, err
}

func (c *Client) CreateRecord(ctx context.Context, record wire.TimeRecord) (wire.TimeRecord, error) {
	var out wire.Records
	if err := c.do(ctx, http.MethodPost, "/records", nil, record, &out); err != nil {
		return wire.TimeRecord{}, err
	}
	return single(out.Records, "records")
}

func (c *Client) ReplaceRecord(ctx context.Context, record wire.TimeRecord) (wire.TimeRecord, error) {
	var out wire.Records
	if err := c.do(ctx, http.MethodPut, "/records/"+record.ID.String(), nil, record, &out); err != nil {
		return wire.TimeRecord{}, err
	}
	return single(out.Records, "records")
}

func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/records/"+id, nil, nil, nil)
}

func (c *Client) GetBreakTime(ctx context.Context, id string) (wire.BreakTime, error) {
	var out wire.BreakTimes
	if err := c.do(ctx, http.MethodGet, "/breaktime/"+id, nil, nil, &out); err != nil {
		return wire.BreakTime{}, err
	}
	return single(out.BreakTimes, "breakTimes")
}

func (c *Client) ReplaceBreakTime(ctx context.Context, b wire.BreakTime) (wire.BreakTime, error) {
	var out wire.BreakTimes
	if err := c.do(ctx, http.MethodPut, "/breaktime/"+b.ID.String(), nil, b, &out); err != nil {
		return wire.BreakTime{}, err
	}
	return single(out.BreakTimes, "breakTimes")
}

func (c *Client) ListUptimes(ctx context.Context, year int, month time.Month) (wire.Uptimes, error) {
	var out wire.Uptimes
	err := c.do(ctx, http.MethodGet, "/uptimes", monthValues(year, month), nil, &out)
	return out, err
}

func (c *Client) CreateUptime(ctx context.Context, record wire.SystemUptimeRecord) (wire.SystemUptimeRecord, error) {
	var out wire.Uptimes
	if err := c.do(ctx, http.MethodPost, "/uptimes", nil, record, &out); err != nil {
		return wire.SystemUptimeRecord{}, err
	}
	return single(out.Uptimes, "uptimes")
}

func (c *Client) ReplaceUptime(ctx context.Context, record wire.SystemUptimeRecord) (wire.SystemUptimeRecord, error) {
	var out wire.Uptimes
	if err := c.do(ctx, http.MethodPut, "/uptimes/"+record.ID.String(), nil, record, &out); err != nil {
		return wire.SystemUptimeRecord{}, err
	}
	return single(out.Uptimes, "uptimes")
}

func (c *Client) DeleteUptime(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/uptimes/"+id, nil, nil, nil)
}

func (c *Client) GetSleepRecord(ctx context.Context, id string) (wire.SleepRecord, error) {
	var out wire.SleepRecords
	if err := c.do(ctx, http.MethodGet, "/sleeprecord/"+id, nil, nil, &out); err != nil {
		return wire.SleepRecord{}, err
	}
	return single(out.SleepRecords, "sleepRecords")
}

func (c *Client) ReplaceSleepRecord(ctx context.Context, s wire.SleepRecord) (wire.SleepRecord, error) {
	var out wire.SleepRecords
	if err := c.do(ctx, http.MethodPut, "/sleeprecord/"+s.ID.String(), nil, s, &out); err != nil {
		return wire.SleepRecord{}, err
	}
	return single(out.SleepRecords, "sleepRecords")
}

// do sends one request. GET, PUT and DELETE are idempotent and are retried on network errors;
// POST is sent once.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	idempotent := method != http.MethodPost
	retryable := func(err error) bool { return idempotent && isNetworkError(err) }

	return c.policy.Do(ctx, c.clock, retryable, func(attempt int) error {
		if attempt > 0 {
			c.logger.Warn("Retrying request", logfields.Method(method), logfields.URL(target), logfields.Attempt(attempt))
		}
		return c.send(ctx, method, target, payload, out)
	})
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		logfields.Method(method),
		logfields.URL(target),
		logfields.Status(resp.StatusCode),
		logfields.Duration(c.clock.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeStatusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, target, err)
	}
	return nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return statusErr
	}
	var body wire.ErrorBody
	if json.Unmarshal(raw, &body) == nil {
		statusErr.Code = body.Error.Code
		statusErr.Message = body.Error.Message
	}
	return statusErr
}

func monthValues(year int, month time.Month) url.Values {
	return url.Values{
		"year":  []string{strconv.Itoa(year)},
		"month": []string{strconv.Itoa(int(month))},
	}
}

func single[T any](items []T, field string) (T, error) {
	var zero T
	if len(items) != 1 {
		return zero, fmt.Errorf("expected one item in %s, got %d", field, len(items))
	}
	return items[0], nil
}
