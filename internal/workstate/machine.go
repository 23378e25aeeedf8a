// Package workstate drives check-in, check-out and breaks against a record store. The state is
// never cached: every operation re-derives it from the current month's records.
package workstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"worklog/backend/internal/logfields"
	"worklog/backend/internal/model"
)

var ErrStateMismatch = errors.New("work state mismatch")

// MismatchError is returned when an operation's precondition does not hold. Nothing is written.
type MismatchError struct {
	Op   string
	Want model.WorkState
	Got  model.WorkState
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s requires %s, current state is %s", e.Op, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return ErrStateMismatch
}

// Store is the record capability the machine needs. Both the SQLite repository and the sync
// client satisfy it.
type Store interface {
	RecordsForMonth(ctx context.Context, year int, month time.Month) ([]model.TimeRecord, error)
	Insert(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error)
	Update(ctx context.Context, record model.TimeRecord) (model.TimeRecord, error)
}

type Machine struct {
	store  Store
	clock  clockwork.Clock
	loc    *time.Location
	logger *slog.Logger
}

func NewMachine(store Store, clock clockwork.Clock, loc *time.Location, logger *slog.Logger) *Machine {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{store: store, clock: clock, loc: loc, logger: logger}
}

func (m *Machine) State(ctx context.Context) (model.WorkState, error) {
	records, err := m.records(ctx)
	if err != nil {
		return "", err
	}
	return model.DeriveWorkState(records), nil
}

func (m *Machine) CheckIn(ctx context.Context) (model.WorkState, error) {
	if _, err := m.require(ctx, "check in", model.OffWork); err != nil {
		return "", err
	}

	record := model.NewTimeRecord(uuid.New(), m.now())
	if _, err := m.store.Insert(ctx, record); err != nil {
		return "", fmt.Errorf("check in: %w", err)
	}
	return m.transitioned(ctx, "check in", record.ID)
}

func (m *Machine) CheckOut(ctx context.Context) (model.WorkState, error) {
	record, err := m.require(ctx, "check out", model.AtWork)
	if err != nil {
		return "", err
	}

	now := m.now()
	record.CheckOut = &now
	if _, err := m.store.Update(ctx, record); err != nil {
		return "", fmt.Errorf("check out: %w", err)
	}
	return m.transitioned(ctx, "check out", record.ID)
}

func (m *Machine) StartBreak(ctx context.Context) (model.WorkState, error) {
	record, err := m.require(ctx, "start break", model.AtWork)
	if err != nil {
		return "", err
	}

	now := m.now()
	record.BreakTimes = append(record.BreakTimes, model.BreakTime{ID: uuid.New(), Start: &now})
	if _, err := m.store.Update(ctx, record); err != nil {
		return "", fmt.Errorf("start break: %w", err)
	}
	return m.transitioned(ctx, "start break", record.ID)
}

func (m *Machine) EndBreak(ctx context.Context) (model.WorkState, error) {
	record, err := m.require(ctx, "end break", model.AtBreak)
	if err != nil {
		return "", err
	}

	now := m.now()
	record.BreakTimes[len(record.BreakTimes)-1].End = &now
	if _, err := m.store.Update(ctx, record); err != nil {
		return "", fmt.Errorf("end break: %w", err)
	}
	return m.transitioned(ctx, "end break", record.ID)
}

// require checks the precondition and returns a copy of the most recent record, if any.
func (m *Machine) require(ctx context.Context, op string, want model.WorkState) (model.TimeRecord, error) {
	records, err := m.records(ctx)
	if err != nil {
		return model.TimeRecord{}, fmt.Errorf("%s: %w", op, err)
	}

	if got := model.DeriveWorkState(records); got != want {
		return model.TimeRecord{}, &MismatchError{Op: op, Want: want, Got: got}
	}
	if len(records) == 0 {
		return model.TimeRecord{}, nil
	}
	return records[len(records)-1].Clone(), nil
}

func (m *Machine) transitioned(ctx context.Context, op string, id uuid.UUID) (model.WorkState, error) {
	state, err := m.State(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	m.logger.Info("Work state changed", logfields.Op(op), logfields.RecordID(id), logfields.State(string(state)))
	return state, nil
}

func (m *Machine) records(ctx context.Context) ([]model.TimeRecord, error) {
	now := m.now()
	records, err := m.store.RecordsForMonth(ctx, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	model.SortTimeRecords(records)
	return records, nil
}

func (m *Machine) now() time.Time {
	return m.clock.Now().In(m.loc)
}
