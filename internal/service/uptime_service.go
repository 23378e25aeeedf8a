package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "worklog/backend/internal/errors"
	"worklog/backend/internal/logfields"
	"worklog/backend/internal/metrics"
	"worklog/backend/internal/model"
	"worklog/backend/internal/reconcile"
	"worklog/backend/internal/repository"
	"worklog/backend/internal/uptime"
	"worklog/backend/internal/wire"
)

const (
	kindUptime = "uptime"
	kindSleep  = "sleep_record"
)

type UptimeService struct {
	repo     *repository.UptimeRepository
	tracker  *uptime.Tracker
	loc      *time.Location
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewUptimeService serves stored uptime records. tracker may be nil when this process does not
// track its own uptime; the session endpoints then report the feature as unavailable.
func NewUptimeService(repo *repository.UptimeRepository, tracker *uptime.Tracker, loc *time.Location, recorder metrics.Recorder, logger *slog.Logger) *UptimeService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UptimeService{repo: repo, tracker: tracker, loc: loc, recorder: recorder, logger: logger}
}

func (s *UptimeService) List(ctx context.Context, year int, month time.Month) ([]model.SystemUptimeRecord, *apperrors.APIError) {
	records, err := s.repo.RecordsForMonth(ctx, year, month)
	if err != nil {
		s.logger.Error("List uptimes failed", logfields.Year(year), logfields.Month(month), logfields.Error(err))
		return nil, apperrors.Internal("failed to load uptime records")
	}
	return records, nil
}

func (s *UptimeService) Create(ctx context.Context, payload wire.SystemUptimeRecord) (*model.SystemUptimeRecord, *apperrors.APIError) {
	record, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_uptime", err.Error())
	}

	record.ID = uuid.New()
	for i := range record.SleepRecords {
		record.SleepRecords[i].ID = uuid.New()
	}

	stored, err := s.repo.Insert(ctx, record)
	s.recorder.IncReconcileOp(kindUptime, reconcile.OpInsert, metrics.Result(err == nil))
	if err != nil {
		s.logger.Error("Insert uptime failed", logfields.RecordID(record.ID), logfields.Error(err))
		return nil, apperrors.Internal("failed to create uptime record")
	}
	return &stored, nil
}

// Replace overwrites launch and shutdown and, when sleepRecords is present, reconciles the
// stored sleeps against it the same way record breaks are reconciled.
func (s *UptimeService) Replace(ctx context.Context, id uuid.UUID, payload wire.SystemUptimeRecord) (*model.SystemUptimeRecord, *apperrors.APIError) {
	incoming, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_uptime", err.Error())
	}

	existing, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("uptime_not_found", "uptime record not found")
	}
	if err != nil {
		s.logger.Error("Load uptime failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to load uptime record")
	}

	next := existing.Clone()
	next.SetLaunch(incoming.Launch)
	next.Shutdown = incoming.Shutdown

	var changes reconcile.Changes[model.SleepRecord]
	if payload.SleepRecords != nil {
		changes = reconcile.Diff(existing.SleepRecords, incoming.SleepRecords)
		next.SleepRecords = assignSleepIDs(incoming.SleepRecords, changes.Inserted)
	}

	stored, err := s.repo.Update(ctx, next)
	success := err == nil
	s.recorder.IncReconcileOp(kindUptime, reconcile.OpUpdate, metrics.Result(success))
	recordChildOps(s.recorder, kindSleep, len(changes.Inserted), len(changes.Updated), len(changes.Deleted), success)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("uptime_not_found", "uptime record not found")
	}
	if err != nil {
		s.logger.Error("Update uptime failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to update uptime record")
	}
	return &stored, nil
}

func (s *UptimeService) Delete(ctx context.Context, id uuid.UUID) *apperrors.APIError {
	err := s.repo.DeleteByID(ctx, id)
	s.recorder.IncReconcileOp(kindUptime, reconcile.OpDelete, metrics.Result(err == nil))
	if err != nil {
		s.logger.Error("Delete uptime failed", logfields.RecordID(id), logfields.Error(err))
		return apperrors.Internal("failed to delete uptime record")
	}
	return nil
}

func (s *UptimeService) GetSleep(ctx context.Context, id uuid.UUID) (*model.SleepRecord, *apperrors.APIError) {
	sleep, _, err := s.repo.SleepRecords().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("sleep_record_not_found", "sleep record not found")
	}
	if err != nil {
		s.logger.Error("Load sleep failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to load sleep record")
	}
	return &sleep, nil
}

func (s *UptimeService) ReplaceSleep(ctx context.Context, id uuid.UUID, payload wire.SleepRecord) (*model.SleepRecord, *apperrors.APIError) {
	sleep, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_sleep_record", err.Error())
	}
	sleep.ID = id

	stored, err := s.repo.SleepRecords().Replace(ctx, sleep)
	s.recorder.IncReconcileOp(kindSleep, reconcile.OpUpdate, metrics.Result(err == nil))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("sleep_record_not_found", "sleep record not found")
	}
	if err != nil {
		s.logger.Error("Update sleep failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to update sleep record")
	}
	return &stored, nil
}

type SessionView struct {
	Recording bool                     `json:"recording"`
	Sleeping  bool                     `json:"sleeping"`
	Current   *wire.SystemUptimeRecord `json:"current,omitempty"`
}

// Session reports the live uptime session of this process.
func (s *UptimeService) Session() (*SessionView, *apperrors.APIError) {
	if s.tracker == nil {
		return nil, apperrors.Unavailable("uptime_disabled", "uptime tracking is disabled")
	}
	return s.sessionView(), nil
}

// Apply runs one power event against the live session: launch, shutdown, sleep, wake or
// update. Precondition failures are conflicts.
func (s *UptimeService) Apply(ctx context.Context, event string) (*SessionView, *apperrors.APIError) {
	if s.tracker == nil {
		return nil, apperrors.Unavailable("uptime_disabled", "uptime tracking is disabled")
	}

	var err error
	switch event {
	case uptime.EventLaunch:
		err = s.tracker.Launch(ctx)
	case uptime.EventShutdown:
		err = s.tracker.Shutdown(ctx)
	case uptime.EventSleep:
		err = s.tracker.Sleep(ctx)
	case uptime.EventWake:
		err = s.tracker.Wake(ctx)
	case uptime.EventUpdate:
		err = s.tracker.Update(ctx)
	default:
		return nil, apperrors.NotFound("unknown_event", "unknown session event")
	}

	switch {
	case err == nil:
		return s.sessionView(), nil
	case errors.Is(err, uptime.ErrAlreadyRecording):
		return nil, apperrors.Conflict("already_recording", err.Error(), s.sessionView())
	case errors.Is(err, uptime.ErrNotRecording):
		return nil, apperrors.Conflict("not_recording", err.Error(), s.sessionView())
	case errors.Is(err, uptime.ErrAlreadySleeping):
		return nil, apperrors.Conflict("already_sleeping", err.Error(), s.sessionView())
	case errors.Is(err, uptime.ErrNotSleeping):
		return nil, apperrors.Conflict("not_sleeping", err.Error(), s.sessionView())
	default:
		s.logger.Error("Session event failed", logfields.Op(event), logfields.Error(err))
		return nil, apperrors.Internal("failed to record session event")
	}
}

func (s *UptimeService) sessionView() *SessionView {
	view := &SessionView{Sleeping: s.tracker.Sleeping()}
	if current, ok := s.tracker.Current(); ok {
		payload := wire.FromUptimeRecord(current)
		view.Recording = true
		view.Current = &payload
	}
	return view
}

func assignSleepIDs(sleeps []model.SleepRecord, inserted []model.SleepRecord) []model.SleepRecord {
	fresh := make(map[uuid.UUID]struct{}, len(inserted))
	for _, s := range inserted {
		fresh[s.ID] = struct{}{}
	}

	out := make([]model.SleepRecord, len(sleeps))
	for i, s := range sleeps {
		if _, ok := fresh[s.ID]; ok {
			s.ID = uuid.New()
		}
		out[i] = s
	}
	return out
}
