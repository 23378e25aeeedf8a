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
	"worklog/backend/internal/wire"
)

const (
	kindRecord    = "record"
	kindBreakTime = "break_time"
)

type RecordService struct {
	repo     *repository.TimeRecordRepository
	loc      *time.Location
	recorder metrics.Recorder
	logger   *slog.Logger
}

func NewRecordService(repo *repository.TimeRecordRepository, loc *time.Location, recorder metrics.Recorder, logger *slog.Logger) *RecordService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{repo: repo, loc: loc, recorder: recorder, logger: logger}
}

func (s *RecordService) List(ctx context.Context, year int, month time.Month) ([]model.TimeRecord, *apperrors.APIError) {
	records, err := s.repo.RecordsForMonth(ctx, year, month)
	if err != nil {
		s.logger.Error("List records failed", logfields.Year(year), logfields.Month(month), logfields.Error(err))
		return nil, apperrors.Internal("failed to load records")
	}
	return records, nil
}

// Create stores a new record. Identities sent by the client are provisional: the record and
// every break get fresh server ids.
func (s *RecordService) Create(ctx context.Context, payload wire.TimeRecord) (*model.TimeRecord, *apperrors.APIError) {
	record, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_record", err.Error())
	}

	record.ID = uuid.New()
	for i := range record.BreakTimes {
		record.BreakTimes[i].ID = uuid.New()
	}

	stored, err := s.repo.Insert(ctx, record)
	s.recorder.IncReconcileOp(kindRecord, reconcile.OpInsert, metrics.Result(err == nil))
	if err != nil {
		s.logger.Error("Insert record failed", logfields.RecordID(record.ID), logfields.Error(err))
		return nil, apperrors.Internal("failed to create record")
	}
	return &stored, nil
}

// Replace overwrites checkIn and checkOut. When the payload carries breakTimes the stored
// breaks are reconciled against it: known ids are updated, unknown ids are inserted under
// fresh server ids and missing ids are deleted.
func (s *RecordService) Replace(ctx context.Context, id uuid.UUID, payload wire.TimeRecord) (*model.TimeRecord, *apperrors.APIError) {
	incoming, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_record", err.Error())
	}

	existing, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("record_not_found", "record not found")
	}
	if err != nil {
		s.logger.Error("Load record failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to load record")
	}

	next := existing.Clone()
	next.SetCheckIn(incoming.CheckIn)
	next.CheckOut = incoming.CheckOut

	var changes reconcile.Changes[model.BreakTime]
	if payload.BreakTimes != nil {
		changes = reconcile.Diff(existing.BreakTimes, incoming.BreakTimes)
		next.BreakTimes = assignBreakIDs(incoming.BreakTimes, changes.Inserted)
	}

	stored, err := s.repo.Update(ctx, next)
	success := err == nil
	s.recorder.IncReconcileOp(kindRecord, reconcile.OpUpdate, metrics.Result(success))
	recordChildOps(s.recorder, kindBreakTime, len(changes.Inserted), len(changes.Updated), len(changes.Deleted), success)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("record_not_found", "record not found")
	}
	if err != nil {
		s.logger.Error("Update record failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to update record")
	}

	s.logger.Debug("Record replaced", logfields.RecordID(id),
		slog.Int("breaks_inserted", len(changes.Inserted)),
		slog.Int("breaks_updated", len(changes.Updated)),
		slog.Int("breaks_deleted", len(changes.Deleted)))
	return &stored, nil
}

// Delete succeeds whether or not the record exists.
func (s *RecordService) Delete(ctx context.Context, id uuid.UUID) *apperrors.APIError {
	err := s.repo.DeleteByID(ctx, id)
	s.recorder.IncReconcileOp(kindRecord, reconcile.OpDelete, metrics.Result(err == nil))
	if err != nil {
		s.logger.Error("Delete record failed", logfields.RecordID(id), logfields.Error(err))
		return apperrors.Internal("failed to delete record")
	}
	return nil
}

func (s *RecordService) GetBreak(ctx context.Context, id uuid.UUID) (*model.BreakTime, *apperrors.APIError) {
	b, _, err := s.repo.BreakTimes().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("break_time_not_found", "break time not found")
	}
	if err != nil {
		s.logger.Error("Load break failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to load break time")
	}
	return &b, nil
}

func (s *RecordService) ReplaceBreak(ctx context.Context, id uuid.UUID, payload wire.BreakTime) (*model.BreakTime, *apperrors.APIError) {
	b, err := payload.Model(s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid_break_time", err.Error())
	}
	b.ID = id

	stored, err := s.repo.BreakTimes().Replace(ctx, b)
	s.recorder.IncReconcileOp(kindBreakTime, reconcile.OpUpdate, metrics.Result(err == nil))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("break_time_not_found", "break time not found")
	}
	if err != nil {
		s.logger.Error("Update break failed", logfields.RecordID(id), logfields.Error(err))
		return nil, apperrors.Internal("failed to update break time")
	}
	return &stored, nil
}

// assignBreakIDs gives every newly sent break a server id, keeping the payload order.
func assignBreakIDs(breaks []model.BreakTime, inserted []model.BreakTime) []model.BreakTime {
	fresh := make(map[uuid.UUID]struct{}, len(inserted))
	for _, b := range inserted {
		fresh[b.ID] = struct{}{}
	}

	out := make([]model.BreakTime, len(breaks))
	for i, b := range breaks {
		if _, ok := fresh[b.ID]; ok {
			b.ID = uuid.New()
		}
		out[i] = b
	}
	return out
}

func recordChildOps(recorder metrics.Recorder, kind string, inserted, updated, deleted int, success bool) {
	result := metrics.Result(success)
	for range inserted {
		recorder.IncReconcileOp(kind, reconcile.OpInsert, result)
	}
	for range updated {
		recorder.IncReconcileOp(kind, reconcile.OpUpdate, result)
	}
	for range deleted {
		recorder.IncReconcileOp(kind, reconcile.OpDelete, result)
	}
}
