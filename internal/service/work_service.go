package service

import (
	"context"
	"errors"
	"log/slog"

	apperrors "worklog/backend/internal/errors"
	"worklog/backend/internal/logfields"
	"worklog/backend/internal/metrics"
	"worklog/backend/internal/model"
	"worklog/backend/internal/workstate"
)

const (
	WorkCheckIn    = "checkin"
	WorkCheckOut   = "checkout"
	WorkBreakStart = "break-start"
	WorkBreakEnd   = "break-end"
)

// WorkService runs attendance transitions on the primary device.
type WorkService struct {
	machine  *workstate.Machine
	recorder metrics.Recorder
	logger   *slog.Logger
}

func NewWorkService(machine *workstate.Machine, recorder metrics.Recorder, logger *slog.Logger) *WorkService {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkService{machine: machine, recorder: recorder, logger: logger}
}

func (s *WorkService) State(ctx context.Context) (model.WorkState, *apperrors.APIError) {
	state, err := s.machine.State(ctx)
	if err != nil {
		s.logger.Error("Load work state failed", logfields.Error(err))
		return "", apperrors.Internal("failed to load work state")
	}
	return state, nil
}

func (s *WorkService) Apply(ctx context.Context, op string) (model.WorkState, *apperrors.APIError) {
	var transition func(context.Context) (model.WorkState, error)
	switch op {
	case WorkCheckIn:
		transition = s.machine.CheckIn
	case WorkCheckOut:
		transition = s.machine.CheckOut
	case WorkBreakStart:
		transition = s.machine.StartBreak
	case WorkBreakEnd:
		transition = s.machine.EndBreak
	default:
		return "", apperrors.NotFound("unknown_operation", "unknown work operation")
	}

	state, err := transition(ctx)
	s.recorder.IncWorkTransition(op, metrics.Result(err == nil))

	var mismatch *workstate.MismatchError
	switch {
	case err == nil:
		return state, nil
	case errors.As(err, &mismatch):
		return "", apperrors.Conflict("state_mismatch", mismatch.Error(), map[string]model.WorkState{
			"want": mismatch.Want,
			"got":  mismatch.Got,
		})
	default:
		s.logger.Error("Work transition failed", logfields.Op(op), logfields.Error(err))
		return "", apperrors.Internal("failed to record work transition")
	}
}
