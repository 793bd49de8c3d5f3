package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/models"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

// ErrActiveActionExists is returned when the uniqueness guard refuses a
// create. Callers treat it as a skip, not a failure.
var ErrActiveActionExists = appErrors.New("ACTIVE_ACTION_EXISTS", http.StatusConflict, "an active marketing action of this type already exists for the student")

type actionStore interface {
	Insert(ctx context.Context, action *models.MarketingAction) error
	FindActiveByStudentAndType(ctx context.Context, studentID string, actionType models.ActionType) (*models.MarketingAction, error)
	FindByID(ctx context.Context, id string) (*models.MarketingAction, error)
	List(ctx context.Context, filter models.ActionFilter) ([]models.MarketingAction, int, error)
	UpdateStatus(ctx context.Context, id string, status models.ActionStatus) error
	UpdateResults(ctx context.Context, id string, results models.ActionResults) error
}

// ActionService owns the marketing-action ledger: dedup-guarded creation,
// lifecycle transitions and result updates. Actions are never deleted.
type ActionService struct {
	repo    actionStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewActionService constructs the ledger service.
func NewActionService(repo actionStore, metrics *MetricsService, logger *zap.Logger) *ActionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionService{repo: repo, metrics: metrics, logger: logger}
}

// CreateActionInput carries everything needed to record one action.
type CreateActionInput struct {
	ActionType      models.ActionType
	TargetStudentID string
	TargetGroupID   string
	EvaluationID    *string
	Data            models.ActionData
	Channels        models.ActionChannels
	Status          models.ActionStatus
	Results         models.ActionResults
	Metadata        models.ActionMetadata
}

// HasActive reports whether the student already has a pending or
// in-progress action of the given type.
func (s *ActionService) HasActive(ctx context.Context, studentID string, actionType models.ActionType) (bool, error) {
	existing, err := s.repo.FindActiveByStudentAndType(ctx, studentID, actionType)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active actions")
	}
	return existing != nil, nil
}

// Create records a new action after the dedup lookup. The check and the
// insert are not atomic; concurrent batches targeting the same student can
// race past the guard, which is accepted behavior documented on the API.
func (s *ActionService) Create(ctx context.Context, in CreateActionInput) (*models.MarketingAction, error) {
	if !in.ActionType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported action type %q", in.ActionType))
	}
	if in.TargetStudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "targetStudentId is required")
	}
	status := in.Status
	if status == "" {
		status = models.ActionPending
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported status %q", status))
	}

	existing, err := s.repo.FindActiveByStudentAndType(ctx, in.TargetStudentID, in.ActionType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active actions")
	}
	if existing != nil {
		return nil, ErrActiveActionExists
	}

	action := &models.MarketingAction{
		ID:              uuid.NewString(),
		ActionType:      in.ActionType,
		TargetStudentID: in.TargetStudentID,
		TargetGroupID:   in.TargetGroupID,
		EvaluationID:    in.EvaluationID,
		ActionData:      in.Data,
		Channels:        in.Channels,
		Status:          status,
		Results:         in.Results,
		Metadata:        in.Metadata,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, action); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create marketing action")
	}

	s.metrics.RecordActionCreated(string(action.ActionType))
	s.logger.Info("marketing action created",
		zap.String("action_id", action.ID),
		zap.String("action_type", string(action.ActionType)),
		zap.String("student_id", action.TargetStudentID))
	return action, nil
}

// Get loads one action by ID.
func (s *ActionService) Get(ctx context.Context, id string) (*models.MarketingAction, error) {
	action, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "marketing action not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marketing action")
	}
	return action, nil
}

// List returns filtered actions plus pagination metadata.
func (s *ActionService) List(ctx context.Context, filter models.ActionFilter) ([]models.MarketingAction, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	actions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marketing actions")
	}
	return actions, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UpdateStatus transitions an action through its lifecycle. Humans move
// actions to completed/cancelled based on the student's response.
func (s *ActionService) UpdateStatus(ctx context.Context, id string, next models.ActionStatus, actor *models.Actor) (*models.MarketingAction, error) {
	if !next.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported status %q", next))
	}

	action, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !action.Status.CanTransitionTo(next) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("cannot transition action from %s to %s", action.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, id, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update action status")
	}

	s.logger.Info("marketing action status updated",
		zap.String("action_id", id),
		zap.String("from", string(action.Status)),
		zap.String("to", string(next)),
		zap.String("updated_by", actorID(actor)))

	action.Status = next
	return action, nil
}

// UpdateResults patches the follow-up fields of the results payload.
func (s *ActionService) UpdateResults(ctx context.Context, id string, responseReceived, conversion *bool) (*models.MarketingAction, error) {
	action, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if responseReceived != nil {
		action.Results.ResponseReceived = *responseReceived
	}
	if conversion != nil {
		action.Results.Conversion = *conversion
	}

	if err := s.repo.UpdateResults(ctx, id, action.Results); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update action results")
	}
	return action, nil
}

// RecordSendOutcome stores the outcome of an outbound send attempt on the
// action it belongs to.
func (s *ActionService) RecordSendOutcome(ctx context.Context, id string, sent bool) error {
	action, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	action.Results.MessageSent = sent
	if sent {
		now := time.Now().UTC()
		action.Results.SentAt = &now
	}
	if err := s.repo.UpdateResults(ctx, id, action.Results); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record send outcome")
	}
	return nil
}

func actorID(actor *models.Actor) string {
	if actor == nil {
		return "system"
	}
	return actor.ID
}
