package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	"github.com/novacademy/marketing-api/internal/repository"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

// MessageSender is the outbound messaging collaborator. Injected at
// construction so tests can substitute a fake without global state.
type MessageSender interface {
	Send(ctx context.Context, to, body string, metadata map[string]string) (*models.MessageSendResult, error)
}

type evaluationReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentEvaluation, error)
	FindLatestByGroup(ctx context.Context, groupID string) ([]models.StudentEvaluation, error)
	FindEligible(ctx context.Context, filter repository.EligibilityFilter) ([]models.StudentEvaluation, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type actionLedger interface {
	HasActive(ctx context.Context, studentID string, actionType models.ActionType) (bool, error)
	Create(ctx context.Context, in CreateActionInput) (*models.MarketingAction, error)
}

// Skip reasons reported in campaign results.
const (
	skipReasonStudentMissing = "student data missing"
	skipReasonExistingOffer  = "existing offer"
	skipReasonProcessing     = "processing failed"
)

// Campaign type tags stored on action metadata.
const (
	campaignTypeBulkUpsell   = "bulk_upsell"
	campaignTypeReEnrollment = "re_enrollment"
)

// CampaignService runs batch campaigns over eligible evaluations. The loop
// is sequential and each student is an isolated failure domain: one failure
// never aborts the batch, and a partially failed batch still yields its
// partial results.
type CampaignService struct {
	evaluations evaluationReader
	students    studentReader
	courses     courseFinder
	actions     actionLedger
	offers      *OfferService
	sender      MessageSender
	metrics     *MetricsService
	validator   *validator.Validate

	upsellDeadlineDays   int
	reEnrollDeadlineDays int
	maxCandidates        int

	logger *zap.Logger
}

// NewCampaignService constructs the campaign orchestrator.
func NewCampaignService(
	evaluations evaluationReader,
	students studentReader,
	courses courseFinder,
	actions actionLedger,
	offers *OfferService,
	sender MessageSender,
	metrics *MetricsService,
	validate *validator.Validate,
	upsellDeadlineDays, reEnrollDeadlineDays, maxCandidates int,
	logger *zap.Logger,
) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if upsellDeadlineDays <= 0 {
		upsellDeadlineDays = 7
	}
	if reEnrollDeadlineDays <= 0 {
		reEnrollDeadlineDays = 30
	}
	if maxCandidates <= 0 {
		maxCandidates = 500
	}
	return &CampaignService{
		evaluations:          evaluations,
		students:             students,
		courses:              courses,
		actions:              actions,
		offers:               offers,
		sender:               sender,
		metrics:              metrics,
		validator:            validate,
		upsellDeadlineDays:   upsellDeadlineDays,
		reEnrollDeadlineDays: reEnrollDeadlineDays,
		maxCandidates:        maxCandidates,
		logger:               logger,
	}
}

// RunUpsell executes a bulk upsell campaign. Eligibility: latest evaluation
// with decision pass; when selecting by group the category must also be
// star_student or ready_for_next_level. Explicit student selection
// overrides the category filter.
func (s *CampaignService) RunUpsell(ctx context.Context, req dto.UpsellCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if err := validateSelection(req.GroupIDs, req.StudentIDs); err != nil {
		return nil, err
	}

	course, err := s.resolveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	filter := repository.EligibilityFilter{
		Decisions: []models.FinalDecision{models.DecisionPass},
		Limit:     s.maxCandidates,
	}
	if len(req.GroupIDs) > 0 {
		filter.GroupIDs = req.GroupIDs
		filter.Categories = []models.StudentCategory{models.CategoryStarStudent, models.CategoryReadyForNextLevel}
	} else {
		filter.StudentIDs = req.StudentIDs
	}

	evals, err := s.evaluations.FindEligible(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load eligible evaluations")
	}
	if len(evals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no eligible students found")
	}

	discount := 20
	if req.DiscountPercentage != nil {
		discount = *req.DiscountPercentage
	}
	deadlineDays := s.upsellDeadlineDays
	if req.DeadlineDays != nil {
		deadlineDays = *req.DeadlineDays
	}

	params := batchParams{
		course:       course,
		discount:     discount,
		deadline:     time.Now().AddDate(0, 0, deadlineDays),
		actionType:   models.ActionUpsell,
		campaignType: campaignTypeBulkUpsell,
		actor:        actor,
	}
	params.message = func(student *models.Student, discountedPrice int) string {
		return s.offers.CampaignMessage(student.FullName, course, discount, discountedPrice, params.deadline)
	}

	return s.runBatch(ctx, evals, params)
}

// RunReEnrollment executes the re-enrollment campaign over repeat-decision,
// needs_repeat students.
func (s *CampaignService) RunReEnrollment(ctx context.Context, req dto.ReEnrollmentCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	if err := validateSelection(req.GroupIDs, req.StudentIDs); err != nil {
		return nil, err
	}

	course, err := s.resolveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}

	filter := repository.EligibilityFilter{
		Decisions:  []models.FinalDecision{models.DecisionRepeat},
		Categories: []models.StudentCategory{models.CategoryNeedsRepeat},
		Limit:      s.maxCandidates,
	}
	if len(req.GroupIDs) > 0 {
		filter.GroupIDs = req.GroupIDs
	} else {
		filter.StudentIDs = req.StudentIDs
	}

	evals, err := s.evaluations.FindEligible(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load eligible evaluations")
	}
	if len(evals) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no eligible students found")
	}

	discount := 40
	if req.DiscountPercentage != nil {
		discount = *req.DiscountPercentage
	}
	deadlineDays := s.reEnrollDeadlineDays
	if req.DeadlineDays != nil {
		deadlineDays = *req.DeadlineDays
	}

	params := batchParams{
		course:       course,
		discount:     discount,
		deadline:     time.Now().AddDate(0, 0, deadlineDays),
		actionType:   models.ActionReEnroll,
		campaignType: campaignTypeReEnrollment,
		actor:        actor,
	}
	params.message = func(student *models.Student, discountedPrice int) string {
		return s.offers.ReEnrollmentMessage(student.FullName, course, discount, discountedPrice, params.deadline, req.IncludeSupport)
	}

	return s.runBatch(ctx, evals, params)
}

type batchParams struct {
	course       *models.Course
	discount     int
	deadline     time.Time
	actionType   models.ActionType
	campaignType string
	actor        *models.Actor
	message      func(student *models.Student, discountedPrice int) string
}

// runBatch is the shared sequential per-student loop. Outcomes of the send
// attempt are recorded on the action, never used to gate its creation.
func (s *CampaignService) runBatch(ctx context.Context, evals []models.StudentEvaluation, params batchParams) (*dto.CampaignResult, error) {
	start := time.Now()
	result := &dto.CampaignResult{
		CampaignID:    uuid.NewString(),
		BatchID:       uuid.NewString(),
		TotalEligible: len(evals),
		Actions:       []dto.CampaignActionSummary{},
		Skipped:       []dto.SkippedStudent{},
	}
	discountedPrice := DiscountedPrice(params.course.Price, params.discount)

	for i := range evals {
		eval := &evals[i]

		student, err := s.students.FindByID(ctx, eval.StudentID)
		if err != nil || student == nil {
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				s.logger.Warn("student lookup failed", zap.String("student_id", eval.StudentID), zap.Error(err))
			}
			result.Skipped = append(result.Skipped, dto.SkippedStudent{StudentID: eval.StudentID, Reason: skipReasonStudentMissing})
			continue
		}

		hasActive, err := s.actions.HasActive(ctx, student.ID, params.actionType)
		if err != nil {
			s.logger.Warn("dedup lookup failed", zap.String("student_id", student.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, dto.SkippedStudent{StudentID: student.ID, Name: student.FullName, Reason: skipReasonProcessing})
			continue
		}
		if hasActive {
			result.Skipped = append(result.Skipped, dto.SkippedStudent{StudentID: student.ID, Name: student.FullName, Reason: skipReasonExistingOffer})
			continue
		}

		message := params.message(student, discountedPrice)

		sent := s.trySend(ctx, student, message, map[string]string{
			"campaignId": result.CampaignID,
			"batchId":    result.BatchID,
			"actionType": string(params.actionType),
		})

		var sentAt *time.Time
		if sent {
			now := time.Now().UTC()
			sentAt = &now
		}
		deadline := params.deadline
		action, err := s.actions.Create(ctx, CreateActionInput{
			ActionType:      params.actionType,
			TargetStudentID: student.ID,
			TargetGroupID:   eval.GroupID,
			EvaluationID:    &eval.ID,
			Data: models.ActionData{
				CurrentCourse:      eval.CourseID,
				TargetCourse:       params.course.ID,
				TargetCourseName:   params.course.Title,
				DiscountPercentage: params.discount,
				OriginalPrice:      params.course.Price,
				DiscountedPrice:    discountedPrice,
				Deadline:           &deadline,
				CustomMessage:      message,
				CampaignID:         result.CampaignID,
				IsBulkCampaign:     true,
			},
			Channels: models.ActionChannels{WhatsApp: true},
			// Bulk entries are terminal on creation: the send attempt is
			// synchronous and its outcome is already recorded.
			Status:  models.ActionCompleted,
			Results: models.ActionResults{MessageSent: sent, SentAt: sentAt},
			Metadata: models.ActionMetadata{
				CreatedBy:    actorID(params.actor),
				CampaignType: params.campaignType,
				BatchID:      result.BatchID,
				Priority:     models.PriorityHigh,
			},
		})
		if err != nil {
			if errors.Is(err, ErrActiveActionExists) {
				result.Skipped = append(result.Skipped, dto.SkippedStudent{StudentID: student.ID, Name: student.FullName, Reason: skipReasonExistingOffer})
				continue
			}
			s.logger.Warn("action creation failed", zap.String("student_id", student.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, dto.SkippedStudent{StudentID: student.ID, Name: student.FullName, Reason: skipReasonProcessing})
			continue
		}

		if sent {
			result.MessagesSent++
		}
		result.ActionsCreated++
		result.EstimatedRevenue += discountedPrice
		result.Actions = append(result.Actions, dto.CampaignActionSummary{
			ActionID:        action.ID,
			StudentID:       student.ID,
			StudentName:     student.FullName,
			WhatsAppSent:    sent,
			DiscountedPrice: discountedPrice,
		})
	}

	result.SkippedCount = len(result.Skipped)
	s.metrics.ObserveCampaign(params.campaignType, time.Since(start))
	s.logger.Info("campaign finished",
		zap.String("campaign_type", params.campaignType),
		zap.String("batch_id", result.BatchID),
		zap.Int("eligible", result.TotalEligible),
		zap.Int("created", result.ActionsCreated),
		zap.Int("sent", result.MessagesSent),
		zap.Int("skipped", result.SkippedCount))
	return result, nil
}

// trySend attempts the outbound message. Channel failures are logged and
// swallowed: they never stop action creation or the rest of the batch.
func (s *CampaignService) trySend(ctx context.Context, student *models.Student, message string, metadata map[string]string) bool {
	phone := student.ContactNumber()
	if phone == "" || s.sender == nil {
		return false
	}
	res, err := s.sender.Send(ctx, phone, message, metadata)
	sent := err == nil && res != nil && res.Success
	s.metrics.RecordMessageAttempt(sent)
	if err != nil {
		s.logger.Warn("message send failed",
			zap.String("student_id", student.ID),
			zap.Error(err))
	}
	return sent
}

func (s *CampaignService) resolveCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "target course is inactive")
	}
	return course, nil
}

func validateSelection(groupIDs, studentIDs []string) error {
	if len(groupIDs) == 0 && len(studentIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "either groupIds or studentIds must be supplied")
	}
	if len(groupIDs) > 0 && len(studentIDs) > 0 {
		return appErrors.Clone(appErrors.ErrValidation, "groupIds and studentIds are mutually exclusive")
	}
	return nil
}
