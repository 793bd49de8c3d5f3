package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

type catalogReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindActiveByLevels(ctx context.Context, levels []models.CourseLevel, limit int) ([]models.Course, error)
	FindActiveByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Course, error)
}

type campaignRunner interface {
	RunUpsell(ctx context.Context, req dto.UpsellCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error)
	RunReEnrollment(ctx context.Context, req dto.ReEnrollmentCampaignRequest, actor *models.Actor) (*dto.CampaignResult, error)
}

// AutomationService dispatches single domain events to their handlers.
// Evaluation and group events commit pending ledger entries; lead and
// at-risk events only return proposals for a human to act on.
type AutomationService struct {
	evaluations evaluationReader
	students    studentReader
	courses     catalogReader
	attendance  *AttendanceService
	scoring     *ScoringService
	offers      *OfferService
	actions     actionLedger
	campaigns   campaignRunner

	highAttendanceMinPct int

	logger *zap.Logger
}

// NewAutomationService constructs the event dispatcher.
func NewAutomationService(
	evaluations evaluationReader,
	students studentReader,
	courses catalogReader,
	attendance *AttendanceService,
	scoring *ScoringService,
	offers *OfferService,
	actions actionLedger,
	campaigns campaignRunner,
	highAttendanceMinPct int,
	logger *zap.Logger,
) *AutomationService {
	if highAttendanceMinPct <= 0 {
		highAttendanceMinPct = 90
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutomationService{
		evaluations:          evaluations,
		students:             students,
		courses:              courses,
		attendance:           attendance,
		scoring:              scoring,
		offers:               offers,
		actions:              actions,
		campaigns:            campaigns,
		highAttendanceMinPct: highAttendanceMinPct,
		logger:               logger,
	}
}

// HandleEvent validates the event type, runs the matching handler, and
// wraps the outcome. Unexpected handler errors surface as AUTOMATION_ERROR
// without leaking internals to the caller.
func (s *AutomationService) HandleEvent(ctx context.Context, req dto.TriggerEventRequest, actor *models.Actor) (*dto.TriggerEventResponse, error) {
	event := models.AutomationEvent(req.EventType)
	if !event.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnknownEvent, fmt.Sprintf("unknown event type %q", req.EventType))
	}

	var (
		result interface{}
		err    error
	)
	switch event {
	case models.EventEvaluationCompleted:
		result, err = s.handleEvaluationCompleted(ctx, req.Data, actor)
	case models.EventGroupCompleted:
		result, err = s.handleGroupCompleted(ctx, req.Data, actor)
	case models.EventHighAttendanceDetected:
		result, err = s.handleHighAttendance(ctx, req.Data, actor)
	case models.EventStudentAtRisk:
		result, err = s.handleStudentAtRisk(ctx, req.Data)
	case models.EventLeadCreated:
		result, err = s.handleLeadCreated(ctx, req.Data)
	case models.EventBulkUpsellCampaign:
		result, err = s.campaigns.RunUpsell(ctx, dto.UpsellCampaignRequest{
			GroupIDs:           req.Data.GroupIDs,
			StudentIDs:         req.Data.StudentIDs,
			CourseID:           req.Data.CourseID,
			DiscountPercentage: req.Data.DiscountPercentage,
			DeadlineDays:       req.Data.DeadlineDays,
		}, actor)
	case models.EventReEnrollmentCampaign:
		result, err = s.campaigns.RunReEnrollment(ctx, dto.ReEnrollmentCampaignRequest{
			GroupIDs:           req.Data.GroupIDs,
			StudentIDs:         req.Data.StudentIDs,
			CourseID:           req.Data.CourseID,
			DiscountPercentage: req.Data.DiscountPercentage,
			DeadlineDays:       req.Data.DeadlineDays,
			IncludeSupport:     req.Data.IncludeSupport,
		}, actor)
	}
	if err != nil {
		s.logger.Error("automation event failed",
			zap.String("event_type", string(event)),
			zap.Error(err))
		return nil, appErrors.FromAutomationError(err)
	}

	return &dto.TriggerEventResponse{
		Success:     true,
		EventType:   event,
		Result:      result,
		TriggeredBy: actorName(actor),
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (s *AutomationService) handleEvaluationCompleted(ctx context.Context, data dto.EventData, actor *models.Actor) (*dto.EvaluationOutcome, error) {
	if data.EvaluationID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "evaluationId is required")
	}
	eval, err := s.evaluations.FindByID(ctx, data.EvaluationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation not found")
		}
		return nil, err
	}
	return s.processEvaluation(ctx, eval, actor)
}

// processEvaluation scores one evaluation and commits the matching pending
// action. Shared by the single event and the group completion loop.
func (s *AutomationService) processEvaluation(ctx context.Context, eval *models.StudentEvaluation, actor *models.Actor) (*dto.EvaluationOutcome, error) {
	student, err := s.students.FindByID(ctx, eval.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}

	snapshot := s.attendance.Snapshot(ctx, eval.StudentID, eval.GroupID)
	score := s.scoring.ConversionScore(eval, snapshot.AttendancePercentage)

	outcome := &dto.EvaluationOutcome{
		EvaluationID:         eval.ID,
		StudentID:            student.ID,
		StudentName:          student.FullName,
		Category:             eval.StudentCategory,
		Decision:             eval.FinalDecision,
		ConversionScore:      score,
		AttendancePercentage: snapshot.AttendancePercentage,
	}

	current, err := s.courses.FindByID(ctx, eval.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	candidates, err := s.offers.CandidateCourses(ctx, eval, current)
	if err != nil {
		return nil, err
	}
	offer := s.offers.Compose(eval, candidates, ComposeOptions{})
	if offer == nil {
		outcome.SkipReason = "no suitable course available"
		return outcome, nil
	}
	outcome.Offer = offer

	actionType := actionTypeFor(eval.StudentCategory, eval.FinalDecision)
	target := SelectTargetCourse(eval.StudentCategory, candidates)
	message := s.composeEvaluationMessage(student, eval, current, target, offer, actionType)
	outcome.Message = message
	offerDeadline := offer.Deadline

	action, err := s.actions.Create(ctx, CreateActionInput{
		ActionType:      actionType,
		TargetStudentID: student.ID,
		TargetGroupID:   eval.GroupID,
		EvaluationID:    &eval.ID,
		Data: models.ActionData{
			CurrentCourse:      eval.CourseID,
			TargetCourse:       offer.TargetCourseID,
			TargetCourseName:   offer.TargetCourseName,
			DiscountPercentage: offer.DiscountPercentage,
			OriginalPrice:      offer.OriginalPrice,
			DiscountedPrice:    offer.DiscountedPrice,
			Deadline:           &offerDeadline,
			CustomMessage:      message,
		},
		Channels: models.ActionChannels{WhatsApp: true},
		Status:   models.ActionPending,
		Metadata: models.ActionMetadata{
			CreatedBy:    actorID(actor),
			CampaignType: "evaluation_followup",
			Priority:     priorityFor(eval.StudentCategory),
		},
	})
	if err != nil {
		if errors.Is(err, ErrActiveActionExists) {
			outcome.SkipReason = "existing offer"
			return outcome, nil
		}
		return nil, err
	}

	outcome.ActionCreated = true
	outcome.ActionID = action.ID
	outcome.ActionType = actionType
	return outcome, nil
}

func (s *AutomationService) handleGroupCompleted(ctx context.Context, data dto.EventData, actor *models.Actor) (*dto.GroupCompletionResult, error) {
	if data.GroupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "groupId is required")
	}
	evals, err := s.evaluations.FindLatestByGroup(ctx, data.GroupID)
	if err != nil {
		return nil, err
	}

	result := &dto.GroupCompletionResult{
		GroupID:  data.GroupID,
		Outcomes: []dto.EvaluationOutcome{},
		Skipped:  []dto.SkippedStudent{},
	}
	for i := range evals {
		outcome, err := s.processEvaluation(ctx, &evals[i], actor)
		if err != nil {
			s.logger.Warn("evaluation processing failed",
				zap.String("group_id", data.GroupID),
				zap.String("student_id", evals[i].StudentID),
				zap.Error(err))
			result.Skipped = append(result.Skipped, dto.SkippedStudent{
				StudentID: evals[i].StudentID,
				Reason:    skipReasonProcessing,
			})
			continue
		}
		result.Processed++
		if outcome.ActionCreated {
			result.ActionsCreated++
		}
		result.Outcomes = append(result.Outcomes, *outcome)
	}
	return result, nil
}

func (s *AutomationService) handleHighAttendance(ctx context.Context, data dto.EventData, actor *models.Actor) (*dto.HighAttendanceResult, error) {
	if data.StudentID == "" || data.GroupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and groupId are required")
	}
	student, err := s.students.FindByID(ctx, data.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}

	snapshot := s.attendance.Snapshot(ctx, data.StudentID, data.GroupID)
	result := &dto.HighAttendanceResult{
		StudentID:            student.ID,
		StudentName:          student.FullName,
		GroupID:              data.GroupID,
		AttendancePercentage: snapshot.AttendancePercentage,
	}
	if snapshot.AttendancePercentage < s.highAttendanceMinPct {
		return result, nil
	}
	current := s.currentCourse(ctx, student, data)
	nextLevel := models.LevelBeginner.Next()
	if current != nil {
		nextLevel = current.Level.Next()
	}
	if current != nil && current.Level == nextLevel {
		// Already at the top level, nothing to upsell into.
		return result, nil
	}
	candidates, err := s.courses.FindActiveByLevels(ctx, []models.CourseLevel{nextLevel}, candidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		// An upsell is only possible when a next-level course is on offer.
		return result, nil
	}
	target := &candidates[0]
	result.UpsellPossible = true

	discount := DiscountPercentage(models.CategoryReadyForNextLevel, models.DecisionPass, 0)
	discountedPrice := DiscountedPrice(target.Price, discount)
	deadline := time.Now().AddDate(0, 0, s.offers.upsellDeadlineDays)
	offer := &dto.Offer{
		TargetCourseID:     target.ID,
		TargetCourseName:   target.Title,
		OriginalPrice:      target.Price,
		DiscountPercentage: discount,
		DiscountedPrice:    discountedPrice,
		OfferType:          dto.OfferLevelUpgrade,
		Deadline:           deadline,
	}
	currentTitle := ""
	currentID := ""
	if current != nil {
		currentTitle = current.Title
		currentID = current.ID
	}
	message := s.offers.UpsellMessage(student.FullName, currentTitle, offer, nil)

	action, err := s.actions.Create(ctx, CreateActionInput{
		ActionType:      models.ActionUpsell,
		TargetStudentID: student.ID,
		TargetGroupID:   data.GroupID,
		Data: models.ActionData{
			CurrentCourse:      currentID,
			TargetCourse:       target.ID,
			TargetCourseName:   target.Title,
			DiscountPercentage: discount,
			OriginalPrice:      target.Price,
			DiscountedPrice:    discountedPrice,
			Deadline:           &deadline,
			CustomMessage:      message,
		},
		Channels: models.ActionChannels{WhatsApp: true},
		Status:   models.ActionPending,
		Metadata: models.ActionMetadata{
			CreatedBy:    actorID(actor),
			CampaignType: "high_attendance",
			Priority:     models.PriorityMedium,
		},
	})
	if err != nil {
		if errors.Is(err, ErrActiveActionExists) {
			result.Message = "student already has an active upsell offer"
			return result, nil
		}
		return nil, err
	}

	result.UpsellCreated = true
	result.ActionID = action.ID
	result.Offer = offer
	result.Message = message
	return result, nil
}

func (s *AutomationService) handleStudentAtRisk(ctx context.Context, data dto.EventData) (*dto.AtRiskResult, error) {
	if data.StudentID == "" || data.GroupID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "studentId and groupId are required")
	}
	student, err := s.students.FindByID(ctx, data.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, err
	}

	var eval *models.StudentEvaluation
	evals, err := s.evaluations.FindLatestByGroup(ctx, data.GroupID)
	if err != nil {
		return nil, err
	}
	for i := range evals {
		if evals[i].StudentID == student.ID {
			eval = &evals[i]
			break
		}
	}

	snapshot := s.attendance.Snapshot(ctx, data.StudentID, data.GroupID)
	risk := s.scoring.AssessRisk(eval, snapshot)

	message := s.offers.RetentionMessage(student.FullName, weakPointsOf(eval))
	return &dto.AtRiskResult{
		StudentID:      student.ID,
		StudentName:    student.FullName,
		GroupID:        data.GroupID,
		Attendance:     snapshot,
		Risk:           risk,
		SupportMessage: message,
	}, nil
}

func (s *AutomationService) handleLeadCreated(ctx context.Context, data dto.EventData) (*dto.LeadProposal, error) {
	if data.LeadName == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "leadName is required")
	}

	var suggested *models.Course
	courses, err := s.courses.FindActiveByLevels(ctx, []models.CourseLevel{models.LevelBeginner}, 1)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		courses, err = s.courses.FindActiveByKeywords(ctx, beginnerKeywords, 1)
		if err != nil {
			return nil, err
		}
	}
	if len(courses) > 0 {
		suggested = &courses[0]
	}

	return &dto.LeadProposal{
		Name:            data.LeadName,
		Phone:           data.LeadPhone,
		WelcomeMessage:  s.offers.WelcomeMessage(data.LeadName, suggested),
		SuggestedCourse: suggested,
	}, nil
}

func (s *AutomationService) composeEvaluationMessage(student *models.Student, eval *models.StudentEvaluation, current, target *models.Course, offer *dto.Offer, actionType models.ActionType) string {
	currentTitle := ""
	if current != nil {
		currentTitle = current.Title
	}
	switch actionType {
	case models.ActionReEnroll:
		deadline := offer.Deadline
		if deadline.IsZero() {
			deadline = time.Now().AddDate(0, 0, s.offers.reEnrollDeadlineDays)
		}
		course := target
		if course == nil {
			course = &models.Course{ID: offer.TargetCourseID, Title: offer.TargetCourseName, Price: offer.OriginalPrice}
		}
		return s.offers.ReEnrollmentMessage(student.FullName, course, offer.DiscountPercentage, offer.DiscountedPrice, deadline, len(eval.WeakPoints) > 0)
	case models.ActionSupport:
		return s.offers.SupportMessage(student.FullName, currentTitle, offer, eval.WeakPoints)
	default:
		return s.offers.UpsellMessage(student.FullName, currentTitle, offer, eval.WeakPoints)
	}
}

// currentCourse resolves the course the student is attending, from the
// group's latest evaluation first, then the event payload.
func (s *AutomationService) currentCourse(ctx context.Context, student *models.Student, data dto.EventData) *models.Course {
	courseID := data.CourseID
	evals, err := s.evaluations.FindLatestByGroup(ctx, data.GroupID)
	if err == nil {
		for i := range evals {
			if evals[i].StudentID == student.ID {
				courseID = evals[i].CourseID
				break
			}
		}
	}
	if courseID == "" {
		return nil
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil
	}
	return course
}

func actionTypeFor(category models.StudentCategory, decision models.FinalDecision) models.ActionType {
	switch {
	case category == models.CategoryNeedsRepeat || decision == models.DecisionRepeat:
		return models.ActionReEnroll
	case category == models.CategoryNeedsSupport || category == models.CategoryAtRisk || decision == models.DecisionReview:
		return models.ActionSupport
	default:
		return models.ActionUpsell
	}
}

func priorityFor(category models.StudentCategory) string {
	switch category {
	case models.CategoryAtRisk:
		return models.PriorityUrgent
	case models.CategoryNeedsRepeat, models.CategoryNeedsSupport:
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

func weakPointsOf(eval *models.StudentEvaluation) []string {
	if eval == nil {
		return nil
	}
	return eval.WeakPoints
}

func actorName(actor *models.Actor) string {
	if actor == nil {
		return "system"
	}
	if actor.FullName != "" {
		return actor.FullName
	}
	return actor.ID
}
