package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
	"github.com/novacademy/marketing-api/internal/repository"
	appErrors "github.com/novacademy/marketing-api/pkg/errors"
)

type evaluationReaderStub struct {
	byID     map[string]*models.StudentEvaluation
	latest   []models.StudentEvaluation
	eligible []models.StudentEvaluation

	eligibleErr    error
	eligibleFilter repository.EligibilityFilter
}

func (s *evaluationReaderStub) FindByID(ctx context.Context, id string) (*models.StudentEvaluation, error) {
	if eval, ok := s.byID[id]; ok {
		return eval, nil
	}
	return nil, sql.ErrNoRows
}

func (s *evaluationReaderStub) FindLatestByGroup(ctx context.Context, groupID string) ([]models.StudentEvaluation, error) {
	return s.latest, nil
}

func (s *evaluationReaderStub) FindEligible(ctx context.Context, filter repository.EligibilityFilter) ([]models.StudentEvaluation, error) {
	s.eligibleFilter = filter
	return s.eligible, s.eligibleErr
}

type studentReaderStub struct {
	students map[string]*models.Student
	errFor   map[string]error
}

func (s studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if err, ok := s.errFor[id]; ok {
		return nil, err
	}
	if student, ok := s.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type courseFinderStub struct {
	courses map[string]*models.Course
}

func (s courseFinderStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := s.courses[id]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

type actionLedgerStub struct {
	active     map[string]bool
	created    []CreateActionInput
	createErr  map[string]error
	hasActErr  error
	nextID     int
	createdIDs []string
}

func (s *actionLedgerStub) HasActive(ctx context.Context, studentID string, actionType models.ActionType) (bool, error) {
	if s.hasActErr != nil {
		return false, s.hasActErr
	}
	return s.active[studentID], nil
}

func (s *actionLedgerStub) Create(ctx context.Context, in CreateActionInput) (*models.MarketingAction, error) {
	if err, ok := s.createErr[in.TargetStudentID]; ok {
		return nil, err
	}
	s.created = append(s.created, in)
	s.nextID++
	id := "action-" + in.TargetStudentID
	s.createdIDs = append(s.createdIDs, id)
	return &models.MarketingAction{ID: id, ActionType: in.ActionType, TargetStudentID: in.TargetStudentID, Status: in.Status}, nil
}

type messageSenderStub struct {
	sent    []string
	failFor map[string]bool
	errFor  map[string]bool
}

func (s *messageSenderStub) Send(ctx context.Context, to, body string, metadata map[string]string) (*models.MessageSendResult, error) {
	if s.errFor[to] {
		return nil, errors.New("gateway timeout")
	}
	if s.failFor[to] {
		return &models.MessageSendResult{Success: false}, nil
	}
	s.sent = append(s.sent, to)
	return &models.MessageSendResult{Success: true, MessageID: "msg-" + to}, nil
}

func phoneOf(number string) *string { return &number }

func passEval(studentID string) models.StudentEvaluation {
	return models.StudentEvaluation{
		ID:              "eval-" + studentID,
		StudentID:       studentID,
		GroupID:         "group-1",
		CourseID:        "course-old",
		OverallScore:    4.6,
		FinalDecision:   models.DecisionPass,
		StudentCategory: models.CategoryStarStudent,
	}
}

func newCampaignFixture(evals []models.StudentEvaluation, students map[string]*models.Student) (*CampaignService, *actionLedgerStub, *messageSenderStub) {
	ledger := &actionLedgerStub{active: map[string]bool{}}
	sender := &messageSenderStub{}
	courses := courseFinderStub{courses: map[string]*models.Course{
		"course-new": {ID: "course-new", Title: "Advanced Robotics", Level: models.LevelAdvanced, Price: 1000, Active: true},
		"course-off": {ID: "course-off", Title: "Retired", Level: models.LevelBeginner, Price: 500, Active: false},
	}}
	offers := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	svc := NewCampaignService(
		&evaluationReaderStub{eligible: evals},
		studentReaderStub{students: students},
		courses, ledger, offers, sender, nil, nil,
		7, 30, 500, zap.NewNop(),
	)
	return svc, ledger, sender
}

func TestRunUpsellCreatesActionsAndSumsRevenue(t *testing.T) {
	evals := []models.StudentEvaluation{passEval("s-1"), passEval("s-2")}
	students := map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel", Phone: phoneOf("+100")},
		"s-2": {ID: "s-2", FullName: "Karim", Phone: phoneOf("+200")},
	}
	svc, ledger, sender := newCampaignFixture(evals, students)

	result, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, &models.Actor{ID: "u-1", FullName: "Marketing"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalEligible)
	assert.Equal(t, 2, result.ActionsCreated)
	assert.Equal(t, 2, result.MessagesSent)
	assert.Equal(t, 0, result.SkippedCount)
	// Default 20% off 1000 is 800 per student.
	assert.Equal(t, 1600, result.EstimatedRevenue)
	assert.NotEmpty(t, result.BatchID)
	require.Len(t, ledger.created, 2)
	assert.Equal(t, models.ActionCompleted, ledger.created[0].Status)
	assert.True(t, ledger.created[0].Data.IsBulkCampaign)
	assert.Len(t, sender.sent, 2)
}

func TestRunUpsellIsolatesPerStudentFailures(t *testing.T) {
	evals := []models.StudentEvaluation{passEval("s-1"), passEval("s-missing"), passEval("s-3")}
	students := map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel", Phone: phoneOf("+100")},
		"s-3": {ID: "s-3", FullName: "Nora", Phone: phoneOf("+300")},
	}
	svc, ledger, _ := newCampaignFixture(evals, students)

	result, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalEligible)
	assert.Equal(t, 2, result.ActionsCreated)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "s-missing", result.Skipped[0].StudentID)
	assert.Equal(t, "student data missing", result.Skipped[0].Reason)
	require.Len(t, ledger.created, 2)
}

func TestRunUpsellSkipsStudentsWithActiveOffer(t *testing.T) {
	evals := []models.StudentEvaluation{passEval("s-1"), passEval("s-2")}
	students := map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel", Phone: phoneOf("+100")},
		"s-2": {ID: "s-2", FullName: "Karim", Phone: phoneOf("+200")},
	}
	svc, ledger, _ := newCampaignFixture(evals, students)
	ledger.active["s-2"] = true

	result, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ActionsCreated)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "existing offer", result.Skipped[0].Reason)
	assert.Equal(t, 800, result.EstimatedRevenue)
}

func TestRunUpsellSendFailureStillCreatesAction(t *testing.T) {
	evals := []models.StudentEvaluation{passEval("s-1")}
	students := map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel", Phone: phoneOf("+100")},
	}
	svc, ledger, sender := newCampaignFixture(evals, students)
	sender.errFor = map[string]bool{"+100": true}

	result, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ActionsCreated)
	assert.Equal(t, 0, result.MessagesSent)
	require.Len(t, ledger.created, 1)
	assert.False(t, ledger.created[0].Results.MessageSent)
	require.Len(t, result.Actions, 1)
	assert.False(t, result.Actions[0].WhatsAppSent)
}

func TestRunUpsellStudentWithoutPhone(t *testing.T) {
	evals := []models.StudentEvaluation{passEval("s-1")}
	students := map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel"},
	}
	svc, ledger, sender := newCampaignFixture(evals, students)

	result, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ActionsCreated)
	assert.Equal(t, 0, result.MessagesSent)
	assert.Empty(t, sender.sent)
	require.Len(t, ledger.created, 1)
}

func TestRunUpsellSelectionModesAreExclusive(t *testing.T) {
	svc, _, _ := newCampaignFixture(nil, nil)

	_, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		CourseID: "course-new",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs:   []string{"group-1"},
		StudentIDs: []string{"s-1"},
		CourseID:   "course-new",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRunUpsellNoEligibleStudents(t *testing.T) {
	svc, _, _ := newCampaignFixture(nil, nil)

	_, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRunUpsellRejectsUnknownOrInactiveCourse(t *testing.T) {
	svc, _, _ := newCampaignFixture([]models.StudentEvaluation{passEval("s-1")}, nil)

	_, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "missing",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-off",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestRunUpsellGroupSelectionFiltersCategories(t *testing.T) {
	evalStub := &evaluationReaderStub{eligible: []models.StudentEvaluation{passEval("s-1")}}
	offers := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	courses := courseFinderStub{courses: map[string]*models.Course{
		"course-new": {ID: "course-new", Title: "Advanced", Level: models.LevelAdvanced, Price: 1000, Active: true},
	}}
	svc := NewCampaignService(evalStub, studentReaderStub{students: map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel"},
	}}, courses, &actionLedgerStub{active: map[string]bool{}}, offers, &messageSenderStub{}, nil, nil, 7, 30, 500, zap.NewNop())

	_, err := svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		GroupIDs: []string{"group-1"},
		CourseID: "course-new",
	}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.StudentCategory{models.CategoryStarStudent, models.CategoryReadyForNextLevel}, evalStub.eligibleFilter.Categories)

	// Explicit student selection drops the category filter.
	_, err = svc.RunUpsell(context.Background(), dto.UpsellCampaignRequest{
		StudentIDs: []string{"s-1"},
		CourseID:   "course-new",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, evalStub.eligibleFilter.Categories)
	assert.Equal(t, []string{"s-1"}, evalStub.eligibleFilter.StudentIDs)
}

func TestRunReEnrollmentUsesRepeatDefaults(t *testing.T) {
	eval := passEval("s-1")
	eval.FinalDecision = models.DecisionRepeat
	eval.StudentCategory = models.CategoryNeedsRepeat
	evalStub := &evaluationReaderStub{eligible: []models.StudentEvaluation{eval}}
	offers := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	courses := courseFinderStub{courses: map[string]*models.Course{
		"course-same": {ID: "course-same", Title: "Python Basics", Level: models.LevelBeginner, Price: 1000, Active: true},
	}}
	ledger := &actionLedgerStub{active: map[string]bool{}}
	svc := NewCampaignService(evalStub, studentReaderStub{students: map[string]*models.Student{
		"s-1": {ID: "s-1", FullName: "Amel", GuardianPhone: phoneOf("+900")},
	}}, courses, ledger, offers, &messageSenderStub{}, nil, nil, 7, 30, 500, zap.NewNop())

	result, err := svc.RunReEnrollment(context.Background(), dto.ReEnrollmentCampaignRequest{
		GroupIDs:       []string{"group-1"},
		CourseID:       "course-same",
		IncludeSupport: true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.FinalDecision{models.DecisionRepeat}, evalStub.eligibleFilter.Decisions)
	assert.Equal(t, []models.StudentCategory{models.CategoryNeedsRepeat}, evalStub.eligibleFilter.Categories)
	require.Len(t, ledger.created, 1)
	assert.Equal(t, models.ActionReEnroll, ledger.created[0].ActionType)
	// Default 40% off 1000 is 600.
	assert.Equal(t, 600, result.EstimatedRevenue)
	assert.Contains(t, ledger.created[0].Data.CustomMessage, "support sessions")
	// Guardian phone is the fallback contact.
	assert.Equal(t, 1, result.MessagesSent)
}
