package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novacademy/marketing-api/internal/models"
)

func TestConversionScoreStarStudent(t *testing.T) {
	svc := NewScoringService()
	eval := &models.StudentEvaluation{
		OverallScore:    4.7,
		StudentCategory: models.CategoryStarStudent,
		FinalDecision:   models.DecisionPass,
		Strengths:       []string{"fast_learner", "consistent"},
	}

	// 50 + 25 (score) + 30 (category) + 15 (pass) + 10 (attendance) + 4 (strengths) = 134, clamps to 95.
	assert.Equal(t, 95, svc.ConversionScore(eval, 95))
}

func TestConversionScoreClampsAtFloor(t *testing.T) {
	svc := NewScoringService()
	eval := &models.StudentEvaluation{
		OverallScore:    1.5,
		StudentCategory: models.CategoryAtRisk,
		FinalDecision:   models.DecisionRepeat,
		WeakPoints:      []string{"understanding", "practice", "attendance", "homework"},
	}

	assert.Equal(t, 5, svc.ConversionScore(eval, 40))
}

func TestConversionScoreMidRange(t *testing.T) {
	svc := NewScoringService()
	eval := &models.StudentEvaluation{
		OverallScore:    3.7,
		StudentCategory: models.CategoryNeedsSupport,
		FinalDecision:   models.DecisionReview,
		WeakPoints:      []string{"practice"},
	}

	// 50 + 5 + 5 + 0 + 5 (attendance 85) - 3 = 62.
	assert.Equal(t, 62, svc.ConversionScore(eval, 85))
}

func TestConversionScoreStaysWithinBounds(t *testing.T) {
	svc := NewScoringService()
	categories := []models.StudentCategory{
		models.CategoryStarStudent, models.CategoryReadyForNextLevel,
		models.CategoryNeedsSupport, models.CategoryNeedsRepeat, models.CategoryAtRisk,
	}
	decisions := []models.FinalDecision{models.DecisionPass, models.DecisionReview, models.DecisionRepeat}

	for _, category := range categories {
		for _, decision := range decisions {
			for _, overall := range []float64{1.0, 2.5, 3.5, 4.0, 5.0} {
				for _, attendance := range []int{0, 60, 80, 100} {
					eval := &models.StudentEvaluation{
						OverallScore:    overall,
						StudentCategory: category,
						FinalDecision:   decision,
						WeakPoints:      []string{"a", "b", "c", "d", "e", "f"},
					}
					score := svc.ConversionScore(eval, attendance)
					assert.GreaterOrEqual(t, score, 5)
					assert.LessOrEqual(t, score, 95)
				}
			}
		}
	}
}

func TestAssessRiskHighForAtRiskStudent(t *testing.T) {
	svc := NewScoringService()
	eval := &models.StudentEvaluation{
		OverallScore:    1.8,
		StudentCategory: models.CategoryAtRisk,
		FinalDecision:   models.DecisionRepeat,
		WeakPoints:      []string{"attendance", "participation"},
	}
	snapshot := models.AttendanceSnapshot{
		CompletedSessionCount: 10,
		PresentCount:          4,
		AttendancePercentage:  40,
		ConsecutiveAbsences:   4,
	}

	risk := svc.AssessRisk(eval, snapshot)
	assert.Equal(t, models.RiskHigh, risk.RiskLevel)
	assert.NotEmpty(t, risk.RiskReasons)
	require.NotEmpty(t, risk.SuggestedActions)
	// Urgent suggestions sort first.
	assert.Equal(t, models.PriorityUrgent, risk.SuggestedActions[0].Priority)
}

func TestAssessRiskLowForStrongStudent(t *testing.T) {
	svc := NewScoringService()
	eval := &models.StudentEvaluation{
		OverallScore:    4.8,
		StudentCategory: models.CategoryStarStudent,
		FinalDecision:   models.DecisionPass,
		Strengths:       []string{"consistent"},
	}
	snapshot := models.AttendanceSnapshot{
		CompletedSessionCount: 10,
		PresentCount:          10,
		AttendancePercentage:  100,
	}

	risk := svc.AssessRisk(eval, snapshot)
	assert.Equal(t, models.RiskLow, risk.RiskLevel)
	assert.Equal(t, 0, risk.RiskScore)
	require.Len(t, risk.SuggestedActions, 1)
	assert.Equal(t, "keep_engaged", risk.SuggestedActions[0].Action)
}

func TestAssessRiskWithoutEvaluation(t *testing.T) {
	svc := NewScoringService()
	snapshot := models.AttendanceSnapshot{
		CompletedSessionCount: 8,
		PresentCount:          3,
		AttendancePercentage:  38,
		ConsecutiveAbsences:   3,
	}

	risk := svc.AssessRisk(nil, snapshot)
	assert.Equal(t, models.RiskMedium, risk.RiskLevel)
	assert.Equal(t, 35, risk.RiskScore)
}
