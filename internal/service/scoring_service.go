package service

import (
	"fmt"
	"sort"

	"github.com/novacademy/marketing-api/internal/models"
)

// ScoringService turns evaluations into conversion/readiness scores and
// risk classifications. All methods are pure.
type ScoringService struct{}

// NewScoringService constructs a scoring service.
func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score bounds. The conversion score is never reported as impossible (0)
// or certain (100).
const (
	scoreBase = 50
	scoreMin  = 5
	scoreMax  = 95
)

// ConversionScore estimates how likely the student is to accept an upsell
// offer, in [5, 95]. Adjustments are additive and applied in a fixed
// order; none is mutually exclusive with another.
func (s *ScoringService) ConversionScore(eval *models.StudentEvaluation, attendancePct int) int {
	score := scoreBase

	switch {
	case eval.OverallScore >= 4.5:
		score += 25
	case eval.OverallScore >= 4.0:
		score += 15
	case eval.OverallScore >= 3.5:
		score += 5
	case eval.OverallScore <= 2.5:
		score -= 20
	}

	switch eval.StudentCategory {
	case models.CategoryStarStudent:
		score += 30
	case models.CategoryReadyForNextLevel:
		score += 20
	case models.CategoryNeedsSupport:
		score += 5
	case models.CategoryNeedsRepeat:
		score -= 10
	case models.CategoryAtRisk:
		score -= 25
	}

	switch eval.FinalDecision {
	case models.DecisionPass:
		score += 15
	case models.DecisionReview:
		// no adjustment
	case models.DecisionRepeat:
		score -= 15
	}

	switch {
	case attendancePct >= 90:
		score += 10
	case attendancePct >= 80:
		score += 5
	case attendancePct <= 60:
		score -= 10
	}

	score -= 3 * len(eval.WeakPoints)
	score += 2 * len(eval.Strengths)

	return clamp(score, scoreMin, scoreMax)
}

// Risk level thresholds on the weighted risk score.
const (
	riskHighThreshold   = 60
	riskMediumThreshold = 30
)

// AssessRisk classifies a student's disengagement risk for the retention
// view. It mirrors the conversion factors but weights distance from
// success, producing one human-readable reason per triggering factor and
// follow-up suggestions ranked urgent > high > medium > low.
func (s *ScoringService) AssessRisk(eval *models.StudentEvaluation, snapshot models.AttendanceSnapshot) models.RiskAssessment {
	score := 0
	reasons := []string{}
	suggestions := []models.SuggestedAction{}

	if eval != nil {
		switch {
		case eval.OverallScore <= 2.0:
			score += 30
			reasons = append(reasons, fmt.Sprintf("very low evaluation score (%.1f/5)", eval.OverallScore))
		case eval.OverallScore <= 2.5:
			score += 20
			reasons = append(reasons, fmt.Sprintf("low evaluation score (%.1f/5)", eval.OverallScore))
		case eval.OverallScore < 3.5:
			score += 10
			reasons = append(reasons, fmt.Sprintf("below-average evaluation score (%.1f/5)", eval.OverallScore))
		}

		switch eval.StudentCategory {
		case models.CategoryAtRisk:
			score += 30
			reasons = append(reasons, "classified as at risk in the latest evaluation")
			suggestions = append(suggestions, models.SuggestedAction{
				Action: "schedule_parent_meeting", Label: "Schedule a meeting with the student and guardian", Priority: models.PriorityUrgent,
			})
		case models.CategoryNeedsRepeat:
			score += 20
			reasons = append(reasons, "needs to repeat the current level")
			suggestions = append(suggestions, models.SuggestedAction{
				Action: "offer_repeat_enrollment", Label: "Offer a discounted repeat enrollment", Priority: models.PriorityHigh,
			})
		case models.CategoryNeedsSupport:
			score += 10
			reasons = append(reasons, "needs additional support")
			suggestions = append(suggestions, models.SuggestedAction{
				Action: "assign_support_sessions", Label: "Assign extra support sessions", Priority: models.PriorityMedium,
			})
		}

		switch eval.FinalDecision {
		case models.DecisionRepeat:
			score += 20
			reasons = append(reasons, "instructor decision: repeat")
		case models.DecisionReview:
			score += 10
			reasons = append(reasons, "instructor decision: under review")
		}

		if n := len(eval.WeakPoints); n > 0 {
			score += 3 * n
			reasons = append(reasons, fmt.Sprintf("%d identified weak points", n))
		}
		score -= 2 * len(eval.Strengths)
	}

	if snapshot.CompletedSessionCount > 0 {
		switch {
		case snapshot.AttendancePercentage <= 60:
			score += 20
			reasons = append(reasons, fmt.Sprintf("poor attendance (%d%%)", snapshot.AttendancePercentage))
			suggestions = append(suggestions, models.SuggestedAction{
				Action: "attendance_follow_up", Label: "Call to understand recent absences", Priority: models.PriorityHigh,
			})
		case snapshot.AttendancePercentage < 80:
			score += 10
			reasons = append(reasons, fmt.Sprintf("attendance slipping (%d%%)", snapshot.AttendancePercentage))
			suggestions = append(suggestions, models.SuggestedAction{
				Action: "attendance_follow_up", Label: "Send an attendance check-in message", Priority: models.PriorityMedium,
			})
		}
	}
	if snapshot.ConsecutiveAbsences >= 3 {
		score += 15
		reasons = append(reasons, fmt.Sprintf("%d consecutive absences", snapshot.ConsecutiveAbsences))
		suggestions = append(suggestions, models.SuggestedAction{
			Action: "reengagement_call", Label: "Immediate re-engagement call", Priority: models.PriorityUrgent,
		})
	}

	if score < 0 {
		score = 0
	}

	level := models.RiskLow
	switch {
	case score >= riskHighThreshold:
		level = models.RiskHigh
	case score >= riskMediumThreshold:
		level = models.RiskMedium
	}

	if level == models.RiskLow && len(suggestions) == 0 {
		suggestions = append(suggestions, models.SuggestedAction{
			Action: "keep_engaged", Label: "Keep the student engaged with progress updates", Priority: models.PriorityLow,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return models.PriorityRank(suggestions[i].Priority) < models.PriorityRank(suggestions[j].Priority)
	})

	return models.RiskAssessment{
		RiskScore:        score,
		RiskLevel:        level,
		RiskReasons:      reasons,
		SuggestedActions: suggestions,
	}
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
