package models

import (
	"time"

	"github.com/lib/pq"
)

// StudentCategory classifies a student's standing after an evaluation.
type StudentCategory string

const (
	CategoryStarStudent       StudentCategory = "star_student"
	CategoryReadyForNextLevel StudentCategory = "ready_for_next_level"
	CategoryNeedsSupport      StudentCategory = "needs_support"
	CategoryNeedsRepeat       StudentCategory = "needs_repeat"
	CategoryAtRisk            StudentCategory = "at_risk"
)

// Valid returns true when the category is a supported value.
func (c StudentCategory) Valid() bool {
	switch c {
	case CategoryStarStudent, CategoryReadyForNextLevel, CategoryNeedsSupport, CategoryNeedsRepeat, CategoryAtRisk:
		return true
	default:
		return false
	}
}

// FinalDecision is the instructor's verdict recorded on an evaluation.
type FinalDecision string

const (
	DecisionPass   FinalDecision = "pass"
	DecisionReview FinalDecision = "review"
	DecisionRepeat FinalDecision = "repeat"
)

// Valid returns true when the decision is a supported value.
func (d FinalDecision) Valid() bool {
	switch d {
	case DecisionPass, DecisionReview, DecisionRepeat:
		return true
	default:
		return false
	}
}

// StudentEvaluation is a scored assessment of one student in one group.
// It is read-only from this service's perspective.
type StudentEvaluation struct {
	ID              string          `db:"id" json:"id"`
	StudentID       string          `db:"student_id" json:"studentId"`
	GroupID         string          `db:"group_id" json:"groupId"`
	CourseID        string          `db:"course_id" json:"courseId"`
	OverallScore    float64         `db:"overall_score" json:"overallScore"`
	FinalDecision   FinalDecision   `db:"final_decision" json:"finalDecision"`
	StudentCategory StudentCategory `db:"student_category" json:"studentCategory"`
	WeakPoints      pq.StringArray  `db:"weak_points" json:"weakPoints"`
	Strengths       pq.StringArray  `db:"strengths" json:"strengths"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// WeakPointLabels maps the closed weak-point vocabulary to display labels.
var WeakPointLabels = map[string]string{
	"understanding": "Understanding core concepts",
	"practice":      "Hands-on practice",
	"attendance":    "Attendance",
	"participation": "Class participation",
	"homework":      "Homework completion",
	"projects":      "Project work",
}

// StrengthLabels maps the closed strength vocabulary to display labels.
var StrengthLabels = map[string]string{
	"fast_learner":   "Fast learner",
	"hard_worker":    "Hard worker",
	"team_player":    "Team player",
	"creative":       "Creative thinker",
	"problem_solver": "Problem solver",
	"consistent":     "Consistent performer",
}

// TranslateWeakPoints resolves raw tags into display labels, keeping unknown
// tags as-is so nothing recorded upstream is silently dropped.
func TranslateWeakPoints(tags []string) []string {
	return translateTags(tags, WeakPointLabels)
}

// TranslateStrengths resolves raw strength tags into display labels.
func TranslateStrengths(tags []string) []string {
	return translateTags(tags, StrengthLabels)
}

func translateTags(tags []string, table map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		if label, ok := table[tag]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, tag)
	}
	return labels
}
