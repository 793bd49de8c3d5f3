package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
)

type courseReaderStub struct {
	byLevel   []models.Course
	byKeyword []models.Course
	combined  []models.Course
	err       error
}

func (s courseReaderStub) FindActiveByLevels(ctx context.Context, levels []models.CourseLevel, limit int) ([]models.Course, error) {
	return s.byLevel, s.err
}

func (s courseReaderStub) FindActiveByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Course, error) {
	return s.byKeyword, s.err
}

func (s courseReaderStub) FindActiveByLevelsOrKeywords(ctx context.Context, levels []models.CourseLevel, keywords []string, limit int) ([]models.Course, error) {
	return s.combined, s.err
}

func TestDiscountPercentageTable(t *testing.T) {
	cases := []struct {
		name     string
		category models.StudentCategory
		decision models.FinalDecision
		overall  float64
		want     int
	}{
		{"star student base", models.CategoryStarStudent, models.DecisionPass, 4.2, 20},
		{"star student top score", models.CategoryStarStudent, models.DecisionPass, 4.6, 25},
		{"ready base", models.CategoryReadyForNextLevel, models.DecisionPass, 3.8, 15},
		{"ready strong score", models.CategoryReadyForNextLevel, models.DecisionPass, 4.1, 18},
		{"needs support", models.CategoryNeedsSupport, models.DecisionReview, 3.0, 25},
		{"needs repeat", models.CategoryNeedsRepeat, models.DecisionRepeat, 2.0, 40},
		{"at risk", models.CategoryAtRisk, models.DecisionReview, 2.2, 50},
		{"repeat decision floors discount", models.CategoryStarStudent, models.DecisionRepeat, 4.0, 40},
		{"review decision floors discount", models.CategoryReadyForNextLevel, models.DecisionReview, 3.8, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DiscountPercentage(tc.category, tc.decision, tc.overall))
		})
	}
}

func TestDiscountedPriceIntegerRounding(t *testing.T) {
	assert.Equal(t, 850, DiscountedPrice(1000, 15))
	// 999 * 0.85 = 849.15, rounds down to 849.
	assert.Equal(t, 849, DiscountedPrice(999, 15))
	// 995 * 0.67 = 666.65, rounds up to 667.
	assert.Equal(t, 667, DiscountedPrice(995, 33))
	assert.Equal(t, 0, DiscountedPrice(0, 50))
}

func TestSelectTargetCoursePrefersAdvancedForStars(t *testing.T) {
	candidates := []models.Course{
		{ID: "c-1", Level: models.LevelBeginner},
		{ID: "c-2", Level: models.LevelIntermediate},
		{ID: "c-3", Level: models.LevelAdvanced},
	}

	target := SelectTargetCourse(models.CategoryStarStudent, candidates)
	require.NotNil(t, target)
	assert.Equal(t, "c-3", target.ID)

	target = SelectTargetCourse(models.CategoryNeedsSupport, candidates)
	require.NotNil(t, target)
	assert.Equal(t, "c-1", target.ID)
}

func TestSelectTargetCourseEmptyCandidates(t *testing.T) {
	assert.Nil(t, SelectTargetCourse(models.CategoryStarStudent, nil))
}

func TestComposeReturnsNilWithoutCandidates(t *testing.T) {
	svc := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	eval := &models.StudentEvaluation{StudentCategory: models.CategoryStarStudent}

	assert.Nil(t, svc.Compose(eval, nil, ComposeOptions{}))
}

func TestComposeBuildsOffer(t *testing.T) {
	svc := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	eval := &models.StudentEvaluation{
		OverallScore:    4.6,
		StudentCategory: models.CategoryStarStudent,
		FinalDecision:   models.DecisionPass,
	}
	candidates := []models.Course{{ID: "c-adv", Title: "Advanced Robotics", Level: models.LevelAdvanced, Price: 1200}}

	offer := svc.Compose(eval, candidates, ComposeOptions{})
	require.NotNil(t, offer)
	assert.Equal(t, "c-adv", offer.TargetCourseID)
	assert.Equal(t, 25, offer.DiscountPercentage)
	assert.Equal(t, 900, offer.DiscountedPrice)
	assert.Equal(t, dto.OfferPremiumUpsell, offer.OfferType)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), offer.Deadline, time.Minute)
}

func TestComposeUsesReEnrollDeadlineForRepeat(t *testing.T) {
	svc := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	eval := &models.StudentEvaluation{
		OverallScore:    2.1,
		StudentCategory: models.CategoryNeedsRepeat,
		FinalDecision:   models.DecisionRepeat,
	}
	candidates := []models.Course{{ID: "c-same", Title: "Python Basics", Level: models.LevelBeginner, Price: 800}}

	offer := svc.Compose(eval, candidates, ComposeOptions{})
	require.NotNil(t, offer)
	assert.Equal(t, 40, offer.DiscountPercentage)
	assert.Equal(t, 480, offer.DiscountedPrice)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), offer.Deadline, time.Minute)
}

func TestComposeAppliesOverrides(t *testing.T) {
	svc := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	eval := &models.StudentEvaluation{
		OverallScore:    4.0,
		StudentCategory: models.CategoryReadyForNextLevel,
		FinalDecision:   models.DecisionPass,
	}
	candidates := []models.Course{{ID: "c-int", Title: "Intermediate Web", Level: models.LevelIntermediate, Price: 1000}}

	discount := 10
	days := 3
	offer := svc.Compose(eval, candidates, ComposeOptions{DiscountOverride: &discount, DeadlineDays: &days})
	require.NotNil(t, offer)
	assert.Equal(t, 10, offer.DiscountPercentage)
	assert.Equal(t, 900, offer.DiscountedPrice)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 3), offer.Deadline, time.Minute)
}

func TestUpsellMessageIncludesFocusAreas(t *testing.T) {
	svc := NewOfferService(courseReaderStub{}, 7, 30, zap.NewNop())
	deadline := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	offer := &dto.Offer{
		TargetCourseName:   "Advanced Robotics",
		OriginalPrice:      1200,
		DiscountPercentage: 25,
		DiscountedPrice:    900,
		Deadline:           deadline,
	}

	msg := svc.UpsellMessage("Lina", "Robotics II", offer, []string{"practice", "unknown_tag"})
	assert.Contains(t, msg, "Lina")
	assert.Contains(t, msg, "Advanced Robotics")
	assert.Contains(t, msg, "25%")
	assert.Contains(t, msg, "1 April 2026")
	assert.Contains(t, msg, models.WeakPointLabels["practice"])
	// Unknown tags pass through untranslated.
	assert.Contains(t, msg, "unknown_tag")
}
