package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/novacademy/marketing-api/internal/dto"
	"github.com/novacademy/marketing-api/internal/models"
)

type courseReader interface {
	FindActiveByLevels(ctx context.Context, levels []models.CourseLevel, limit int) ([]models.Course, error)
	FindActiveByKeywords(ctx context.Context, keywords []string, limit int) ([]models.Course, error)
	FindActiveByLevelsOrKeywords(ctx context.Context, levels []models.CourseLevel, keywords []string, limit int) ([]models.Course, error)
}

// Course-title keywords used when the catalog carries no explicit tag.
var (
	supportKeywords  = []string{"support", "review", "intensive"}
	beginnerKeywords = []string{"beginner"}
)

const candidateLimit = 5

// OfferService selects target courses, computes discounts and prices, and
// assembles the templated outreach message.
type OfferService struct {
	courses              courseReader
	upsellDeadlineDays   int
	reEnrollDeadlineDays int
	logger               *zap.Logger
}

// NewOfferService constructs an offer service. Deadline-day defaults apply
// when the caller does not override them (7 for upsell, 30 for re-enroll).
func NewOfferService(courses courseReader, upsellDeadlineDays, reEnrollDeadlineDays int, logger *zap.Logger) *OfferService {
	if upsellDeadlineDays <= 0 {
		upsellDeadlineDays = 7
	}
	if reEnrollDeadlineDays <= 0 {
		reEnrollDeadlineDays = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferService{
		courses:              courses,
		upsellDeadlineDays:   upsellDeadlineDays,
		reEnrollDeadlineDays: reEnrollDeadlineDays,
		logger:               logger,
	}
}

// CandidateCourses applies the retrieval policy for the evaluation's
// category and decision. At most five active courses are returned.
func (s *OfferService) CandidateCourses(ctx context.Context, eval *models.StudentEvaluation, current *models.Course) ([]models.Course, error) {
	level := models.LevelBeginner
	if current != nil {
		level = current.Level
	}

	switch {
	case eval.StudentCategory == models.CategoryStarStudent || eval.StudentCategory == models.CategoryReadyForNextLevel:
		return s.courses.FindActiveByLevels(ctx, []models.CourseLevel{level.Next()}, candidateLimit)

	case eval.FinalDecision == models.DecisionRepeat || eval.StudentCategory == models.CategoryNeedsRepeat:
		sameLevel, err := s.courses.FindActiveByLevels(ctx, []models.CourseLevel{level}, 3)
		if err != nil {
			return nil, err
		}
		support, err := s.courses.FindActiveByKeywords(ctx, supportKeywords, 2)
		if err != nil {
			return nil, err
		}
		combined := append(sameLevel, support...)
		if len(combined) > candidateLimit {
			combined = combined[:candidateLimit]
		}
		return combined, nil

	case eval.StudentCategory == models.CategoryNeedsSupport || eval.FinalDecision == models.DecisionReview:
		return s.courses.FindActiveByLevelsOrKeywords(ctx, []models.CourseLevel{level}, supportKeywords, candidateLimit)

	case eval.StudentCategory == models.CategoryAtRisk:
		return s.courses.FindActiveByLevelsOrKeywords(ctx, []models.CourseLevel{level, models.LevelBeginner}, beginnerKeywords, candidateLimit)

	default:
		return s.courses.FindActiveByLevels(ctx, []models.CourseLevel{level}, candidateLimit)
	}
}

// SelectTargetCourse picks the target from caller-filtered candidates. High
// performers are steered toward advanced or intermediate courses; everyone
// else takes the first candidate.
func SelectTargetCourse(category models.StudentCategory, candidates []models.Course) *models.Course {
	if len(candidates) == 0 {
		return nil
	}
	if category == models.CategoryStarStudent || category == models.CategoryReadyForNextLevel {
		for _, level := range []models.CourseLevel{models.LevelAdvanced, models.LevelIntermediate} {
			for i := range candidates {
				if candidates[i].Level == level {
					return &candidates[i]
				}
			}
		}
	}
	return &candidates[0]
}

// DiscountPercentage resolves the discount from the category table, then
// applies the decision floors: repeat never drops below 40, review never
// below 25.
func DiscountPercentage(category models.StudentCategory, decision models.FinalDecision, overallScore float64) int {
	discount := 15
	switch category {
	case models.CategoryStarStudent:
		discount = 20
		if overallScore >= 4.5 {
			discount = 25
		}
	case models.CategoryReadyForNextLevel:
		discount = 15
		if overallScore >= 4.0 {
			discount = 18
		}
	case models.CategoryNeedsSupport:
		discount = 20
	case models.CategoryNeedsRepeat:
		discount = 40
	case models.CategoryAtRisk:
		discount = 50
	}

	switch decision {
	case models.DecisionRepeat:
		if discount < 40 {
			discount = 40
		}
	case models.DecisionReview:
		if discount < 25 {
			discount = 25
		}
	}
	return discount
}

// DiscountedPrice applies the discount with integer rounding; currency has
// no fractional unit here.
func DiscountedPrice(price, discountPercentage int) int {
	return int(math.Round(float64(price) * (1 - float64(discountPercentage)/100)))
}

// OfferTypeFor tags the offer by student category.
func OfferTypeFor(category models.StudentCategory) dto.OfferType {
	switch category {
	case models.CategoryStarStudent:
		return dto.OfferPremiumUpsell
	case models.CategoryReadyForNextLevel:
		return dto.OfferLevelUpgrade
	case models.CategoryNeedsSupport:
		return dto.OfferSupportPackage
	case models.CategoryNeedsRepeat:
		return dto.OfferRepeatWithSupport
	case models.CategoryAtRisk:
		return dto.OfferRetention
	default:
		return dto.OfferStandard
	}
}

// ComposeOptions override campaign-level pricing.
type ComposeOptions struct {
	DiscountOverride *int
	DeadlineDays     *int
}

// Compose builds the offer for one evaluation against the candidate list.
// It returns nil when no candidate course exists.
func (s *OfferService) Compose(eval *models.StudentEvaluation, candidates []models.Course, opts ComposeOptions) *dto.Offer {
	target := SelectTargetCourse(eval.StudentCategory, candidates)
	if target == nil {
		return nil
	}

	discount := DiscountPercentage(eval.StudentCategory, eval.FinalDecision, eval.OverallScore)
	if opts.DiscountOverride != nil {
		discount = *opts.DiscountOverride
	}

	deadlineDays := s.upsellDeadlineDays
	if eval.StudentCategory == models.CategoryNeedsRepeat || eval.FinalDecision == models.DecisionRepeat {
		deadlineDays = s.reEnrollDeadlineDays
	}
	if opts.DeadlineDays != nil {
		deadlineDays = *opts.DeadlineDays
	}

	return &dto.Offer{
		TargetCourseID:     target.ID,
		TargetCourseName:   target.Title,
		OriginalPrice:      target.Price,
		DiscountPercentage: discount,
		DiscountedPrice:    DiscountedPrice(target.Price, discount),
		OfferType:          OfferTypeFor(eval.StudentCategory),
		Deadline:           time.Now().AddDate(0, 0, deadlineDays),
	}
}

// UpsellMessage renders the congratulatory offer message. Weak points, when
// present, are appended as focus areas.
func (s *OfferService) UpsellMessage(studentName, currentCourse string, offer *dto.Offer, weakPoints []string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s! Congratulations on your great results in %s.\n\n", studentName, currentCourse)
	fmt.Fprintf(b, "You are ready for the next step: %s.\n", offer.TargetCourseName)
	fmt.Fprintf(b, "As one of our top students you get a %d%% discount: %d instead of %d, valid until %s.\n",
		offer.DiscountPercentage, offer.DiscountedPrice, offer.OriginalPrice, offer.Deadline.Format("2 January 2006"))
	appendFocusAreas(b, weakPoints)
	b.WriteString("\nReply to this message to reserve your seat!")
	return b.String()
}

// SupportMessage renders the supportive variant for struggling students.
func (s *OfferService) SupportMessage(studentName, currentCourse string, offer *dto.Offer, weakPoints []string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s, thank you for your effort in %s.\n\n", studentName, currentCourse)
	fmt.Fprintf(b, "We prepared a plan to help you progress with confidence: %s.\n", offer.TargetCourseName)
	fmt.Fprintf(b, "We are offering it with a %d%% discount: %d instead of %d, valid until %s.\n",
		offer.DiscountPercentage, offer.DiscountedPrice, offer.OriginalPrice, offer.Deadline.Format("2 January 2006"))
	appendFocusAreas(b, weakPoints)
	b.WriteString("\nOur team is here for you, reply any time to talk it through.")
	return b.String()
}

// CampaignMessage renders the bulk-campaign message parameterised with the
// campaign's own discount and deadline.
func (s *OfferService) CampaignMessage(studentName string, course *models.Course, discount, discountedPrice int, deadline time.Time) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s! Great news from Nova Academy.\n\n", studentName)
	fmt.Fprintf(b, "Based on your results you qualify for %s with an exclusive %d%% discount: %d instead of %d.\n",
		course.Title, discount, discountedPrice, course.Price)
	fmt.Fprintf(b, "The offer is valid until %s.\n", deadline.Format("2 January 2006"))
	b.WriteString("\nReply to this message to enroll!")
	return b.String()
}

// ReEnrollmentMessage renders the repeat-enrollment variant.
func (s *OfferService) ReEnrollmentMessage(studentName string, course *models.Course, discount, discountedPrice int, deadline time.Time, includeSupport bool) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s, every learner moves at their own pace, and we want to help you succeed.\n\n", studentName)
	fmt.Fprintf(b, "Re-enroll in %s with a %d%% discount: %d instead of %d, valid until %s.\n",
		course.Title, discount, discountedPrice, course.Price, deadline.Format("2 January 2006"))
	if includeSupport {
		b.WriteString("The offer includes free weekly support sessions with your instructor.\n")
	}
	b.WriteString("\nReply to this message and we will take care of the rest.")
	return b.String()
}

// RetentionMessage renders the check-in proposed for an at-risk student.
// There is no offer attached, the goal is re-engagement.
func (s *OfferService) RetentionMessage(studentName string, weakPoints []string) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s, we noticed you have been missing some sessions and we want to help.\n\n", studentName)
	appendFocusAreas(b, weakPoints)
	b.WriteString("Reply to this message or call us, and we will find a plan that works for you.")
	return b.String()
}

// WelcomeMessage renders the first-touch message proposed for a new lead.
func (s *OfferService) WelcomeMessage(leadName string, suggested *models.Course) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Hi %s, welcome to Nova Academy!\n\n", leadName)
	if suggested != nil {
		fmt.Fprintf(b, "A great place to start is our %s course.\n", suggested.Title)
	}
	b.WriteString("Reply to this message and we will help you pick the right course.")
	return b.String()
}

func appendFocusAreas(b *strings.Builder, weakPoints []string) {
	labels := models.TranslateWeakPoints(weakPoints)
	if len(labels) == 0 {
		return
	}
	fmt.Fprintf(b, "The course pays special attention to: %s.\n", strings.Join(labels, ", "))
}
