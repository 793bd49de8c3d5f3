package dto

import "time"

// OfferType tags the kind of offer produced for a student.
type OfferType string

const (
	OfferPremiumUpsell     OfferType = "premium_upsell"
	OfferLevelUpgrade      OfferType = "level_upgrade"
	OfferSupportPackage    OfferType = "support_package"
	OfferRepeatWithSupport OfferType = "repeat_with_support"
	OfferRetention         OfferType = "retention_offer"
	OfferStandard          OfferType = "standard"
)

// Offer is the pricing proposal computed for one student. A nil Offer means
// no candidate course was available.
type Offer struct {
	TargetCourseID     string    `json:"targetCourseId"`
	TargetCourseName   string    `json:"targetCourseName"`
	OriginalPrice      int       `json:"originalPrice"`
	DiscountPercentage int       `json:"discountPercentage"`
	DiscountedPrice    int       `json:"discountedPrice"`
	OfferType          OfferType `json:"offerType"`
	Deadline           time.Time `json:"deadline"`
}
