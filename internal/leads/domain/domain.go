// Package domain holds the shared vocabulary of the lead tracking context:
// lifecycle stages, engagement types, attribution models, and score banding.
package domain

// Lifecycle stages a lead progresses through. Stage values are stored as
// plain strings; services deliberately accept unknown values (intentional
// flexibility for campaign-defined stages), these constants cover the known
// progression.
const (
	StageNew         = "new"
	StageContacted   = "contacted"
	StageQualified   = "qualified"
	StageEngaged     = "engaged"
	StageOpportunity = "opportunity"
	StageCustomer    = "customer"
	StageChurned     = "churned"
	StageLost        = "lost"
)

// KnownStages lists all recognized lifecycle stages, in funnel order.
var KnownStages = []string{
	StageNew,
	StageContacted,
	StageQualified,
	StageEngaged,
	StageOpportunity,
	StageCustomer,
	StageChurned,
	StageLost,
}

// Engagement activity types.
const (
	EngagementEmailSent         = "email_sent"
	EngagementEmailOpened       = "email_opened"
	EngagementEmailClicked      = "email_clicked"
	EngagementEmailReplied      = "email_replied"
	EngagementSMSSent           = "sms_sent"
	EngagementSMSReplied        = "sms_replied"
	EngagementFormSubmitted     = "form_submitted"
	EngagementPageViewed        = "page_viewed"
	EngagementLinkClicked       = "link_clicked"
	EngagementCallMade          = "call_made"
	EngagementMeetingScheduled  = "meeting_scheduled"
	EngagementPurchaseMade      = "purchase_made"
	EngagementContentDownloaded = "content_downloaded"
	EngagementSocialInteraction = "social_interaction"
	EngagementAdClicked         = "ad_clicked"
)

// Attribution models for distributing conversion credit across touchpoints.
const (
	ModelFirstTouch = "first_touch"
	ModelLastTouch  = "last_touch"
	ModelLinear     = "linear"
	ModelTimeDecay  = "time_decay"
	ModelUShaped    = "u_shaped"
	ModelWShaped    = "w_shaped"
)

// Temperatures bucket a composite score coarsely.
const (
	TemperatureHot  = "hot"
	TemperatureWarm = "warm"
	TemperatureCold = "cold"
)

// Engagement trend values for journey rollups.
const (
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDeclining  = "declining"
)

// GradeForScore maps a composite score to its letter grade.
func GradeForScore(total int) string {
	switch {
	case total >= 90:
		return "A+"
	case total >= 80:
		return "A"
	case total >= 70:
		return "B+"
	case total >= 60:
		return "B"
	case total >= 50:
		return "C+"
	case total >= 40:
		return "C"
	default:
		return "D"
	}
}

// TemperatureForScore maps a composite score to hot/warm/cold.
// Boundaries are 75 (hot) and 50 (warm).
func TemperatureForScore(total int) string {
	switch {
	case total >= 75:
		return TemperatureHot
	case total >= 50:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

// gradeRank orders grades from worst (0) to best. Used for comparisons only.
var gradeRank = map[string]int{
	"D":  0,
	"C":  1,
	"C+": 2,
	"B":  3,
	"B+": 4,
	"A":  5,
	"A+": 6,
}

// GradeRank returns the ordinal position of a grade (higher is better).
// Unknown grades rank lowest.
func GradeRank(grade string) int {
	return gradeRank[grade]
}

// StageEngagementFloor returns the minimum engagement component score implied
// by a lifecycle stage. Unknown stages get the "new" floor.
func StageEngagementFloor(stage string) int {
	switch stage {
	case StageCustomer:
		return 100
	case StageOpportunity:
		return 80
	case StageEngaged:
		return 60
	case StageQualified:
		return 50
	case StageContacted:
		return 30
	default:
		return 15
	}
}
