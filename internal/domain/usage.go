// Package domain contains core business types and interfaces.
//
// This file defines the quota evaluator's inputs and output: usage counters,
// the attributes of an attempted listing write, and the allow/deny verdict.
package domain

// UsageSnapshot carries the current usage counters for one
// (subscriber, module) pair at evaluation time.
//
// The engine assumes the caller supplies a consistent snapshot, read and
// committed atomically with the listing write; it does not itself provide
// concurrency control over the counters.
type UsageSnapshot struct {
	ActiveListingCount int // Concurrently-active listings in the module
	PostsThisMonth     int // Listings created in the current calendar month
	ImagesOnListing    int // Images already attached (renewal/attach flows)
}

// ListingAction carries the attributes of the attempted listing write.
type ListingAction struct {
	WantsUrgent        bool
	HasExternalLink    bool
	ImageCount         int
	ClaimsVerification bool
}

// =============================================================================
// Denial Reasons
// =============================================================================

// DenialReason identifies which restriction an attempted action violated.
// Each maps to a distinct user-facing message; evaluation order is fixed so
// the client always learns the first blocking reason.
type DenialReason string

const (
	DenialModuleNotAllowed        DenialReason = "module_not_allowed"
	DenialListingLimitReached     DenialReason = "listing_limit_reached"
	DenialMonthlyPostCapReached   DenialReason = "monthly_post_cap_reached"
	DenialImageLimitExceeded      DenialReason = "image_limit_exceeded"
	DenialUrgentMarkingNotAllowed DenialReason = "urgent_marking_not_allowed"
	DenialExternalLinksNotAllowed DenialReason = "external_links_not_allowed"
	DenialVerificationRequired    DenialReason = "verification_required"
)

// String returns the string representation of the reason.
func (r DenialReason) String() string {
	return string(r)
}

// =============================================================================
// Evaluation Result
// =============================================================================

// EvaluationResult is the quota evaluator's verdict on an attempted action.
//
// On denial, Reason names the first violated restriction and Limit/Current
// carry the numbers behind it (zero when the rule is a plain boolean gate).
// On allow, RequiresModeration tells the caller to route the listing into
// pending approval instead of publishing directly, and ListingDurationDays
// reports the plan's active-duration value for the caller to apply.
type EvaluationResult struct {
	Allowed             bool
	Reason              DenialReason
	Message             string
	Limit               int
	Current             int
	RequiresModeration  bool
	ListingDurationDays *int
}
