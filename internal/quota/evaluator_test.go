package quota

import (
	"testing"

	"github.com/danabek/jarnama/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(i int) *int { return &i }

// openRestrictions returns a bundle that permits everything, for tests that
// violate one rule at a time.
func openRestrictions() domain.ModuleRestrictions {
	return domain.ModuleRestrictions{
		IsAllowed:            true,
		CanMarkAsUrgent:      true,
		ExternalLinksAllowed: true,
	}
}

func TestEvaluateAction_ModuleAbsent(t *testing.T) {
	// Every action is denied against an absent module, whatever the usage.
	usages := []domain.UsageSnapshot{
		{},
		{ActiveListingCount: 100, PostsThisMonth: 100},
	}
	for _, usage := range usages {
		result := EvaluateAction(nil, usage, domain.ListingAction{})
		assert.False(t, result.Allowed)
		assert.Equal(t, domain.DenialModuleNotAllowed, result.Reason)
	}
}

func TestEvaluateAction_ModuleDisallowed(t *testing.T) {
	r := openRestrictions()
	r.IsAllowed = false
	// Generous limits are irrelevant once the module is switched off.
	r.ListingLimit = intp(100)

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{})
	assert.False(t, result.Allowed)
	assert.Equal(t, domain.DenialModuleNotAllowed, result.Reason)
}

func TestEvaluateAction_ListingLimit(t *testing.T) {
	r := openRestrictions()
	r.ListingLimit = intp(5)

	t.Run("at the limit", func(t *testing.T) {
		result := EvaluateAction(&r, domain.UsageSnapshot{ActiveListingCount: 5}, domain.ListingAction{})
		require.False(t, result.Allowed)
		assert.Equal(t, domain.DenialListingLimitReached, result.Reason)
		assert.Equal(t, 5, result.Limit)
		assert.Equal(t, 5, result.Current)
	})

	t.Run("one below the limit", func(t *testing.T) {
		result := EvaluateAction(&r, domain.UsageSnapshot{ActiveListingCount: 4}, domain.ListingAction{})
		assert.True(t, result.Allowed)
	})

	t.Run("unset limit never binds", func(t *testing.T) {
		unlimited := openRestrictions()
		result := EvaluateAction(&unlimited, domain.UsageSnapshot{ActiveListingCount: 10000}, domain.ListingAction{})
		assert.True(t, result.Allowed)
	})
}

func TestEvaluateAction_MonthlyPostCap(t *testing.T) {
	r := openRestrictions()
	r.MaxPostsPerMonth = intp(3)

	result := EvaluateAction(&r, domain.UsageSnapshot{PostsThisMonth: 3}, domain.ListingAction{})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialMonthlyPostCapReached, result.Reason)
	assert.Equal(t, 3, result.Limit)

	result = EvaluateAction(&r, domain.UsageSnapshot{PostsThisMonth: 2}, domain.ListingAction{})
	assert.True(t, result.Allowed)
}

func TestEvaluateAction_ImageLimit(t *testing.T) {
	r := openRestrictions()
	r.ImageLimit = intp(5)

	// The limit is per listing and inclusive: 5 of 5 is fine, 6 is not.
	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{ImageCount: 5})
	assert.True(t, result.Allowed)

	result = EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{ImageCount: 6})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialImageLimitExceeded, result.Reason)
	assert.Equal(t, 5, result.Limit)
	assert.Equal(t, 6, result.Current)
}

func TestEvaluateAction_ImageLimitCountsExistingImages(t *testing.T) {
	r := openRestrictions()
	r.ImageLimit = intp(5)

	// Attaching to a listing that already holds images: the existing count
	// and the new count share one per-listing budget.
	usage := domain.UsageSnapshot{ImagesOnListing: 4}

	result := EvaluateAction(&r, usage, domain.ListingAction{ImageCount: 1})
	assert.True(t, result.Allowed)

	result = EvaluateAction(&r, usage, domain.ListingAction{ImageCount: 2})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialImageLimitExceeded, result.Reason)
	assert.Equal(t, 5, result.Limit)
	assert.Equal(t, 6, result.Current)
}

func TestEvaluateAction_UrgentMarking(t *testing.T) {
	r := openRestrictions()
	r.CanMarkAsUrgent = false

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{WantsUrgent: true})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialUrgentMarkingNotAllowed, result.Reason)

	// Not asking for urgent is fine on the same plan.
	result = EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{})
	assert.True(t, result.Allowed)
}

func TestEvaluateAction_ExternalLinks(t *testing.T) {
	r := openRestrictions()
	r.ExternalLinksAllowed = false

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{HasExternalLink: true})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialExternalLinksNotAllowed, result.Reason)
}

func TestEvaluateAction_VerificationRequired(t *testing.T) {
	r := openRestrictions()
	r.RequiresVerification = true

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialVerificationRequired, result.Reason)

	result = EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{ClaimsVerification: true})
	assert.True(t, result.Allowed)
}

func TestEvaluateAction_PrecedenceOrder(t *testing.T) {
	// An action violating both the image limit and the external-link rule
	// must report the image limit, which is checked earlier.
	r := openRestrictions()
	r.ImageLimit = intp(2)
	r.ExternalLinksAllowed = false

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{
		ImageCount:      10,
		HasExternalLink: true,
	})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialImageLimitExceeded, result.Reason)
}

func TestEvaluateAction_PrecedenceEverythingViolated(t *testing.T) {
	// All rules violated at once: the listing limit wins, being first after
	// the module gate.
	r := domain.ModuleRestrictions{
		IsAllowed:            true,
		ListingLimit:         intp(1),
		ImageLimit:           intp(1),
		MaxPostsPerMonth:     intp(1),
		RequiresVerification: true,
	}
	usage := domain.UsageSnapshot{ActiveListingCount: 1, PostsThisMonth: 1}
	action := domain.ListingAction{WantsUrgent: true, HasExternalLink: true, ImageCount: 5}

	result := EvaluateAction(&r, usage, action)
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialListingLimitReached, result.Reason)
}

func TestPrecedence(t *testing.T) {
	assert.Equal(t, []domain.DenialReason{
		domain.DenialModuleNotAllowed,
		domain.DenialListingLimitReached,
		domain.DenialMonthlyPostCapReached,
		domain.DenialImageLimitExceeded,
		domain.DenialUrgentMarkingNotAllowed,
		domain.DenialExternalLinksNotAllowed,
		domain.DenialVerificationRequired,
	}, Precedence())
}

func TestEvaluateAction_ModerationAnnotation(t *testing.T) {
	// Free plan, houses module: one listing, moderated. The first creation
	// is allowed but routed to approval; the second hits the limit.
	r := domain.ModuleRestrictions{
		IsAllowed:        true,
		ListingLimit:     intp(1),
		ApprovalRequired: true,
	}

	result := EvaluateAction(&r, domain.UsageSnapshot{ActiveListingCount: 0}, domain.ListingAction{})
	require.True(t, result.Allowed)
	assert.True(t, result.RequiresModeration)

	result = EvaluateAction(&r, domain.UsageSnapshot{ActiveListingCount: 1}, domain.ListingAction{})
	require.False(t, result.Allowed)
	assert.Equal(t, domain.DenialListingLimitReached, result.Reason)
}

func TestEvaluateAction_ReportsListingDuration(t *testing.T) {
	r := openRestrictions()
	r.ListingDurationDays = intp(30)

	result := EvaluateAction(&r, domain.UsageSnapshot{}, domain.ListingAction{})
	require.True(t, result.Allowed)
	require.NotNil(t, result.ListingDurationDays)
	assert.Equal(t, 30, *result.ListingDurationDays)
	assert.False(t, result.RequiresModeration)
}
