// Package domain contains core business types and interfaces.
//
// This file defines the Plan catalog model: the static shape of a purchasable
// tier, its per-cycle price table, and the per-module restriction bundles that
// gate listing creation in each marketplace vertical.
package domain

import "fmt"

// =============================================================================
// Billing Cycle
// =============================================================================

// BillingCycle identifies a recurring billing period.
type BillingCycle string

const (
	BillingCycleMonthly    BillingCycle = "monthly"
	BillingCycleQuarterly  BillingCycle = "quarterly"
	BillingCycleHalfYearly BillingCycle = "halfYearly"
	BillingCycleAnnually   BillingCycle = "annually"
)

// String returns the string representation of the cycle.
func (c BillingCycle) String() string {
	return string(c)
}

// IsValid returns true if the cycle is a recognized value.
func (c BillingCycle) IsValid() bool {
	switch c {
	case BillingCycleMonthly, BillingCycleQuarterly,
		BillingCycleHalfYearly, BillingCycleAnnually:
		return true
	}
	return false
}

// Months returns the whole-month duration of one billing period.
//
// Unrecognized cycles fall back to one month. This branch is unreachable
// through the quote calculator, which validates the cycle against the plan's
// price table first; it exists as a safety net, not a working code path.
func (c BillingCycle) Months() int {
	switch c {
	case BillingCycleMonthly:
		return 1
	case BillingCycleQuarterly:
		return 3
	case BillingCycleHalfYearly:
		return 6
	case BillingCycleAnnually:
		return 12
	default:
		return 1
	}
}

// =============================================================================
// Support Tier
// =============================================================================

// SupportTier is the customer-support level a plan advertises. Informational
// only; nothing in the engine branches on it.
type SupportTier string

const (
	SupportTierNone     SupportTier = "none"
	SupportTierStandard SupportTier = "standard"
	SupportTierPriority SupportTier = "priority"
)

// IsValid returns true if the tier is a recognized value.
func (t SupportTier) IsValid() bool {
	switch t {
	case SupportTierNone, SupportTierStandard, SupportTierPriority:
		return true
	}
	return false
}

// =============================================================================
// Module Restrictions
// =============================================================================

// ModuleRestrictions is the permission and quota envelope for one marketplace
// vertical (jobs, housing, social-support, services) under one plan.
//
// Numeric limits are pointers: nil means the limit is not set and is not
// enforced. IsAllowed false makes every other field irrelevant: all actions
// in the module are denied.
type ModuleRestrictions struct {
	IsAllowed            bool
	ListingLimit         *int // Max concurrently-active listings
	ListingDurationDays  *int // Days a listing stays active before renewal
	ImageLimit           *int // Max images per listing
	CanMarkAsUrgent      bool
	ExternalLinksAllowed bool
	ApprovalRequired     bool // Listing must be moderated before going live
	RequiresVerification bool // Actor must hold a verified-identity flag
	MaxPostsPerMonth     *int // Rolling monthly creation cap
}

// PlanModule pairs a vertical module slug with its restriction bundle.
// A module not listed on a plan is implicitly not allowed.
type PlanModule struct {
	ModuleSlug   string
	Restrictions ModuleRestrictions
}

// =============================================================================
// Plan
// =============================================================================

// PlanFeatures holds the priced and flagged capabilities of a plan.
//
// Prices maps billing cycle to the amount due, in minor currency units.
// An absent cycle means that cycle is not purchasable on the plan.
type PlanFeatures struct {
	Prices    map[BillingCycle]int64
	Support   SupportTier
	Boost     bool
	Analytics bool
}

// Plan represents a purchasable subscription tier.
//
// Plans are read-only to the engine: they are configured by plan
// administration and immutable during a subscription's lifetime. A plan edit
// never retroactively alters an already-quoted subscription.
type Plan struct {
	Name          string
	Slug          string // Unique stable identifier
	Description   string
	IsPremium     bool // false marks the permanently-free tier
	TotalListings int  // Global cap across all modules
	Features      PlanFeatures
	Modules       []PlanModule // Ordered, one entry per covered vertical
}

// Price returns the amount due for one period of the given cycle, and whether
// the plan offers that cycle at all.
func (p *Plan) Price(cycle BillingCycle) (int64, bool) {
	amount, ok := p.Features.Prices[cycle]
	return amount, ok
}

// ModuleRestrictions returns the restriction bundle for a module slug.
// The second return is false when the module is not part of the plan,
// which callers must treat as not allowed.
func (p *Plan) ModuleRestrictions(moduleSlug string) (ModuleRestrictions, bool) {
	for _, m := range p.Modules {
		if m.ModuleSlug == moduleSlug {
			return m.Restrictions, true
		}
	}
	return ModuleRestrictions{}, false
}

// Validate checks the plan's configuration invariants:
//   - slug and name are required
//   - a non-premium plan must not carry prices (the free tier costs zero)
//   - a premium plan must offer at least one cycle, every price positive,
//     every cycle key recognized
//   - caps and limits must be non-negative
func (p *Plan) Validate() error {
	const op = "plan.validate"

	if p.Slug == "" {
		return Invalid(op, "plan slug is required")
	}
	if p.Name == "" {
		return Invalid(op, fmt.Sprintf("plan %q has no name", p.Slug))
	}
	if p.TotalListings < 0 {
		return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q has negative total listings", p.Slug))
	}

	if !p.IsPremium {
		if len(p.Features.Prices) > 0 {
			return InvalidPlanConfiguration(op, fmt.Sprintf("non-premium plan %q must not have prices", p.Slug))
		}
	} else {
		if len(p.Features.Prices) == 0 {
			return InvalidPlanConfiguration(op, fmt.Sprintf("premium plan %q has an empty price table", p.Slug))
		}
		for cycle, amount := range p.Features.Prices {
			if !cycle.IsValid() {
				return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q prices unknown cycle %q", p.Slug, cycle))
			}
			if amount <= 0 {
				return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q has non-positive price for cycle %q", p.Slug, cycle))
			}
		}
	}

	if p.Features.Support != "" && !p.Features.Support.IsValid() {
		return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q has unknown support tier %q", p.Slug, p.Features.Support))
	}

	seen := make(map[string]bool, len(p.Modules))
	for _, m := range p.Modules {
		if m.ModuleSlug == "" {
			return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q has a module entry without a slug", p.Slug))
		}
		if seen[m.ModuleSlug] {
			return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q lists module %q twice", p.Slug, m.ModuleSlug))
		}
		seen[m.ModuleSlug] = true

		r := m.Restrictions
		for name, limit := range map[string]*int{
			"listing limit":         r.ListingLimit,
			"listing duration days": r.ListingDurationDays,
			"image limit":           r.ImageLimit,
			"max posts per month":   r.MaxPostsPerMonth,
		} {
			if limit != nil && *limit < 0 {
				return InvalidPlanConfiguration(op, fmt.Sprintf("plan %q module %q has negative %s", p.Slug, m.ModuleSlug, name))
			}
		}
	}

	return nil
}

// SumModuleListingLimits adds up the per-module listing limits that are set.
// Used by catalog loading to warn when the sum exceeds TotalListings, which
// is a design smell but not a hard failure.
func (p *Plan) SumModuleListingLimits() int {
	sum := 0
	for _, m := range p.Modules {
		if m.Restrictions.ListingLimit != nil {
			sum += *m.Restrictions.ListingLimit
		}
	}
	return sum
}
