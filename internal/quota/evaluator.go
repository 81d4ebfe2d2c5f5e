// Package quota implements the module quota evaluator: the per-action check
// of a plan's module restrictions against current usage.
//
// The denial precedence is an explicit ordered rule table rather than
// incidental control flow, so the sequence is a visible, testable contract.
// Evaluation is pure: it reads only its arguments and returns a verdict.
package quota

import (
	"fmt"

	"github.com/danabek/jarnama/internal/domain"
)

// violation carries the numbers and message behind a denied rule.
type violation struct {
	limit   int
	current int
	message string
}

// rule pairs a denial reason with its predicate. The predicate returns nil
// when the rule is satisfied.
type rule struct {
	reason domain.DenialReason
	check  func(r domain.ModuleRestrictions, u domain.UsageSnapshot, a domain.ListingAction) *violation
}

// rules is the fixed evaluation order. The first violated rule wins; a client
// must learn the first blocking reason, not an arbitrary one. The module
// allowed gate runs before this table and short-circuits all of it.
var rules = []rule{
	{
		reason: domain.DenialListingLimitReached,
		check: func(r domain.ModuleRestrictions, u domain.UsageSnapshot, _ domain.ListingAction) *violation {
			if r.ListingLimit != nil && u.ActiveListingCount >= *r.ListingLimit {
				return &violation{
					limit:   *r.ListingLimit,
					current: u.ActiveListingCount,
					message: fmt.Sprintf("listing limit reached: %d of %d active listings", u.ActiveListingCount, *r.ListingLimit),
				}
			}
			return nil
		},
	},
	{
		reason: domain.DenialMonthlyPostCapReached,
		check: func(r domain.ModuleRestrictions, u domain.UsageSnapshot, _ domain.ListingAction) *violation {
			if r.MaxPostsPerMonth != nil && u.PostsThisMonth >= *r.MaxPostsPerMonth {
				return &violation{
					limit:   *r.MaxPostsPerMonth,
					current: u.PostsThisMonth,
					message: fmt.Sprintf("monthly post cap reached: %d of %d posts this month", u.PostsThisMonth, *r.MaxPostsPerMonth),
				}
			}
			return nil
		},
	},
	{
		reason: domain.DenialImageLimitExceeded,
		check: func(r domain.ModuleRestrictions, u domain.UsageSnapshot, a domain.ListingAction) *violation {
			// Images already on the listing (attach/renewal flows) count
			// toward the per-listing limit alongside the new ones.
			if total := u.ImagesOnListing + a.ImageCount; r.ImageLimit != nil && total > *r.ImageLimit {
				return &violation{
					limit:   *r.ImageLimit,
					current: total,
					message: fmt.Sprintf("too many images: %d attached, plan allows %d per listing", total, *r.ImageLimit),
				}
			}
			return nil
		},
	},
	{
		reason: domain.DenialUrgentMarkingNotAllowed,
		check: func(r domain.ModuleRestrictions, _ domain.UsageSnapshot, a domain.ListingAction) *violation {
			if a.WantsUrgent && !r.CanMarkAsUrgent {
				return &violation{message: "marking listings as urgent is not included in this plan"}
			}
			return nil
		},
	},
	{
		reason: domain.DenialExternalLinksNotAllowed,
		check: func(r domain.ModuleRestrictions, _ domain.UsageSnapshot, a domain.ListingAction) *violation {
			if a.HasExternalLink && !r.ExternalLinksAllowed {
				return &violation{message: "external links are not allowed on this plan"}
			}
			return nil
		},
	},
	{
		reason: domain.DenialVerificationRequired,
		check: func(r domain.ModuleRestrictions, _ domain.UsageSnapshot, a domain.ListingAction) *violation {
			if r.RequiresVerification && !a.ClaimsVerification {
				return &violation{message: "this module requires a verified identity"}
			}
			return nil
		},
	},
}

// Precedence returns the fixed denial-reason order, module gate first.
// Exposed so callers and tests can treat the sequence as a contract.
func Precedence() []domain.DenialReason {
	order := make([]domain.DenialReason, 0, len(rules)+1)
	order = append(order, domain.DenialModuleNotAllowed)
	for _, r := range rules {
		order = append(order, r.reason)
	}
	return order
}

// EvaluateAction decides whether the attempted listing write is permitted
// under the given module restrictions and usage counters.
//
// A nil restrictions pointer means the module is absent from the plan, which
// denies everything with ModuleNotAllowed before any quota arithmetic runs:
// there is nothing meaningful to compute against an absent bundle.
func EvaluateAction(restrictions *domain.ModuleRestrictions, usage domain.UsageSnapshot, action domain.ListingAction) domain.EvaluationResult {
	if restrictions == nil || !restrictions.IsAllowed {
		return domain.EvaluationResult{
			Allowed: false,
			Reason:  domain.DenialModuleNotAllowed,
			Message: "this module is not included in your plan",
		}
	}

	for _, rl := range rules {
		if v := rl.check(*restrictions, usage, action); v != nil {
			return domain.EvaluationResult{
				Allowed: false,
				Reason:  rl.reason,
				Message: v.message,
				Limit:   v.limit,
				Current: v.current,
			}
		}
	}

	return domain.EvaluationResult{
		Allowed:             true,
		RequiresModeration:  restrictions.ApprovalRequired,
		ListingDurationDays: restrictions.ListingDurationDays,
	}
}
