// Package domain contains core business types and interfaces.
//
// This file defines the Listing domain type and its status state machine.
// Listings are the marketplace entries (job offers, housing ads, service
// posts) whose creation the quota evaluator gates.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Listing Status
// =============================================================================

// ListingStatus represents the lifecycle state of a listing.
type ListingStatus string

const (
	// ListingStatusDraft indicates a listing being composed; not visible.
	ListingStatusDraft ListingStatus = "draft"

	// ListingStatusPendingApproval indicates a listing awaiting moderation.
	// Entered instead of active when the plan's module restrictions set
	// approvalRequired.
	ListingStatusPendingApproval ListingStatus = "pending_approval"

	// ListingStatusActive indicates a published, visible listing.
	ListingStatusActive ListingStatus = "active"

	// ListingStatusRejected indicates moderation declined the listing.
	ListingStatusRejected ListingStatus = "rejected"

	// ListingStatusExpired indicates the listing's plan-granted duration
	// elapsed. Applied by the expiry scheduler, not by the evaluator.
	ListingStatusExpired ListingStatus = "expired"

	// ListingStatusClosed indicates the subscriber withdrew the listing.
	ListingStatusClosed ListingStatus = "closed"
)

// String returns the string representation of the status.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusDraft, ListingStatusPendingApproval, ListingStatusActive,
		ListingStatusRejected, ListingStatusExpired, ListingStatusClosed:
		return true
	}
	return false
}

// CanTransitionTo checks if the listing can move to the target status.
//
// Valid transitions:
//   - draft -> pending_approval (moderated plans) or active (unmoderated)
//   - pending_approval -> active | rejected
//   - active -> expired | closed
func (s ListingStatus) CanTransitionTo(target ListingStatus) bool {
	switch s {
	case ListingStatusDraft:
		return target == ListingStatusPendingApproval || target == ListingStatusActive
	case ListingStatusPendingApproval:
		return target == ListingStatusActive || target == ListingStatusRejected
	case ListingStatusActive:
		return target == ListingStatusExpired || target == ListingStatusClosed
	}
	return false
}

// =============================================================================
// Listing Domain Type
// =============================================================================

// Listing represents a marketplace entry in one vertical module.
type Listing struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	ModuleSlug   string // Vertical this listing belongs to
	Title        string
	Body         string
	Status       ListingStatus
	IsUrgent     bool
	ExternalLink string
	ImageCount   int
	ActivatedAt  *time.Time // Set when the listing first goes active
	ExpiresAt    *time.Time // Nil when the plan sets no listing duration
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TransitionTo moves the listing to the target status, validating the state
// machine. The status is unchanged on error.
func (l *Listing) TransitionTo(target ListingStatus) error {
	const op = "listing.transition"
	if !l.Status.CanTransitionTo(target) {
		return Invalid(op, fmt.Sprintf("cannot transition listing from %q to %q", l.Status, target))
	}
	l.Status = target
	return nil
}

// IsVisible reports whether the listing is publicly visible.
func (l *Listing) IsVisible() bool {
	return l.Status == ListingStatusActive
}

// CreateListingParams contains validated parameters for creating a listing.
//
// SubscriberVerified is the actor's verified-identity flag, resolved by the
// auth/profile collaborator; the evaluator only checks that the plan demands
// it, it does not verify identity itself.
type CreateListingParams struct {
	SubscriberID       uuid.UUID
	ModuleSlug         string
	Title              string
	Body               string
	MarkAsUrgent       bool
	ExternalLink       string
	ImageCount         int
	SubscriberVerified bool
}
