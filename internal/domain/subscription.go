// Package domain contains core business types and interfaces.
//
// This file defines the Subscription record binding a subscriber to a plan,
// and the Quote produced by the billing calculator.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Subscription Status
// =============================================================================

// SubscriptionStatus represents the possible states of a subscription.
type SubscriptionStatus string

const (
	// SubscriptionStatusActive indicates a fully paid, usable subscription.
	SubscriptionStatusActive SubscriptionStatus = "active"

	// SubscriptionStatusPartiallyPaid indicates the subscriber paid at least
	// half the total; the subscription is usable for a prorated period.
	SubscriptionStatusPartiallyPaid SubscriptionStatus = "partially_paid"

	// SubscriptionStatusPending indicates a created but not yet funded record.
	SubscriptionStatusPending SubscriptionStatus = "pending"

	// SubscriptionStatusCancelled indicates the subscriber or billing process
	// terminated the subscription before expiry.
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"

	// SubscriptionStatusExpired indicates the paid-for period has lapsed.
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// String returns the string representation of the status.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized value.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPartiallyPaid,
		SubscriptionStatusPending, SubscriptionStatusCancelled,
		SubscriptionStatusExpired:
		return true
	}
	return false
}

// Grants reports whether the status entitles the subscriber to marketplace
// capabilities at all. Expiry is a separate, time-based check.
func (s SubscriptionStatus) Grants() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusPartiallyPaid
}

// =============================================================================
// Subscription
// =============================================================================

// Subscription is the billing record binding a subscriber to a plan.
//
// The engine recomputes TotalAmount/AmountPaid/Status/ExpiresAt on every
// creation or payment-state change via the quote calculator. Termination
// (expired, cancelled) is applied by external renewal processes.
type Subscription struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	PlanSlug     string // Empty for non-plan subscription types
	BillingCycle BillingCycle
	TotalAmount  int64 // Minor currency units
	AmountPaid   int64 // Minor currency units; callers must not over-credit
	Currency     string
	Status       SubscriptionStatus
	StartedAt    time.Time
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsCurrent reports whether the subscription grants access at the given
// instant: a granting status and an unexpired period.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.Status.Grants() && now.Before(s.ExpiresAt)
}

// =============================================================================
// Quote
// =============================================================================

// Quote is the billing calculator's output: the amounts, resulting status and
// expiry for one subscription period. Callers persist it onto the
// subscription record and emit any billing notification themselves.
type Quote struct {
	TotalAmount  int64
	AmountPaid   int64
	BillingCycle BillingCycle
	Status       SubscriptionStatus
	ExpiresAt    time.Time
}

// =============================================================================
// Service Parameters
// =============================================================================

// SubscribeParams contains validated parameters for creating a subscription.
type SubscribeParams struct {
	SubscriberID uuid.UUID
	PlanSlug     string
	BillingCycle BillingCycle // Empty defaults to monthly
	AmountPaid   int64
}
