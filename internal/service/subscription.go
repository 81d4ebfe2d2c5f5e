// Package service contains the business logic layer.
//
// This file implements the subscription service: creating subscriptions from
// billing quotes and re-quoting them when the payment state changes.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danabek/jarnama/internal/billing"
	"github.com/danabek/jarnama/internal/catalog"
	"github.com/danabek/jarnama/internal/domain"
	"github.com/danabek/jarnama/internal/metrics"
	"github.com/danabek/jarnama/internal/notify"
	"github.com/danabek/jarnama/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService defines operations on plan subscriptions.
type SubscriptionService interface {
	// Subscribe creates a subscription from a computed billing quote.
	// Returns domain.EINVALID for an unknown billing cycle, domain.EPAYMENT
	// for an under-funded partial payment, domain.ENOTFOUND for an unknown
	// plan slug.
	Subscribe(ctx context.Context, params domain.SubscribeParams) (*domain.Subscription, error)

	// RecordPayment adds a received amount to the subscription and re-quotes
	// its status and expiry from the new cumulative total.
	RecordPayment(ctx context.Context, subscriptionID uuid.UUID, amount int64) (*domain.Subscription, error)

	// GetByID retrieves a subscription by id.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// ActiveForSubscriber resolves the subscriber's current subscription and
	// its plan. Returns domain.ENOTFOUND when none grants access right now.
	ActiveForSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscription, *domain.Plan, error)
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	queries  *repository.Queries
	catalog  *catalog.Catalog
	calc     *billing.Calculator
	clock    billing.Clock
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	queries *repository.Queries,
	cat *catalog.Catalog,
	calc *billing.Calculator,
	clock billing.Clock,
	notifier notify.Notifier,
	logger *slog.Logger,
) SubscriptionService {
	if clock == nil {
		clock = billing.SystemClock()
	}
	return &subscriptionService{
		queries:  queries,
		catalog:  cat,
		calc:     calc,
		clock:    clock,
		notifier: notifier,
		logger:   logger,
	}
}

// Subscribe creates a subscription from a computed billing quote.
func (s *subscriptionService) Subscribe(ctx context.Context, params domain.SubscribeParams) (*domain.Subscription, error) {
	const op = "subscription.create"

	if params.SubscriberID == uuid.Nil {
		return nil, domain.Invalid(op, "subscriber id is required")
	}
	plan, ok := s.catalog.Plan(params.PlanSlug)
	if !ok {
		return nil, domain.NotFound(op, "plan", params.PlanSlug)
	}

	quote, err := s.calc.ComputeQuote(plan, params.BillingCycle, params.AmountPaid)
	if err != nil {
		metrics.QuoteFailures.WithLabelValues(domain.ErrorCode(err)).Inc()
		return nil, err
	}

	sub, err := s.queries.CreateSubscription(ctx, repository.CreateSubscriptionParams{
		ID:           uuid.New(),
		SubscriberID: params.SubscriberID,
		PlanSlug:     plan.Slug,
		BillingCycle: quote.BillingCycle,
		TotalAmount:  quote.TotalAmount,
		AmountPaid:   quote.AmountPaid,
		Currency:     s.catalog.Currency(),
		Status:       quote.Status,
		StartedAt:    s.clock.Now(),
		ExpiresAt:    quote.ExpiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create subscription")
	}

	metrics.QuotesComputed.WithLabelValues(quote.Status.String()).Inc()
	s.notifier.QuoteApplied(ctx, &sub, quote)

	s.logger.Info("subscription created",
		"subscription_id", sub.ID,
		"subscriber_id", sub.SubscriberID,
		"plan", sub.PlanSlug,
		"cycle", sub.BillingCycle,
		"status", sub.Status,
		"expires_at", sub.ExpiresAt,
	)

	return &sub, nil
}

// RecordPayment adds a received amount and re-quotes the subscription.
func (s *subscriptionService) RecordPayment(ctx context.Context, subscriptionID uuid.UUID, amount int64) (*domain.Subscription, error) {
	const op = "subscription.record_payment"

	if amount <= 0 {
		return nil, domain.Invalid(op, "payment amount must be positive")
	}

	sub, err := s.queries.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "subscription", subscriptionID.String())
		}
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	if sub.PlanSlug == "" {
		return nil, domain.Invalid(op, "subscription is not bound to a plan")
	}
	plan, ok := s.catalog.Plan(sub.PlanSlug)
	if !ok {
		return nil, domain.NotFound(op, "plan", sub.PlanSlug)
	}

	newPaid := sub.AmountPaid + amount
	quote, err := s.calc.ComputeQuote(plan, sub.BillingCycle, newPaid)
	if err != nil {
		metrics.QuoteFailures.WithLabelValues(domain.ErrorCode(err)).Inc()
		return nil, err
	}

	updated, err := s.queries.UpdateSubscriptionBilling(ctx, repository.UpdateSubscriptionBillingParams{
		ID:           sub.ID,
		BillingCycle: quote.BillingCycle,
		TotalAmount:  quote.TotalAmount,
		AmountPaid:   quote.AmountPaid,
		Status:       quote.Status,
		ExpiresAt:    quote.ExpiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update subscription billing")
	}

	metrics.QuotesComputed.WithLabelValues(quote.Status.String()).Inc()
	s.notifier.QuoteApplied(ctx, &updated, quote)

	s.logger.Info("payment recorded",
		"subscription_id", updated.ID,
		"amount", domain.FormatAmount(updated.Currency, amount),
		"paid_total", domain.FormatAmount(updated.Currency, updated.AmountPaid),
		"status", updated.Status,
		"expires_at", updated.ExpiresAt,
	)

	return &updated, nil
}

// GetByID retrieves a subscription by id.
func (s *subscriptionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	const op = "subscription.get"

	sub, err := s.queries.GetSubscription(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "subscription", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load subscription")
	}
	return &sub, nil
}

// ActiveForSubscriber resolves the subscriber's current subscription and plan.
func (s *subscriptionService) ActiveForSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscription, *domain.Plan, error) {
	const op = "subscription.active_for_subscriber"

	sub, err := s.queries.GetCurrentSubscription(ctx, subscriberID, s.clock.Now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.Errorf(domain.ENOTFOUND, op,
				"no active subscription for subscriber %q", subscriberID)
		}
		return nil, nil, domain.Internal(err, op, "failed to load subscription")
	}

	plan, ok := s.catalog.Plan(sub.PlanSlug)
	if !ok {
		// A subscription can outlive a catalog edit that removed its plan.
		return nil, nil, domain.Internal(
			fmt.Errorf("plan %q not in catalog", sub.PlanSlug),
			op, "subscription references an unknown plan")
	}

	return &sub, plan, nil
}
