// Package service contains the business logic layer.
//
// This file implements the listing service: quota-gated listing creation and
// moderation. The usage snapshot is read and the listing inserted inside one
// transaction so two concurrent attempts cannot both pass evaluation against
// a stale count and jointly overshoot the plan's limits.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/danabek/jarnama/internal/billing"
	"github.com/danabek/jarnama/internal/domain"
	"github.com/danabek/jarnama/internal/metrics"
	"github.com/danabek/jarnama/internal/quota"
	"github.com/danabek/jarnama/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ListingService defines operations on marketplace listings.
type ListingService interface {
	// Create evaluates the subscriber's plan restrictions and, if permitted,
	// creates the listing, published directly or routed into moderation
	// when the plan requires approval.
	// Returns domain.EQUOTA with the first violated restriction on denial.
	Create(ctx context.Context, params domain.CreateListingParams) (*domain.Listing, error)

	// Approve publishes a pending-approval listing. The plan's listing
	// duration starts counting from approval.
	Approve(ctx context.Context, id uuid.UUID) (*domain.Listing, error)

	// Reject declines a pending-approval listing.
	Reject(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
}

// subscriptionResolver is the slice of SubscriptionService the listing
// service needs; narrowed for testability.
type subscriptionResolver interface {
	ActiveForSubscriber(ctx context.Context, subscriberID uuid.UUID) (*domain.Subscription, *domain.Plan, error)
}

// =============================================================================
// Implementation
// =============================================================================

type listingService struct {
	db      *sql.DB
	queries *repository.Queries
	subs    subscriptionResolver
	clock   billing.Clock
	logger  *slog.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(
	db *sql.DB,
	queries *repository.Queries,
	subs SubscriptionService,
	clock billing.Clock,
	logger *slog.Logger,
) ListingService {
	if clock == nil {
		clock = billing.SystemClock()
	}
	return &listingService{
		db:      db,
		queries: queries,
		subs:    subs,
		clock:   clock,
		logger:  logger,
	}
}

// Create evaluates the plan restrictions and creates the listing.
func (s *listingService) Create(ctx context.Context, params domain.CreateListingParams) (*domain.Listing, error) {
	const op = "listing.create"

	if err := s.validateCreateParams(params); err != nil {
		return nil, err
	}

	sub, plan, err := s.subs.ActiveForSubscriber(ctx, params.SubscriberID)
	if err != nil {
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			return nil, domain.Errorf(domain.EPAYMENT, op,
				"an active subscription is required to create listings")
		}
		return nil, err
	}

	var restrictions *domain.ModuleRestrictions
	if r, ok := plan.ModuleRestrictions(params.ModuleSlug); ok {
		restrictions = &r
	}

	now := s.clock.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to begin transaction")
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	usage, err := s.snapshotUsage(ctx, qtx, params.SubscriberID, params.ModuleSlug, now)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to read usage counters")
	}

	action := domain.ListingAction{
		WantsUrgent:        params.MarkAsUrgent,
		HasExternalLink:    params.ExternalLink != "",
		ImageCount:         params.ImageCount,
		ClaimsVerification: params.SubscriberVerified,
	}

	result := quota.EvaluateAction(restrictions, usage, action)
	if !result.Allowed {
		metrics.QuotaDenials.WithLabelValues(params.ModuleSlug, result.Reason.String()).Inc()
		s.logger.Info("listing denied",
			"subscriber_id", params.SubscriberID,
			"module", params.ModuleSlug,
			"reason", result.Reason,
			"limit", result.Limit,
			"current", result.Current,
		)
		return nil, domain.QuotaDenied(op, result)
	}

	status := domain.ListingStatusActive
	var activatedAt, expiresAt *time.Time
	if result.RequiresModeration {
		status = domain.ListingStatusPendingApproval
	} else {
		activatedAt = &now
		if result.ListingDurationDays != nil {
			e := now.AddDate(0, 0, *result.ListingDurationDays)
			expiresAt = &e
		}
	}

	listing, err := qtx.CreateListing(ctx, repository.CreateListingParams{
		ID:           uuid.New(),
		SubscriberID: params.SubscriberID,
		ModuleSlug:   params.ModuleSlug,
		Title:        strings.TrimSpace(params.Title),
		Body:         params.Body,
		Status:       status,
		IsUrgent:     params.MarkAsUrgent,
		ExternalLink: params.ExternalLink,
		ImageCount:   params.ImageCount,
		DurationDays: result.ListingDurationDays,
		ActivatedAt:  activatedAt,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create listing")
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Internal(err, op, "failed to commit listing")
	}

	metrics.ListingsCreated.WithLabelValues(params.ModuleSlug).Inc()
	s.logger.Info("listing created",
		"listing_id", listing.ID,
		"subscriber_id", params.SubscriberID,
		"subscription_id", sub.ID,
		"module", params.ModuleSlug,
		"status", listing.Status,
	)

	return &listing, nil
}

// Approve publishes a pending-approval listing.
func (s *listingService) Approve(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	const op = "listing.approve"

	listing, durationDays, err := s.getForModeration(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := listing.TransitionTo(domain.ListingStatusActive); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var expiresAt *time.Time
	if durationDays != nil {
		e := now.AddDate(0, 0, *durationDays)
		expiresAt = &e
	}

	updated, err := s.queries.UpdateListingStatus(ctx, repository.UpdateListingStatusParams{
		ID:          id,
		Status:      domain.ListingStatusActive,
		ActivatedAt: &now,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to approve listing")
	}

	s.logger.Info("listing approved", "listing_id", id, "expires_at", updated.ExpiresAt)
	return &updated, nil
}

// Reject declines a pending-approval listing.
func (s *listingService) Reject(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	const op = "listing.reject"

	listing, _, err := s.getForModeration(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := listing.TransitionTo(domain.ListingStatusRejected); err != nil {
		return nil, err
	}

	updated, err := s.queries.UpdateListingStatus(ctx, repository.UpdateListingStatusParams{
		ID:     id,
		Status: domain.ListingStatusRejected,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reject listing")
	}

	s.logger.Info("listing rejected", "listing_id", id)
	return &updated, nil
}

// snapshotUsage reads the usage counters the evaluator needs, inside the
// caller's transaction so the evaluation and the insert see one state.
func (s *listingService) snapshotUsage(ctx context.Context, qtx *repository.Queries, subscriberID uuid.UUID, moduleSlug string, now time.Time) (domain.UsageSnapshot, error) {
	activeCount, err := qtx.CountActiveListings(ctx, subscriberID, moduleSlug)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}

	start, end := monthBoundaries(now)
	posts, err := qtx.CountListingsCreatedBetween(ctx, subscriberID, moduleSlug, start, end)
	if err != nil {
		return domain.UsageSnapshot{}, err
	}

	// A brand-new listing has no already-attached images; ImagesOnListing
	// stays zero here and is populated by attach/renewal flows instead.
	return domain.UsageSnapshot{
		ActiveListingCount: activeCount,
		PostsThisMonth:     posts,
	}, nil
}

func (s *listingService) getForModeration(ctx context.Context, op string, id uuid.UUID) (*domain.Listing, *int, error) {
	listing, durationDays, err := s.queries.GetListing(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound(op, "listing", id.String())
		}
		return nil, nil, domain.Internal(err, op, "failed to load listing")
	}
	return &listing, durationDays, nil
}

func (s *listingService) validateCreateParams(params domain.CreateListingParams) error {
	const op = "listing.validate"

	if params.SubscriberID == uuid.Nil {
		return domain.Invalid(op, "subscriber id is required")
	}
	if params.ModuleSlug == "" {
		return domain.Invalid(op, "module is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return domain.NewValidationError(op, "title", "title is required")
	}
	if params.ImageCount < 0 {
		return domain.NewValidationError(op, "image_count", "image count cannot be negative")
	}
	return nil
}

// monthBoundaries returns the start and end of the calendar month containing
// t, in UTC. The monthly post cap counts creations within this window.
func monthBoundaries(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}
