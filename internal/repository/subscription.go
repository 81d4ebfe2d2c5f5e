package repository

import (
	"context"
	"time"

	"github.com/danabek/jarnama/internal/domain"
	"github.com/google/uuid"
)

const subscriptionColumns = `id, subscriber_id, plan_slug, billing_cycle, total_amount,
	amount_paid, currency, status, started_at, expires_at, created_at, updated_at`

// CreateSubscriptionParams contains the values for a new subscription row.
type CreateSubscriptionParams struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	PlanSlug     string
	BillingCycle domain.BillingCycle
	TotalAmount  int64
	AmountPaid   int64
	Currency     string
	Status       domain.SubscriptionStatus
	StartedAt    time.Time
	ExpiresAt    time.Time
}

// CreateSubscription inserts a subscription and returns the stored row.
func (q *Queries) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (domain.Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (
			id, subscriber_id, plan_slug, billing_cycle, total_amount,
			amount_paid, currency, status, started_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+subscriptionColumns,
		params.ID, params.SubscriberID, params.PlanSlug, params.BillingCycle,
		params.TotalAmount, params.AmountPaid, params.Currency, params.Status,
		params.StartedAt, params.ExpiresAt,
	)
	return scanSubscription(row)
}

// GetSubscription returns the subscription with the given id.
func (q *Queries) GetSubscription(ctx context.Context, id uuid.UUID) (domain.Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1`,
		id,
	)
	return scanSubscription(row)
}

// GetCurrentSubscription returns the subscriber's granting, unexpired
// subscription with the latest expiry. sql.ErrNoRows means none exists.
func (q *Queries) GetCurrentSubscription(ctx context.Context, subscriberID uuid.UUID, now time.Time) (domain.Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE subscriber_id = $1
		  AND status IN ('active', 'partially_paid')
		  AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1`,
		subscriberID, now,
	)
	return scanSubscription(row)
}

// UpdateSubscriptionBillingParams contains the recomputed billing fields.
type UpdateSubscriptionBillingParams struct {
	ID           uuid.UUID
	BillingCycle domain.BillingCycle
	TotalAmount  int64
	AmountPaid   int64
	Status       domain.SubscriptionStatus
	ExpiresAt    time.Time
}

// UpdateSubscriptionBilling applies a freshly computed quote to the row.
func (q *Queries) UpdateSubscriptionBilling(ctx context.Context, params UpdateSubscriptionBillingParams) (domain.Subscription, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE subscriptions
		SET billing_cycle = $2,
		    total_amount = $3,
		    amount_paid = $4,
		    status = $5,
		    expires_at = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+subscriptionColumns,
		params.ID, params.BillingCycle, params.TotalAmount, params.AmountPaid,
		params.Status, params.ExpiresAt,
	)
	return scanSubscription(row)
}

// ExpireLapsedSubscriptions flips granting subscriptions whose period has
// passed to expired. Returns the number of rows affected.
func (q *Queries) ExpireLapsedSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = 'expired', updated_at = now()
		WHERE status IN ('active', 'partially_paid')
		  AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.SubscriberID, &s.PlanSlug, &s.BillingCycle, &s.TotalAmount,
		&s.AmountPaid, &s.Currency, &s.Status, &s.StartedAt, &s.ExpiresAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}
