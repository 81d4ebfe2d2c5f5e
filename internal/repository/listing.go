package repository

import (
	"context"
	"time"

	"github.com/danabek/jarnama/internal/domain"
	"github.com/google/uuid"
)

const listingColumns = `id, subscriber_id, module_slug, title, body, status, is_urgent,
	external_link, image_count, duration_days, activated_at, expires_at, created_at, updated_at`

// listingRow mirrors the listings table, including the plan-granted duration
// the service snapshots at creation so approval can apply it later.
type listingRow struct {
	Listing      domain.Listing
	DurationDays *int
}

// CreateListingParams contains the values for a new listing row.
type CreateListingParams struct {
	ID           uuid.UUID
	SubscriberID uuid.UUID
	ModuleSlug   string
	Title        string
	Body         string
	Status       domain.ListingStatus
	IsUrgent     bool
	ExternalLink string
	ImageCount   int
	DurationDays *int
	ActivatedAt  *time.Time
	ExpiresAt    *time.Time
}

// CreateListing inserts a listing and returns the stored row.
func (q *Queries) CreateListing(ctx context.Context, params CreateListingParams) (domain.Listing, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO listings (
			id, subscriber_id, module_slug, title, body, status, is_urgent,
			external_link, image_count, duration_days, activated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+listingColumns,
		params.ID, params.SubscriberID, params.ModuleSlug, params.Title,
		params.Body, params.Status, params.IsUrgent, params.ExternalLink,
		params.ImageCount, nullInt(params.DurationDays),
		nullTime(params.ActivatedAt), nullTime(params.ExpiresAt),
	)
	r, err := scanListing(row)
	return r.Listing, err
}

// GetListing returns the listing with the given id plus its stored duration.
func (q *Queries) GetListing(ctx context.Context, id uuid.UUID) (domain.Listing, *int, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE id = $1`,
		id,
	)
	r, err := scanListing(row)
	return r.Listing, r.DurationDays, err
}

// UpdateListingStatusParams moves a listing through its state machine.
// ActivatedAt and ExpiresAt are written as given (nil clears them).
type UpdateListingStatusParams struct {
	ID          uuid.UUID
	Status      domain.ListingStatus
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
}

// UpdateListingStatus applies a status transition and returns the row.
func (q *Queries) UpdateListingStatus(ctx context.Context, params UpdateListingStatusParams) (domain.Listing, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE listings
		SET status = $2,
		    activated_at = $3,
		    expires_at = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+listingColumns,
		params.ID, params.Status, nullTime(params.ActivatedAt), nullTime(params.ExpiresAt),
	)
	r, err := scanListing(row)
	return r.Listing, err
}

// CountActiveListings returns the number of concurrently-active listings for
// the subscriber in the module. Pending-approval listings count against the
// limit too: they will occupy a slot once approved.
func (q *Queries) CountActiveListings(ctx context.Context, subscriberID uuid.UUID, moduleSlug string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM listings
		WHERE subscriber_id = $1
		  AND module_slug = $2
		  AND status IN ('active', 'pending_approval')`,
		subscriberID, moduleSlug,
	).Scan(&count)
	return count, err
}

// CountListingsCreatedBetween returns the number of listings the subscriber
// created in the module within [start, end). Fed to the monthly post cap.
func (q *Queries) CountListingsCreatedBetween(ctx context.Context, subscriberID uuid.UUID, moduleSlug string, start, end time.Time) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM listings
		WHERE subscriber_id = $1
		  AND module_slug = $2
		  AND created_at >= $3
		  AND created_at < $4`,
		subscriberID, moduleSlug, start, end,
	).Scan(&count)
	return count, err
}

// ExpireActiveListings flips active listings past their expiry to expired.
// Returns the number of rows affected.
func (q *Queries) ExpireActiveListings(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE listings
		SET status = 'expired', updated_at = now()
		WHERE status = 'active'
		  AND expires_at IS NOT NULL
		  AND expires_at <= $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanListing(row rowScanner) (listingRow, error) {
	var (
		l            domain.Listing
		durationDays = nullInt(nil)
		activatedAt  = nullTime(nil)
		expiresAt    = nullTime(nil)
	)
	err := row.Scan(
		&l.ID, &l.SubscriberID, &l.ModuleSlug, &l.Title, &l.Body, &l.Status,
		&l.IsUrgent, &l.ExternalLink, &l.ImageCount, &durationDays,
		&activatedAt, &expiresAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return listingRow{}, err
	}
	l.ActivatedAt = timePtr(activatedAt)
	l.ExpiresAt = timePtr(expiresAt)
	return listingRow{Listing: l, DurationDays: intPtr(durationDays)}, nil
}
