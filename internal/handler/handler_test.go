package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danabek/jarnama/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.EQUOTA, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"bogus", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

// =============================================================================
// Subscription handler
// =============================================================================

type stubSubscriptionService struct {
	sub *domain.Subscription
	err error
}

func (s *stubSubscriptionService) Subscribe(_ context.Context, _ domain.SubscribeParams) (*domain.Subscription, error) {
	return s.sub, s.err
}

func (s *stubSubscriptionService) RecordPayment(_ context.Context, _ uuid.UUID, _ int64) (*domain.Subscription, error) {
	return s.sub, s.err
}

func (s *stubSubscriptionService) GetByID(_ context.Context, _ uuid.UUID) (*domain.Subscription, error) {
	return s.sub, s.err
}

func (s *stubSubscriptionService) ActiveForSubscriber(_ context.Context, _ uuid.UUID) (*domain.Subscription, *domain.Plan, error) {
	return s.sub, nil, s.err
}

func subscriptionMux(stub *stubSubscriptionService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSubscriptionHandler(stub, testLogger()).RegisterRoutes(mux)
	return mux
}

func TestSubscriptionCreate(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	sub := &domain.Subscription{
		ID:           uuid.New(),
		SubscriberID: uuid.New(),
		PlanSlug:     "pro",
		BillingCycle: domain.BillingCycleMonthly,
		TotalAmount:  100000,
		AmountPaid:   100000,
		Currency:     "KZT",
		Status:       domain.SubscriptionStatusActive,
		StartedAt:    now,
		ExpiresAt:    now.AddDate(0, 1, 0),
	}
	mux := subscriptionMux(&stubSubscriptionService{sub: sub})

	body := `{"subscriber_id":"` + sub.SubscriberID.String() + `","plan_slug":"pro","billing_cycle":"monthly","amount_paid":100000}`
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, sub.ID.String(), resp["id"])
	assert.Equal(t, "active", resp["status"])
	assert.Equal(t, "pro", resp["plan_slug"])
}

func TestSubscriptionCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "malformed body",
			body:       `{"subscriber_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "bad subscriber uuid",
			body:       `{"subscriber_id":"not-a-uuid","plan_slug":"pro"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "unknown field",
			body:       `{"subscriber_id":"` + uuid.NewString() + `","plan":"pro"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "unknown plan",
			body:       `{"subscriber_id":"` + uuid.NewString() + `","plan_slug":"enterprise"}`,
			serviceErr: domain.NotFound("subscription.create", "plan", "enterprise"),
			wantStatus: http.StatusNotFound,
			wantCode:   domain.ENOTFOUND,
		},
		{
			name:       "insufficient payment",
			body:       `{"subscriber_id":"` + uuid.NewString() + `","plan_slug":"pro","amount_paid":100}`,
			serviceErr: domain.InsufficientPayment("subscription.create", 100, 100000),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   domain.EPAYMENT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := subscriptionMux(&stubSubscriptionService{err: tt.serviceErr})

			req := httptest.NewRequest(http.MethodPost, "/api/subscriptions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)

			var resp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestSubscriptionGet_BadID(t *testing.T) {
	mux := subscriptionMux(&stubSubscriptionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Listing handler
// =============================================================================

type stubListingService struct {
	listing *domain.Listing
	err     error
}

func (s *stubListingService) Create(_ context.Context, _ domain.CreateListingParams) (*domain.Listing, error) {
	return s.listing, s.err
}

func (s *stubListingService) Approve(_ context.Context, _ uuid.UUID) (*domain.Listing, error) {
	return s.listing, s.err
}

func (s *stubListingService) Reject(_ context.Context, _ uuid.UUID) (*domain.Listing, error) {
	return s.listing, s.err
}

func listingMux(stub *stubListingService) *http.ServeMux {
	mux := http.NewServeMux()
	NewListingHandler(stub, testLogger()).RegisterRoutes(mux)
	return mux
}

func TestListingCreate_QuotaDenied(t *testing.T) {
	denial := domain.QuotaDenied("listing.create", domain.EvaluationResult{
		Reason:  domain.DenialListingLimitReached,
		Message: "active listing limit reached (5 of 5)",
		Limit:   5,
		Current: 5,
	})
	mux := listingMux(&stubListingService{err: denial})

	body := `{"subscriber_id":"` + uuid.NewString() + `","module":"jobs","title":"Job"}`
	req := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.EQUOTA, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "listing limit")
}

func TestListingCreate_FieldValidation(t *testing.T) {
	mux := listingMux(&stubListingService{
		err: domain.NewValidationError("listing.validate", "title", "title is required"),
	})

	body := `{"subscriber_id":"` + uuid.NewString() + `","module":"jobs","title":"  "}`
	req := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.EINVALID, resp.Error.Code)
	assert.Equal(t, "title is required", resp.Error.Fields["title"])
}

func TestListingApprove(t *testing.T) {
	listingID := uuid.New()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	expires := now.AddDate(0, 0, 30)
	mux := listingMux(&stubListingService{
		listing: &domain.Listing{
			ID:           listingID,
			SubscriberID: uuid.New(),
			ModuleSlug:   "jobs",
			Title:        "Job",
			Status:       domain.ListingStatusActive,
			ActivatedAt:  &now,
			ExpiresAt:    &expires,
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/listings/"+listingID.String()+"/approve", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "active", resp["status"])
	assert.NotEmpty(t, resp["expires_at"])
}
