package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danabek/jarnama/internal/domain"
	"github.com/danabek/jarnama/internal/service"
	"github.com/google/uuid"
)

// SubscriptionHandler serves subscription creation and payment recording.
type SubscriptionHandler struct {
	subs   service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, logger: logger}
}

// RegisterRoutes registers the subscription routes on the mux.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/subscriptions", h.Create)
	mux.HandleFunc("GET /api/subscriptions/{id}", h.Get)
	mux.HandleFunc("POST /api/subscriptions/{id}/payments", h.RecordPayment)
}

type createSubscriptionRequest struct {
	SubscriberID string `json:"subscriber_id"`
	PlanSlug     string `json:"plan_slug"`
	BillingCycle string `json:"billing_cycle,omitempty"`
	AmountPaid   int64  `json:"amount_paid"`
}

type recordPaymentRequest struct {
	Amount int64 `json:"amount"`
}

type subscriptionResponse struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber_id"`
	PlanSlug     string    `json:"plan_slug,omitempty"`
	BillingCycle string    `json:"billing_cycle"`
	TotalAmount  int64     `json:"total_amount"`
	AmountPaid   int64     `json:"amount_paid"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Create handles POST /api/subscriptions.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	subscriberID, err := uuid.Parse(req.SubscriberID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("subscription.create", "subscriber_id is not a valid UUID"))
		return
	}

	sub, err := h.subs.Subscribe(r.Context(), domain.SubscribeParams{
		SubscriberID: subscriberID,
		PlanSlug:     req.PlanSlug,
		BillingCycle: domain.BillingCycle(req.BillingCycle),
		AmountPaid:   req.AmountPaid,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubscriptionResponse(sub))
}

// Get handles GET /api/subscriptions/{id}.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("subscription.get", "subscription id is not a valid UUID"))
		return
	}

	sub, err := h.subs.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

// RecordPayment handles POST /api/subscriptions/{id}/payments.
func (h *SubscriptionHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("subscription.record_payment", "subscription id is not a valid UUID"))
		return
	}

	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	sub, err := h.subs.RecordPayment(r.Context(), id, req.Amount)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func toSubscriptionResponse(s *domain.Subscription) subscriptionResponse {
	return subscriptionResponse{
		ID:           s.ID.String(),
		SubscriberID: s.SubscriberID.String(),
		PlanSlug:     s.PlanSlug,
		BillingCycle: s.BillingCycle.String(),
		TotalAmount:  s.TotalAmount,
		AmountPaid:   s.AmountPaid,
		Currency:     s.Currency,
		Status:       s.Status.String(),
		StartedAt:    s.StartedAt,
		ExpiresAt:    s.ExpiresAt,
	}
}
