package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danabek/jarnama/internal/domain"
	"github.com/danabek/jarnama/internal/service"
	"github.com/google/uuid"
)

// ListingHandler serves quota-gated listing creation and moderation.
type ListingHandler struct {
	listings service.ListingService
	logger   *slog.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listings service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// RegisterRoutes registers the listing routes on the mux.
func (h *ListingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/listings", h.Create)
	mux.HandleFunc("POST /api/listings/{id}/approve", h.Approve)
	mux.HandleFunc("POST /api/listings/{id}/reject", h.Reject)
}

type createListingRequest struct {
	SubscriberID string `json:"subscriber_id"`
	Module       string `json:"module"`
	Title        string `json:"title"`
	Body         string `json:"body,omitempty"`
	MarkAsUrgent bool   `json:"mark_as_urgent,omitempty"`
	ExternalLink string `json:"external_link,omitempty"`
	ImageCount   int    `json:"image_count,omitempty"`
	// Verified-identity flag, resolved by the upstream auth collaborator.
	SubscriberVerified bool `json:"subscriber_verified,omitempty"`
}

type listingResponse struct {
	ID           string     `json:"id"`
	SubscriberID string     `json:"subscriber_id"`
	Module       string     `json:"module"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	IsUrgent     bool       `json:"is_urgent"`
	ExternalLink string     `json:"external_link,omitempty"`
	ImageCount   int        `json:"image_count"`
	ActivatedAt  *time.Time `json:"activated_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Create handles POST /api/listings.
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	subscriberID, err := uuid.Parse(req.SubscriberID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("listing.create", "subscriber_id is not a valid UUID"))
		return
	}

	listing, err := h.listings.Create(r.Context(), domain.CreateListingParams{
		SubscriberID:       subscriberID,
		ModuleSlug:         req.Module,
		Title:              req.Title,
		Body:               req.Body,
		MarkAsUrgent:       req.MarkAsUrgent,
		ExternalLink:       req.ExternalLink,
		ImageCount:         req.ImageCount,
		SubscriberVerified: req.SubscriberVerified,
	})
	if err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingResponse(listing))
}

// Approve handles POST /api/listings/{id}/approve.
func (h *ListingHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.listings.Approve)
}

// Reject handles POST /api/listings/{id}/reject.
func (h *ListingHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.listings.Reject)
}

func (h *ListingHandler) moderate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id uuid.UUID) (*domain.Listing, error)) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("listing.moderate", "listing id is not a valid UUID"))
		return
	}

	listing, err := fn(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(listing))
}

func toListingResponse(l *domain.Listing) listingResponse {
	return listingResponse{
		ID:           l.ID.String(),
		SubscriberID: l.SubscriberID.String(),
		Module:       l.ModuleSlug,
		Title:        l.Title,
		Status:       l.Status.String(),
		IsUrgent:     l.IsUrgent,
		ExternalLink: l.ExternalLink,
		ImageCount:   l.ImageCount,
		ActivatedAt:  l.ActivatedAt,
		ExpiresAt:    l.ExpiresAt,
	}
}
