// Package handler contains the HTTP transport layer: thin JSON handlers over
// the catalog and services. All business rules live below this package.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/danabek/jarnama/internal/catalog"
	"github.com/danabek/jarnama/internal/domain"
)

// PlanHandler serves the read-only plan catalog.
type PlanHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(cat *catalog.Catalog, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{catalog: cat, logger: logger}
}

// RegisterRoutes registers the plan routes on the mux.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/plans", h.List)
	mux.HandleFunc("GET /api/plans/{slug}", h.Get)
}

// planResponse is the wire shape of a plan.
type planResponse struct {
	Name          string               `json:"name"`
	Slug          string               `json:"slug"`
	Description   string               `json:"description,omitempty"`
	IsPremium     bool                 `json:"is_premium"`
	TotalListings int                  `json:"total_listings"`
	Prices        map[string]int64     `json:"prices,omitempty"`
	Currency      string               `json:"currency"`
	Support       string               `json:"support,omitempty"`
	Boost         bool                 `json:"boost"`
	Analytics     bool                 `json:"analytics"`
	Modules       []planModuleResponse `json:"modules"`
}

type planModuleResponse struct {
	Module               string `json:"module"`
	IsAllowed            bool   `json:"is_allowed"`
	ListingLimit         *int   `json:"listing_limit,omitempty"`
	ListingDurationDays  *int   `json:"listing_duration_days,omitempty"`
	ImageLimit           *int   `json:"image_limit,omitempty"`
	CanMarkAsUrgent      bool   `json:"can_mark_as_urgent"`
	ExternalLinksAllowed bool   `json:"external_links_allowed"`
	ApprovalRequired     bool   `json:"approval_required"`
	RequiresVerification bool   `json:"requires_verification"`
	MaxPostsPerMonth     *int   `json:"max_posts_per_month,omitempty"`
}

// List returns every plan in the catalog.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans := h.catalog.Plans()
	out := make([]planResponse, 0, len(plans))
	for i := range plans {
		out = append(out, h.toResponse(&plans[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": out})
}

// Get returns one plan by slug.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	plan, ok := h.catalog.Plan(slug)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.NotFound("plan.get", "plan", slug))
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(plan))
}

func (h *PlanHandler) toResponse(p *domain.Plan) planResponse {
	resp := planResponse{
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		IsPremium:     p.IsPremium,
		TotalListings: p.TotalListings,
		Currency:      h.catalog.Currency(),
		Support:       string(p.Features.Support),
		Boost:         p.Features.Boost,
		Analytics:     p.Features.Analytics,
		Modules:       make([]planModuleResponse, 0, len(p.Modules)),
	}
	if len(p.Features.Prices) > 0 {
		resp.Prices = make(map[string]int64, len(p.Features.Prices))
		for cycle, amount := range p.Features.Prices {
			resp.Prices[cycle.String()] = amount
		}
	}
	for _, m := range p.Modules {
		r := m.Restrictions
		resp.Modules = append(resp.Modules, planModuleResponse{
			Module:               m.ModuleSlug,
			IsAllowed:            r.IsAllowed,
			ListingLimit:         r.ListingLimit,
			ListingDurationDays:  r.ListingDurationDays,
			ImageLimit:           r.ImageLimit,
			CanMarkAsUrgent:      r.CanMarkAsUrgent,
			ExternalLinksAllowed: r.ExternalLinksAllowed,
			ApprovalRequired:     r.ApprovalRequired,
			RequiresVerification: r.RequiresVerification,
			MaxPostsPerMonth:     r.MaxPostsPerMonth,
		})
	}
	return resp
}
