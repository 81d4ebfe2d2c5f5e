// Package catalog loads and validates the plan catalog from a YAML file.
//
// The catalog is read once at startup and is immutable afterwards: plan
// administration happens outside this service, and a catalog change never
// retroactively alters already-quoted subscriptions.
package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/danabek/jarnama/internal/domain"
	"gopkg.in/yaml.v3"
)

// planFile is the YAML document shape.
type planFile struct {
	Currency string     `yaml:"currency"`
	Plans    []planYAML `yaml:"plans"`
}

type planYAML struct {
	Name          string           `yaml:"name"`
	Slug          string           `yaml:"slug"`
	Description   string           `yaml:"description"`
	IsPremium     bool             `yaml:"is_premium"`
	TotalListings int              `yaml:"total_listings"`
	Features      featuresYAML     `yaml:"features"`
	Modules       []planModuleYAML `yaml:"modules"`
}

type featuresYAML struct {
	Prices    map[string]int64 `yaml:"prices"`
	Support   string           `yaml:"support"`
	Boost     bool             `yaml:"boost"`
	Analytics bool             `yaml:"analytics"`
}

type planModuleYAML struct {
	Module               string `yaml:"module"`
	IsAllowed            *bool  `yaml:"is_allowed"` // Defaults to true when the entry exists
	ListingLimit         *int   `yaml:"listing_limit"`
	ListingDurationDays  *int   `yaml:"listing_duration_days"`
	ImageLimit           *int   `yaml:"image_limit"`
	CanMarkAsUrgent      bool   `yaml:"can_mark_as_urgent"`
	ExternalLinksAllowed bool   `yaml:"external_links_allowed"`
	ApprovalRequired     bool   `yaml:"approval_required"`
	RequiresVerification bool   `yaml:"requires_verification"`
	MaxPostsPerMonth     *int   `yaml:"max_posts_per_month"`
}

// Catalog holds the validated plan set.
type Catalog struct {
	currency string
	plans    []domain.Plan
	bySlug   map[string]*domain.Plan
}

// Load reads and validates the catalog file at path. Validation warnings
// (non-fatal design smells) are logged; invariant violations fail the load.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	const op = "catalog.load"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Internal(err, op, fmt.Sprintf("failed to read plan catalog %q", path))
	}
	return Parse(data, logger)
}

// Parse validates a YAML catalog document.
func Parse(data []byte, logger *slog.Logger) (*Catalog, error) {
	const op = "catalog.parse"

	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "plan catalog is not valid YAML")
	}
	if len(file.Plans) == 0 {
		return nil, domain.Invalid(op, "plan catalog contains no plans")
	}
	if file.Currency == "" {
		file.Currency = "KZT"
	}

	c := &Catalog{
		currency: file.Currency,
		plans:    make([]domain.Plan, 0, len(file.Plans)),
		bySlug:   make(map[string]*domain.Plan, len(file.Plans)),
	}

	for _, py := range file.Plans {
		plan := toDomain(py)
		if err := plan.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.bySlug[plan.Slug]; exists {
			return nil, domain.InvalidPlanConfiguration(op, fmt.Sprintf("duplicate plan slug %q", plan.Slug))
		}

		// Per-module limits summing past the global cap is legal but almost
		// always a catalog mistake; surface it without failing the load.
		if sum := plan.SumModuleListingLimits(); plan.TotalListings > 0 && sum > plan.TotalListings {
			logger.Warn("plan module listing limits exceed the global cap",
				"plan", plan.Slug,
				"total_listings", plan.TotalListings,
				"module_limit_sum", sum,
			)
		}

		c.plans = append(c.plans, plan)
		c.bySlug[plan.Slug] = &c.plans[len(c.plans)-1]
	}

	return c, nil
}

// Currency returns the catalog-wide ISO currency code.
func (c *Catalog) Currency() string {
	return c.currency
}

// Plan returns the plan with the given slug.
func (c *Catalog) Plan(slug string) (*domain.Plan, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

// Plans returns all plans in catalog order.
func (c *Catalog) Plans() []domain.Plan {
	return c.plans
}

func toDomain(py planYAML) domain.Plan {
	features := domain.PlanFeatures{
		Support:   domain.SupportTier(py.Features.Support),
		Boost:     py.Features.Boost,
		Analytics: py.Features.Analytics,
	}
	if len(py.Features.Prices) > 0 {
		features.Prices = make(map[domain.BillingCycle]int64, len(py.Features.Prices))
		for cycle, amount := range py.Features.Prices {
			features.Prices[domain.BillingCycle(cycle)] = amount
		}
	}

	modules := make([]domain.PlanModule, 0, len(py.Modules))
	for _, my := range py.Modules {
		allowed := true
		if my.IsAllowed != nil {
			allowed = *my.IsAllowed
		}
		modules = append(modules, domain.PlanModule{
			ModuleSlug: my.Module,
			Restrictions: domain.ModuleRestrictions{
				IsAllowed:            allowed,
				ListingLimit:         my.ListingLimit,
				ListingDurationDays:  my.ListingDurationDays,
				ImageLimit:           my.ImageLimit,
				CanMarkAsUrgent:      my.CanMarkAsUrgent,
				ExternalLinksAllowed: my.ExternalLinksAllowed,
				ApprovalRequired:     my.ApprovalRequired,
				RequiresVerification: my.RequiresVerification,
				MaxPostsPerMonth:     my.MaxPostsPerMonth,
			},
		})
	}

	return domain.Plan{
		Name:          py.Name,
		Slug:          py.Slug,
		Description:   py.Description,
		IsPremium:     py.IsPremium,
		TotalListings: py.TotalListings,
		Features:      features,
		Modules:       modules,
	}
}
