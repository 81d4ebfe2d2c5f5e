package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(i int) *int { return &i }

func TestBillingCycleMonths(t *testing.T) {
	tests := []struct {
		cycle  BillingCycle
		months int
	}{
		{BillingCycleMonthly, 1},
		{BillingCycleQuarterly, 3},
		{BillingCycleHalfYearly, 6},
		{BillingCycleAnnually, 12},
		// Defensive fallback for unrecognized cycles.
		{BillingCycle("weekly"), 1},
		{BillingCycle(""), 1},
	}

	for _, tt := range tests {
		t.Run(tt.cycle.String(), func(t *testing.T) {
			assert.Equal(t, tt.months, tt.cycle.Months())
		})
	}
}

func TestPlanValidate(t *testing.T) {
	valid := func() Plan {
		return Plan{
			Name:          "Pro",
			Slug:          "pro",
			IsPremium:     true,
			TotalListings: 25,
			Features: PlanFeatures{
				Prices:  map[BillingCycle]int64{BillingCycleMonthly: 2000},
				Support: SupportTierStandard,
			},
			Modules: []PlanModule{
				{ModuleSlug: "jobs", Restrictions: ModuleRestrictions{IsAllowed: true, ListingLimit: intp(10)}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Plan)
		wantErr string
	}{
		{"valid premium plan", func(p *Plan) {}, ""},
		{"valid free plan", func(p *Plan) {
			p.IsPremium = false
			p.Features.Prices = nil
		}, ""},
		{"missing slug", func(p *Plan) { p.Slug = "" }, "slug is required"},
		{"missing name", func(p *Plan) { p.Name = "" }, "no name"},
		{"free plan with prices", func(p *Plan) { p.IsPremium = false }, "must not have prices"},
		{"premium plan without prices", func(p *Plan) { p.Features.Prices = nil }, "empty price table"},
		{"unknown cycle key", func(p *Plan) {
			p.Features.Prices = map[BillingCycle]int64{"weekly": 100}
		}, "unknown cycle"},
		{"zero price", func(p *Plan) {
			p.Features.Prices = map[BillingCycle]int64{BillingCycleMonthly: 0}
		}, "non-positive price"},
		{"negative total listings", func(p *Plan) { p.TotalListings = -1 }, "negative total listings"},
		{"unknown support tier", func(p *Plan) { p.Features.Support = "vip" }, "unknown support tier"},
		{"duplicate module", func(p *Plan) {
			p.Modules = append(p.Modules, p.Modules[0])
		}, "twice"},
		{"module without slug", func(p *Plan) {
			p.Modules = []PlanModule{{ModuleSlug: ""}}
		}, "without a slug"},
		{"negative listing limit", func(p *Plan) {
			p.Modules[0].Restrictions.ListingLimit = intp(-1)
		}, "negative listing limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := valid()
			tt.mutate(&plan)
			err := plan.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPlanModuleRestrictions(t *testing.T) {
	plan := Plan{
		Modules: []PlanModule{
			{ModuleSlug: "jobs", Restrictions: ModuleRestrictions{IsAllowed: true, ListingLimit: intp(10)}},
		},
	}

	r, ok := plan.ModuleRestrictions("jobs")
	assert.True(t, ok)
	assert.Equal(t, 10, *r.ListingLimit)

	_, ok = plan.ModuleRestrictions("housing")
	assert.False(t, ok)
}

func TestPlanPrice(t *testing.T) {
	plan := Plan{Features: PlanFeatures{Prices: map[BillingCycle]int64{BillingCycleMonthly: 2000}}}

	amount, ok := plan.Price(BillingCycleMonthly)
	assert.True(t, ok)
	assert.Equal(t, int64(2000), amount)

	_, ok = plan.Price(BillingCycleAnnually)
	assert.False(t, ok)
}

func TestSumModuleListingLimits(t *testing.T) {
	plan := Plan{
		Modules: []PlanModule{
			{ModuleSlug: "jobs", Restrictions: ModuleRestrictions{ListingLimit: intp(3)}},
			{ModuleSlug: "housing", Restrictions: ModuleRestrictions{ListingLimit: intp(2)}},
			{ModuleSlug: "services"}, // unset limit contributes nothing
		},
	}
	assert.Equal(t, 5, plan.SumModuleListingLimits())
}
