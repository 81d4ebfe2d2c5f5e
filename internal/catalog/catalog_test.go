package catalog

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danabek/jarnama/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validCatalog = `
currency: KZT
plans:
  - name: Free
    slug: free
    is_premium: false
    total_listings: 3
    modules:
      - module: jobs
        listing_limit: 3
        approval_required: true
  - name: Pro
    slug: pro
    is_premium: true
    total_listings: 25
    features:
      prices:
        monthly: 250000
        annually: 2500000
      support: standard
      boost: true
    modules:
      - module: jobs
        listing_limit: 15
        listing_duration_days: 30
        image_limit: 10
        can_mark_as_urgent: true
        external_links_allowed: true
      - module: housing
        is_allowed: false
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(validCatalog), testLogger())
	require.NoError(t, err)

	assert.Equal(t, "KZT", c.Currency())
	assert.Len(t, c.Plans(), 2)

	free, ok := c.Plan("free")
	require.True(t, ok)
	assert.False(t, free.IsPremium)
	assert.Empty(t, free.Features.Prices)

	pro, ok := c.Plan("pro")
	require.True(t, ok)
	assert.True(t, pro.IsPremium)

	amount, ok := pro.Price(domain.BillingCycleAnnually)
	require.True(t, ok)
	assert.Equal(t, int64(2500000), amount)

	jobs, ok := pro.ModuleRestrictions("jobs")
	require.True(t, ok)
	assert.True(t, jobs.IsAllowed, "is_allowed defaults to true when the entry exists")
	assert.Equal(t, 15, *jobs.ListingLimit)
	assert.Equal(t, 30, *jobs.ListingDurationDays)

	housing, ok := pro.ModuleRestrictions("housing")
	require.True(t, ok)
	assert.False(t, housing.IsAllowed)

	_, ok = pro.ModuleRestrictions("services")
	assert.False(t, ok, "unlisted module is absent from the plan")

	_, ok = c.Plan("enterprise")
	assert.False(t, ok)
}

func TestParseRejectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "not yaml",
			yaml:    "{{nope",
			wantErr: "not valid YAML",
		},
		{
			name:    "empty catalog",
			yaml:    "plans: []",
			wantErr: "no plans",
		},
		{
			name: "free plan with prices",
			yaml: `
plans:
  - name: Free
    slug: free
    is_premium: false
    features:
      prices:
        monthly: 100
`,
			wantErr: "must not have prices",
		},
		{
			name: "premium plan without prices",
			yaml: `
plans:
  - name: Pro
    slug: pro
    is_premium: true
`,
			wantErr: "empty price table",
		},
		{
			name: "unknown billing cycle",
			yaml: `
plans:
  - name: Pro
    slug: pro
    is_premium: true
    features:
      prices:
        weekly: 100
`,
			wantErr: "unknown cycle",
		},
		{
			name: "duplicate slug",
			yaml: `
plans:
  - name: Pro
    slug: pro
    is_premium: true
    features:
      prices:
        monthly: 100
  - name: Pro Again
    slug: pro
    is_premium: true
    features:
      prices:
        monthly: 200
`,
			wantErr: "duplicate plan slug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), testLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestParseDefaultsCurrency(t *testing.T) {
	c, err := Parse([]byte(`
plans:
  - name: Free
    slug: free
`), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "KZT", c.Currency())
}
