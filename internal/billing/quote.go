// Package billing implements the quote calculator for plan subscriptions.
//
// Given a plan, a requested billing cycle and an amount paid, the calculator
// produces the total due, the resulting subscription status and the expiry
// timestamp. It is a pure function over its inputs and the injected clock:
// no I/O, no shared state, safe for concurrent use.
package billing

import (
	"fmt"
	"math"
	"time"

	"github.com/danabek/jarnama/internal/domain"
)

// Clock supplies the current time. Injected so billing-cycle tests are
// deterministic.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by wall-clock time in UTC.
func SystemClock() Clock { return systemClock{} }

const (
	// freeHorizonYears is the expiry horizon for the free tier: far enough
	// out to mean "forever" without a null or unbounded sentinel.
	freeHorizonYears = 10

	// partialPaymentFloor is the minimum fraction of the total a partial
	// payment must cover to activate the subscription at all.
	partialPaymentFloor = 0.5
)

// Calculator computes billing quotes for plan subscriptions.
type Calculator struct {
	clock Clock
}

// NewCalculator creates a Calculator. A nil clock defaults to system time.
func NewCalculator(clock Clock) *Calculator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Calculator{clock: clock}
}

// ComputeQuote produces the billing quote for one subscription period.
//
// A non-premium plan short-circuits: zero amounts, monthly cycle, active
// status, expiry ten years out, regardless of the requested cycle or payment.
//
// For premium plans, an empty cycle defaults to monthly. The cycle must be
// present in the plan's price table; otherwise the call fails with a
// caller-facing validation error naming the cycle. Payment below half the
// total fails with an insufficient-payment error; payment in [50%, 100%)
// grants a floor-prorated number of whole months.
func (c *Calculator) ComputeQuote(plan *domain.Plan, cycle domain.BillingCycle, amountPaid int64) (*domain.Quote, error) {
	const op = "billing.compute_quote"

	now := c.clock.Now()

	if !plan.IsPremium {
		return &domain.Quote{
			TotalAmount:  0,
			AmountPaid:   0,
			BillingCycle: domain.BillingCycleMonthly,
			Status:       domain.SubscriptionStatusActive,
			ExpiresAt:    addMonths(now, 12*freeHorizonYears),
		}, nil
	}

	if amountPaid < 0 {
		return nil, domain.Invalid(op, "amount paid cannot be negative")
	}

	if cycle == "" {
		cycle = domain.BillingCycleMonthly
	}
	total, ok := plan.Price(cycle)
	if !ok {
		return nil, domain.InvalidBillingCycle(op, cycle)
	}

	expiresAt, status, err := computeExpiry(now, cycle, amountPaid, total)
	if err != nil {
		return nil, err
	}

	return &domain.Quote{
		TotalAmount:  total,
		AmountPaid:   amountPaid,
		BillingCycle: cycle,
		Status:       status,
		ExpiresAt:    expiresAt,
	}, nil
}

// computeExpiry derives the expiry timestamp and status from the cycle length
// and the paid/total ratio.
//
// Month arithmetic uses clamped calendar addition, so adding one month to
// Jan 31 lands on the last valid day of February rather than a fixed 30-day
// offset. All granted durations are whole months; proration truncates toward
// zero, so paying exactly half of a monthly cycle grants zero months.
func computeExpiry(now time.Time, cycle domain.BillingCycle, paid, total int64) (time.Time, domain.SubscriptionStatus, error) {
	const op = "billing.compute_expiry"

	if total <= 0 {
		// A paid cycle priced at zero would divide by zero below; treat it as
		// broken plan data, not as an always-fully-paid subscription.
		return time.Time{}, "", domain.InvalidPlanConfiguration(op,
			fmt.Sprintf("cycle %q has non-positive total amount %d", cycle, total))
	}

	fullMonths := cycle.Months()

	if paid >= total {
		return addMonths(now, fullMonths), domain.SubscriptionStatusActive, nil
	}

	fraction := float64(paid) / float64(total)
	if fraction < partialPaymentFloor {
		return time.Time{}, "", domain.InsufficientPayment(op, paid, total)
	}

	grantedMonths := int(math.Floor(float64(fullMonths) * fraction))
	return addMonths(now, grantedMonths), domain.SubscriptionStatusPartiallyPaid, nil
}

// addMonths adds whole calendar months, clamping the day-of-month to the
// last valid day of the target month. time.AddDate normalizes instead
// (Jan 31 + 1 month = Mar 2), which would over-entitle subscribers on every
// short-month boundary.
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// daysIn returns the number of days in the given month; day zero of the
// following month normalizes back to its last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
