// Package notify emits billing-event notifications after a quote outcome.
//
// Delivery (email, push, in-app) belongs to an external collaborator; this
// package defines the interface the subscription service calls and a
// log-backed implementation used until a real channel is wired.
package notify

import (
	"context"
	"log/slog"

	"github.com/danabek/jarnama/internal/domain"
)

// Notifier receives billing events after a quote has been applied.
type Notifier interface {
	// QuoteApplied is called after a subscription is created or re-quoted.
	QuoteApplied(ctx context.Context, sub *domain.Subscription, quote *domain.Quote)
}

// logNotifier logs billing events instead of delivering them.
type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier that records events to the logger.
func NewLogNotifier(logger *slog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) QuoteApplied(_ context.Context, sub *domain.Subscription, quote *domain.Quote) {
	n.logger.Info("billing event",
		"subscription_id", sub.ID,
		"subscriber_id", sub.SubscriberID,
		"plan", sub.PlanSlug,
		"status", quote.Status,
		"total", domain.FormatAmount(sub.Currency, quote.TotalAmount),
		"paid", domain.FormatAmount(sub.Currency, quote.AmountPaid),
		"expires_at", quote.ExpiresAt,
	)
}
