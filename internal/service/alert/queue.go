package alert

import (
	"context"

	"MarketPulse/internal/domain/models"
	"MarketPulse/pkg/queue"
)

const webhookJobType = "alert.webhook"

// QueuedNotifier hands actionable signals to a Redis-backed queue so
// webhook delivery survives transient endpoint failures and gets the
// queue's retry and dead-letter handling.
type QueuedNotifier struct {
	q queue.QueueService
}

// NewQueuedNotifier creates a notifier that enqueues instead of posting.
func NewQueuedNotifier(q queue.QueueService) *QueuedNotifier {
	return &QueuedNotifier{q: q}
}

// Notify enqueues one evaluation for asynchronous webhook delivery.
// HOLD signals never alert, so they are dropped before the queue.
func (n *QueuedNotifier) Notify(ctx context.Context, ev *models.SymbolEvaluation) error {
	if ev == nil || ev.Composite == nil || ev.Composite.Signal == models.SignalHold {
		return nil
	}
	return n.q.PublishMessage(ctx, webhookJobType, ev)
}

// WebhookJob delivers queued alerts through the webhook notifier.
type WebhookJob struct {
	notifier *WebhookNotifier
}

// NewWebhookJob binds the delivery job to a webhook notifier.
func NewWebhookJob(n *WebhookNotifier) *WebhookJob {
	return &WebhookJob{notifier: n}
}

func (j *WebhookJob) Name() string { return "webhook-alert" }

func (j *WebhookJob) Type() string { return webhookJobType }

func (j *WebhookJob) Handle(ctx context.Context, payload interface{}) error {
	ev, err := queue.ParsePayload[models.SymbolEvaluation](payload)
	if err != nil {
		return err
	}
	return j.notifier.Notify(ctx, ev)
}
