package alert

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	pkghttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

// WebhookNotifier posts actionable signals to an external webhook. HOLD
// signals and scores below the threshold are skipped.
type WebhookNotifier struct {
	client      *pkghttp.Client
	url         string
	minAbsScore float64
	l           *applogger.Logger
}

func NewWebhookNotifier(url string, minAbsScore float64, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		client:      pkghttp.NewClient(pkghttp.WithTimeout(timeout)),
		url:         url,
		minAbsScore: minAbsScore,
	}
}

// SetLogger injects a structured logger.
func (n *WebhookNotifier) SetLogger(l *applogger.Logger) { n.l = l }

type webhookPayload struct {
	Symbol string  `json:"symbol"`
	Signal string  `json:"signal"`
	Score  float64 `json:"score"`
	AsOf   string  `json:"as_of"`
}

// Notify delivers one evaluated signal if it crosses the alert threshold.
func (n *WebhookNotifier) Notify(ctx context.Context, ev *models.SymbolEvaluation) error {
	if ev == nil || ev.Composite == nil {
		return nil
	}
	if ev.Composite.Signal == models.SignalHold {
		return nil
	}
	abs := ev.Composite.CompositeScore
	if abs < 0 {
		abs = -abs
	}
	if abs < n.minAbsScore {
		return nil
	}

	err := n.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    n.url,
		Body: webhookPayload{
			Symbol: ev.Symbol,
			Signal: string(ev.Composite.Signal),
			Score:  ev.Composite.CompositeScore,
			AsOf:   ev.AsOf.Format(time.RFC3339),
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("webhook notify: %w", err)
	}
	if n.l != nil {
		n.l.Info("alert delivered",
			applogger.String("symbol", ev.Symbol),
			applogger.String("signal", string(ev.Composite.Signal)),
			applogger.Float64("score", ev.Composite.CompositeScore),
		)
	}
	return nil
}
