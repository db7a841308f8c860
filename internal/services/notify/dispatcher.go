package notify

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BearBump/FleetWatch/internal/metrics"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
)

type Sender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error)
}

type SubscriptionStore interface {
	ListSubscriptions() ([]models.PushSubscription, error)
	RemoveSubscription(endpoint string) (bool, error)
}

type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Pruned int `json:"pruned"`
}

// Dispatcher fans one notification out to every stored subscription.
type Dispatcher struct {
	sender    Sender
	store     SubscriptionStore
	formatter *Formatter
}

func NewDispatcher(sender Sender, store SubscriptionStore, formatter *Formatter) *Dispatcher {
	if formatter == nil {
		formatter = NewFormatter(nil, "")
	}
	return &Dispatcher{sender: sender, store: store, formatter: formatter}
}

// gone reports push-service answers meaning the subscription will never work again.
func gone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}

// Dispatch delivers sequentially and never fails as a whole. Permanently gone endpoints
// are removed from the store before the next delivery starts.
func (d *Dispatcher) Dispatch(ctx context.Context, n models.Notification) Result {
	var res Result

	subs, err := d.store.ListSubscriptions()
	if err != nil {
		slog.Error("list subscriptions", "error", err.Error())
		return res
	}
	if len(subs) == 0 {
		return res
	}

	payload, err := json.Marshal(n.WithDefaults())
	if err != nil {
		slog.Error("encode notification", "error", err.Error())
		return res
	}

	for _, sub := range subs {
		status, err := d.sender.Send(ctx, sub, payload)
		switch {
		case err != nil:
			res.Failed++
			slog.Warn("push delivery failed", "endpoint", sub.Endpoint, "error", err.Error())
		case gone(status):
			res.Failed++
			if _, rmErr := d.store.RemoveSubscription(sub.Endpoint); rmErr != nil {
				slog.Error("prune subscription", "endpoint", sub.Endpoint, "error", rmErr.Error())
				continue
			}
			res.Pruned++
			slog.Info("subscription pruned", "endpoint", sub.Endpoint, "status", status)
		case status/100 != 2:
			res.Failed++
			slog.Warn("push delivery rejected", "endpoint", sub.Endpoint, "status", status)
		default:
			res.Sent++
		}
	}

	metrics.PushDeliveriesTotal.WithLabelValues("sent").Add(float64(res.Sent))
	metrics.PushDeliveriesTotal.WithLabelValues("failed").Add(float64(res.Failed))
	metrics.PushDeliveriesTotal.WithLabelValues("pruned").Add(float64(res.Pruned))
	return res
}

func (d *Dispatcher) DispatchEvent(ctx context.Context, ev models.TransitionEvent) Result {
	res := d.Dispatch(ctx, d.formatter.Format(ev))
	slog.Info("transition dispatched",
		"kind", string(ev.Kind), "registration", ev.Registration,
		"sent", res.Sent, "failed", res.Failed, "pruned", res.Pruned)
	return res
}

// HandleEvents lets the dispatcher sit directly behind the fleet poll loop.
func (d *Dispatcher) HandleEvents(ctx context.Context, events []models.TransitionEvent) error {
	for _, ev := range events {
		d.DispatchEvent(ctx, ev)
	}
	return nil
}
