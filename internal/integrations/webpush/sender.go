package webpush

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
)

const DefaultTTLSeconds = 60

type Config struct {
	PublicKey  string
	PrivateKey string
	// Subscriber is the VAPID contact, a mailto: address or https URL.
	Subscriber string
	TTLSeconds int
}

// Sender delivers encrypted payloads to push services with VAPID authentication.
type Sender struct {
	cfg   Config
	httpc *http.Client
}

func New(cfg Config) *Sender {
	if cfg.TTLSeconds <= 0 {
		cfg.TTLSeconds = DefaultTTLSeconds
	}
	if cfg.Subscriber == "" {
		cfg.Subscriber = "mailto:ops@fleetwatch.local"
	}
	return &Sender{
		cfg: cfg,
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *Sender) PublicKey() string { return s.cfg.PublicKey }

// Send returns the push service status code. err is set only when no response was received.
func (s *Sender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpc,
		Subscriber:      s.cfg.Subscriber,
		TTL:             s.cfg.TTLSeconds,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
	})
	if err != nil {
		return 0, errors.Wrap(err, "webpush send")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// GenerateKeys returns a new VAPID key pair (URL-safe base64).
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", errors.Wrap(err, "generate vapid keys")
	}
	return publicKey, privateKey, nil
}
