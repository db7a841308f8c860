package natsbus

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

const KeyHeader = "Fleet-Key"

type conn interface {
	PublishMsg(m *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Publisher mirrors broker messages onto a NATS subject. It matches the kafka producer's Publish shape.
type Publisher struct {
	nc conn
}

func New(url string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("fleetwatch"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	return &Publisher{nc: nc}, nil
}

func newPublisherWithConn(nc conn) *Publisher {
	return &Publisher{nc: nc}
}

func (p *Publisher) Publish(ctx context.Context, subject string, key, value []byte) error {
	msg := nats.NewMsg(subject)
	msg.Data = value
	if len(key) > 0 {
		msg.Header.Set(KeyHeader, string(key))
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return errors.Wrap(err, "nats publish")
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return errors.Wrap(err, "nats flush")
	}
	return nil
}

func (p *Publisher) Close() error {
	p.nc.Close()
	return nil
}
