package natsbus

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	msgs     []*nats.Msg
	pubErr   error
	flushErr error
	flushes  int
	closed   bool
}

func (c *fakeConn) PublishMsg(m *nats.Msg) error {
	if c.pubErr != nil {
		return c.pubErr
	}
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *fakeConn) FlushWithContext(ctx context.Context) error {
	c.flushes++
	return c.flushErr
}

func (c *fakeConn) Close() { c.closed = true }

func TestPublisher_Publish(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisherWithConn(fc)

	require.NoError(t, p.Publish(context.Background(), "fleet.transitions", []byte("F-GXLJ"), []byte(`{"kind":"aircraft_inbound"}`)))
	require.Len(t, fc.msgs, 1)
	require.Equal(t, "fleet.transitions", fc.msgs[0].Subject)
	require.Equal(t, "F-GXLJ", fc.msgs[0].Header.Get(KeyHeader))
	require.JSONEq(t, `{"kind":"aircraft_inbound"}`, string(fc.msgs[0].Data))
	require.Equal(t, 1, fc.flushes)
}

func TestPublisher_PublishErrorWrapped(t *testing.T) {
	fc := &fakeConn{pubErr: errors.New("disconnected")}
	err := newPublisherWithConn(fc).Publish(context.Background(), "s", nil, []byte("v"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nats publish")
	require.Zero(t, fc.flushes)
}

func TestPublisher_FlushErrorWrapped(t *testing.T) {
	fc := &fakeConn{flushErr: context.DeadlineExceeded}
	err := newPublisherWithConn(fc).Publish(context.Background(), "s", nil, []byte("v"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Empty(t, fc.msgs[0].Header.Get(KeyHeader))
}

func TestPublisher_Close(t *testing.T) {
	fc := &fakeConn{}
	require.NoError(t, newPublisherWithConn(fc).Close())
	require.True(t, fc.closed)
}
