package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/broker/messages"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic  string
	keys   []string
	values [][]byte
	calls  int
	failN  int
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.calls++
	if p.calls <= p.failN {
		return errors.New("leader not available")
	}
	p.topic = topic
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return nil
}

func newTestSink(p Producer) (*PublishSink, *[]time.Duration) {
	var slept []time.Duration
	s := NewPublishSink(p, "fleet.transitions", func() string { return "opensky" })
	s.sleep = func(d time.Duration) { slept = append(slept, d) }
	return s, &slept
}

func TestPublishSink_PublishesKeyedTransitions(t *testing.T) {
	fp := &fakeProducer{}
	s, slept := newTestSink(fp)

	err := s.HandleEvents(context.Background(), []models.TransitionEvent{
		{Kind: models.TransitionBecameActive, Registration: "F-GXLK", Flight: "BGA130"},
		{Kind: models.TransitionInbound, Registration: "F-GXLK", Airport: "EGNR"},
	})
	require.NoError(t, err)
	require.Empty(t, *slept)
	require.Equal(t, "fleet.transitions", fp.topic)
	require.Equal(t, []string{"F-GXLK", "F-GXLK"}, fp.keys)

	var m messages.FleetTransition
	require.NoError(t, json.Unmarshal(fp.values[1], &m))
	require.Equal(t, "aircraft_inbound", m.Kind)
	require.Equal(t, "EGNR", m.Airport)
	require.Equal(t, "opensky", m.Source)
	require.NotEmpty(t, m.EventID)
}

func TestPublishSink_RetriesWithGrowingPause(t *testing.T) {
	fp := &fakeProducer{failN: 2}
	s, slept := newTestSink(fp)

	require.NoError(t, s.HandleEvents(context.Background(), []models.TransitionEvent{{Registration: "F-GXLL"}}))
	require.Equal(t, 3, fp.calls)
	require.Equal(t, []time.Duration{150 * time.Millisecond, 300 * time.Millisecond}, *slept)
}

func TestPublishSink_GivesUp(t *testing.T) {
	fp := &fakeProducer{failN: 100}
	s, _ := newTestSink(fp)

	err := s.HandleEvents(context.Background(), []models.TransitionEvent{{Registration: "F-GXLL"}})
	require.Error(t, err)
	require.Equal(t, publishAttempts, fp.calls)
}

func TestMultiSink_ContinuesPastFailure(t *testing.T) {
	bad := &recordingSink{err: errors.New("down")}
	good := &recordingSink{}
	events := []models.TransitionEvent{{Registration: "F-GXLM"}}

	err := MultiSink{bad, nil, good}.HandleEvents(context.Background(), events)
	require.EqualError(t, err, "down")
	require.Len(t, good.batches, 1)
}
