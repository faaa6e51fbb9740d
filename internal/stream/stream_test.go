package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chosenoffset.com/cipherwolves/internal/backend/backendtest"
	"chosenoffset.com/cipherwolves/internal/bridge"
)

const waitFor = 5 * time.Second

func receive(t *testing.T, inbox <-chan []byte) bridge.Event {
	t.Helper()
	select {
	case raw := <-inbox:
		ev, err := bridge.Decode(raw)
		require.NoError(t, err)
		return ev
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for an event")
	}
	return bridge.Event{}
}

func TestDeliversEventsInOrder(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.PublishEvent("g1", bridge.Event{Type: bridge.EventStatus, Data: bridge.Payload{Status: bridge.StatusConnected}})
	srv.PublishEvent("g1", bridge.Event{Type: bridge.EventMessage, Data: bridge.Payload{Speaker: "agent_Alice", Message: "hello"}})
	srv.PublishEvent("g1", bridge.Event{Type: bridge.EventMessage, Data: bridge.Payload{Speaker: "agent_Bob", Message: "hi"}})

	src := New(srv.URL+"/games/g1/stream", WithMaxRetries(1))
	inbox := make(chan []byte, 8)
	require.NoError(t, src.Open(context.Background(), inbox))
	defer src.Close()

	assert.Equal(t, bridge.EventStatus, receive(t, inbox).Type)
	assert.Equal(t, "agent_Alice", receive(t, inbox).Data.Speaker)
	assert.Equal(t, "agent_Bob", receive(t, inbox).Data.Speaker)

	srv.PublishEvent("g1", bridge.Event{Type: bridge.EventMessage, Data: bridge.Payload{Speaker: "agent_Cindy", Message: "late"}})
	ev := receive(t, inbox)
	assert.Equal(t, "agent_Cindy", ev.Data.Speaker)
	assert.Equal(t, "late", ev.Data.Message)
}

func TestCloseStopsSubscription(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	srv.PublishEvent("g1", bridge.Event{Type: bridge.EventStatus, Data: bridge.Payload{Status: bridge.StatusConnected}})

	src := New(srv.URL + "/games/g1/stream")
	inbox := make(chan []byte, 8)
	require.NoError(t, src.Open(context.Background(), inbox))
	receive(t, inbox)

	require.NoError(t, src.Close())
	select {
	case <-src.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription did not end")
	}
	assert.NoError(t, src.Err())

	// Idempotent, and a closed source cannot be reopened
	assert.NoError(t, src.Close())
	assert.ErrorIs(t, src.Open(context.Background(), inbox), ErrClosed)
}

func TestCloseWithoutOpen(t *testing.T) {
	src := New("http://127.0.0.1:1/never")
	require.NoError(t, src.Close())

	select {
	case <-src.Done():
	default:
		t.Fatal("done should be closed")
	}
	assert.NoError(t, src.Close())
}

func TestGivesUpAfterRetries(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	src := New(srv.URL+"/no/such/stream", WithMaxRetries(1))
	inbox := make(chan []byte, 1)
	require.NoError(t, src.Open(context.Background(), inbox))
	defer src.Close()

	select {
	case <-src.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription should give up")
	}
	assert.Error(t, src.Err())
	assert.Empty(t, inbox)
}

func TestOpenTwiceIsNoop(t *testing.T) {
	srv := backendtest.New()
	defer srv.Close()

	src := New(srv.URL + "/games/g1/stream")
	inbox := make(chan []byte, 1)
	require.NoError(t, src.Open(context.Background(), inbox))
	require.NoError(t, src.Open(context.Background(), inbox))
	require.NoError(t, src.Close())
}

func TestBackOffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &contextBackOff{ctx: ctx, backOff: &constant{d: time.Millisecond}, max: 3}

	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Equal(t, time.Millisecond, b.NextBackOff())
	assert.Less(t, b.NextBackOff(), time.Duration(0))

	b.Reset()
	assert.Equal(t, time.Millisecond, b.NextBackOff())

	cancel()
	assert.Less(t, b.NextBackOff(), time.Duration(0))
}

type constant struct{ d time.Duration }

func (c *constant) NextBackOff() time.Duration { return c.d }
func (c *constant) Reset()                     {}
