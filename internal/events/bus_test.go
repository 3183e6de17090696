package events_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagoon-project/lagoon/internal/events"
)

func TestEmitAsync(t *testing.T) {
	bus := events.NewEventBus()
	var calls int32
	done := make(chan struct{})

	bus.Subscribe(events.EventPlayerLogin, "test.counter", func(ctx context.Context, e events.Event) error {
		atomic.AddInt32(&calls, 1)
		close(done)
		return nil
	})

	bus.Emit(context.Background(), events.Event{Type: events.EventPlayerLogin, Source: "test"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmitSyncReturnsFirstError(t *testing.T) {
	bus := events.NewEventBus()
	wantErr := errors.New("boom")

	bus.Subscribe(events.EventMatchCreated, "test.ok", func(ctx context.Context, e events.Event) error {
		return nil
	})
	bus.Subscribe(events.EventMatchCreated, "test.fail", func(ctx context.Context, e events.Event) error {
		return wantErr
	})

	err := bus.EmitSync(context.Background(), events.Event{Type: events.EventMatchCreated})
	assert.ErrorIs(t, err, wantErr)
}

func TestEmitSyncRecoversPanic(t *testing.T) {
	bus := events.NewEventBus()

	bus.Subscribe(events.EventShutdown, "test.panics", func(ctx context.Context, e events.Event) error {
		panic("handler bug")
	})

	require.NotPanics(t, func() {
		bus.EmitSync(context.Background(), events.Event{Type: events.EventShutdown})
	})
}

func TestUnsubscribe(t *testing.T) {
	bus := events.NewEventBus()

	bus.Subscribe(events.EventPlayerLogout, "test.a", func(ctx context.Context, e events.Event) error { return nil })
	bus.Subscribe(events.EventPlayerLogout, "test.b", func(ctx context.Context, e events.Event) error { return nil })
	require.Equal(t, 2, bus.HandlerCount(events.EventPlayerLogout))

	bus.Unsubscribe(events.EventPlayerLogout, "test.a")
	assert.Equal(t, 1, bus.HandlerCount(events.EventPlayerLogout))
}

func TestStopDropsLaterEmits(t *testing.T) {
	bus := events.NewEventBus()
	var calls int32

	bus.Subscribe(events.EventGroupCreated, "test.counter", func(ctx context.Context, e events.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	bus.Stop()

	select {
	case <-bus.StopCh():
	default:
		t.Fatal("stop channel not closed")
	}

	bus.Emit(context.Background(), events.Event{Type: events.EventGroupCreated})
	bus.EmitSync(context.Background(), events.Event{Type: events.EventGroupCreated})
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}
