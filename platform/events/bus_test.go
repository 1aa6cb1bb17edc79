package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"leadmarket_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSync_DeliversInOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var got []string
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		got = append(got, "first")
		return nil
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		got = append(got, "second")
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "thing.happened"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("expected handlers in registration order, got %v", got)
	}
}

func TestPublishSync_StopsOnFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	wantErr := errors.New("handler broke")
	var secondRan bool
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		return wantErr
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(context.Context, Event) error {
		secondRan = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{name: "thing.happened"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if secondRan {
		t.Fatal("handlers after a failure must not run")
	}
}

func TestPublish_OnlyMatchingHandlersRun(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var wg sync.WaitGroup
	wg.Add(1)
	matched := make(chan struct{}, 1)
	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		defer wg.Done()
		matched <- struct{}{}
		return nil
	}))
	bus.Subscribe("lead.closed", HandlerFunc(func(context.Context, Event) error {
		t.Error("handler for another event must not run")
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "lead.created"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
	<-matched
}

func TestPublish_SurvivesCancelledCaller(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	got := make(chan error, 1)
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, _ Event) error {
		got <- ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{name: "thing.happened"})

	select {
	case err := <-got:
		if err != nil {
			t.Fatalf("handler context must outlive the caller's, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never ran")
	}
}
