package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

func TestBusNonBlockingPublish(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	// Fill the buffer and one more; the overflow must be dropped, not block.
	for i := 0; i < 16; i++ {
		bus.Publish(i)
	}
	if len(ch) != 8 {
		t.Fatalf("expected full buffer of 8, got %d", len(ch))
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("ch1 should be closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("ch2 should be closed")
	}
	// Publish and Close after Close are no-ops.
	bus.Publish("late")
	bus.Close()
}

func TestSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatal("subscription after close must yield a closed channel")
	}
}
