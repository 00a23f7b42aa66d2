package bus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPublishStateDelivery(t *testing.T) {
	b := New(4)

	b.PublishState(TopicLoading, true)
	b.PublishState(TopicError, "boom")

	first := <-b.States()
	if first.Topic != TopicLoading || first.Payload != true {
		t.Errorf("first state = %+v, want loading true", first)
	}
	second := <-b.States()
	if second.Topic != TopicError || second.Payload != "boom" {
		t.Errorf("second state = %+v, want error boom", second)
	}
}

func TestSendEventDelivery(t *testing.T) {
	b := New(4)

	want := Event{
		Name:    EventSetCoverSize,
		Payload: map[string]any{"size": float64(64)},
	}
	b.SendEvent(want)

	got := <-b.Events()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseEndsStateStream(t *testing.T) {
	b := New(1)
	b.Close()

	if _, ok := <-b.States(); ok {
		t.Error("States() open after Close, want closed")
	}
}

func TestBufferedPublishDoesNotBlock(t *testing.T) {
	b := New(8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 8; i++ {
			b.PublishState(TopicCoverSize, i)
		}
	}()
	<-done

	for i := 0; i < 8; i++ {
		s := <-b.States()
		if s.Payload != i {
			t.Fatalf("state %d payload = %v, want %d", i, s.Payload, i)
		}
	}
}
