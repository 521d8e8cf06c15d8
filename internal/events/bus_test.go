package events

import "testing"

func TestBus_PublishAndDrain(t *testing.T) {
	b := NewBus(4)
	b.Publish(PanChanged{})
	b.Publish(ZoomChanged{Percent: 150})

	first := <-b.Events()
	if _, ok := first.(PanChanged); !ok {
		t.Errorf("expected PanChanged first, got %T", first)
	}
	second := <-b.Events()
	if zc, ok := second.(ZoomChanged); !ok || zc.Percent != 150 {
		t.Errorf("expected ZoomChanged{150}, got %#v", second)
	}
}

func TestBus_PublishDropsWhenFull(t *testing.T) {
	b := NewBus(1)
	if !b.Publish(PanChanged{}) {
		t.Fatal("expected first publish into an empty buffer to succeed")
	}
	if b.Publish(PanChanged{}) {
		t.Error("expected publish into a full buffer to be dropped, not block")
	}
}

func TestBus_DefaultBufferSizeAppliedWhenNonPositive(t *testing.T) {
	b := NewBus(0)
	if cap(b.ch) != DefaultBufferSize {
		t.Errorf("expected default buffer size %d, got %d", DefaultBufferSize, cap(b.ch))
	}
}
