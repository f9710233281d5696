package ecs

import "testing"

type DamageEvent struct {
	Target Entity
	Amount int
}

func TestEventQueueSwapAndRead(t *testing.T) {
	q := NewEventQueue[DamageEvent]()
	r := q.NewReader()

	if got := r.Read(); got != nil {
		t.Fatalf("expected no events before any Send, got %v", got)
	}

	q.Send(DamageEvent{Amount: 5})
	if got := r.Read(); got != nil {
		t.Fatalf("expected no events visible before Swap, got %v", got)
	}

	q.Swap()
	got := r.Read()
	if len(got) != 1 || got[0].Amount != 5 {
		t.Fatalf("expected one event with Amount 5, got %v", got)
	}

	// Re-reading within the same tick must not redeliver.
	if got := r.Read(); got != nil {
		t.Fatalf("expected no redelivery, got %v", got)
	}

	q.Swap()
	if got := r.Read(); got != nil {
		t.Fatalf("expected empty buffer after a Swap with no Sends, got %v", got)
	}
}

func TestEventQueueMultipleReaders(t *testing.T) {
	q := NewEventQueue[DamageEvent]()
	r1 := q.NewReader()
	r2 := q.NewReader()

	q.Send(DamageEvent{Amount: 1})
	q.Swap()

	if len(r1.Read()) != 1 {
		t.Fatal("expected r1 to see 1 event")
	}
	if len(r2.Read()) != 1 {
		t.Fatal("expected r2 to see 1 event independently of r1")
	}
}
