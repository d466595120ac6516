package event

import (
	"testing"

	"github.com/tomz197/bocce/internal/object"
)

func TestFlushDeliversOnceInOrder(t *testing.T) {
	var got []Kind
	q := NewQueue(ObserverFunc(func(e Event) { got = append(got, e.Kind) }))

	q.Emit(State(object.StateAiming, 1))
	q.Emit(Turn(object.TeamB))
	q.Emit(Power(0.5))

	if n := q.Flush(); n != 3 {
		t.Fatalf("Flush delivered %d events, want 3", n)
	}
	want := []Kind{StateChanged, TurnChanged, PowerChanged}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	if n := q.Flush(); n != 0 {
		t.Fatalf("second Flush delivered %d events, want 0", n)
	}
}

func TestFlushFansOutToEveryObserver(t *testing.T) {
	var a, b int
	q := NewQueue(ObserverFunc(func(Event) { a++ }))
	q.Subscribe(ObserverFunc(func(Event) { b++ }))
	q.Subscribe(nil)

	q.Emit(Score([2]int{1, 0}))
	q.Flush()

	if a != 1 || b != 1 {
		t.Fatalf("deliveries a=%d b=%d, want 1 each", a, b)
	}
}

func TestEventsEmittedDuringFlushWaitForNextFlush(t *testing.T) {
	var q *Queue
	seen := 0
	q = NewQueue(ObserverFunc(func(e Event) {
		seen++
		if e.Kind == StateChanged {
			q.Emit(Turn(object.TeamA))
		}
	}))

	q.Emit(State(object.StateThrowingTarget, 1))
	q.Flush()
	if seen != 1 {
		t.Fatalf("seen %d after first flush, want 1", seen)
	}
	if q.Len() != 1 {
		t.Fatalf("pending %d, want 1", q.Len())
	}
	q.Flush()
	if seen != 2 {
		t.Fatalf("seen %d after second flush, want 2", seen)
	}
}
