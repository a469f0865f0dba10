package util

import "testing"

func TestSchedulerOrdersByTimeAscending(t *testing.T) {
	s := NewScheduler()
	s.ScheduleAt(30, EventTimerOverflow, nil)
	s.ScheduleAt(10, EventPPUModeExit, nil)
	s.ScheduleAt(20, EventDMAComplete, nil)

	var got []uint64
	for {
		ev, ok := s.Poll(1000)
		if !ok {
			break
		}
		got = append(got, ev.Time)
	}

	want := []uint64{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// TestSchedulerOverlappingEventsLIFOTieBreak pins the LIFO tie-break for events that
// share an identical scheduled time: §4.3/§9 of the spec call this out
// explicitly as an intentional, testable quirk.
func TestSchedulerOverlappingEventsLIFOTieBreak(t *testing.T) {
	s := NewScheduler()
	s.ScheduleAt(100, EventPPUModeExit, "first")
	s.ScheduleAt(100, EventTimerOverflow, "second")
	s.ScheduleAt(100, EventDMAComplete, "third")

	ev, ok := s.Poll(100)
	if !ok || ev.Data != "third" {
		t.Fatalf("expected 'third' (most recently scheduled) first, got %+v", ev)
	}
	ev, ok = s.Poll(100)
	if !ok || ev.Data != "second" {
		t.Fatalf("expected 'second' next, got %+v", ev)
	}
	ev, ok = s.Poll(100)
	if !ok || ev.Data != "first" {
		t.Fatalf("expected 'first' last, got %+v", ev)
	}
	if _, ok = s.Poll(100); ok {
		t.Fatalf("expected queue to be drained")
	}
}

func TestSchedulerPollOnlyReturnsDueEvents(t *testing.T) {
	s := NewScheduler()
	s.ScheduleAt(50, EventPPUModeExit, nil)

	if _, ok := s.Poll(49); ok {
		t.Fatalf("expected no event due yet")
	}
	if _, ok := s.Poll(50); !ok {
		t.Fatalf("expected event due at exactly 50")
	}
}

func TestSchedulerDropEvents(t *testing.T) {
	s := NewScheduler()
	s.ScheduleAt(1, EventPPUModeExit, nil)
	s.ScheduleAt(2, EventPPUModeExit, nil)
	s.DropEvents()

	if _, ok := s.Poll(1 << 20); ok {
		t.Fatalf("expected empty queue after DropEvents")
	}
	if s.Len() != 0 {
		t.Fatalf("expected Len()==0 after DropEvents, got %d", s.Len())
	}
}

func TestSuperFastHashIsStableAndSensitive(t *testing.T) {
	a := SuperFastHash([]byte("hello, game boy"))
	b := SuperFastHash([]byte("hello, game boy"))
	if a != b {
		t.Fatalf("hash should be deterministic, got %x vs %x", a, b)
	}

	c := SuperFastHash([]byte("hello, game Boy"))
	if a == c {
		t.Fatalf("hash should be sensitive to single-byte changes")
	}

	if SuperFastHash(nil) != 0 {
		t.Fatalf("expected hash of empty input to be 0")
	}
}
