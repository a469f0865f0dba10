// Package util holds small, dependency-free building blocks shared across
// the emulation core: the event scheduler and the ROM identity hash.
package util

// EventKind identifies what a scheduled Event represents. The scheduler
// itself is agnostic to the meaning of an event; components interpret the
// Kind/Data themselves when they receive it back from Poll.
type EventKind int

const (
	EventPPUModeExit EventKind = iota
	EventTimerOverflow
	EventTimerReload
	EventDMAComplete
	EventSerialComplete
)

// Event is a single (time, payload) entry in the Scheduler's queue.
type Event struct {
	Time uint64
	Kind EventKind
	Data any
}

// Scheduler is an ordered queue of Events, sorted by Time ascending. Entries
// that share a Time are returned in reverse insertion order (LIFO) - this
// mirrors the emulator this core was modeled on and is pinned by
// TestSchedulerOverlappingEventsLIFOTieBreak in the test suite. It is unclear whether
// any commercial ROM actually depends on the tie-break direction; we keep it
// because it is cheap to keep and easy to get subtly wrong.
//
// Insertion is a linear scan from the tail: most scheduling targets are a few
// hundred cycles in the future, so new entries usually belong near the end of
// the slice. A heap would also satisfy the contract, just without the
// tie-break guarantee spelled out above without extra bookkeeping.
type Scheduler struct {
	entries []Event
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule inserts ev, keeping entries sorted by Time ascending. Among
// entries with equal Time, the most recently scheduled sorts first so Poll
// returns it before older same-time entries (LIFO tie-break).
func (s *Scheduler) Schedule(ev Event) {
	// Scan back past every entry with Time >= ev.Time, so ev lands at the
	// front of its same-time run: the most recently scheduled entry for a
	// given Time is always the first one Poll will return.
	i := len(s.entries)
	for i > 0 && s.entries[i-1].Time >= ev.Time {
		i--
	}
	s.entries = append(s.entries, Event{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = ev
}

// ScheduleAt is a convenience wrapper around Schedule.
func (s *Scheduler) ScheduleAt(time uint64, kind EventKind, data any) {
	s.Schedule(Event{Time: time, Kind: kind, Data: data})
}

// Poll removes and returns the earliest-timed entry whose Time is <= now. If
// several entries share that earliest time, the most recently scheduled one
// is returned first (LIFO within a tie). Returns ok=false if no entry
// qualifies.
func (s *Scheduler) Poll(now uint64) (ev Event, ok bool) {
	if len(s.entries) == 0 || s.entries[0].Time > now {
		return Event{}, false
	}

	ev = s.entries[0]
	s.entries = s.entries[1:]
	return ev, true
}

// Peek returns the earliest-timed entry without removing it.
func (s *Scheduler) Peek() (ev Event, ok bool) {
	if len(s.entries) == 0 {
		return Event{}, false
	}
	return s.entries[0], true
}

// Len returns the number of pending entries.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

// DropEvents empties the queue, discarding all pending entries.
func (s *Scheduler) DropEvents() {
	s.entries = nil
}
