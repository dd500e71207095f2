// Package engine provides the tick scheduler and the population dynamics of
// the grouped ultimatum-game model.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// Steppable is anything the schedule can step once per tick.
type Steppable interface {
	Step(tick uint64)
}

// Shuffler randomizes the stepping order of entries sharing an order.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Handle cancels a scheduled entry.
type Handle struct {
	entry *entry
}

// Cancel removes the entry from the schedule. It reports whether this call
// did the cancelling; later calls are no-ops.
func (h *Handle) Cancel() bool {
	if h == nil || h.entry == nil || h.entry.cancelled {
		return false
	}
	h.entry.cancelled = true
	return true
}

// Cancelled reports whether the entry has been cancelled.
func (h *Handle) Cancelled() bool {
	return h == nil || h.entry == nil || h.entry.cancelled
}

type entry struct {
	s         Steppable
	next      uint64
	interval  uint64
	order     int
	cancelled bool
}

// Schedule is a discrete-tick scheduler of repeating entries.
// Entries with a lower order step first; entries sharing an order step in a
// random permutation each tick.
type Schedule struct {
	tick     uint64 // next tick to run; while stepping, the running tick
	stepping bool
	entries  []*entry
	shuffle  Shuffler
	due      []*entry
}

// NewSchedule creates an empty schedule. A nil shuffler keeps insertion order.
func NewSchedule(shuffle Shuffler) *Schedule {
	return &Schedule{shuffle: shuffle}
}

// CurrentTick is the tick being stepped, or the number of completed ticks
// between steps.
func (s *Schedule) CurrentTick() uint64 {
	return s.tick
}

// ScheduleRepeating steps st every tick, starting with the next tick to run.
// Entries added while a tick is running begin on the following tick.
func (s *Schedule) ScheduleRepeating(st Steppable, order int) *Handle {
	start := s.tick
	if s.stepping {
		start++
	}
	return s.ScheduleRepeatingAt(st, start, 1, order)
}

// ScheduleRepeatingAt steps st every interval ticks starting at start.
// A start at or before a running tick is deferred to the next tick.
func (s *Schedule) ScheduleRepeatingAt(st Steppable, start, interval uint64, order int) *Handle {
	if interval == 0 {
		interval = 1
	}
	if s.stepping && start <= s.tick {
		start = s.tick + 1
	}
	e := &entry{s: st, next: start, interval: interval, order: order}
	s.entries = append(s.entries, e)
	return &Handle{entry: e}
}

// Len returns the number of live entries.
func (s *Schedule) Len() int {
	n := 0
	for _, e := range s.entries {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// Step runs one tick: every live entry due now, in order.
func (s *Schedule) Step() {
	s.stepping = true
	now := s.tick

	s.due = s.due[:0]
	live := s.entries[:0]
	for _, e := range s.entries {
		if e.cancelled {
			continue
		}
		live = append(live, e)
		if e.next <= now {
			s.due = append(s.due, e)
		}
	}
	// Drop references to cancelled entries beyond the compacted slice.
	for i := len(live); i < len(s.entries); i++ {
		s.entries[i] = nil
	}
	s.entries = live

	sort.SliceStable(s.due, func(i, j int) bool { return s.due[i].order < s.due[j].order })
	if s.shuffle != nil {
		for lo := 0; lo < len(s.due); {
			hi := lo
			for hi < len(s.due) && s.due[hi].order == s.due[lo].order {
				hi++
			}
			block := s.due[lo:hi]
			s.shuffle.Shuffle(len(block), func(i, j int) { block[i], block[j] = block[j], block[i] })
			lo = hi
		}
	}

	for _, e := range s.due {
		// An entry cancelled earlier in this tick must not run.
		if e.cancelled {
			continue
		}
		e.s.Step(now)
		e.next = now + e.interval
	}

	s.stepping = false
	s.tick = now + 1
}

// Engine drives a schedule forward.
type Engine struct {
	Schedule *Schedule
	MaxTicks uint64        // 0 = unbounded
	Interval time.Duration // pause per tick at Speed 1; 0 = as fast as possible
	Speed    float64       // multiplier: 1.0 = Interval per tick, 0 = paused

	// Callbacks, set during setup.
	OnTick func(tick uint64) // after every tick
	Done   func() bool       // stop when this returns true
}

// NewEngine creates an engine running sched as fast as possible.
func NewEngine(sched *Schedule) *Engine {
	return &Engine{
		Schedule: sched,
		Speed:    1.0,
	}
}

// Run steps the schedule until ctx is cancelled, MaxTicks is reached or Done
// reports true. It returns the number of ticks completed.
func (e *Engine) Run(ctx context.Context) uint64 {
	slog.Info("simulation engine started", "tick", e.Schedule.CurrentTick(), "max_ticks", e.MaxTicks)

	for {
		if ctx.Err() != nil {
			break
		}
		if e.MaxTicks > 0 && e.Schedule.CurrentTick() >= e.MaxTicks {
			break
		}
		if e.Done != nil && e.Done() {
			break
		}
		if e.Speed <= 0 {
			// Paused; sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.Schedule.Step()
		if e.OnTick != nil {
			e.OnTick(e.Schedule.CurrentTick() - 1)
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		if e.Interval > 0 {
			elapsed := time.Since(start)
			target := time.Duration(float64(e.Interval) / e.Speed)
			if elapsed < target {
				time.Sleep(target - elapsed)
			}
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Schedule.CurrentTick())
	return e.Schedule.CurrentTick()
}
