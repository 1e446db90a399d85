// Package timer formalizes the ad-hoc ticker/timeout loop the teacher's
// table actor runs inline (apps/server/internal/table/table.go's tick/
// handleTimeout) into an explicit scheduler, per spec.md 4.7 (C7).
package timer

import (
	"sync"
	"time"
)

// Handle identifies one scheduled callback; Cancel is idempotent on it.
type Handle uint64

// Service is a cooperative scheduler: schedule_once/schedule_interval/cancel
// (spec.md 4.7). Callbacks run on whatever goroutine time.AfterFunc/
// time.Ticker uses; callers that need single-writer semantics (C4's table
// actor, C6's controller) must hop the callback back onto their own owning
// goroutine via a channel send, not run engine mutations inline here.
type Service struct {
	mu      sync.Mutex
	nextID  Handle
	once    map[Handle]*time.Timer
	repeat  map[Handle]*time.Ticker
	stopped map[Handle]chan struct{}
}

func NewService() *Service {
	return &Service{
		once:    make(map[Handle]*time.Timer),
		repeat:  make(map[Handle]*time.Ticker),
		stopped: make(map[Handle]chan struct{}),
	}
}

// ScheduleOnce fires cb once after delay. Accuracy requirement (spec.md 4.7):
// fires within 250ms of deadline under normal load, which time.AfterFunc
// satisfies absent scheduler starvation.
func (s *Service) ScheduleOnce(delay time.Duration, cb func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.once[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.once[id]
		delete(s.once, id)
		s.mu.Unlock()
		if live {
			cb()
		}
	})
	return id
}

// ScheduleInterval fires cb every period until Cancel is called.
func (s *Service) ScheduleInterval(period time.Duration, cb func()) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ticker := time.NewTicker(period)
	stop := make(chan struct{})
	s.repeat[id] = ticker
	s.stopped[id] = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cb()
			}
		}
	}()
	return id
}

// Cancel stops a scheduled callback. Idempotent: cancelling an unknown or
// already-fired/cancelled handle is a no-op.
func (s *Service) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.once[h]; ok {
		t.Stop()
		delete(s.once, h)
		return
	}
	if t, ok := s.repeat[h]; ok {
		t.Stop()
		delete(s.repeat, h)
		if stop, ok := s.stopped[h]; ok {
			close(stop)
			delete(s.stopped, h)
		}
	}
}

// Stop cancels every outstanding timer. Used on process shutdown.
func (s *Service) Stop() {
	s.mu.Lock()
	handles := make([]Handle, 0, len(s.once)+len(s.repeat))
	for h := range s.once {
		handles = append(handles, h)
	}
	for h := range s.repeat {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		s.Cancel(h)
	}
}
