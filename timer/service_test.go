package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleOnce_Fires(t *testing.T) {
	s := NewService()
	defer s.Stop()

	var fired int32
	s.ScheduleOnce(10*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, 250*time.Millisecond, 5*time.Millisecond)
}

func TestScheduleOnce_CancelPreventsFire(t *testing.T) {
	s := NewService()
	defer s.Stop()

	var fired int32
	h := s.ScheduleOnce(30*time.Millisecond, func() {
		atomic.AddInt32(&fired, 1)
	})
	s.Cancel(h)

	time.Sleep(60 * time.Millisecond)
	require.EqualValues(t, 0, atomic.LoadInt32(&fired))
}

func TestScheduleInterval_FiresRepeatedlyUntilCancelled(t *testing.T) {
	s := NewService()
	defer s.Stop()

	var count int32
	h := s.ScheduleInterval(10*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
	})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) >= 3
	}, 250*time.Millisecond, 5*time.Millisecond)

	s.Cancel(h)
	after := atomic.LoadInt32(&count)
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, after, atomic.LoadInt32(&count))
}

func TestCancel_IsIdempotent(t *testing.T) {
	s := NewService()
	defer s.Stop()

	h := s.ScheduleOnce(time.Hour, func() {})
	s.Cancel(h)
	require.NotPanics(t, func() { s.Cancel(h) })
	require.NotPanics(t, func() { s.Cancel(Handle(999999)) })
}
