package tournament

import (
	"encoding/json"
	"fmt"
	"time"
)

// BlindLevel mirrors spec.md 3's BlindSchedule entry. DurationSeconds is nil
// for the terminal level, which never ends.
type BlindLevel struct {
	Index             int
	SmallBlind        int64
	BigBlind          int64
	DurationSeconds   *int64
	BreakAfterSeconds int64
}

// BlindSchedule is an ordered sequence of BlindLevel. At most one level may
// have DurationSeconds == nil, and if present it must be the last one.
type BlindSchedule struct {
	Levels []BlindLevel
}

// Validate enforces spec.md 3's BlindSchedule invariants: small_blind <
// big_blind, big_blind strictly non-decreasing, and a terminal (duration
// == nil) level only at the end.
func (s BlindSchedule) Validate() error {
	if len(s.Levels) == 0 {
		return fmt.Errorf("blind schedule must have at least one level")
	}
	var prevBigBlind int64 = -1
	for i, lvl := range s.Levels {
		if lvl.SmallBlind >= lvl.BigBlind {
			return fmt.Errorf("level %d: small_blind %d must be < big_blind %d", i, lvl.SmallBlind, lvl.BigBlind)
		}
		if lvl.BigBlind < prevBigBlind {
			return fmt.Errorf("level %d: big_blind %d must be non-decreasing (prev %d)", i, lvl.BigBlind, prevBigBlind)
		}
		prevBigBlind = lvl.BigBlind
		if lvl.DurationSeconds == nil && i != len(s.Levels)-1 {
			return fmt.Errorf("level %d: terminal (null-duration) level must be last", i)
		}
	}
	return nil
}

// LevelIndexForElapsed computes the current blind-level index given elapsed
// time since actual_start_time (spec.md 4.6.2): the first level i whose end
// (the summed durations and break_after_seconds of levels 0..i) strictly
// exceeds elapsed, or the terminal level once reached; if none, the last level.
func (s BlindSchedule) LevelIndexForElapsed(elapsed time.Duration) int {
	elapsedSec := int64(elapsed / time.Second)
	var cumulative int64
	for i, lvl := range s.Levels {
		if lvl.DurationSeconds == nil {
			return i
		}
		levelEnd := cumulative + *lvl.DurationSeconds + lvl.BreakAfterSeconds
		if elapsedSec < levelEnd {
			return i
		}
		cumulative = levelEnd
	}
	return len(s.Levels) - 1
}

// Level returns the blind level at index, clamped to the schedule's bounds.
func (s BlindSchedule) Level(index int) BlindLevel {
	if index < 0 {
		index = 0
	}
	if index >= len(s.Levels) {
		index = len(s.Levels) - 1
	}
	return s.Levels[index]
}

// marshalBlindSchedule/unmarshalBlindSchedule round-trip a BlindSchedule
// through the opaque blind_schedule_json column (spec.md 6.3).
func marshalBlindSchedule(s BlindSchedule) ([]byte, error) {
	return json.Marshal(s.Levels)
}

func unmarshalBlindSchedule(raw []byte) (BlindSchedule, error) {
	if len(raw) == 0 {
		return BlindSchedule{}, fmt.Errorf("empty blind schedule")
	}
	var levels []BlindLevel
	if err := json.Unmarshal(raw, &levels); err != nil {
		return BlindSchedule{}, fmt.Errorf("unmarshal blind schedule: %w", err)
	}
	return BlindSchedule{Levels: levels}, nil
}
