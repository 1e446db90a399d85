package tournament

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func d(seconds int64) *int64 { return &seconds }

func sampleSchedule() BlindSchedule {
	return BlindSchedule{Levels: []BlindLevel{
		{Index: 0, SmallBlind: 25, BigBlind: 50, DurationSeconds: d(600)},
		{Index: 1, SmallBlind: 50, BigBlind: 100, DurationSeconds: d(600), BreakAfterSeconds: 60},
		{Index: 2, SmallBlind: 100, BigBlind: 200, DurationSeconds: nil},
	}}
}

func TestBlindSchedule_Validate_AcceptsWellFormedSchedule(t *testing.T) {
	require.NoError(t, sampleSchedule().Validate())
}

func TestBlindSchedule_Validate_RejectsSmallNotLessThanBig(t *testing.T) {
	s := BlindSchedule{Levels: []BlindLevel{{SmallBlind: 100, BigBlind: 100, DurationSeconds: d(600)}}}
	require.Error(t, s.Validate())
}

func TestBlindSchedule_Validate_RejectsDecreasingBigBlind(t *testing.T) {
	s := BlindSchedule{Levels: []BlindLevel{
		{SmallBlind: 50, BigBlind: 100, DurationSeconds: d(600)},
		{SmallBlind: 25, BigBlind: 50, DurationSeconds: d(600)},
	}}
	require.Error(t, s.Validate())
}

func TestBlindSchedule_Validate_RejectsTerminalLevelNotLast(t *testing.T) {
	s := BlindSchedule{Levels: []BlindLevel{
		{SmallBlind: 25, BigBlind: 50, DurationSeconds: nil},
		{SmallBlind: 50, BigBlind: 100, DurationSeconds: d(600)},
	}}
	require.Error(t, s.Validate())
}

func TestBlindSchedule_LevelIndexForElapsed(t *testing.T) {
	s := sampleSchedule()

	require.Equal(t, 0, s.LevelIndexForElapsed(0))
	require.Equal(t, 0, s.LevelIndexForElapsed(599*time.Second))
	require.Equal(t, 1, s.LevelIndexForElapsed(600*time.Second))
	// level 1 ends at 600+600+60 = 1260s
	require.Equal(t, 1, s.LevelIndexForElapsed(1259*time.Second))
	require.Equal(t, 2, s.LevelIndexForElapsed(1260*time.Second))
	// terminal level never advances past itself
	require.Equal(t, 2, s.LevelIndexForElapsed(100*time.Hour))
}

func TestBlindSchedule_Level_ClampsOutOfRangeIndex(t *testing.T) {
	s := sampleSchedule()
	require.Equal(t, s.Levels[0], s.Level(-1))
	require.Equal(t, s.Levels[2], s.Level(99))
}
