package tournament

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seats(n int) []SeatSummary {
	out := make([]SeatSummary, n)
	for i := 0; i < n; i++ {
		out[i] = SeatSummary{UserID: uint64(i + 1), SeatNumber: i + 1}
	}
	return out
}

func TestDesiredTableCount(t *testing.T) {
	require.Equal(t, 2, DesiredTableCount(14, 9))
	require.Equal(t, 1, DesiredTableCount(9, 9))
	require.Equal(t, 1, DesiredTableCount(1, 9))
}

func TestNextClockwiseSeatNumber_WrapsMinToMax(t *testing.T) {
	require.Equal(t, 9, NextClockwiseSeatNumber(1, 9))
	require.Equal(t, 5, NextClockwiseSeatNumber(6, 9))
}

func TestPlanBreaking_NoBreakWhenActiveTablesMatchDesired(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(9)},
		{TableID: "t2", TableNumber: 2, Seats: seats(9)},
		{TableID: "t3", TableNumber: 3, Seats: []SeatSummary{{UserID: 100, SeatNumber: 1}, {UserID: 101, SeatNumber: 2}}},
	}
	// remaining = 20, seatsPerTable = 9 -> desired = ceil(20/9) = 3; nactive = 3 already.
	moves, closed := PlanBreaking(tables, 9)
	require.Empty(t, moves)
	require.Empty(t, closed)
}

func TestPlanBreaking_ClosesEmptiedTable(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(7)},
		{TableID: "t2", TableNumber: 2, Seats: seats(7)},
		{TableID: "t3", TableNumber: 3, Seats: []SeatSummary{{UserID: 100, SeatNumber: 1}, {UserID: 101, SeatNumber: 2}}},
	}
	// remaining = 16, seatsPerTable = 9 -> desired = ceil(16/9) = 2; nactive = 3.
	moves, closed := PlanBreaking(tables, 9)
	require.Len(t, moves, 2)
	require.Equal(t, []string{"t3"}, closed)

	seen := make(map[uint64]bool)
	for _, m := range moves {
		require.Equal(t, "t3", m.FromTableID)
		require.Contains(t, []string{"t1", "t2"}, m.ToTableID)
		seen[m.UserID] = true
	}
	require.True(t, seen[100])
	require.True(t, seen[101])
}

func TestPlanBreaking_PicksFewestPlayersTieBreakLargestTableNumber(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(2)},
		{TableID: "t2", TableNumber: 2, Seats: seats(2)},
		{TableID: "t3", TableNumber: 3, Seats: seats(9)},
	}
	// remaining = 13, seatsPerTable=9 -> desired=2, nactive=3: one table must break.
	moves, closed := PlanBreaking(tables, 9)
	require.NotEmpty(t, moves)
	require.Equal(t, []string{"t2"}, closed) // tie between t1/t2 (2 players each) -> larger table_number
}

func TestPlanBalance_MovesBigBlindOutPlayerFromLargestToSmallest(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(9), BigBlindSeat: 3},
		{TableID: "t2", TableNumber: 2, Seats: seats(7)},
	}
	move := PlanBalance(tables, 9)
	require.NotNil(t, move)
	require.Equal(t, "t1", move.FromTableID)
	require.Equal(t, "t2", move.ToTableID)
	// next clockwise from seat 3 (decreasing, no wrap needed) is seat 2.
	require.EqualValues(t, 2, move.UserID)
}

func TestPlanBalance_NoOpWhenBalanced(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(8), BigBlindSeat: 1},
		{TableID: "t2", TableNumber: 2, Seats: seats(9), BigBlindSeat: 1},
	}
	require.Nil(t, PlanBalance(tables, 9))
}

func TestPlanBalance_NoOpWhenBigBlindSeatUnknown(t *testing.T) {
	tables := []TableSummary{
		{TableID: "t1", TableNumber: 1, Seats: seats(9)},
		{TableID: "t2", TableNumber: 2, Seats: seats(6)},
	}
	require.Nil(t, PlanBalance(tables, 9))
}
