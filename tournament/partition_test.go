package tournament

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionRegistrants_BalancesWithinOne(t *testing.T) {
	userIDs := make([]uint64, 0, 20)
	for i := uint64(1); i <= 20; i++ {
		userIDs = append(userIDs, i)
	}
	tables := PartitionRegistrants(userIDs, 9, rand.New(rand.NewSource(1)))

	require.Len(t, tables, 3) // ceil(20/9) = 3
	sizes := make([]int, len(tables))
	for i, tbl := range tables {
		sizes[i] = len(tbl)
	}
	min, max := sizes[0], sizes[0]
	total := 0
	for _, s := range sizes {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
		total += s
	}
	require.Equal(t, 20, total)
	require.LessOrEqual(t, max-min, 1)
}

func TestPartitionRegistrants_SeatNumbersAreOneIndexedAndContiguous(t *testing.T) {
	userIDs := []uint64{1, 2, 3, 4, 5, 6}
	tables := PartitionRegistrants(userIDs, 6, rand.New(rand.NewSource(7)))
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 6)
	for i, seat := range tables[0] {
		require.Equal(t, i+1, seat.SeatNumber)
	}
}

func TestPartitionRegistrants_AssignsEveryUserExactlyOnce(t *testing.T) {
	userIDs := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	tables := PartitionRegistrants(userIDs, 4, rand.New(rand.NewSource(3)))

	seen := make(map[uint64]bool)
	for _, tbl := range tables {
		for _, seat := range tbl {
			require.False(t, seen[seat.UserID], "user %d assigned twice", seat.UserID)
			seen[seat.UserID] = true
		}
	}
	require.Len(t, seen, 10)
}

func TestPartitionRegistrants_EmptyInputReturnsNil(t *testing.T) {
	require.Nil(t, PartitionRegistrants(nil, 9, rand.New(rand.NewSource(1))))
}
