package tournament

import "math/rand"

// SeatAssignment is one player's destination after close_registration's
// partition step: which table (by index into the returned slice) and
// which seat number within [1..seatsPerTable].
type SeatAssignment struct {
	TableIndex int
	SeatNumber int
	UserID     uint64
}

// PartitionRegistrants implements spec.md 4.6.1 close_registration steps
// 2-3: split confirmed registrants into ceil(N/seatsPerTable) tables,
// balanced within +/-1 player, then randomly assign players to tables and
// seat numbers. userIDs order is caller-controlled (typically DB order);
// rng determines the shuffle, so callers needing determinism pass a seeded
// *rand.Rand.
func PartitionRegistrants(userIDs []uint64, seatsPerTable int, rng *rand.Rand) [][]SeatAssignment {
	n := len(userIDs)
	if n == 0 || seatsPerTable <= 0 {
		return nil
	}

	numTables := ceilDiv(n, seatsPerTable)
	shuffled := make([]uint64, n)
	copy(shuffled, userIDs)
	rng.Shuffle(n, func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	tables := make([][]SeatAssignment, numTables)
	base := n / numTables
	extra := n % numTables // the first `extra` tables get one additional player

	cursor := 0
	for t := 0; t < numTables; t++ {
		size := base
		if t < extra {
			size++
		}
		seats := make([]SeatAssignment, 0, size)
		for seatNumber := 1; seatNumber <= size; seatNumber++ {
			seats = append(seats, SeatAssignment{
				TableIndex: t,
				SeatNumber: seatNumber,
				UserID:     shuffled[cursor],
			})
			cursor++
		}
		tables[t] = seats
	}
	return tables
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
