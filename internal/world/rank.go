package world

// MaxRank is the highest rank a player can reach.
const MaxRank = 10

// rankTable holds the cumulative XP required to reach each rank.
// Index 0 = rank 1 (0 XP).
var rankTable = [MaxRank]int{
	0,     // Rank 1
	100,   // Rank 2
	300,   // Rank 3
	700,   // Rank 4
	1500,  // Rank 5
	3000,  // Rank 6
	5500,  // Rank 7
	9000,  // Rank 8
	14000, // Rank 9
	21000, // Rank 10
}

// RankForXP returns the rank earned by a cumulative XP total.
func RankForXP(xp int) int {
	rank := 1
	for i := 1; i < MaxRank; i++ {
		if xp >= rankTable[i] {
			rank = i + 1
		}
	}
	return rank
}

// XPForRank returns the cumulative XP required to reach the given rank.
func XPForRank(rank int) int {
	if rank < 1 {
		return 0
	}
	if rank > MaxRank {
		rank = MaxRank
	}
	return rankTable[rank-1]
}

// XPToNextRank returns the remaining XP needed for the next rank.
func XPToNextRank(rank, xp int) int {
	if rank >= MaxRank {
		return 0
	}
	remaining := XPForRank(rank+1) - xp
	if remaining < 0 {
		return 0
	}
	return remaining
}
