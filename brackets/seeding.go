package brackets

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

type SeedingMethod string

const (
	SeedingRandom  SeedingMethod = "random"
	SeedingRanking SeedingMethod = "ranking"
	SeedingElo     SeedingMethod = "elo"
	SeedingManual  SeedingMethod = "manual"
)

// SeedEntry is one candidate for seeding: the player, their rating and
// when they registered. For manual seeding the entries are taken in the
// given order.
type SeedEntry struct {
	PlayerID     int
	Rating       int
	RegisteredAt time.Time
}

// SeedPlayers turns registered players into a 1-based seed list. The
// rng parameter only matters for random seeding; pass nil for a
// time-seeded source.
func SeedPlayers(method SeedingMethod, entries []SeedEntry, rng *rand.Rand) ([]SeededPlayer, error) {
	ordered := make([]SeedEntry, len(entries))
	copy(ordered, entries)

	switch method {
	case SeedingRandom:
		if rng == nil {
			rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	case SeedingRanking, SeedingElo:
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Rating != ordered[j].Rating {
				return ordered[i].Rating > ordered[j].Rating
			}
			return ordered[i].RegisteredAt.Before(ordered[j].RegisteredAt)
		})
	case SeedingManual:
		// Keep the caller's order.
	default:
		return nil, fmt.Errorf("unknown seeding method %q", method)
	}

	seeded := make([]SeededPlayer, len(ordered))
	for i, e := range ordered {
		seeded[i] = SeededPlayer{PlayerID: e.PlayerID, Seed: i + 1}
	}
	return seeded, nil
}
