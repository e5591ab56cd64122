package brackets

import (
	"sort"
)

// PairSet records which unordered player pairs have already met.
type PairSet map[[2]int]bool

func NewPairSet() PairSet {
	return make(PairSet)
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func (s PairSet) Add(a, b int) {
	s[pairKey(a, b)] = true
}

func (s PairSet) Has(a, b int) bool {
	return s[pairKey(a, b)]
}

// SwissStanding is the pairing-relevant slice of a player's current
// standing. Rank breaks ties within a points group; for round 1 it is
// the seed.
type SwissStanding struct {
	PlayerID int
	Points   int
	Rank     int
}

// SwissPairing is one table of a paired round. A nil PlayerBID means
// PlayerA receives the bye.
type SwissPairing struct {
	Table     int
	PlayerAID int
	PlayerBID *int
}

// SwissOptions tunes pairing behavior.
type SwissOptions struct {
	// ByeCountsAsPairing makes a received bye count as a played pairing
	// for rematch avoidance, in addition to the separate one-bye-per-
	// player rule. Off by convention.
	ByeCountsAsPairing bool
}

// SwissPairingEngine pairs one round at a time from current standings.
// Players are sorted by points, then rank, and greedily paired top-down
// within that order; when the greedy choice dead-ends it backtracks, so
// cross-group pairings (floats) emerge exactly when a points group
// cannot be paired internally.
type SwissPairingEngine struct {
	opts SwissOptions
}

func NewSwissPairingEngine(opts SwissOptions) *SwissPairingEngine {
	return &SwissPairingEngine{opts: opts}
}

// RoundCount returns the scheduled number of swiss rounds for a field
// of n players, ceil(log2(n)).
func (e *SwissPairingEngine) RoundCount(n int) int {
	return roundCount(n)
}

// PairRound pairs the next round. played holds all pairings from
// finished and running rounds; hadBye marks players who already
// received a bye. Returns ErrPairingExhausted when no complete pairing
// without rematches exists.
func (e *SwissPairingEngine) PairRound(standings []SwissStanding, played PairSet, hadBye map[int]bool) ([]SwissPairing, error) {
	if len(standings) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	order := make([]SwissStanding, len(standings))
	copy(order, standings)
	sort.Slice(order, func(i, j int) bool {
		if order[i].Points != order[j].Points {
			return order[i].Points > order[j].Points
		}
		if order[i].Rank != order[j].Rank {
			return order[i].Rank < order[j].Rank
		}
		return order[i].PlayerID < order[j].PlayerID
	})

	ids := make([]int, len(order))
	for i, s := range order {
		ids[i] = s.PlayerID
	}

	var byeID *int
	if len(ids)%2 == 1 {
		bi := e.pickBye(ids, played, hadBye)
		id := ids[bi]
		byeID = &id
		ids = append(ids[:bi:bi], ids[bi+1:]...)
	}

	pairs, ok := pairDown(ids, played)
	if !ok {
		return nil, ErrPairingExhausted
	}

	out := make([]SwissPairing, 0, len(pairs)+1)
	for i, p := range pairs {
		b := p[1]
		out = append(out, SwissPairing{Table: i + 1, PlayerAID: p[0], PlayerBID: &b})
	}
	if byeID != nil {
		out = append(out, SwissPairing{Table: len(pairs) + 1, PlayerAID: *byeID})
	}
	return out, nil
}

// pickBye chooses the lowest-standing player without a previous bye,
// falling back to the very bottom when everyone already had one.
func (e *SwissPairingEngine) pickBye(ids []int, played PairSet, hadBye map[int]bool) int {
	for i := len(ids) - 1; i >= 0; i-- {
		if hadBye[ids[i]] {
			continue
		}
		if e.opts.ByeCountsAsPairing && played.Has(ids[i], byeOpponent) {
			continue
		}
		return i
	}
	return len(ids) - 1
}

// byeOpponent is the pseudo-opponent id recorded for byes when
// ByeCountsAsPairing is on. Real player ids are positive.
const byeOpponent = 0

// pairDown pairs the first unpaired player with the nearest opponent
// they have not met, backtracking when the remainder cannot be
// completed.
func pairDown(ids []int, played PairSet) ([][2]int, bool) {
	if len(ids) == 0 {
		return nil, true
	}
	a := ids[0]
	for i := 1; i < len(ids); i++ {
		b := ids[i]
		if played.Has(a, b) {
			continue
		}
		rest := make([]int, 0, len(ids)-2)
		rest = append(rest, ids[1:i]...)
		rest = append(rest, ids[i+1:]...)
		tail, ok := pairDown(rest, played)
		if !ok {
			continue
		}
		return append([][2]int{{a, b}}, tail...), true
	}
	return nil, false
}
