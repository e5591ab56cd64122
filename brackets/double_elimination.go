package brackets

import (
	"fmt"
	"sort"

	"github.com/tcgarena/tcg-arena/models"
	"github.com/tcgarena/tcg-arena/utils"
)

// DropMapping controls which losers-bracket slot a winners-bracket
// loser drops into within a drop round.
type DropMapping string

const (
	// DropMappingAlternating reverses the drop order on every other
	// round, so a player who lost early cannot immediately rematch the
	// opponent who sent them down. This is the default.
	DropMappingAlternating DropMapping = "alternating"
	DropMappingStraight    DropMapping = "straight"
	DropMappingReversed    DropMapping = "reversed"
)

func (m DropMapping) slotIndex(i, count, dropRound int) int {
	switch m {
	case DropMappingStraight:
		return i
	case DropMappingReversed:
		return count - 1 - i
	default:
		if dropRound%2 == 1 {
			return count - 1 - i
		}
		return i
	}
}

// DoubleEliminationGenerator builds a winners bracket, a losers bracket
// fed by winners-bracket losers, and a grand final. The structure is
// first laid out for the full power-of-two size, then matches that lost
// a feed to a bye are collapsed and their remaining feed forwarded, so
// arbitrary field sizes come out with exactly 2n-2 matches. A grand
// final rematch is not pre-generated; it is created at runtime only if
// the losers-bracket finalist wins the first grand final.
type DoubleEliminationGenerator struct {
	dropMapping DropMapping
}

func NewDoubleEliminationGenerator(mapping DropMapping) *DoubleEliminationGenerator {
	if mapping == "" {
		mapping = DropMappingAlternating
	}
	return &DoubleEliminationGenerator{dropMapping: mapping}
}

func (g *DoubleEliminationGenerator) Name() string {
	return string(models.FormatDoubleElimination)
}

// deFeed is one input slot of a node: a concrete player, or a link to
// the winner or loser of another node. At most one field is set.
type deFeed struct {
	playerID *int
	winnerOf *deNode
	loserOf  *deNode
}

func (f deFeed) empty() bool {
	return f.playerID == nil && f.winnerOf == nil && f.loserOf == nil
}

type deNode struct {
	side  models.BracketSide
	round int // structural round within its side
	order int // structural position within the round
	a, b  deFeed

	winnerTo     *deNode
	winnerToSlot models.MatchSlot
	loserTo      *deNode
	loserToSlot  models.MatchSlot

	removed bool
	uid     string
}

func (n *deNode) setFeed(slot models.MatchSlot, f deFeed) {
	if slot == models.SlotA {
		n.a = f
	} else {
		n.b = f
	}
}

func linkWinner(src, dst *deNode, slot models.MatchSlot) {
	src.winnerTo, src.winnerToSlot = dst, slot
	dst.setFeed(slot, deFeed{winnerOf: src})
}

func linkLoser(src, dst *deNode, slot models.MatchSlot) {
	src.loserTo, src.loserToSlot = dst, slot
	dst.setFeed(slot, deFeed{loserOf: src})
}

func (g *DoubleEliminationGenerator) Generate(params GenerateParams) (*GeneratedBracket, error) {
	if err := validatePlayers(params.Players); err != nil {
		return nil, err
	}

	players := make([]SeededPlayer, len(params.Players))
	copy(players, params.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Seed < players[j].Seed })

	n := len(players)
	k := roundCount(n)
	size := 1 << k

	newNodes := func(side models.BracketSide, round, count int) []*deNode {
		nodes := make([]*deNode, count)
		for i := range nodes {
			nodes[i] = &deNode{side: side, round: round, order: i}
		}
		return nodes
	}

	// Winners bracket, full power-of-two layout.
	wb := make([][]*deNode, k+1)
	for r := 1; r <= k; r++ {
		wb[r] = newNodes(models.SideWinners, r, size>>r)
		if r > 1 {
			for i, node := range wb[r-1] {
				if i%2 == 0 {
					linkWinner(node, wb[r][i/2], models.SlotA)
				} else {
					linkWinner(node, wb[r][i/2], models.SlotB)
				}
			}
		}
	}

	gf := &deNode{side: models.SideGrandFinal, round: 1, order: 0}
	linkWinner(wb[k][0], gf, models.SlotA)

	// Losers bracket. Odd rounds merge losers-bracket survivors, even
	// rounds take the drops from the matching winners-bracket round.
	lbRounds := 2*k - 2
	if k == 1 {
		linkLoser(wb[1][0], gf, models.SlotB)
	} else {
		lb := make([][]*deNode, lbRounds+1)
		lb[1] = newNodes(models.SideLosers, 1, size/4)
		for i, node := range lb[1] {
			linkLoser(wb[1][2*i], node, models.SlotA)
			linkLoser(wb[1][2*i+1], node, models.SlotB)
		}
		for j := 1; j <= k-1; j++ {
			minor := 2 * j
			count := size >> (j + 1)
			lb[minor] = newNodes(models.SideLosers, minor, count)
			for i, node := range lb[minor] {
				linkWinner(lb[minor-1][i], node, models.SlotA)
				linkLoser(wb[j+1][g.dropMapping.slotIndex(i, count, j)], node, models.SlotB)
			}
			if j < k-1 {
				major := minor + 1
				lb[major] = newNodes(models.SideLosers, major, count/2)
				for i, node := range lb[major] {
					linkWinner(lb[minor][2*i], node, models.SlotA)
					linkWinner(lb[minor][2*i+1], node, models.SlotB)
				}
			}
		}
		linkWinner(lb[lbRounds][0], gf, models.SlotB)
	}

	// Seed round 1. The mirrored order puts the present player of a bye
	// pair in slot A; an absent opponent leaves the slot empty for the
	// collapse pass.
	order := seedOrder(size)
	for p, node := range wb[1] {
		ia, ib := order[2*p], order[2*p+1]
		node.a = deFeed{playerID: utils.Ptr(players[ia].PlayerID)}
		if ib < n {
			node.b = deFeed{playerID: utils.Ptr(players[ib].PlayerID)}
		}
	}

	var all []*deNode
	for r := 1; r <= k; r++ {
		all = append(all, wb[r]...)
	}
	collapse(all, gf)

	return g.emit(all, gf)
}

// collapse removes nodes that lost a feed to a bye. A node with a
// single live feed forwards that feed to its winner destination and
// clears its loser destination, since no loser will ever emerge from
// it. Cleared slots can cascade, so the pass repeats until stable.
// Nodes on the losers side are reached through the links, grand finals
// never collapse.
func collapse(winners []*deNode, gf *deNode) {
	var all []*deNode
	seen := make(map[*deNode]bool)
	var visit func(n *deNode)
	visit = func(n *deNode) {
		if n == nil || n == gf || seen[n] {
			return
		}
		seen[n] = true
		all = append(all, n)
		visit(n.winnerTo)
		visit(n.loserTo)
	}
	for _, n := range winners {
		visit(n)
	}

	for changed := true; changed; {
		changed = false
		for _, m := range all {
			if m.removed {
				continue
			}
			liveA, liveB := !m.a.empty(), !m.b.empty()
			if liveA && liveB {
				continue
			}
			m.removed = true
			changed = true
			if !liveA && !liveB {
				if m.winnerTo != nil {
					m.winnerTo.setFeed(m.winnerToSlot, deFeed{})
				}
				if m.loserTo != nil {
					m.loserTo.setFeed(m.loserToSlot, deFeed{})
				}
				continue
			}
			f := m.a
			if liveB {
				f = m.b
			}
			if m.winnerTo != nil {
				m.winnerTo.setFeed(m.winnerToSlot, f)
				if f.winnerOf != nil {
					f.winnerOf.winnerTo, f.winnerOf.winnerToSlot = m.winnerTo, m.winnerToSlot
				}
				if f.loserOf != nil {
					f.loserOf.loserTo, f.loserOf.loserToSlot = m.winnerTo, m.winnerToSlot
				}
			}
			if m.loserTo != nil {
				m.loserTo.setFeed(m.loserToSlot, deFeed{})
			}
		}
	}
}

func (g *DoubleEliminationGenerator) emit(winners []*deNode, gf *deNode) (*GeneratedBracket, error) {
	survivors := map[models.BracketSide][]*deNode{}
	seen := make(map[*deNode]bool)
	var visit func(n *deNode)
	visit = func(n *deNode) {
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		if !n.removed {
			survivors[n.side] = append(survivors[n.side], n)
		}
		visit(n.winnerTo)
		visit(n.loserTo)
	}
	for _, n := range winners {
		visit(n)
	}
	visit(gf)

	// Renumber each side to contiguous rounds and positions, then hand
	// out UIDs.
	renumber := func(side models.BracketSide, prefix string) int {
		nodes := survivors[side]
		sort.Slice(nodes, func(i, j int) bool {
			if nodes[i].round != nodes[j].round {
				return nodes[i].round < nodes[j].round
			}
			return nodes[i].order < nodes[j].order
		})
		newRound, prevStructural, pos := 0, -1, 0
		for _, node := range nodes {
			if node.round != prevStructural {
				prevStructural = node.round
				newRound++
				pos = 0
			}
			pos++
			node.round = newRound
			node.order = pos
			node.uid = fmt.Sprintf("%s%dM%d", prefix, newRound, pos)
		}
		return newRound
	}
	winnersRounds := renumber(models.SideWinners, "WR")
	losersRounds := renumber(models.SideLosers, "LR")
	gf.round, gf.order, gf.uid = 1, 1, "GF1"

	var matches []*BracketMatch
	for _, side := range []models.BracketSide{models.SideWinners, models.SideLosers, models.SideGrandFinal} {
		for _, node := range survivors[side] {
			bm := &BracketMatch{
				UID:          node.uid,
				Side:         node.side,
				Round:        node.round,
				OrderInRound: node.order,
				Phase:        dePhase(node, winnersRounds, losersRounds),
				PlayerAID:    node.a.playerID,
				PlayerBID:    node.b.playerID,
			}
			if node.winnerTo != nil {
				bm.WinnerToUID = utils.Ptr(node.winnerTo.uid)
				bm.WinnerToSlot = node.winnerToSlot
			}
			if node.loserTo != nil && !node.loserTo.removed {
				bm.LoserToUID = utils.Ptr(node.loserTo.uid)
				bm.LoserToSlot = node.loserToSlot
			}
			matches = append(matches, bm)
		}
	}

	return &GeneratedBracket{Matches: matches, TotalRounds: winnersRounds + 1}, nil
}

func dePhase(node *deNode, winnersRounds, losersRounds int) models.MatchPhase {
	switch node.side {
	case models.SideGrandFinal:
		return models.PhaseFinal
	case models.SideWinners:
		return phaseForRound(node.round, winnersRounds+1)
	default:
		if node.round == losersRounds {
			return models.PhaseSemiFinal
		}
		return models.PhaseQualification
	}
}
