package knn

import (
	"github.com/awojna/Rseslib-sub001/index"
)

/*
tally accumulates the votes of neighbours given in ascending distance order.
Under inverse distance voting, neighbours at distance 0 outvote every other
neighbour: once one of them voted, only their votes decide.
*/
type tally struct {
	voting Voting
	votes  []float64
	exact  []float64
	zero   bool
}

func newTally(v Voting, decisions int) *tally {
	return &tally{voting: v, votes: make([]float64, decisions), exact: make([]float64, decisions)}
}

func (t *tally) add(n index.Neighbour, decision int) {
	if decision < 0 || decision >= len(t.votes) {
		return
	}
	switch t.voting {
	case InverseDistance:
		if n.Distance == 0 {
			t.exact[decision]++
			t.zero = true
			return
		}
		t.votes[decision] += 1 / n.Distance
	case InverseSquareDistance:
		if n.Distance == 0 {
			t.exact[decision]++
			t.zero = true
			return
		}
		t.votes[decision] += 1 / (n.Distance * n.Distance)
	default:
		t.votes[decision]++
	}
}

func (t *tally) distribution() []float64 {
	if t.zero {
		return t.exact
	}
	return t.votes
}

// winner returns the decision with the largest vote, the lowest code on
// ties, or -1 if nobody voted.
func (t *tally) winner() int {
	dist, result := t.distribution(), -1
	for d, w := range dist {
		if w > 0 && (result < 0 || w > dist[result]) {
			result = d
		}
	}
	return result
}
