// Package rating holds the Elo arithmetic used to settle rated matches.
package rating

import "math"

// K is the Elo development coefficient applied to every rated result.
const K = 32

// Default is the rating assigned to a new player.
const Default = 1500

// Update is the outcome of one two-player Elo update.
type Update struct {
	ExpectedWin float64
	Delta       int
	WinnerNew   int
	LoserNew    int
}

// ExpectedScore is the winner's expected score against the loser.
func ExpectedScore(winner, loser int) float64 {
	return 1 / (1 + math.Pow(10, float64(loser-winner)/400))
}

// Elo computes the zero-sum update for a decided match. The loser's change is
// the exact negation of the winner's, since its expected score is
// 1-ExpectedWin against an actual score of 0.
func Elo(winner, loser int) Update {
	expected := ExpectedScore(winner, loser)
	delta := int(math.Round(K * (1 - expected)))
	return Update{
		ExpectedWin: expected,
		Delta:       delta,
		WinnerNew:   winner + delta,
		LoserNew:    loser - delta,
	}
}
