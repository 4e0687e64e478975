package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEloEvenRatings(t *testing.T) {
	u := Elo(1500, 1500)
	assert.InDelta(t, 0.5, u.ExpectedWin, 1e-9)
	assert.Equal(t, 16, u.Delta)
	assert.Equal(t, 1516, u.WinnerNew)
	assert.Equal(t, 1484, u.LoserNew)
}

func TestEloUnderdogWins(t *testing.T) {
	u := Elo(1400, 1600)
	assert.InDelta(t, 0.2403, u.ExpectedWin, 1e-4)
	assert.Equal(t, 24, u.Delta)
	assert.Equal(t, 1424, u.WinnerNew)
	assert.Equal(t, 1576, u.LoserNew)
}

func TestEloFavouriteWins(t *testing.T) {
	u := Elo(1600, 1400)
	assert.Equal(t, 8, u.Delta)
	assert.Equal(t, 1608, u.WinnerNew)
	assert.Equal(t, 1392, u.LoserNew)
}

func TestEloIsZeroSum(t *testing.T) {
	for w := 800; w <= 2400; w += 37 {
		for l := 800; l <= 2400; l += 41 {
			u := Elo(w, l)
			if u.WinnerNew-w != -(u.LoserNew - l) {
				t.Fatalf("Elo(%d, %d) not symmetric: %+v", w, l, u)
			}
			if u.Delta < 0 || u.Delta > K {
				t.Fatalf("Elo(%d, %d) delta %d outside [0, %d]", w, l, u.Delta, K)
			}
		}
	}
}
