// Package dice implements backgammon dice rules: the per-turn roll and move
// budget, and the one-time opening roll that decides who moves first.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
)

// Faces is the number of faces on a backgammon die.
const Faces = 6

// ErrDieOutOfRange indicates a die value outside 1..6.
var ErrDieOutOfRange = errors.New("die value must be between 1 and 6")

// Source is a uniform random source. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// lockedSource serialises access to a *rand.Rand, which is not safe for
// concurrent use by request handlers.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// NewSource returns a goroutine-safe source seeded with seed.
func NewSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Roll draws a single die.
func Roll(src Source) int {
	return src.Intn(Faces) + 1
}

// Turn is one ordinary turn's roll.
type Turn struct {
	Die1   int
	Die2   int
	Budget []int
}

// IsDoubles reports whether both dice show the same value.
func (t Turn) IsDoubles() bool {
	return t.Die1 == t.Die2
}

// RollTurn draws two independent dice for an ordinary turn. Equal dice are a
// valid result (doubles) and are never redrawn.
func RollTurn(src Source) Turn {
	d1 := Roll(src)
	d2 := Roll(src)
	budget, err := MoveBudget(d1, d2)
	if err != nil {
		// Unreachable: Roll always returns 1..6.
		panic(err)
	}
	return Turn{Die1: d1, Die2: d2, Budget: budget}
}

// MoveBudget returns the die values a player may apply this turn: four copies
// of the value on doubles, otherwise both values sorted descending.
func MoveBudget(d1, d2 int) ([]int, error) {
	if !valid(d1) || !valid(d2) {
		return nil, ErrDieOutOfRange
	}
	if d1 == d2 {
		return []int{d1, d1, d1, d1}, nil
	}
	budget := []int{d1, d2}
	sort.Sort(sort.Reverse(sort.IntSlice(budget)))
	return budget, nil
}

// IsRolled reports whether a stored dice pair holds a roll. The zero pair is
// the "not rolled" sentinel written by the previous turn's end.
func IsRolled(d1, d2 int) bool {
	return d1 != 0 || d2 != 0
}

func valid(d int) bool {
	return d >= 1 && d <= Faces
}
