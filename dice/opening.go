package dice

// Opening is the terminal pair of the opening roll. DieA belongs to the
// session's first seat and DieB to the second; they never match.
type Opening struct {
	DieA    int
	DieB    int
	Redraws int
}

// AFirst reports whether seat A won the opening roll.
func (o Opening) AFirst() bool {
	return o.DieA > o.DieB
}

// Budget is the first turn's move budget, taken from the opening dice.
func (o Opening) Budget() []int {
	if o.DieA > o.DieB {
		return []int{o.DieA, o.DieB}
	}
	return []int{o.DieB, o.DieA}
}

// ResolveOpening draws one die per seat, redrawing both while they are equal
// so the higher roller is always a strict winner.
//
// This is deliberately separate from RollTurn: a tie here is discarded,
// while a tie on an ordinary turn is doubles.
func ResolveOpening(src Source) Opening {
	var o Opening
	for {
		o.DieA = Roll(src)
		o.DieB = Roll(src)
		if o.DieA != o.DieB {
			return o
		}
		o.Redraws++
	}
}
