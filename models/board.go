package models

import "encoding/json"

// CheckersPerSide is the number of checkers each player owns.
const CheckersPerSide = 15

// Board is the checker layout. The session controller treats it as opaque;
// only the external rules engine interprets it.
//
// Points[i] is point i+1 from seat A's perspective: positive counts are seat A
// checkers, negative counts are seat B checkers.
type Board struct {
	Points [24]int      `json:"points"`
	Bar    map[Seat]int `json:"bar"`
	Off    map[Seat]int `json:"off"`
}

// StartingBoard returns the standard backgammon opening layout.
func StartingBoard() Board {
	var b Board
	// Seat A moves from point 24 down to 1.
	b.Points[24-1] = 2
	b.Points[13-1] = 5
	b.Points[8-1] = 3
	b.Points[6-1] = 5
	// Seat B mirrors it.
	b.Points[1-1] = -2
	b.Points[12-1] = -5
	b.Points[17-1] = -3
	b.Points[19-1] = -5
	b.Bar = map[Seat]int{SeatA: 0, SeatB: 0}
	b.Off = map[Seat]int{SeatA: 0, SeatB: 0}
	return b
}

// Count returns the number of checkers seat has on the board, bar and off.
func (b Board) Count(seat Seat) int {
	n := b.Bar[seat] + b.Off[seat]
	for _, p := range b.Points {
		switch {
		case seat == SeatA && p > 0:
			n += p
		case seat == SeatB && p < 0:
			n -= p
		}
	}
	return n
}

// JSON encodes the board for storage.
func (b Board) JSON() []byte {
	out, err := json.Marshal(b)
	if err != nil {
		// Unreachable: Board has only ints and string-keyed maps.
		panic(err)
	}
	return out
}
