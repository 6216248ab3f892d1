package model

import "fmt"

// SeatStatus is the tri-state status of a seat position.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatReserved  SeatStatus = "RESERVED"
	SeatOccupied  SeatStatus = "OCCUPIED"
)

// Position identifies a seat inside a room by 1-based row and number.
type Position struct {
	Row    int `json:"row"`
	Number int `json:"number"`
}

func (p Position) String() string {
	return fmt.Sprintf("row %d seat %d", p.Row, p.Number)
}

// Seat is a value snapshot of a seat.  A Seat stored in a Reservation
// records what was requested or granted; it is never an alias into a
// live inventory grid.
type Seat struct {
	Row    int        `json:"row"`
	Number int        `json:"number"`
	Status SeatStatus `json:"status,omitempty"`
}

// Position returns the seat's grid position.
func (s Seat) Position() Position { return Position{Row: s.Row, Number: s.Number} }

func (s Seat) String() string { return s.Position().String() }

// Positions extracts the positions of the given seats, preserving order.
func Positions(seats []Seat) []Position {
	out := make([]Position, 0, len(seats))
	for _, s := range seats {
		out = append(out, s.Position())
	}
	return out
}

// DuplicatePosition returns the first position that appears more than
// once in seats.
func DuplicatePosition(seats []Seat) (Position, bool) {
	seen := make(map[Position]struct{}, len(seats))
	for _, s := range seats {
		p := s.Position()
		if _, ok := seen[p]; ok {
			return p, true
		}
		seen[p] = struct{}{}
	}
	return Position{}, false
}
