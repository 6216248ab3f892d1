package model

// Room is a screening hall.  Its dimensions define the shape of the seat
// grid of every screening held in it: Rows rows of SeatsPerRow seats,
// both numbered from 1.
type Room struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	SeatsPerRow int    `json:"seats_per_row"`
}

// Contains reports whether the 1-based position lies inside the room.
func (r Room) Contains(row, number int) bool {
	return row >= 1 && row <= r.Rows && number >= 1 && number <= r.SeatsPerRow
}

// Capacity is the total number of seats in the room.
func (r Room) Capacity() int { return r.Rows * r.SeatsPerRow }
