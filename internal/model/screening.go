package model

import "time"

// Screening is a scheduled showing of one movie in one room.  It holds
// references by ID only; the live seat grid for a screening is owned by
// the inventory package and never embedded here.
//
// Fields:
//  ID          – catalog identifier, also the unit of inventory locking.
//  MovieID     – movie being shown.
//  RoomID      – room hosting the screening.
//  StartsAt    – scheduled start time.
//  TicketPrice – price of a single seat.
type Screening struct {
	ID          int       `json:"id"`
	MovieID     int       `json:"movie_id"`
	RoomID      int       `json:"room_id"`
	StartsAt    time.Time `json:"starts_at"`
	TicketPrice float64   `json:"ticket_price"`
}
