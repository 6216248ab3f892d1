package model

import (
	"errors"
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.  Transitions
// are monotonic: PENDING -> CONFIRMED -> CANCELLED.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

var (
	// ErrInvalidTransition is returned when a status change would move a
	// reservation backwards in its lifecycle.
	ErrInvalidTransition = errors.New("invalid reservation status transition")
	// ErrDuplicateSeat is returned when a seat list names a position twice.
	ErrDuplicateSeat = errors.New("duplicate seat")
)

// Reservation is a customer's claim on a set of seats for one screening.
//
// Fields:
//  ID            – opaque, globally unique identifier; never changes.
//  ScreeningID   – screening the seats belong to.
//  Seats         – ordered seat snapshots, no duplicates.
//  CustomerName  – name given by the customer.
//  CustomerEmail – email used for lookups.
//  CustomerPhone – contact phone number.
//  CreatedAt     – creation timestamp, used for ordering.
//  Status        – PENDING, CONFIRMED or CANCELLED.
//  TicketPrice   – per-seat price copied from the screening.
//  TotalPrice    – TicketPrice × len(Seats), recomputed on every seat change.
type Reservation struct {
	ID            string            `json:"id"`
	ScreeningID   int               `json:"screening_id"`
	Seats         []Seat            `json:"seats"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	CreatedAt     time.Time         `json:"created_at"`
	Status        ReservationStatus `json:"status"`
	TicketPrice   float64           `json:"ticket_price"`
	TotalPrice    float64           `json:"total_price"`
}

// NewReservation builds a PENDING reservation for the screening.  The
// seats are copied and stamped RESERVED.
func NewReservation(id string, s Screening, seats []Seat, name, email, phone string, now time.Time) (*Reservation, error) {
	r := &Reservation{
		ID:            id,
		ScreeningID:   s.ID,
		CustomerName:  name,
		CustomerEmail: email,
		CustomerPhone: phone,
		CreatedAt:     now,
		Status:        StatusPending,
		TicketPrice:   s.TicketPrice,
	}
	if err := r.SetSeats(seats); err != nil {
		return nil, err
	}
	return r, nil
}

// SetSeats replaces the seat list and recomputes the total price.
func (r *Reservation) SetSeats(seats []Seat) error {
	if p, dup := DuplicatePosition(seats); dup {
		return fmt.Errorf("%w: %s", ErrDuplicateSeat, p)
	}
	r.Seats = make([]Seat, 0, len(seats))
	for _, s := range seats {
		r.Seats = append(r.Seats, Seat{Row: s.Row, Number: s.Number, Status: SeatReserved})
	}
	r.recalculate()
	return nil
}

// AddSeat appends a seat and recomputes the total price.
func (r *Reservation) AddSeat(s Seat) error {
	for _, have := range r.Seats {
		if have.Position() == s.Position() {
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, s)
		}
	}
	r.Seats = append(r.Seats, Seat{Row: s.Row, Number: s.Number, Status: SeatReserved})
	r.recalculate()
	return nil
}

// RemoveSeat drops the seat at p, reporting whether it was present.
func (r *Reservation) RemoveSeat(p Position) bool {
	for i, have := range r.Seats {
		if have.Position() == p {
			r.Seats = append(r.Seats[:i], r.Seats[i+1:]...)
			r.recalculate()
			return true
		}
	}
	return false
}

func (r *Reservation) recalculate() {
	r.TotalPrice = r.TicketPrice * float64(len(r.Seats))
}

// Confirm moves a PENDING reservation to CONFIRMED.
func (r *Reservation) Confirm() error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusConfirmed)
	}
	r.Status = StatusConfirmed
	return nil
}

// Cancel moves a reservation to CANCELLED.  Cancelling twice is an
// invalid transition; callers that need idempotent cancellation check
// IsCancelled first.
func (r *Reservation) Cancel() error {
	if r.Status == StatusCancelled {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusCancelled)
	}
	r.Status = StatusCancelled
	return nil
}

// IsCancelled reports whether the reservation has been cancelled.
func (r *Reservation) IsCancelled() bool { return r.Status == StatusCancelled }

// Clone returns a deep copy safe to hand out of a lock.
func (r *Reservation) Clone() Reservation {
	c := *r
	c.Seats = append([]Seat(nil), r.Seats...)
	return c
}
