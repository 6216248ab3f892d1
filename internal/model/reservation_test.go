package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewReservationPrice(t *testing.T) {
	s := Screening{ID: 1, MovieID: 1, RoomID: 1, TicketPrice: 12.5}
	r, err := NewReservation("r1", s, []Seat{{Row: 1, Number: 1}, {Row: 1, Number: 2}}, "Ann", "ann@example.com", "555", time.Now())
	if err != nil {
		t.Fatalf("NewReservation() error = %v", err)
	}
	if r.Status != StatusPending {
		t.Errorf("Status = %v, want %v", r.Status, StatusPending)
	}
	if r.TotalPrice != 25.0 {
		t.Errorf("TotalPrice = %v, want %v", r.TotalPrice, 25.0)
	}
	for _, seat := range r.Seats {
		if seat.Status != SeatReserved {
			t.Errorf("seat %s status = %v, want %v", seat, seat.Status, SeatReserved)
		}
	}
}

func TestReservationPriceFollowsSeatList(t *testing.T) {
	s := Screening{ID: 1, TicketPrice: 10}
	r, err := NewReservation("r1", s, []Seat{{Row: 1, Number: 1}}, "Ann", "ann@example.com", "", time.Now())
	if err != nil {
		t.Fatalf("NewReservation() error = %v", err)
	}

	if err := r.AddSeat(Seat{Row: 2, Number: 2}); err != nil {
		t.Fatalf("AddSeat() error = %v", err)
	}
	if r.TotalPrice != 20 {
		t.Errorf("after AddSeat TotalPrice = %v, want 20", r.TotalPrice)
	}
	if err := r.AddSeat(Seat{Row: 2, Number: 2}); !errors.Is(err, ErrDuplicateSeat) {
		t.Errorf("AddSeat(duplicate) error = %v, want %v", err, ErrDuplicateSeat)
	}
	if !r.RemoveSeat(Position{Row: 1, Number: 1}) {
		t.Fatalf("RemoveSeat() = false, want true")
	}
	if r.TotalPrice != 10 {
		t.Errorf("after RemoveSeat TotalPrice = %v, want 10", r.TotalPrice)
	}
	if r.RemoveSeat(Position{Row: 9, Number: 9}) {
		t.Errorf("RemoveSeat(missing) = true, want false")
	}
	if err := r.SetSeats([]Seat{{Row: 1, Number: 1}, {Row: 1, Number: 2}, {Row: 1, Number: 3}}); err != nil {
		t.Fatalf("SetSeats() error = %v", err)
	}
	if r.TotalPrice != 30 {
		t.Errorf("after SetSeats TotalPrice = %v, want 30", r.TotalPrice)
	}
}

func TestNewReservationRejectsDuplicates(t *testing.T) {
	_, err := NewReservation("r1", Screening{ID: 1, TicketPrice: 1}, []Seat{{Row: 1, Number: 1}, {Row: 1, Number: 1}}, "A", "a@b.c", "", time.Now())
	if !errors.Is(err, ErrDuplicateSeat) {
		t.Errorf("error = %v, want %v", err, ErrDuplicateSeat)
	}
}

func TestReservationTransitions(t *testing.T) {
	r := &Reservation{ID: "r1", Status: StatusPending}
	if err := r.Confirm(); err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if err := r.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Confirm() error = %v, want %v", err, ErrInvalidTransition)
	}
	if err := r.Cancel(); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !r.IsCancelled() {
		t.Errorf("IsCancelled() = false, want true")
	}
	if err := r.Confirm(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Confirm() after cancel error = %v, want %v", err, ErrInvalidTransition)
	}
	if err := r.Cancel(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second Cancel() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestReservationCloneIsDeep(t *testing.T) {
	r := &Reservation{ID: "r1", Seats: []Seat{{Row: 1, Number: 1}}}
	c := r.Clone()
	c.Seats[0].Row = 5
	if r.Seats[0].Row != 1 {
		t.Errorf("Clone shares seat storage with original")
	}
}

func TestRoomContains(t *testing.T) {
	room := Room{ID: 1, Rows: 2, SeatsPerRow: 3}
	cases := []struct {
		row, number int
		want        bool
	}{
		{1, 1, true},
		{2, 3, true},
		{0, 1, false},
		{3, 1, false},
		{1, 0, false},
		{1, 4, false},
	}
	for _, tc := range cases {
		if got := room.Contains(tc.row, tc.number); got != tc.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tc.row, tc.number, got, tc.want)
		}
	}
}
