package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

func reservation(id, email string, at time.Time) model.Reservation {
	return model.Reservation{
		ID:            id,
		ScreeningID:   1,
		Seats:         []model.Seat{{Row: 1, Number: 1, Status: model.SeatReserved}},
		CustomerEmail: email,
		CreatedAt:     at,
		Status:        model.StatusConfirmed,
		TicketPrice:   10,
		TotalPrice:    10,
	}
}

func TestInsertAndGet(t *testing.T) {
	l := New()
	r := reservation("a", "ann@example.com", time.Now())
	if err := l.Insert(r); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := l.Insert(r); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("second Insert() error = %v, want %v", err, ErrDuplicateID)
	}
	got, err := l.Get("a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Seats[0].Row = 9
	again, _ := l.Get("a")
	if again.Seats[0].Row != 1 {
		t.Errorf("Get() returned shared seat slice")
	}
	if _, err := l.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want %v", err, ErrNotFound)
	}
}

func TestFindByEmailOrder(t *testing.T) {
	l := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = l.Insert(reservation("late", "ann@example.com", base.Add(time.Minute)))
	_ = l.Insert(reservation("early", "Ann@Example.com ", base))
	_ = l.Insert(reservation("tie", "ann@example.com", base.Add(time.Minute)))
	_ = l.Insert(reservation("other", "bob@example.com", base))

	got := l.FindByEmail("ann@example.com")
	want := []string{"early", "late", "tie"}
	if len(got) != len(want) {
		t.Fatalf("len(FindByEmail()) = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("FindByEmail()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	none := l.FindByEmail("nobody@example.com")
	if none == nil || len(none) != 0 {
		t.Errorf("FindByEmail(unknown) = %#v, want empty non-nil slice", none)
	}
	if l.Len() != 4 || len(l.All()) != 4 {
		t.Errorf("Len() = %d, len(All()) = %d, want 4", l.Len(), len(l.All()))
	}
}

func TestCancelIsMonotonic(t *testing.T) {
	l := New()
	_ = l.Insert(reservation("a", "ann@example.com", time.Now()))
	got, err := l.Cancel("a")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got.Status != model.StatusCancelled {
		t.Errorf("Status = %v, want %v", got.Status, model.StatusCancelled)
	}
	if _, err := l.Cancel("a"); !errors.Is(err, ErrAlreadyCancelled) {
		t.Errorf("second Cancel() error = %v, want %v", err, ErrAlreadyCancelled)
	}
	if _, err := l.Cancel("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel(missing) error = %v, want %v", err, ErrNotFound)
	}
	if l.Len() != 1 {
		t.Errorf("cancelled reservation removed from ledger")
	}
}
