package inventory

import (
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

func pos(row, number int) model.Position { return model.Position{Row: row, Number: number} }

func TestGridClaimAllOrNothing(t *testing.T) {
	g := NewGrid(1, model.Room{ID: 1, Rows: 2, SeatsPerRow: 2})
	if err := g.Claim([]model.Position{pos(1, 2)}); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	err := g.Claim([]model.Position{pos(1, 1), pos(1, 2), pos(2, 1)})
	var su *SeatUnavailableError
	if !errors.As(err, &su) {
		t.Fatalf("Claim() error = %v, want *SeatUnavailableError", err)
	}
	if su.Position != pos(1, 2) {
		t.Errorf("conflict position = %v, want %v", su.Position, pos(1, 2))
	}
	if !errors.Is(err, ErrSeatUnavailable) {
		t.Errorf("errors.Is(err, ErrSeatUnavailable) = false")
	}
	for _, p := range []model.Position{pos(1, 1), pos(2, 1)} {
		if ok, _ := g.IsAvailable(p.Row, p.Number); !ok {
			t.Errorf("seat %s claimed by failed Claim", p)
		}
	}
}

func TestGridBoundsValidation(t *testing.T) {
	g := NewGrid(1, model.Room{ID: 1, Rows: 2, SeatsPerRow: 2})
	cases := []model.Position{pos(0, 1), pos(3, 1), pos(1, 0), pos(1, 3)}
	for _, p := range cases {
		err := g.Claim([]model.Position{pos(1, 1), p})
		if !errors.Is(err, ErrInvalidSeatPosition) {
			t.Errorf("Claim(%s) error = %v, want %v", p, err, ErrInvalidSeatPosition)
		}
		if _, err := g.IsAvailable(p.Row, p.Number); !errors.Is(err, ErrInvalidSeatPosition) {
			t.Errorf("IsAvailable(%s) error = %v, want %v", p, err, ErrInvalidSeatPosition)
		}
	}
	if m := g.Snapshot(); m.Free != 4 {
		t.Errorf("Free = %d after invalid claims, want 4", m.Free)
	}
	if err := g.Release([]model.Position{pos(5, 5)}); !errors.Is(err, ErrInvalidSeatPosition) {
		t.Errorf("Release() error = %v, want %v", err, ErrInvalidSeatPosition)
	}
}

func TestGridRelease(t *testing.T) {
	g := NewGrid(1, model.Room{ID: 1, Rows: 1, SeatsPerRow: 3})
	seats := []model.Position{pos(1, 1), pos(1, 3)}
	if err := g.Claim(seats); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if err := g.Release(seats); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := g.Release(seats); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
	m := g.Snapshot()
	if m.Free != 3 {
		t.Errorf("Free = %d, want 3", m.Free)
	}
	if err := g.Claim(seats); err != nil {
		t.Errorf("re-Claim() error = %v", err)
	}
}

func TestGridConcurrentClaimSingleWinner(t *testing.T) {
	g := NewGrid(1, model.Room{ID: 1, Rows: 2, SeatsPerRow: 2})
	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Claim([]model.Position{pos(1, 1)}); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, ErrSeatUnavailable) {
				t.Errorf("Claim() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
}

func TestSnapshotShape(t *testing.T) {
	g := NewGrid(7, model.Room{ID: 1, Rows: 2, SeatsPerRow: 3})
	_ = g.Claim([]model.Position{pos(2, 3)})
	m := g.Snapshot()
	if m.ScreeningID != 7 || m.Rows != 2 || m.SeatsPerRow != 3 {
		t.Fatalf("Snapshot() = %+v", m)
	}
	if m.IsAvailable(2, 3) {
		t.Errorf("IsAvailable(2,3) = true, want false")
	}
	if !m.IsAvailable(1, 1) {
		t.Errorf("IsAvailable(1,1) = false, want true")
	}
	if m.IsAvailable(3, 1) {
		t.Errorf("IsAvailable(3,1) out of range = true")
	}
	m.Available[0][0] = false
	if ok, _ := g.IsAvailable(1, 1); !ok {
		t.Errorf("mutating snapshot changed grid")
	}
}

func TestInventoryUnknownScreening(t *testing.T) {
	inv, err := New([]model.Screening{{ID: 1, RoomID: 1}}, map[int]model.Room{1: {ID: 1, Rows: 1, SeatsPerRow: 1}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := inv.Snapshot(2); !errors.Is(err, ErrUnknownScreening) {
		t.Errorf("Snapshot(2) error = %v, want %v", err, ErrUnknownScreening)
	}
	if err := inv.Claim(1, []model.Position{pos(1, 1)}); err != nil {
		t.Errorf("Claim() error = %v", err)
	}
	if ok, err := inv.IsAvailable(1, 1, 1); err != nil || ok {
		t.Errorf("IsAvailable() = %v, %v; want false, nil", ok, err)
	}
	if _, err := New([]model.Screening{{ID: 1, RoomID: 9}}, map[int]model.Room{}); err == nil {
		t.Errorf("New() with missing room error = nil")
	}
}

func TestSnapshotStatuses(t *testing.T) {
	g := NewGrid(1, model.Room{ID: 1, Rows: 1, SeatsPerRow: 2})
	_ = g.Claim([]model.Position{pos(1, 2)})
	m := g.Snapshot()
	if m.Statuses[0][0] != model.SeatAvailable || m.Statuses[0][1] != model.SeatOccupied {
		t.Errorf("Statuses = %v", m.Statuses)
	}
}
