package inventory

import (
	"fmt"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// Inventory maps screening IDs to their grids.  The set of grids is fixed
// at construction, so lookups need no lock; each grid guards itself.
type Inventory struct {
	grids map[int]*Grid
}

// New builds one grid per screening.  Every screening's room must be in
// rooms.
func New(screenings []model.Screening, rooms map[int]model.Room) (*Inventory, error) {
	inv := &Inventory{grids: make(map[int]*Grid, len(screenings))}
	for _, s := range screenings {
		room, ok := rooms[s.RoomID]
		if !ok {
			return nil, fmt.Errorf("screening %d: room %d not found", s.ID, s.RoomID)
		}
		inv.grids[s.ID] = NewGrid(s.ID, room)
	}
	return inv, nil
}

// Grid returns the grid of a screening.
func (inv *Inventory) Grid(screeningID int) (*Grid, error) {
	g, ok := inv.grids[screeningID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScreening, screeningID)
	}
	return g, nil
}

// IsAvailable reports whether a seat of a screening is free.
func (inv *Inventory) IsAvailable(screeningID, row, number int) (bool, error) {
	g, err := inv.Grid(screeningID)
	if err != nil {
		return false, err
	}
	return g.IsAvailable(row, number)
}

// Claim atomically claims seats of a screening.
func (inv *Inventory) Claim(screeningID int, seats []model.Position) error {
	g, err := inv.Grid(screeningID)
	if err != nil {
		return err
	}
	return g.Claim(seats)
}

// Release frees seats of a screening.
func (inv *Inventory) Release(screeningID int, seats []model.Position) error {
	g, err := inv.Grid(screeningID)
	if err != nil {
		return err
	}
	return g.Release(seats)
}

// Snapshot returns the seat map of a screening.
func (inv *Inventory) Snapshot(screeningID int) (SeatMap, error) {
	g, err := inv.Grid(screeningID)
	if err != nil {
		return SeatMap{}, err
	}
	return g.Snapshot(), nil
}
