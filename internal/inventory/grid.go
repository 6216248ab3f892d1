// Package inventory holds the authoritative seat availability of every
// screening.  Each screening owns a Grid of Rows×SeatsPerRow cells; a
// claim checks and marks all requested cells under one write lock so a
// partial claim can never be observed.
package inventory

import (
	"sync"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// Grid is the seat grid of a single screening.  It is safe for
// concurrent use.
type Grid struct {
	mu          sync.RWMutex
	screeningID int
	rows        int
	cols        int
	cells       []model.SeatStatus
}

// NewGrid returns a fully available grid shaped like room.
func NewGrid(screeningID int, room model.Room) *Grid {
	cells := make([]model.SeatStatus, room.Rows*room.SeatsPerRow)
	for i := range cells {
		cells[i] = model.SeatAvailable
	}
	return &Grid{screeningID: screeningID, rows: room.Rows, cols: room.SeatsPerRow, cells: cells}
}

func (g *Grid) index(p model.Position) (int, error) {
	if p.Row < 1 || p.Row > g.rows || p.Number < 1 || p.Number > g.cols {
		return 0, &InvalidSeatPositionError{ScreeningID: g.screeningID, Position: p}
	}
	return (p.Row-1)*g.cols + (p.Number - 1), nil
}

// IsAvailable reports whether the seat is free.
func (g *Grid) IsAvailable(row, number int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	i, err := g.index(model.Position{Row: row, Number: number})
	if err != nil {
		return false, err
	}
	return g.cells[i] == model.SeatAvailable, nil
}

// Claim marks every seat in seats as occupied, or none of them.  Bounds
// are validated before anything is inspected; the first non-available
// seat in request order is reported as a *SeatUnavailableError.
func (g *Grid) Claim(seats []model.Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, err := g.indexes(seats)
	if err != nil {
		return err
	}
	for n, i := range idx {
		if g.cells[i] != model.SeatAvailable {
			return &SeatUnavailableError{ScreeningID: g.screeningID, Position: seats[n]}
		}
	}
	for _, i := range idx {
		g.cells[i] = model.SeatOccupied
	}
	return nil
}

// Release marks the seats available again.  Releasing a free seat is a
// no-op; an out-of-range seat fails the whole call without mutation.
func (g *Grid) Release(seats []model.Position) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, err := g.indexes(seats)
	if err != nil {
		return err
	}
	for _, i := range idx {
		g.cells[i] = model.SeatAvailable
	}
	return nil
}

func (g *Grid) indexes(seats []model.Position) ([]int, error) {
	idx := make([]int, 0, len(seats))
	for _, p := range seats {
		i, err := g.index(p)
		if err != nil {
			return nil, err
		}
		idx = append(idx, i)
	}
	return idx, nil
}

// Snapshot copies the grid under the read lock.
func (g *Grid) Snapshot() SeatMap {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := SeatMap{
		ScreeningID: g.screeningID,
		Rows:        g.rows,
		SeatsPerRow: g.cols,
		Available:   make([][]bool, g.rows),
		Statuses:    make([][]model.SeatStatus, g.rows),
	}
	for r := 0; r < g.rows; r++ {
		row := make([]bool, g.cols)
		statuses := append([]model.SeatStatus(nil), g.cells[r*g.cols:(r+1)*g.cols]...)
		for c, st := range statuses {
			if st == model.SeatAvailable {
				row[c] = true
				m.Free++
			}
		}
		m.Available[r] = row
		m.Statuses[r] = statuses
	}
	return m
}

// SeatMap is an immutable availability view of one screening.
// Available[r][c] is true when seat (r+1, c+1) is free.
type SeatMap struct {
	ScreeningID int                  `json:"screening_id"`
	Rows        int                  `json:"rows"`
	SeatsPerRow int                  `json:"seats_per_row"`
	Available   [][]bool             `json:"available"`
	Statuses    [][]model.SeatStatus `json:"statuses"`
	Free        int                  `json:"free"`
}

// IsAvailable reports availability of a 1-based position; positions
// outside the map are reported unavailable.
func (m SeatMap) IsAvailable(row, number int) bool {
	if row < 1 || row > m.Rows || number < 1 || number > m.SeatsPerRow {
		return false
	}
	return m.Available[row-1][number-1]
}
