// Package ledger records every reservation ever made, indexed by ID and by
// customer email.  Reservations are never removed; cancellation is a
// status change.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

var (
	ErrNotFound         = errors.New("reservation not found")
	ErrDuplicateID      = errors.New("reservation id already exists")
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
)

// Ledger is safe for concurrent use.  It stores private copies; callers
// always receive clones.
type Ledger struct {
	mu      sync.RWMutex
	byID    map[string]*model.Reservation
	byEmail map[string][]string
	seq     map[string]uint64
	next    uint64
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		byID:    make(map[string]*model.Reservation),
		byEmail: make(map[string][]string),
		seq:     make(map[string]uint64),
	}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Insert adds a reservation.  The ID must be new.
func (l *Ledger) Insert(r model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.byID[r.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}
	c := r.Clone()
	l.byID[r.ID] = &c
	k := emailKey(r.CustomerEmail)
	l.byEmail[k] = append(l.byEmail[k], r.ID)
	l.next++
	l.seq[r.ID] = l.next
	return nil
}

// Get returns a copy of the reservation with the given ID.
func (l *Ledger) Get(id string) (model.Reservation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.byID[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return r.Clone(), nil
}

// Cancel moves a reservation to CANCELLED and returns the updated copy.
// A reservation that is already cancelled is left untouched and
// ErrAlreadyCancelled is returned.
func (l *Ledger) Cancel(id string) (model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.byID[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	if r.IsCancelled() {
		return r.Clone(), ErrAlreadyCancelled
	}
	if err := r.Cancel(); err != nil {
		return model.Reservation{}, err
	}
	return r.Clone(), nil
}

// FindByEmail lists the reservations of a customer in creation order.
// An unknown email yields an empty, non-nil slice.
func (l *Ledger) FindByEmail(email string) []model.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.byEmail[emailKey(email)]
	out := make([]model.Reservation, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.byID[id].Clone())
	}
	l.sortLocked(out)
	return out
}

// All lists every reservation in creation order.
func (l *Ledger) All() []model.Reservation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Reservation, 0, len(l.byID))
	for _, r := range l.byID {
		out = append(out, r.Clone())
	}
	l.sortLocked(out)
	return out
}

// Len is the number of reservations recorded.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// sortLocked orders by creation time, breaking ties by insertion order.
func (l *Ledger) sortLocked(rs []model.Reservation) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return l.seq[a.ID] < l.seq[b.ID]
	})
}
