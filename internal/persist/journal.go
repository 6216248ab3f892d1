package persist

import (
	"sync"
	"time"
)

// Divergence is a durable write that has not reached the store yet.
type Divergence struct {
	Seq         uint64    `json:"seq"`
	Op          Op        `json:"op"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error"`
	FirstFailed time.Time `json:"first_failed_at"`
	LastFailed  time.Time `json:"last_failed_at"`
}

// Journal keeps divergences in the order they happened.  Writes for the
// same reservation must reach the store in that order.
type Journal struct {
	mu      sync.Mutex
	entries []Divergence
	next    uint64
}

// NewJournal returns an empty journal.
func NewJournal() *Journal { return &Journal{} }

// Add records a failed write.
func (j *Journal) Add(op Op, attempts int, err error, at time.Time) Divergence {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.next++
	d := Divergence{
		Seq:         j.next,
		Op:          op,
		Attempts:    attempts,
		LastError:   err.Error(),
		FirstFailed: at,
		LastFailed:  at,
	}
	j.entries = append(j.entries, d)
	return d
}

// Pending reports whether any write for the reservation is journaled.
func (j *Journal) Pending(reservationID string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, d := range j.entries {
		if d.Op.Reservation.ID == reservationID {
			return true
		}
	}
	return false
}

// Entries returns a copy in journal order.
func (j *Journal) Entries() []Divergence {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Divergence(nil), j.entries...)
}

// Len is the number of outstanding divergences.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

func (j *Journal) remove(seq uint64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, d := range j.entries {
		if d.Seq == seq {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			return
		}
	}
}

func (j *Journal) markFailed(seq uint64, err error, at time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].Seq == seq {
			j.entries[i].Attempts++
			j.entries[i].LastError = err.Error()
			j.entries[i].LastFailed = at
			return
		}
	}
}
