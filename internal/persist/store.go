// Package persist hands committed reservation changes to the durable
// store without blocking the request path.  The in-memory engine is the
// source of truth; the store is a write-behind copy that a reconciler
// keeps converging after failures.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// ErrNotFound is returned by a Store when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the durable collaborator.  internal/repository provides the
// MySQL implementation.
type Store interface {
	ReservationStore

	FindReservationByID(ctx context.Context, id string) (model.Reservation, error)
	FindAllReservations(ctx context.Context) ([]model.Reservation, error)

	InsertMovie(ctx context.Context, m model.Movie) (int, error)
	FindAllMovies(ctx context.Context) ([]model.Movie, error)
	InsertRoom(ctx context.Context, r model.Room) (int, error)
	FindAllRooms(ctx context.Context) ([]model.Room, error)
	InsertScreening(ctx context.Context, s model.Screening) (int, error)
	FindAllScreenings(ctx context.Context) ([]model.Screening, error)
}

// ReservationStore is the subset of Store the write-behind queue uses.
type ReservationStore interface {
	InsertReservation(ctx context.Context, r model.Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error
}

// OpKind names a durable write.
type OpKind string

const (
	OpInsertReservation OpKind = "insert_reservation"
	OpUpdateStatus      OpKind = "update_status"
)

// Op is one pending durable write.  Reservation is a snapshot taken when
// the change committed in memory.
type Op struct {
	Kind        OpKind            `json:"kind"`
	Reservation model.Reservation `json:"reservation"`
}

// PersistenceError reports a durable write that exhausted its retries.
type PersistenceError struct {
	Op       Op
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s after %d attempts: %v", e.Op.Kind, e.Op.Reservation.ID, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Snapshot is everything loaded from the store at startup.
type Snapshot struct {
	Movies       []model.Movie
	Rooms        []model.Room
	Screenings   []model.Screening
	Reservations []model.Reservation
}

// Load reads the catalog and every reservation from s.
func Load(ctx context.Context, s Store) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Movies, err = s.FindAllMovies(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load movies: %w", err)
	}
	if snap.Rooms, err = s.FindAllRooms(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load rooms: %w", err)
	}
	if snap.Screenings, err = s.FindAllScreenings(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load screenings: %w", err)
	}
	if snap.Reservations, err = s.FindAllReservations(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("load reservations: %w", err)
	}
	return snap, nil
}

func apply(ctx context.Context, s ReservationStore, op Op) error {
	switch op.Kind {
	case OpInsertReservation:
		return s.InsertReservation(ctx, op.Reservation)
	case OpUpdateStatus:
		return s.UpdateReservationStatus(ctx, op.Reservation.ID, op.Reservation.Status)
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
}
