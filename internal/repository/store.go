package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/catalog"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
	"github.com/iliyamo/cinema-udp-reservation/internal/persist"
)

// Store bundles the repos into the durable store used by the engine's
// write-behind queue and by startup loading.
type Store struct {
	db           *sql.DB
	Movies       *MovieRepo
	Rooms        *RoomRepo
	Screenings   *ScreeningRepo
	Reservations *ReservationRepo
}

var _ persist.Store = (*Store)(nil)

// NewStore returns a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		Movies:       NewMovieRepo(db),
		Rooms:        NewRoomRepo(db),
		Screenings:   NewScreeningRepo(db),
		Reservations: NewReservationRepo(db),
	}
}

func (s *Store) InsertReservation(ctx context.Context, r model.Reservation) error {
	return s.Reservations.Insert(ctx, r)
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	return s.Reservations.UpdateStatus(ctx, id, status)
}

func (s *Store) FindReservationByID(ctx context.Context, id string) (model.Reservation, error) {
	return s.Reservations.GetByID(ctx, id)
}

func (s *Store) FindAllReservations(ctx context.Context) ([]model.Reservation, error) {
	return s.Reservations.ListAll(ctx)
}

// DeleteReservation removes a reservation for good.  Only ops tooling
// calls it.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	return s.Reservations.Delete(ctx, id)
}

func (s *Store) InsertMovie(ctx context.Context, m model.Movie) (int, error) {
	return s.Movies.Create(ctx, m)
}

func (s *Store) FindAllMovies(ctx context.Context) ([]model.Movie, error) {
	return s.Movies.ListAll(ctx)
}

func (s *Store) FindMovieByID(ctx context.Context, id int) (model.Movie, error) {
	return s.Movies.GetByID(ctx, id)
}

func (s *Store) InsertRoom(ctx context.Context, r model.Room) (int, error) {
	return s.Rooms.Create(ctx, r)
}

func (s *Store) FindAllRooms(ctx context.Context) ([]model.Room, error) {
	return s.Rooms.ListAll(ctx)
}

func (s *Store) FindRoomByID(ctx context.Context, id int) (model.Room, error) {
	return s.Rooms.GetByID(ctx, id)
}

func (s *Store) InsertScreening(ctx context.Context, sc model.Screening) (int, error) {
	return s.Screenings.Create(ctx, sc)
}

func (s *Store) FindAllScreenings(ctx context.Context) ([]model.Screening, error) {
	return s.Screenings.ListAll(ctx)
}

func (s *Store) FindScreeningByID(ctx context.Context, id int) (model.Screening, error) {
	return s.Screenings.GetByID(ctx, id)
}

// Seed inserts the demo catalog when the movies table is empty and
// reports whether it did.  The whole catalog goes in one transaction so
// a failed seed leaves nothing behind.
func (s *Store) Seed(ctx context.Context, now time.Time) (seeded bool, err error) {
	n, err := s.Movies.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count movies: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	movies, rooms, screenings := catalog.Demo(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, m := range movies {
		if _, err = tx.ExecContext(ctx, `INSERT INTO movies (id, title, duration, description, genre, director, release_year, language) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Title, m.Duration, m.Description, m.Genre, m.Director, m.ReleaseYear, m.Language); err != nil {
			return false, fmt.Errorf("seed movie %d: %w", m.ID, err)
		}
	}
	for _, r := range rooms {
		if _, err = tx.ExecContext(ctx, `INSERT INTO rooms (id, name, seat_rows, seats_per_row) VALUES (?, ?, ?, ?)`,
			r.ID, r.Name, r.Rows, r.SeatsPerRow); err != nil {
			return false, fmt.Errorf("seed room %d: %w", r.ID, err)
		}
	}
	for _, sc := range screenings {
		if _, err = tx.ExecContext(ctx, `INSERT INTO screenings (id, movie_id, room_id, starts_at, ticket_price) VALUES (?, ?, ?, ?, ?)`,
			sc.ID, sc.MovieID, sc.RoomID, sc.StartsAt.UTC(), sc.TicketPrice); err != nil {
			return false, fmt.Errorf("seed screening %d: %w", sc.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
