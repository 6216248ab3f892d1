package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// MovieRepo reads and writes the movies table.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo returns a MovieRepo bound to db.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and returns its ID.  A zero m.ID lets MySQL
// assign one.
func (r *MovieRepo) Create(ctx context.Context, m model.Movie) (int, error) {
	const q = `INSERT INTO movies (id, title, duration, description, genre, director, release_year, language)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.ID, m.Title, m.Duration, m.Description, m.Genre, m.Director, m.ReleaseYear, m.Language)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// ListAll returns every movie ordered by ID.
func (r *MovieRepo) ListAll(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT id, title, duration, description, genre, director, release_year, language FROM movies ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Movie
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.Duration, &m.Description, &m.Genre, &m.Director, &m.ReleaseYear, &m.Language); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID returns one movie.
func (r *MovieRepo) GetByID(ctx context.Context, id int) (model.Movie, error) {
	const q = `SELECT id, title, duration, description, genre, director, release_year, language FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.Duration, &m.Description, &m.Genre, &m.Director, &m.ReleaseYear, &m.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Movie{}, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	return m, err
}

// Update overwrites every column of movie m.ID.
func (r *MovieRepo) Update(ctx context.Context, m model.Movie) error {
	const q = `UPDATE movies SET title = ?, duration = ?, description = ?, genre = ?, director = ?, release_year = ?, language = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Duration, m.Description, m.Genre, m.Director, m.ReleaseYear, m.Language, m.ID)
	if err := matchedOne(res, err, "movie", m.ID); !errors.Is(err, ErrNotFound) {
		return err
	}
	// MySQL counts an update that changes nothing as zero rows.
	_, err = r.GetByID(ctx, m.ID)
	return err
}

// Delete removes a movie.  MySQL refuses while screenings reference it.
func (r *MovieRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	return matchedOne(res, err, "movie", id)
}

// Count returns the number of movies.
func (r *MovieRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n)
	return n, err
}

// RoomRepo reads and writes the rooms table.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to db.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// Create inserts a room and returns its ID.
func (r *RoomRepo) Create(ctx context.Context, room model.Room) (int, error) {
	const q = `INSERT INTO rooms (id, name, seat_rows, seats_per_row) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.ID, room.Name, room.Rows, room.SeatsPerRow)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// ListAll returns every room ordered by ID.
func (r *RoomRepo) ListAll(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT id, name, seat_rows, seats_per_row FROM rooms ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Rows, &room.SeatsPerRow); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// GetByID returns one room.
func (r *RoomRepo) GetByID(ctx context.Context, id int) (model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx, `SELECT id, name, seat_rows, seats_per_row FROM rooms WHERE id = ?`, id).
		Scan(&room.ID, &room.Name, &room.Rows, &room.SeatsPerRow)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Room{}, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	return room, err
}

// Update renames or resizes room.ID.  Seats already reserved outside the
// new bounds are reported when the engine restores them.
func (r *RoomRepo) Update(ctx context.Context, room model.Room) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET name = ?, seat_rows = ?, seats_per_row = ? WHERE id = ?`,
		room.Name, room.Rows, room.SeatsPerRow, room.ID)
	if err := matchedOne(res, err, "room", room.ID); !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = r.GetByID(ctx, room.ID)
	return err
}

// Delete removes a room.
func (r *RoomRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return matchedOne(res, err, "room", id)
}

// ScreeningRepo reads and writes the screenings table.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo returns a ScreeningRepo bound to db.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

// Create inserts a screening and returns its ID.
func (r *ScreeningRepo) Create(ctx context.Context, s model.Screening) (int, error) {
	const q = `INSERT INTO screenings (id, movie_id, room_id, starts_at, ticket_price) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ID, s.MovieID, s.RoomID, s.StartsAt.UTC(), s.TicketPrice)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// ListAll returns every screening ordered by start time.
func (r *ScreeningRepo) ListAll(ctx context.Context) ([]model.Screening, error) {
	const q = `SELECT id, movie_id, room_id, starts_at, ticket_price FROM screenings ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Screening
	for rows.Next() {
		var s model.Screening
		if err := rows.Scan(&s.ID, &s.MovieID, &s.RoomID, &s.StartsAt, &s.TicketPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns one screening.
func (r *ScreeningRepo) GetByID(ctx context.Context, id int) (model.Screening, error) {
	var s model.Screening
	err := r.db.QueryRowContext(ctx, `SELECT id, movie_id, room_id, starts_at, ticket_price FROM screenings WHERE id = ?`, id).
		Scan(&s.ID, &s.MovieID, &s.RoomID, &s.StartsAt, &s.TicketPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Screening{}, fmt.Errorf("screening %d: %w", id, ErrNotFound)
	}
	return s, err
}

// Update overwrites screening s.ID.  Reservations keep the ticket price
// they were sold at.
func (r *ScreeningRepo) Update(ctx context.Context, s model.Screening) error {
	const q = `UPDATE screenings SET movie_id = ?, room_id = ?, starts_at = ?, ticket_price = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.RoomID, s.StartsAt.UTC(), s.TicketPrice, s.ID)
	if err := matchedOne(res, err, "screening", s.ID); !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err = r.GetByID(ctx, s.ID)
	return err
}

// Delete removes a screening.
func (r *ScreeningRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM screenings WHERE id = ?`, id)
	return matchedOne(res, err, "screening", id)
}

// matchedOne turns a write that touched no row into ErrNotFound.
func matchedOne(res sql.Result, err error, what string, id int) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
