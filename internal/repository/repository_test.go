package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return NewStore(db), mock
}

var created = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func sampleReservation() model.Reservation {
	return model.Reservation{
		ID:            "r1",
		ScreeningID:   1,
		Seats:         []model.Seat{{Row: 1, Number: 2, Status: model.SeatReserved}, {Row: 1, Number: 3, Status: model.SeatReserved}},
		CustomerName:  "Ann",
		CustomerEmail: "ann@example.com",
		CustomerPhone: "555",
		CreatedAt:     created,
		Status:        model.StatusConfirmed,
		TicketPrice:   25,
		TotalPrice:    50,
	}
}

func TestInsertReservation(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).
		WithArgs("r1", 1, "Ann", "ann@example.com", "555", created, "CONFIRMED", 25.0, 50.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO reserved_seats")).
		WithArgs("r1", 0, 1, 2, "r1", 1, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := s.InsertReservation(context.Background(), sampleReservation()); err != nil {
		t.Fatalf("InsertReservation() error = %v", err)
	}
}

func TestInsertReservationRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reservations")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO reserved_seats")).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	if err := s.InsertReservation(context.Background(), sampleReservation()); err == nil {
		t.Fatalf("InsertReservation() error = nil, want failure")
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		count    int
		want     error
	}{
		{"updated", 1, -1, nil},
		{"unchanged", 0, 1, nil},
		{"missing", 0, 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE reservations SET status = ? WHERE id = ?")).
				WithArgs("CANCELLED", "r1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.count >= 0 {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reservations WHERE id = ?")).
					WithArgs("r1").
					WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(tt.count))
			}
			err := s.UpdateReservationStatus(context.Background(), "r1", model.StatusCancelled)
			if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
				t.Errorf("UpdateReservationStatus() error = %v, want %v", err, tt.want)
			}
		})
	}
}

var reservationCols = []string{"id", "screening_id", "customer_name", "customer_email", "customer_phone", "created_at", "status", "ticket_price", "total_price"}

func TestFindAllReservations(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations ORDER BY created_at, id")).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow("r1", 1, "Ann", "ann@example.com", "555", created, "CONFIRMED", 25.0, 50.0).
			AddRow("r2", 3, "Bob", "bob@example.com", "556", created.Add(time.Minute), "CANCELLED", 22.0, 22.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reserved_seats ORDER BY reservation_id, ordinal")).
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "seat_row", "seat_number"}).
			AddRow("r1", 1, 2).
			AddRow("r1", 1, 3).
			AddRow("r2", 4, 4))

	got, err := s.FindAllReservations(context.Background())
	if err != nil {
		t.Fatalf("FindAllReservations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "r1" || len(got[0].Seats) != 2 || got[0].Seats[1].Number != 3 || got[0].Status != model.StatusConfirmed {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Status != model.StatusCancelled || len(got[1].Seats) != 1 || got[1].Seats[0].Status != model.SeatReserved {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestFindReservationByID(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow("r1", 1, "Ann", "ann@example.com", "555", created, "CONFIRMED", 25.0, 50.0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reserved_seats WHERE reservation_id = ?")).
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"reservation_id", "seat_row", "seat_number"}).AddRow("r1", 1, 2))

	r, err := s.FindReservationByID(context.Background(), "r1")
	if err != nil {
		t.Fatalf("FindReservationByID() error = %v", err)
	}
	if r.TotalPrice != 50 || len(r.Seats) != 1 || !r.CreatedAt.Equal(created) {
		t.Errorf("FindReservationByID() = %+v", r)
	}

	mock.ExpectQuery(regexp.QuoteMeta("FROM reservations WHERE id = ?")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(reservationCols))
	if _, err := s.FindReservationByID(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindReservationByID(nope) error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteReservation(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reserved_seats")).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations")).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	if err := s.DeleteReservation(context.Background(), "r1"); err != nil {
		t.Fatalf("DeleteReservation() error = %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reserved_seats")).WithArgs("r9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reservations")).WithArgs("r9").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	if err := s.DeleteReservation(context.Background(), "r9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteReservation(r9) error = %v, want %v", err, ErrNotFound)
	}
}

func TestCatalogRepos(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies")).WillReturnResult(sqlmock.NewResult(7, 1))
	if id, err := s.InsertMovie(ctx, model.Movie{Title: "Heat"}); err != nil || id != 7 {
		t.Errorf("InsertMovie() = %d, %v", id, err)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "seat_rows", "seats_per_row"}).AddRow(1, "Sala 1", 10, 15))
	rooms, err := s.FindAllRooms(ctx)
	if err != nil || len(rooms) != 1 || rooms[0].Capacity() != 150 {
		t.Errorf("FindAllRooms() = %+v, %v", rooms, err)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM screenings ORDER BY starts_at, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "room_id", "starts_at", "ticket_price"}).AddRow(1, 1, 1, created, 25.0))
	screenings, err := s.FindAllScreenings(ctx)
	if err != nil || len(screenings) != 1 || screenings[0].TicketPrice != 25 {
		t.Errorf("FindAllScreenings() = %+v, %v", screenings, err)
	}
}

func TestCatalogLookupsByID(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM movies WHERE id = ?")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "duration", "description", "genre", "director", "release_year", "language"}).
			AddRow(2, "Heat", 170, "", "Crime", "Michael Mann", 1995, "English"))
	if m, err := s.FindMovieByID(ctx, 2); err != nil || m.Title != "Heat" || m.Duration != 170 {
		t.Errorf("FindMovieByID(2) = %+v, %v", m, err)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = ?")).WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "seat_rows", "seats_per_row"}))
	if _, err := s.FindRoomByID(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindRoomByID(9) error = %v, want %v", err, ErrNotFound)
	}
	mock.ExpectQuery(regexp.QuoteMeta("FROM screenings WHERE id = ?")).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_id", "room_id", "starts_at", "ticket_price"}).AddRow(1, 1, 2, created, 22.0))
	if sc, err := s.FindScreeningByID(ctx, 1); err != nil || sc.RoomID != 2 || !sc.StartsAt.Equal(created) {
		t.Errorf("FindScreeningByID(1) = %+v, %v", sc, err)
	}
}

func TestCatalogUpdate(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		rows     int
		want     error
	}{
		{"changed", 1, 0, nil},
		{"unchanged", 0, 1, nil},
		{"missing", 0, 0, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE rooms SET name = ?, seat_rows = ?, seats_per_row = ? WHERE id = ?")).
				WithArgs("Sala 3", 5, 6, 3).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.affected == 0 {
				rows := sqlmock.NewRows([]string{"id", "name", "seat_rows", "seats_per_row"})
				for i := 0; i < tt.rows; i++ {
					rows.AddRow(3, "Sala 3", 5, 6)
				}
				mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE id = ?")).WithArgs(3).WillReturnRows(rows)
			}
			err := s.Rooms.Update(context.Background(), model.Room{ID: 3, Name: "Sala 3", Rows: 5, SeatsPerRow: 6})
			if !errors.Is(err, tt.want) {
				t.Errorf("Update() error = %v, want %v", err, tt.want)
			}
		})
	}

	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE screenings SET")).
		WithArgs(1, 2, created, 30.0, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.Screenings.Update(context.Background(), model.Screening{ID: 4, MovieID: 1, RoomID: 2, StartsAt: created, TicketPrice: 30}); err != nil {
		t.Errorf("Screenings.Update() error = %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE movies SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.Movies.Update(context.Background(), model.Movie{ID: 1, Title: "Inception"}); err != nil {
		t.Errorf("Movies.Update() error = %v", err)
	}
}

func TestCatalogDelete(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM screenings WHERE id = ?")).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.Screenings.Delete(ctx, 3); err != nil {
		t.Errorf("Screenings.Delete(3) error = %v", err)
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM movies WHERE id = ?")).WithArgs(8).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.Movies.Delete(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("Movies.Delete(8) error = %v, want %v", err, ErrNotFound)
	}
	fk := errors.New("foreign key constraint fails")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM rooms WHERE id = ?")).WithArgs(1).WillReturnError(fk)
	if err := s.Rooms.Delete(ctx, 1); !errors.Is(err, fk) {
		t.Errorf("Rooms.Delete(1) error = %v, want %v", err, fk)
	}
}

func TestSeed(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies")).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
	if seeded, err := s.Seed(ctx, created); err != nil || seeded {
		t.Errorf("Seed() on populated db = %v, %v", seeded, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM movies")).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO movies")).WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	for i := 0; i < 2; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO screenings")).WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()
	if seeded, err := s.Seed(ctx, created); err != nil || !seeded {
		t.Errorf("Seed() on empty db = %v, %v", seeded, err)
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, table := range []string{"movies", "rooms", "screenings", "reservations", "reserved_seats"} {
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS " + table + " (")).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
