package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// ReservationRepo stores reservations and their seats.  All timestamps
// are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, screening_id, customer_name, customer_email, customer_phone, created_at, status, ticket_price, total_price`

// Insert writes a reservation and its seats in one transaction.  Writing
// the same reservation again only refreshes its status, so a replayed
// write is harmless.
func (r *ReservationRepo) Insert(ctx context.Context, res model.Reservation) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO reservations (` + reservationColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE status = VALUES(status)`
	if _, err = tx.ExecContext(ctx, q,
		res.ID, res.ScreeningID, res.CustomerName, res.CustomerEmail, res.CustomerPhone,
		res.CreatedAt.UTC(), string(res.Status), res.TicketPrice, res.TotalPrice,
	); err != nil {
		return fmt.Errorf("insert reservation %s: %w", res.ID, err)
	}
	if err = insertSeatsTx(ctx, tx, res.ID, res.Seats); err != nil {
		return fmt.Errorf("insert seats of %s: %w", res.ID, err)
	}
	return tx.Commit()
}

// insertSeatsTx writes all seats in a single statement.  Rows that
// already exist are kept.
func insertSeatsTx(ctx context.Context, tx *sql.Tx, id string, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO reserved_seats (reservation_id, ordinal, seat_row, seat_number) VALUES `)
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, id, i, s.Row, s.Number)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// UpdateStatus sets the status of a reservation.  ErrNotFound is returned
// when no such reservation exists.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the status was already set.
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE id = ?`, id).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetByID returns one reservation with its seats.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Reservation{}, err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT reservation_id, seat_row, seat_number FROM reserved_seats WHERE reservation_id = ? ORDER BY ordinal`, id)
	if err != nil {
		return model.Reservation{}, err
	}
	seats, err := scanSeats(rows)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Seats = seats[id]
	return res, nil
}

// ListAll returns every reservation with its seats, oldest first.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	seatRows, err := r.db.QueryContext(ctx, `SELECT reservation_id, seat_row, seat_number FROM reserved_seats ORDER BY reservation_id, ordinal`)
	if err != nil {
		return nil, err
	}
	seats, err := scanSeats(seatRows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Seats = seats[out[i].ID]
	}
	return out, nil
}

// Delete removes a reservation and its seats.  The engine never deletes
// reservations; this exists for operators cleaning up test data.
func (r *ReservationRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM reserved_seats WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("reservation %s: %w", id, ErrNotFound)
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(s scanner) (model.Reservation, error) {
	var (
		res    model.Reservation
		status string
	)
	if err := s.Scan(&res.ID, &res.ScreeningID, &res.CustomerName, &res.CustomerEmail, &res.CustomerPhone,
		&res.CreatedAt, &status, &res.TicketPrice, &res.TotalPrice); err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.ReservationStatus(status)
	return res, nil
}

// scanSeats groups seat rows by reservation ID and closes rows.  Seats
// read back carry the RESERVED status stamped on reservation snapshots.
func scanSeats(rows *sql.Rows) (map[string][]model.Seat, error) {
	defer rows.Close()
	out := make(map[string][]model.Seat)
	for rows.Next() {
		var (
			id string
			s  model.Seat
		)
		if err := rows.Scan(&id, &s.Row, &s.Number); err != nil {
			return nil, err
		}
		s.Status = model.SeatReserved
		out[id] = append(out[id], s)
	}
	return out, rows.Err()
}
