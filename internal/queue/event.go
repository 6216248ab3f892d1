// Package queue defines the reservation events exchanged over RabbitMQ,
// the publisher used by the write-behind pipeline and the audit consumer.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

// EventType doubles as the routing key and queue name of an event.
type EventType string

const (
	ReservationConfirmed  EventType = "reservation.confirmed"
	ReservationCancelled  EventType = "reservation.cancelled"
	ReservationDivergence EventType = "reservation.divergence"
)

// EventTypes lists every queue the service declares.
var EventTypes = []EventType{ReservationConfirmed, ReservationCancelled, ReservationDivergence}

// ReservationEvent is published after a reservation changes state.  It
// carries enough for downstream consumers to log, notify or reconcile
// without querying the primary database.  Error is set only on
// divergence events and names the durable write that failed.
type ReservationEvent struct {
	Type          EventType `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ScreeningID   int       `json:"screening_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	SeatLabels    []string  `json:"seats"`
	TotalPrice    float64   `json:"total_price"`
	OccurredAt    string    `json:"occurred_at"`
	Error         string    `json:"error,omitempty"`
}

// NewReservationEvent builds an event of type t from a reservation
// snapshot.  Seat labels look like "R1-S4".
func NewReservationEvent(t EventType, r model.Reservation, at time.Time) ReservationEvent {
	labels := make([]string, 0, len(r.Seats))
	for _, s := range r.Seats {
		labels = append(labels, fmt.Sprintf("R%d-S%d", s.Row, s.Number))
	}
	return ReservationEvent{
		Type:          t,
		ReservationID: r.ID,
		ScreeningID:   r.ScreeningID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Status:        string(r.Status),
		SeatLabels:    labels,
		TotalPrice:    r.TotalPrice,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
