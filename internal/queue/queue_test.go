package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/logging"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
)

func sampleReservation() model.Reservation {
	return model.Reservation{
		ID:            "abc",
		ScreeningID:   3,
		Seats:         []model.Seat{{Row: 1, Number: 4}, {Row: 2, Number: 5}},
		CustomerName:  "Ann",
		CustomerEmail: "ann@example.com",
		Status:        model.StatusConfirmed,
		TicketPrice:   22,
		TotalPrice:    44,
	}
}

func TestNewReservationEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := NewReservationEvent(ReservationConfirmed, sampleReservation(), at)
	if ev.Type != ReservationConfirmed || ev.ReservationID != "abc" || ev.ScreeningID != 3 {
		t.Errorf("NewReservationEvent() = %+v", ev)
	}
	if got := strings.Join(ev.SeatLabels, ","); got != "R1-S4,R2-S5" {
		t.Errorf("SeatLabels = %q, want %q", got, "R1-S4,R2-S5")
	}
	if ev.OccurredAt != "2026-03-01T10:00:00Z" {
		t.Errorf("OccurredAt = %q", ev.OccurredAt)
	}
}

func TestFormatAuditLine(t *testing.T) {
	ev := NewReservationEvent(ReservationDivergence, sampleReservation(), time.Unix(0, 0))
	ev.Error = "db down"
	line := FormatAuditLine(ev)
	for _, want := range []string{"reservation.divergence", "reservation_id=abc", "total=44.00", "seats=[R1-S4,R2-S5]", `error="db down"`} {
		if !strings.Contains(line, want) {
			t.Errorf("FormatAuditLine() = %q, missing %q", line, want)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("FormatAuditLine() missing newline")
	}
}

func TestHandleMessageAppends(t *testing.T) {
	dir := t.TempDir()
	c := &AuditConsumer{LogPath: filepath.Join(dir, "logs", "reservations.log"), Logger: logging.Discard("queue")}
	body := []byte(`{"type":"reservation.cancelled","reservation_id":"abc","screening_id":1,"status":"CANCELLED"}`)
	for i := 0; i < 2; i++ {
		if err := c.handleMessage(body); err != nil {
			t.Fatalf("handleMessage() error = %v", err)
		}
	}
	data, err := os.ReadFile(c.LogPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if n := strings.Count(string(data), "reservation.cancelled"); n != 2 {
		t.Errorf("log has %d lines, want 2", n)
	}
	if err := c.handleMessage([]byte("{not json")); err == nil {
		t.Errorf("handleMessage(bad json) error = nil")
	}
}
