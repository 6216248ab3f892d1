package main

import (
	"testing"

	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
)

func TestParseSeats(t *testing.T) {
	got, err := parseSeats("1:4, 2:5,")
	if err != nil {
		t.Fatalf("parseSeats() error = %v", err)
	}
	want := []protocol.SeatRef{{Row: 1, Number: 4}, {Row: 2, Number: 5}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("parseSeats() = %v, want %v", got, want)
	}
	for _, bad := range []string{"", "1", "a:1", "1:b", ","} {
		if _, err := parseSeats(bad); err == nil {
			t.Errorf("parseSeats(%q) error = nil", bad)
		}
	}
}

func TestParseCommand(t *testing.T) {
	kind, payload, err := parseCommand([]string{"reserve", "3", "1:1,1:2", "Ann", "ann@example.com", "555"})
	if err != nil {
		t.Fatalf("parseCommand(reserve) error = %v", err)
	}
	p, ok := payload.(protocol.MakeReservationPayload)
	if kind != protocol.KindMakeReservation || !ok || p.ScreeningID != 3 || len(p.Seats) != 2 || p.CustomerEmail != "ann@example.com" {
		t.Errorf("parseCommand(reserve) = %v, %+v", kind, payload)
	}

	kind, payload, err = parseCommand([]string{"screenings"})
	if err != nil || kind != protocol.KindGetScreenings || payload != nil {
		t.Errorf("parseCommand(screenings) = %v, %v, %v", kind, payload, err)
	}
	kind, payload, err = parseCommand([]string{"seats", "7"})
	if err != nil || kind != protocol.KindGetSeats || payload != 7 {
		t.Errorf("parseCommand(seats 7) = %v, %v, %v", kind, payload, err)
	}
	kind, payload, err = parseCommand([]string{"cancel", "abc"})
	if err != nil || kind != protocol.KindCancelReservation || payload != "abc" {
		t.Errorf("parseCommand(cancel) = %v, %v, %v", kind, payload, err)
	}

	bad := [][]string{
		nil,
		{"dance"},
		{"movies", "extra"},
		{"seats"},
		{"seats", "x"},
		{"screenings", "x"},
		{"reserve", "1", "1:1"},
		{"cancel"},
		{"mine"},
	}
	for _, args := range bad {
		if _, _, err := parseCommand(args); err == nil {
			t.Errorf("parseCommand(%q) error = nil", args)
		}
	}
}
