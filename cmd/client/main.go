// Command client talks to the reservation server over UDP and prints
// each response payload as JSON.
//
//	client [-addr host:port] movies
//	client screenings [movieID]
//	client seats <screeningID>
//	client reserve <screeningID> <row:seat,...> <name> <email> <phone>
//	client cancel <reservationID>
//	client mine <email>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
	"github.com/iliyamo/cinema-udp-reservation/internal/transport"
)

const usage = `usage: client [flags] <command> [args]

commands:
  movies
  screenings [movieID]
  seats <screeningID>
  reserve <screeningID> <row:seat,...> <name> <email> <phone>
  cancel <reservationID>
  mine <email>

flags:
`

func main() {
	addr := flag.String("addr", envOr("CINEMA_ADDR", "localhost:9876"), "server host:port")
	timeout := flag.Duration("timeout", 5*time.Second, "wait per attempt")
	attempts := flag.Int("attempts", 3, "sends per request")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	kind, payload, err := parseCommand(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	c, err := transport.Dial(*addr, *timeout, *attempts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer c.Close()

	var out json.RawMessage
	err = c.Call(context.Background(), kind, payload, &out)
	var se *transport.StatusError
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(os.Stderr, "error: %s\n", se.Message)
		os.Exit(1)
	case errors.Is(err, transport.ErrNoResponse):
		fmt.Fprintf(os.Stderr, "server %s did not answer: %v\n", *addr, err)
		os.Exit(1)
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := printJSON(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// parseCommand turns command-line arguments into a request kind and
// its payload.
func parseCommand(args []string) (protocol.Kind, any, error) {
	if len(args) == 0 {
		return "", nil, errors.New("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "movies":
		return protocol.KindGetMovies, nil, expect(cmd, rest, 0)
	case "screenings":
		if len(rest) == 0 {
			return protocol.KindGetScreenings, nil, nil
		}
		if err := expect(cmd, rest, 1); err != nil {
			return "", nil, err
		}
		id, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("movie id %q is not a number", rest[0])
		}
		return protocol.KindGetScreenings, id, nil
	case "seats":
		if err := expect(cmd, rest, 1); err != nil {
			return "", nil, err
		}
		id, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("screening id %q is not a number", rest[0])
		}
		return protocol.KindGetSeats, id, nil
	case "reserve":
		if err := expect(cmd, rest, 5); err != nil {
			return "", nil, err
		}
		id, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", nil, fmt.Errorf("screening id %q is not a number", rest[0])
		}
		seats, err := parseSeats(rest[1])
		if err != nil {
			return "", nil, err
		}
		return protocol.KindMakeReservation, protocol.MakeReservationPayload{
			ScreeningID:   id,
			Seats:         seats,
			CustomerName:  rest[2],
			CustomerEmail: rest[3],
			CustomerPhone: rest[4],
		}, nil
	case "cancel":
		return protocol.KindCancelReservation, first(rest), expect(cmd, rest, 1)
	case "mine":
		return protocol.KindGetReservationsByEmail, first(rest), expect(cmd, rest, 1)
	default:
		return "", nil, fmt.Errorf("unknown command %q", cmd)
	}
}

// parseSeats reads "1:4,1:5" into seat references.
func parseSeats(s string) ([]protocol.SeatRef, error) {
	var out []protocol.SeatRef
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		row, num, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("seat %q: want row:seat", part)
		}
		r, err := strconv.Atoi(row)
		if err != nil {
			return nil, fmt.Errorf("seat %q: bad row", part)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return nil, fmt.Errorf("seat %q: bad seat number", part)
		}
		out = append(out, protocol.SeatRef{Row: r, Number: n})
	}
	if len(out) == 0 {
		return nil, errors.New("no seats given")
	}
	return out, nil
}

func expect(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", cmd, n, len(args))
	}
	return nil
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printJSON(raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
