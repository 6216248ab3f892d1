// Package dispatcher routes decoded requests to the catalog and the
// reservation engine and packages every outcome into a response envelope.
// It keeps no state between requests.
package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-udp-reservation/internal/engine"
	"github.com/iliyamo/cinema-udp-reservation/internal/model"
	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
)

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	engine   *engine.Engine
	validate *validator.Validate
	logger   *log.Logger
}

// New returns a dispatcher over e.
func New(e *engine.Engine, logger *log.Logger) *Dispatcher {
	v := validator.New()
	// Report JSON field names in validation messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Dispatcher{engine: e, validate: v, logger: logger}
}

// Dispatch handles one request.  It never panics and never returns an
// envelope without a status.
func (d *Dispatcher) Dispatch(ctx context.Context, req protocol.Request) (resp protocol.Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("panic handling %s %s: %v\n%s", req.Kind, req.CorrelationID, r, debug.Stack())
			resp = protocol.Failure(req.CorrelationID, MessageInternal)
		}
	}()

	payload, err := d.route(ctx, req)
	if err != nil {
		msg := StatusMessage(err)
		if msg == MessageInternal {
			d.logger.Errorf("%s %s failed: %v", req.Kind, req.CorrelationID, err)
		} else {
			d.logger.Debugf("%s %s rejected: %s", req.Kind, req.CorrelationID, msg)
		}
		return protocol.Failure(req.CorrelationID, msg)
	}
	resp, err = protocol.Success(req.CorrelationID, payload)
	if err != nil {
		d.logger.Errorf("%s %s: %v", req.Kind, req.CorrelationID, err)
		return protocol.Failure(req.CorrelationID, MessageInternal)
	}
	return resp
}

var errUnsupported = errors.New(MessageUnsupported)

func (d *Dispatcher) route(ctx context.Context, req protocol.Request) (any, error) {
	switch req.Kind {
	case protocol.KindGetMovies:
		return d.engine.Catalog().Movies(), nil
	case protocol.KindGetScreenings:
		return d.getScreenings(req.Payload)
	case protocol.KindGetSeats:
		return d.getSeats(req.Payload)
	case protocol.KindMakeReservation:
		return d.makeReservation(ctx, req.CorrelationID, req.Payload)
	case protocol.KindCancelReservation:
		return d.cancelReservation(ctx, req.CorrelationID, req.Payload)
	case protocol.KindGetReservationsByEmail:
		return d.reservationsByEmail(req.Payload)
	default:
		return nil, errUnsupported
	}
}

func (d *Dispatcher) getScreenings(raw []byte) (any, error) {
	var movieID *int
	if err := protocol.DecodePayload(raw, &movieID); err != nil {
		return nil, invalidRequest("movie id must be a number or null")
	}
	cat := d.engine.Catalog()
	screenings := cat.Screenings(movieID)
	out := make([]any, 0, len(screenings))
	for _, s := range screenings {
		out = append(out, cat.Detail(s))
	}
	return out, nil
}

func (d *Dispatcher) getSeats(raw []byte) (any, error) {
	var screeningID *int
	if err := protocol.DecodePayload(raw, &screeningID); err != nil || screeningID == nil {
		return nil, invalidRequest("screening id must be a number")
	}
	return d.engine.SeatMap(*screeningID)
}

func (d *Dispatcher) makeReservation(ctx context.Context, token string, raw []byte) (any, error) {
	var p protocol.MakeReservationPayload
	if err := protocol.DecodePayload(raw, &p); err != nil {
		return nil, invalidRequest("reservation payload: %v", err)
	}
	if err := d.validate.Struct(p); err != nil {
		return nil, err
	}
	seats := make([]model.Position, len(p.Seats))
	for i, s := range p.Seats {
		seats[i] = model.Position{Row: s.Row, Number: s.Number}
	}
	return d.engine.CreateReservation(ctx, token, engine.CreateRequest{
		ScreeningID:   p.ScreeningID,
		Seats:         seats,
		CustomerName:  strings.TrimSpace(p.CustomerName),
		CustomerEmail: strings.TrimSpace(p.CustomerEmail),
		CustomerPhone: strings.TrimSpace(p.CustomerPhone),
	})
}

func (d *Dispatcher) cancelReservation(ctx context.Context, token string, raw []byte) (any, error) {
	var id string
	if err := protocol.DecodePayload(raw, &id); err != nil || strings.TrimSpace(id) == "" {
		return nil, invalidRequest("reservation id must be a non-empty string")
	}
	if _, err := d.engine.CancelReservation(ctx, token, strings.TrimSpace(id)); err != nil {
		return nil, err
	}
	return true, nil
}

func (d *Dispatcher) reservationsByEmail(raw []byte) (any, error) {
	var email string
	if err := protocol.DecodePayload(raw, &email); err != nil {
		return nil, invalidRequest("email must be a string")
	}
	email = strings.TrimSpace(email)
	if err := d.validate.Var(email, "required,email"); err != nil {
		return nil, invalidRequest("email is not a valid address")
	}
	return d.engine.FindByEmail(email), nil
}
