package dispatcher

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cinema-udp-reservation/internal/engine"
	"github.com/iliyamo/cinema-udp-reservation/internal/inventory"
)

const (
	MessageScreeningNotFound   = "screening not found"
	MessageReservationNotFound = "reservation not found"
	MessageAlreadyCancelled    = "reservation already cancelled"
	MessageUnsupported         = "unsupported operation"
	MessageInternal            = "internal error"
	MessageCorrelationReused   = "invalid request: correlation id reused"
)

// invalidRequestError is a payload the dispatcher could not accept.
type invalidRequestError struct{ detail string }

func (e *invalidRequestError) Error() string { return "invalid request: " + e.detail }

func invalidRequest(format string, args ...any) error {
	return &invalidRequestError{detail: fmt.Sprintf(format, args...)}
}

// StatusMessage maps an error to the stable message sent to clients.
func StatusMessage(err error) string {
	var (
		unavailable *inventory.SeatUnavailableError
		invalidSeat *inventory.InvalidSeatPositionError
		invalid     *invalidRequestError
		verrs       validator.ValidationErrors
	)
	switch {
	case errors.As(err, &unavailable):
		return fmt.Sprintf("seat unavailable: row %d seat %d", unavailable.Position.Row, unavailable.Position.Number)
	case errors.As(err, &invalidSeat):
		return fmt.Sprintf("invalid seat position: row %d seat %d", invalidSeat.Position.Row, invalidSeat.Position.Number)
	case errors.Is(err, engine.ErrScreeningNotFound):
		return MessageScreeningNotFound
	case errors.Is(err, engine.ErrReservationNotFound):
		return MessageReservationNotFound
	case errors.Is(err, engine.ErrAlreadyCancelled):
		return MessageAlreadyCancelled
	case errors.Is(err, engine.ErrCorrelationIDReused):
		return MessageCorrelationReused
	case errors.Is(err, errUnsupported):
		return MessageUnsupported
	case errors.Is(err, engine.ErrNoSeats), errors.Is(err, engine.ErrDuplicateSeat):
		return "invalid request: " + err.Error()
	case errors.As(err, &verrs):
		return "invalid request: " + describe(verrs)
	case errors.As(err, &invalid):
		return invalid.Error()
	default:
		return MessageInternal
	}
}

// describe reports the first failed field, e.g. "customer_email failed email".
func describe(verrs validator.ValidationErrors) string {
	if len(verrs) == 0 {
		return "validation failed"
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
