// Package handler exposes the ops HTTP gateway.  Read routes are a JSON
// mirror of the datagram protocol: each builds a request envelope and
// runs it through the same dispatcher the UDP server uses, so both
// surfaces always agree.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-udp-reservation/internal/dispatcher"
	"github.com/iliyamo/cinema-udp-reservation/internal/persist"
	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
)

// Dispatcher answers request envelopes.
type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

// DivergenceSource lists durable writes that have not been stored yet.
// *persist.Writer implements it.
type DivergenceSource interface {
	Divergences() []persist.Divergence
}

// GatewayHandler serves the gateway routes.  Divergences may be nil when
// the server runs without a database.
type GatewayHandler struct {
	Dispatcher  Dispatcher
	Divergences DivergenceSource
}

// GetMovies lists every movie.
func (h *GatewayHandler) GetMovies(c echo.Context) error {
	return h.mirror(c, protocol.KindGetMovies, nil)
}

// GetScreenings lists screenings, filtered by ?movie_id= when given.
func (h *GatewayHandler) GetScreenings(c echo.Context) error {
	var movieID *int
	if raw := c.QueryParam("movie_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
		movieID = &id
	}
	return h.mirror(c, protocol.KindGetScreenings, movieID)
}

// GetSeats returns the seat map of a screening.
func (h *GatewayHandler) GetSeats(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	return h.mirror(c, protocol.KindGetSeats, id)
}

// GetReservations lists the reservations made with ?email=.
func (h *GatewayHandler) GetReservations(c echo.Context) error {
	return h.mirror(c, protocol.KindGetReservationsByEmail, c.QueryParam("email"))
}

// PostEnvelope accepts a raw request envelope and returns the response
// envelope, exactly as a datagram client would see it.  Application
// errors still answer 200; only an undecodable body is a 400.
func (h *GatewayHandler) PostEnvelope(c echo.Context) error {
	var req protocol.Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, protocol.Failure("", protocol.MessageMalformed))
	}
	if req.Kind == "" {
		return c.JSON(http.StatusBadRequest, protocol.Failure(req.CorrelationID, protocol.MessageMalformed))
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	return c.JSON(http.StatusOK, h.Dispatcher.Dispatch(c.Request().Context(), req))
}

// GetDivergences lists the divergence journal, oldest first.
func (h *GatewayHandler) GetDivergences(c echo.Context) error {
	items := []persist.Divergence{}
	if h.Divergences != nil {
		items = append(items, h.Divergences.Divergences()...)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

func (h *GatewayHandler) mirror(c echo.Context, kind protocol.Kind, payload any) error {
	req, err := protocol.NewRequest(uuid.NewString(), kind, payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": dispatcher.MessageInternal})
	}
	resp := h.Dispatcher.Dispatch(c.Request().Context(), req)
	if !resp.OK() {
		return c.JSON(httpStatus(resp.StatusMessage), echo.Map{"error": resp.StatusMessage})
	}
	return c.JSONBlob(http.StatusOK, resp.Payload)
}

// httpStatus maps a dispatcher status message onto an HTTP status.
func httpStatus(msg string) int {
	switch {
	case msg == dispatcher.MessageScreeningNotFound, msg == dispatcher.MessageReservationNotFound:
		return http.StatusNotFound
	case msg == dispatcher.MessageAlreadyCancelled, strings.HasPrefix(msg, "seat unavailable"):
		return http.StatusConflict
	case msg == dispatcher.MessageInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
