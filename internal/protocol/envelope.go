// Package protocol defines the request/response envelopes exchanged over
// UDP and the codec that turns them into datagrams.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind names a request type.  Responses always carry KindResponse.
type Kind string

const (
	KindGetMovies              Kind = "GET_MOVIES"
	KindGetScreenings          Kind = "GET_SCREENINGS"
	KindGetSeats               Kind = "GET_SEATS"
	KindMakeReservation        Kind = "MAKE_RESERVATION"
	KindCancelReservation      Kind = "CANCEL_RESERVATION"
	KindGetReservationsByEmail Kind = "GET_RESERVATIONS_BY_EMAIL"
	KindResponse               Kind = "RESPONSE"
)

// RequestKinds lists every kind a client may send.
var RequestKinds = []Kind{
	KindGetMovies,
	KindGetScreenings,
	KindGetSeats,
	KindMakeReservation,
	KindCancelReservation,
	KindGetReservationsByEmail,
}

// StatusCode is the application-level outcome of a request.
type StatusCode string

const (
	StatusSuccess StatusCode = "SUCCESS"
	StatusError   StatusCode = "ERROR"
)

// Envelope-level status messages.  Application errors get theirs from
// the dispatcher.
const (
	MessageOK        = "operation completed successfully"
	MessageMalformed = "malformed request"
	MessageTooLarge  = "response too large"
	MessageThrottled = "rate limit exceeded"
)

// Request is the inbound envelope.  Payload is left raw; its shape
// depends on Kind and is checked by the dispatcher, not the codec.
//
// Payloads per kind:
//   GET_MOVIES                 – none
//   GET_SCREENINGS             – optional movie ID (number or null)
//   GET_SEATS                  – screening ID (number)
//   MAKE_RESERVATION           – MakeReservationPayload
//   CANCEL_RESERVATION         – reservation ID (string)
//   GET_RESERVATIONS_BY_EMAIL  – email (string)
type Request struct {
	CorrelationID string          `json:"correlation_id"`
	Kind          Kind            `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Response is the outbound envelope.  CorrelationID echoes the request's.
type Response struct {
	CorrelationID string          `json:"correlation_id"`
	Kind          Kind            `json:"kind"`
	Payload       json.RawMessage `json:"payload"`
	StatusCode    StatusCode      `json:"status_code"`
	StatusMessage string          `json:"status_message"`
}

// OK reports whether the response carries StatusSuccess.
func (r Response) OK() bool { return r.StatusCode == StatusSuccess }

// SeatRef addresses one seat by 1-based row and number.
type SeatRef struct {
	Row    int `json:"row"`
	Number int `json:"number"`
}

// MakeReservationPayload is the body of MAKE_RESERVATION.  Seat positions
// are range-checked against the room by the engine, not here.
type MakeReservationPayload struct {
	ScreeningID   int       `json:"screening_id" validate:"required,gt=0"`
	Seats         []SeatRef `json:"seats" validate:"required,min=1"`
	CustomerName  string    `json:"customer_name" validate:"required,max=100"`
	CustomerEmail string    `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone string    `json:"customer_phone" validate:"required,max=32"`
}

// NewRequest builds a request, encoding payload unless it is nil.
func NewRequest(correlationID string, kind Kind, payload any) (Request, error) {
	req := Request{CorrelationID: correlationID, Kind: kind}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Request{}, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		req.Payload = raw
	}
	return req, nil
}

// Success wraps payload in a SUCCESS response to correlationID.
func Success(correlationID string, payload any) (Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("encode response payload: %w", err)
	}
	return Response{
		CorrelationID: correlationID,
		Kind:          KindResponse,
		Payload:       raw,
		StatusCode:    StatusSuccess,
		StatusMessage: MessageOK,
	}, nil
}

// Failure builds an ERROR response with a null payload.
func Failure(correlationID, message string) Response {
	return Response{
		CorrelationID: correlationID,
		Kind:          KindResponse,
		Payload:       json.RawMessage("null"),
		StatusCode:    StatusError,
		StatusMessage: message,
	}
}

// DecodePayload unmarshals a raw payload into v.  A missing payload is
// decoded as JSON null.
func DecodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return json.Unmarshal(raw, v)
}
