package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxDatagramSize is the largest UDP payload over IPv4.
const MaxDatagramSize = 65507

// ErrDatagramTooLarge is returned when an encoded envelope would not fit
// in one datagram.
var ErrDatagramTooLarge = errors.New("envelope exceeds datagram size")

// DecodeError reports input that is not a structurally valid envelope.
// It is distinct from an ERROR response: the request never reached the
// application.  CorrelationID is set when it could still be recovered.
type DecodeError struct {
	CorrelationID string
	Reason        string
	Err           error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode envelope: %s: %v", e.Reason, e.Err)
	}
	return "decode envelope: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Codec converts envelopes to and from datagrams.
type Codec interface {
	DecodeRequest(data []byte) (Request, error)
	EncodeResponse(resp Response) ([]byte, error)
	EncodeRequest(req Request) ([]byte, error)
	DecodeResponse(data []byte) (Response, error)
}

// JSONCodec encodes envelopes as JSON objects.
type JSONCodec struct{}

var _ Codec = JSONCodec{}

// DecodeRequest parses a request envelope.  Only the envelope structure
// is checked; an unknown kind or an ill-shaped payload is left for the
// dispatcher.
func (JSONCodec) DecodeRequest(data []byte) (Request, error) {
	if err := checkInput(data); err != nil {
		return Request{}, err
	}
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, &DecodeError{CorrelationID: recoverCorrelationID(data), Reason: "invalid json", Err: err}
	}
	if req.Kind == "" {
		return Request{}, &DecodeError{CorrelationID: req.CorrelationID, Reason: "missing kind"}
	}
	return req, nil
}

// DecodeResponse parses a response envelope.
func (JSONCodec) DecodeResponse(data []byte) (Response, error) {
	if err := checkInput(data); err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, &DecodeError{CorrelationID: recoverCorrelationID(data), Reason: "invalid json", Err: err}
	}
	if resp.StatusCode != StatusSuccess && resp.StatusCode != StatusError {
		return Response{}, &DecodeError{CorrelationID: resp.CorrelationID, Reason: fmt.Sprintf("unknown status code %q", resp.StatusCode)}
	}
	return resp, nil
}

// EncodeResponse serializes resp, failing with ErrDatagramTooLarge when
// the result would not fit in one datagram.
func (JSONCodec) EncodeResponse(resp Response) ([]byte, error) {
	if len(resp.Payload) == 0 {
		resp.Payload = json.RawMessage("null")
	}
	return encode(resp)
}

// EncodeRequest serializes req.
func (JSONCodec) EncodeRequest(req Request) ([]byte, error) {
	return encode(req)
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	if len(data) > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, len(data))
	}
	return data, nil
}

func checkInput(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &DecodeError{Reason: "empty datagram"}
	}
	if len(data) > MaxDatagramSize {
		return &DecodeError{Reason: fmt.Sprintf("datagram of %d bytes", len(data)), Err: ErrDatagramTooLarge}
	}
	return nil
}

// recoverCorrelationID pulls the correlation ID out of an envelope whose
// other fields failed to decode, e.g. a kind of the wrong JSON type.
func recoverCorrelationID(data []byte) string {
	var probe struct {
		CorrelationID json.RawMessage `json:"correlation_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	var id string
	if err := json.Unmarshal(probe.CorrelationID, &id); err != nil {
		return ""
	}
	return id
}
