package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
)

// ErrNoResponse means every attempt timed out.  It is a transport
// failure, unlike a response carrying StatusError.
var ErrNoResponse = errors.New("no response from server")

// StatusError is an ERROR response returned by the server.
type StatusError struct {
	Kind    protocol.Kind
	Message string
}

func (e *StatusError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// Client sends one request at a time and waits for the matching
// response.  Every resend of a request reuses its correlation ID, which
// the server treats as an idempotency token.
type Client struct {
	conn     *net.UDPConn
	codec    protocol.Codec
	timeout  time.Duration
	attempts int

	mu  sync.Mutex
	buf []byte
}

// Dial connects to a server.  timeout bounds each attempt (5s when zero)
// and attempts is the number of sends per request (at least 1).
func Dial(addr string, timeout time.Duration, attempts int) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		conn:     conn,
		codec:    protocol.JSONCodec{},
		timeout:  timeout,
		attempts: attempts,
		buf:      make([]byte, protocol.MaxDatagramSize+1),
	}, nil
}

// Close releases the socket.
func (c *Client) Close() error { return c.conn.Close() }

// Do sends a request of the given kind with a fresh correlation ID.
func (c *Client) Do(ctx context.Context, kind protocol.Kind, payload any) (protocol.Response, error) {
	req, err := protocol.NewRequest(uuid.NewString(), kind, payload)
	if err != nil {
		return protocol.Response{}, err
	}
	return c.Send(ctx, req)
}

// Call is Do followed by decoding a SUCCESS payload into out.  An ERROR
// response is returned as *StatusError.
func (c *Client) Call(ctx context.Context, kind protocol.Kind, payload, out any) error {
	resp, err := c.Do(ctx, kind, payload)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Kind: kind, Message: resp.StatusMessage}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return nil
}

// Send transmits req and waits for the response with the same
// correlation ID, resending after each timeout.
func (c *Client) Send(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	data, err := c.codec.EncodeRequest(req)
	if err != nil {
		return protocol.Response{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return protocol.Response{}, err
		}
		if _, err := c.conn.Write(data); err != nil {
			return protocol.Response{}, fmt.Errorf("send %s: %w", req.Kind, err)
		}
		deadline := time.Now().Add(c.timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		resp, err := c.await(req.CorrelationID, deadline)
		if err == nil {
			return resp, nil
		}
		// A refused port looks the same as a lost datagram to the caller.
		if !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, syscall.ECONNREFUSED) {
			return protocol.Response{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return protocol.Response{}, err
	}
	return protocol.Response{}, fmt.Errorf("%w after %d attempts", ErrNoResponse, c.attempts)
}

// await reads until the response to id arrives or the deadline passes.
// Late answers to earlier requests and undecodable datagrams are skipped.
func (c *Client) await(id string, deadline time.Time) (protocol.Response, error) {
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return protocol.Response{}, err
	}
	for {
		n, err := c.conn.Read(c.buf)
		if err != nil {
			return protocol.Response{}, err
		}
		resp, err := c.codec.DecodeResponse(c.buf[:n])
		if err != nil || resp.CorrelationID != id {
			continue
		}
		return resp, nil
	}
}
