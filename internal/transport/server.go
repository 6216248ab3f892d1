// Package transport carries envelopes over UDP: a datagram server with a
// bounded worker pool and a client that resends on timeout.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinema-udp-reservation/internal/protocol"
	"github.com/iliyamo/cinema-udp-reservation/internal/ratelimit"
)

// Handler answers one decoded request.  *dispatcher.Dispatcher implements it.
type Handler interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

// Limiter admits datagrams per source.  *ratelimit.TokenBucket implements it.
type Limiter interface {
	Allow(ctx context.Context, key string) (ratelimit.Decision, error)
	Key(parts ...string) string
}

// ServerConfig sizes the worker pool.
type ServerConfig struct {
	Addr      string // host:port to bind
	Workers   int    // concurrent handlers
	QueueSize int    // datagrams waiting for a worker; more are dropped
}

// Server reads datagrams on one goroutine and hands each to a fixed pool
// of workers.  A full queue drops the datagram; clients resend.
type Server struct {
	cfg     ServerConfig
	handler Handler
	limiter Limiter
	codec   protocol.Codec
	logger  *log.Logger

	mu   sync.Mutex
	addr net.Addr
}

type datagram struct {
	data []byte
	from netip.AddrPort
}

// NewServer returns a server.  limiter may be nil.
func NewServer(cfg ServerConfig, h Handler, limiter Limiter, logger *log.Logger) *Server {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	return &Server{cfg: cfg, handler: h, limiter: limiter, codec: protocol.JSONCodec{}, logger: logger}
}

// LocalAddr is the bound address once serving has started, else nil.
func (s *Server) LocalAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe binds cfg.Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, conn)
}

// Serve handles datagrams on conn until ctx is cancelled, then lets the
// workers finish what was queued and closes conn.
func (s *Server) Serve(ctx context.Context, conn *net.UDPConn) error {
	s.mu.Lock()
	s.addr = conn.LocalAddr()
	s.mu.Unlock()
	s.logger.Infof("UDP server listening on %s (%d workers, queue %d)", conn.LocalAddr(), s.cfg.Workers, s.cfg.QueueSize)

	// Handlers run to completion during shutdown.
	work := context.WithoutCancel(ctx)
	jobs := make(chan datagram, s.cfg.QueueSize)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				s.handle(work, conn, d)
			}
		}()
	}

	// Unblock the read loop on cancellation without closing the socket the
	// workers still write to.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	var serveErr error
	buf := make([]byte, protocol.MaxDatagramSize+1)
	for {
		n, from, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				serveErr = err
				break
			}
			s.logger.Warnf("read datagram: %v", err)
			continue
		}
		d := datagram{data: append([]byte(nil), buf[:n]...), from: from}
		select {
		case jobs <- d:
		default:
			s.logger.Warnf("worker queue full, dropping datagram from %s", from)
		}
	}

	close(jobs)
	wg.Wait()
	_ = conn.Close()
	s.logger.Infof("UDP server stopped")
	return serveErr
}

func (s *Server) handle(ctx context.Context, conn *net.UDPConn, d datagram) {
	req, err := s.codec.DecodeRequest(d.data)
	if err != nil {
		var de *protocol.DecodeError
		if errors.As(err, &de) && de.CorrelationID != "" {
			s.logger.Debugf("malformed request %s from %s: %v", de.CorrelationID, d.from, err)
			s.reply(conn, d.from, protocol.Failure(de.CorrelationID, protocol.MessageMalformed))
			return
		}
		s.logger.Debugf("dropping undecodable datagram from %s: %v", d.from, err)
		return
	}

	if !s.admit(ctx, d.from) {
		s.reply(conn, d.from, protocol.Failure(req.CorrelationID, protocol.MessageThrottled))
		return
	}

	start := time.Now()
	resp := s.handler.Dispatch(ctx, req)
	s.logger.Debugf("%s %s from %s -> %s in %s", req.Kind, req.CorrelationID, d.from, resp.StatusCode, time.Since(start))
	s.reply(conn, d.from, resp)
}

// admit consults the limiter; Redis trouble lets the datagram through.
func (s *Server) admit(ctx context.Context, from netip.AddrPort) bool {
	if s.limiter == nil {
		return true
	}
	dec, err := s.limiter.Allow(ctx, s.limiter.Key("udp", from.Addr().String()))
	if err != nil {
		s.logger.Warnf("rate limiter unavailable, admitting %s: %v", from, err)
		return true
	}
	if !dec.Allowed {
		s.logger.Debugf("throttled %s, retry in %s", from, dec.RetryAfter)
	}
	return dec.Allowed
}

func (s *Server) reply(conn *net.UDPConn, to netip.AddrPort, resp protocol.Response) {
	out, err := s.codec.EncodeResponse(resp)
	if errors.Is(err, protocol.ErrDatagramTooLarge) {
		s.logger.Warnf("response to %s too large: %v", resp.CorrelationID, err)
		out, err = s.codec.EncodeResponse(protocol.Failure(resp.CorrelationID, protocol.MessageTooLarge))
	}
	if err != nil {
		s.logger.Errorf("encode response %s: %v", resp.CorrelationID, err)
		return
	}
	if _, err := conn.WriteToUDPAddrPort(out, to); err != nil {
		s.logger.Warnf("write response to %s: %v", to, err)
	}
}
