package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telematics/internal/cache"
	"telematics/internal/core/service"
	"telematics/internal/protocol"
)

const readBufferSize = 4096

// Processor handles one frame read from a device connection.
type Processor interface {
	Process(ctx context.Context, deviceID string, frame []byte) (*service.Result, error)
}

// SessionRegistry records which devices are connected.
type SessionRegistry interface {
	RegisterSession(ctx context.Context, s cache.Session, ttl time.Duration) error
	ClearSession(ctx context.Context, deviceID string) error
}

type Options struct {
	// IdleTimeout closes connections that stay silent this long; zero disables it.
	IdleTimeout time.Duration
	SessionTTL  time.Duration
	Sessions    SessionRegistry
}

// TCPServer accepts device connections. Each connection is served by its own
// goroutine, which reads one frame per read and writes any reply back.
type TCPServer struct {
	addr      string
	processor Processor
	opts      Options
	logger    zerolog.Logger

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func NewTCPServer(addr string, processor Processor, opts Options) *TCPServer {
	return &TCPServer{
		addr:      addr,
		processor: processor,
		opts:      opts,
		logger:    log.With().Str("component", "tcp").Logger(),
		conns:     make(map[net.Conn]struct{}),
	}
}

func (s *TCPServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start TCP server: %w", err)
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info().Str("addr", listener.Addr().String()).Msg("TCP server listening")

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *TCPServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to return.
func (s *TCPServer) Stop() {
	if s.listener == nil {
		return
	}
	s.cancel()
	s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *TCPServer) acceptConnections() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn().Err(err).Msg("error accepting connection")
			continue
		}

		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *TCPServer) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With().Str("remote", remote).Logger()
	logger.Info().Msg("new connection")

	var deviceID string
	defer func() {
		if deviceID != "" && s.opts.Sessions != nil {
			if err := s.opts.Sessions.ClearSession(context.Background(), deviceID); err != nil {
				logger.Warn().Err(err).Str("device", deviceID).Msg("failed to clear session")
			}
		}
		logger.Info().Str("device", deviceID).Msg("connection closed")
	}()

	buffer := make([]byte, readBufferSize)
	for {
		if s.opts.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}
		n, err := conn.Read(buffer)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn().Err(err).Msg("error reading from connection")
			}
			return
		}

		res, err := s.processor.Process(s.ctx, deviceID, buffer[:n])
		if err != nil {
			s.logFrameError(logger, res, err, n)
		}
		if res == nil {
			continue
		}

		if res.DeviceID != "" && res.DeviceID != deviceID {
			deviceID = res.DeviceID
			s.registerSession(logger, deviceID, res.Message.Protocol(), remote)
		}

		if len(res.Reply) > 0 {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if _, err := conn.Write(res.Reply); err != nil {
				logger.Warn().Err(err).Str("device", deviceID).Msg("failed to write reply")
				return
			}
		}
	}
}

func (s *TCPServer) logFrameError(logger zerolog.Logger, res *service.Result, err error, size int) {
	switch {
	case errors.Is(err, protocol.ErrUnrecognizedFrame):
		logger.Debug().Int("bytes", size).Msg("unrecognized frame")
	case res == nil:
		logger.Warn().Err(err).Int("bytes", size).Msg("failed to decode frame")
	default:
		logger.Warn().Err(err).Str("device", res.DeviceID).Msg("failed to process frame")
	}
}

func (s *TCPServer) registerSession(logger zerolog.Logger, deviceID, protocolName, remote string) {
	logger.Info().Str("device", deviceID).Str("protocol", protocolName).Msg("device identified")
	if s.opts.Sessions == nil {
		return
	}

	session := cache.Session{
		DeviceID:    deviceID,
		Protocol:    protocolName,
		RemoteAddr:  remote,
		ConnectedAt: time.Now().UTC(),
	}
	if err := s.opts.Sessions.RegisterSession(s.ctx, session, s.opts.SessionTTL); err != nil {
		logger.Warn().Err(err).Str("device", deviceID).Msg("failed to register session")
	}
}
