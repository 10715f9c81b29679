// Package server implements the TCP accept loop: one goroutine per
// connection, each handling exactly one request/response round before
// closing, against a shared session table and storage engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hexdb-io/hexdb/auth"
	"github.com/hexdb-io/hexdb/command"
	"github.com/hexdb-io/hexdb/config"
	"github.com/hexdb-io/hexdb/crypto/codec"
	"github.com/hexdb-io/hexdb/crypto/keys"
	"github.com/hexdb-io/hexdb/internal/logger"
	"github.com/hexdb-io/hexdb/internal/metrics"
	"github.com/hexdb-io/hexdb/session"
	"github.com/hexdb-io/hexdb/storage"
)

// Server owns the shared session table, storage engine, and dispatcher, and
// drives the TCP accept loop against them.
type Server struct {
	cfg        config.ServerConfig
	listener   net.Listener
	sessions   *session.Table
	dispatcher *command.Dispatcher
}

// New wires a Server from a fully loaded configuration: it bootstraps the
// data directory, loads or creates the handshake keypair, loads the user
// store, and builds the session table, storage engine, and dispatcher.
func New(cfg *config.Config) (*Server, error) {
	if err := storage.Bootstrap(cfg.Storage.RootDir); err != nil {
		return nil, fmt.Errorf("bootstrap storage: %w", err)
	}

	keyDir := filepath.Join(cfg.Storage.RootDir, "keys")
	kp, err := keys.LoadOrCreateKeyPair(filepath.Join(keyDir, "private.pem"), filepath.Join(keyDir, "public.pem"))
	if err != nil {
		return nil, fmt.Errorf("load handshake keypair: %w", err)
	}

	users, err := loadOrEmptyStore(cfg.Auth.LoginsPath)
	if err != nil {
		return nil, fmt.Errorf("load user store: %w", err)
	}

	sessions := session.NewTable(cfg.Server.SessionTTL, cfg.Server.SweepInterval)
	engine := storage.NewEngine(cfg.Storage.RootDir, cfg.Server.StrictDeleteConnectives)
	dispatcher := command.NewDispatcher(sessions, engine, users, kp)

	return &Server{cfg: cfg.Server, sessions: sessions, dispatcher: dispatcher}, nil
}

func loadOrEmptyStore(path string) (*auth.Store, error) {
	store, err := auth.LoadStore(path)
	if err != nil {
		logger.Warn("no user store found, starting with no registered users", logger.String("path", path))
		return &auth.Store{}, nil
	}
	return store, nil
}

// Run binds the listen address and serves until ctx is cancelled. The
// sweeper goroutine backing s.sessions runs independently of this
// errgroup; cancelling ctx stops the accept loop and closes the session
// table.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln
	logger.Info("jsondb server listening", logger.String("addr", s.cfg.ListenAddr))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		s.sessions.Close()
		return ln.Close()
	})
	g.Go(func() error {
		return s.acceptLoop(ln)
	})

	err = g.Wait()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// handleConn services exactly one request/response round before closing,
// per §4.5's connection lifecycle.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	ctx := logger.WithRequestID(context.Background(), uuid.NewString())

	line, err := s.readRequest(conn)
	if err != nil {
		if err != io.EOF {
			logger.Debug("read request failed", logger.String("error", err.Error()))
		}
		return
	}

	decoded, err := codec.DecodePlainHex(line)
	if err != nil {
		s.writeResponse(conn, "Err;IncorrectRequest")
		return
	}
	metrics.RequestSize.Observe(float64(len(decoded)))

	reply := s.dispatcher.Handle(ctx, decoded)
	s.writeResponse(conn, reply)
}

// readRequest reads up to MaxRequestBytes, truncating at the first "00"
// pair in the Plain-hex stream (two literal ASCII '0' characters starting
// at an even offset, the encoding of a NUL byte), per §4.5.
func (s *Server) readRequest(conn net.Conn) (string, error) {
	buf := make([]byte, s.cfg.MaxRequestBytes)
	n, err := conn.Read(buf)
	if err != nil && n == 0 {
		return "", err
	}
	buf = buf[:n]

	for i := 0; i+1 < len(buf); i += 2 {
		if buf[i] == '0' && buf[i+1] == '0' {
			buf = buf[:i]
			break
		}
	}
	return string(buf), nil
}

func (s *Server) writeResponse(conn net.Conn, plain string) {
	encoded := codec.EncodePlainHex(plain)
	if len(encoded) > s.cfg.MaxResponseBytes {
		logger.Warn("response exceeds configured size limit",
			logger.Int("size", len(encoded)), logger.Int("limit", s.cfg.MaxResponseBytes))
	}
	if _, err := conn.Write([]byte(encoded)); err != nil {
		logger.Debug("write response failed", logger.String("error", err.Error()))
	}
}
