// Package server exposes a display over HTTP and WebSocket, so dashboards
// and scripts on other machines can drive it.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/flavioheleno/tftlcd"
	"github.com/flavioheleno/tftlcd/internal/script"
	"github.com/flavioheleno/tftlcd/internal/syncutil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	maxBodySize     = 1 << 20
	maxMessageSize  = 64 << 10
	shutdownTimeout = 5 * time.Second
)

// Device is the display the server drives; *tftlcd.Dev implements it.
type Device interface {
	script.Display
	String() string
	Protocol() tftlcd.Protocol
}

// Options configures a Server.
type Options struct {
	// Origins allowed by CORS (default: any).
	CORSOrigins []string
	// Clock times wait commands (default: real clock).
	Clock clockwork.Clock
}

// Server serializes commands from every client onto one display.
type Server struct {
	dev    Device
	runner *script.Runner
	// mu is held for the whole of a request so scripts are not interleaved.
	mu       syncutil.Mutex
	upgrader websocket.Upgrader
	origins  []string
}

// New returns a server for dev. opts can be nil.
func New(dev Device, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		dev:     dev,
		runner:  &script.Runner{Display: dev, Clock: opts.Clock},
		origins: origins,
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// checkOrigin applies the CORS origins to WebSocket handshakes. Requests
// without an Origin header do not come from a browser and are let through.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	log.Warn().Str("origin", origin).Msg("server: websocket origin rejected")
	return false
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/commands", s.handleCommands)
	r.Get("/ws", s.handleWS)

	return r
}

// Serve handles connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// Requests, WebSocket sessions included, are cancelled when shutdown
	// starts so a running wait does not hold the display.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().
		Str("addr", ln.Addr().String()).
		Bool("deadlock_detection", syncutil.DeadlockDetection).
		Msg("server: listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return s.Serve(ctx, ln)
}

type statusResponse struct {
	Device   string `json:"device"`
	Protocol string `json:"protocol"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Device:   s.dev.String(),
		Protocol: s.dev.Protocol().String(),
	})
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Error: err.Error()})
		return
	}
	cmds, err := decodeCommands(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Status: "error", Error: err.Error()})
		return
	}

	s.mu.Lock()
	err = s.runner.Run(r.Context(), cmds)
	s.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Int("commands", len(cmds)).Msg("server: commands failed")
		writeJSON(w, statusFor(err), errorResponse{Status: "error", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, errorResponse{Status: "ok"})
}

// decodeCommands accepts a single command object or an array of them.
func decodeCommands(body []byte) ([]script.Command, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", script.ErrInvalid)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var cmds []script.Command
	if body[0] == '[' {
		if err := dec.Decode(&cmds); err != nil {
			return nil, fmt.Errorf("%w: %w", script.ErrInvalid, err)
		}
	} else {
		var cmd script.Command
		if err := dec.Decode(&cmd); err != nil {
			return nil, fmt.Errorf("%w: %w", script.ErrInvalid, err)
		}
		cmds = append(cmds, cmd)
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return cmds, nil
}

// expectEOF fails when anything but white space follows the decoded value.
func expectEOF(dec *json.Decoder) error {
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after the commands", script.ErrInvalid)
	}
	return nil
}

// statusFor maps command errors to HTTP statuses: bad input is the client's
// fault, anything else came from the display link.
func statusFor(err error) int {
	switch {
	case errors.Is(err, script.ErrInvalid),
		errors.Is(err, tftlcd.ErrOutOfRange),
		errors.Is(err, tftlcd.ErrFrameTooLong):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

type wsReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("server: websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	log.Debug().Str("remote", r.RemoteAddr).Msg("server: websocket client connected")

	// The request context outlives a hijacked client, so the session gets its
	// own, cancelled as soon as reading fails.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	msgs := make(chan []byte)
	go func() {
		defer cancel()
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Msg("server: websocket client gone")
				return
			}
			select {
			case msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var msg []byte
		select {
		case <-ctx.Done():
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			msg = m
		}

		reply := wsReply{OK: true}
		if err := s.execMessage(ctx, msg); err != nil {
			reply = wsReply{Error: err.Error()}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Debug().Err(err).Msg("server: websocket write")
			return
		}
	}
}

func (s *Server) execMessage(ctx context.Context, msg []byte) error {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.DisallowUnknownFields()
	var cmd script.Command
	if err := dec.Decode(&cmd); err != nil {
		return fmt.Errorf("%w: %w", script.ErrInvalid, err)
	}
	if err := expectEOF(dec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Exec(ctx, &cmd)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("server: writing response")
	}
}
