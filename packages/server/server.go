package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	hitpost "github.com/abdul-hamid-achik/hitpost/packages/http"
)

// DefaultListenAddr binds to loopback only.
const DefaultListenAddr = "127.0.0.1:7878"

// maxBodyBytes bounds decoded command arguments.
const maxBodyBytes = 32 << 20

type Config struct {
	ListenAddr string
	// AllowOrigin is sent as Access-Control-Allow-Origin when set.
	AllowOrigin string
	Logger      *slog.Logger
}

// Server is the HTTP bridge over Commands.
type Server struct {
	cfg      Config
	commands *Commands
	router   chi.Router
	logger   *slog.Logger
}

func NewServer(cfg Config, commands *Commands) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if commands == nil {
		commands = NewCommands(WithLogger(logger))
	}

	s := &Server{
		cfg:      cfg,
		commands: commands,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	r.Options("/*", s.optionsHandler("GET, POST"))

	r.Get("/healthz", s.handleHealth)
	r.Get("/commands", s.handleListCommands)
	r.Post("/invoke", s.handleInvokeEnvelope)
	r.Post("/invoke/{command}", s.handleInvoke)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AllowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.router.ServeHTTP(w, r)
	s.logger.Info("http_request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.commands.Names())
}

// handleInvoke takes the command name from the path and the args as the
// whole body. Success returns the command result; a command failure returns
// the error value the command produced.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")

	args, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if len(args) > 0 && !json.Valid(args) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	data, err := s.commands.Invoke(r.Context(), name, args)
	if err != nil {
		s.writeCommandError(w, name, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// handleInvokeEnvelope accepts the stream Envelope shape and always answers
// with a Reply.
func (s *Server) handleInvokeEnvelope(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&env); err != nil {
		s.logger.Warn("decoding invoke envelope", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	reply := s.commands.Handle(r.Context(), env)
	status := http.StatusOK
	if !reply.OK {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, reply)
}

func (s *Server) writeCommandError(w http.ResponseWriter, name string, err error) {
	var (
		cmdErr *CommandError
		argErr *ArgumentError
	)
	switch {
	case errors.Is(err, ErrUnknownCommand):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &argErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &cmdErr):
		s.logger.Warn("command failed", "command", name, "error", err)
		status := http.StatusUnprocessableEntity
		if hitpost.IsTransportError(err) {
			status = http.StatusBadGateway
		}
		if msg, ok := cmdErr.Value.(string); ok {
			writeError(w, status, msg)
			return
		}
		writeJSON(w, status, cmdErr.Value)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
