package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cloudeng.io/logging/ctxlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/klabast/wb-services/widecal/internal/calendar"
	"github.com/klabast/wb-services/widecal/internal/events"
)

// Widget housekeeping.
const (
	WidgetIdleTimeout = 2 * time.Hour
	pruneInterval     = 10 * time.Minute
)

// Server serves the calendar widgets and the event API.
type Server struct {
	cfg      Config
	loc      *time.Location
	locales  calendar.LocaleSource
	store    calendar.Store
	events   *events.Collection
	file     *events.File
	auth     *Auth
	edit     bool
	registry *Registry
	now      func() time.Time
}

// Options configures a Server beyond its Config.
type Options struct {
	Locales  calendar.LocaleSource
	Store    calendar.Store
	Events   *events.Collection
	File     *events.File
	Auth     *Auth
	EditMode bool
	// Clock replaces time.Now for the calendar widgets.
	Clock func() time.Time
}

// NewServer returns a server for cfg.
func NewServer(cfg Config, opts Options) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		loc:     loc,
		locales: opts.Locales,
		store:   opts.Store,
		events:  opts.Events,
		file:    opts.File,
		auth:    opts.Auth,
		edit:    opts.EditMode,
		now:     opts.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.events == nil {
		s.events = events.NewCollection(loc)
	}
	s.registry = NewRegistry(s.newWidget)
	return s, nil
}

// Registry returns the widget registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Mode returns ModeEdit or ModeServe.
func (s *Server) Mode() string {
	if s.edit {
		return ModeEdit
	}
	return ModeServe
}

func (s *Server) newWidget(session, name string) *Widget {
	wc, _ := s.cfg.Widget(name)
	surface := NewSurface(0)
	selection := NewSelection(wc.Language, s.cfg.Bounds(s.loc), s.events)
	view := calendar.NewViewState(s.store, s.cfg.StateKey(session, name), calendar.WithClock(s.now))
	return &Widget{
		Name:       name,
		Session:    session,
		Surface:    surface,
		Selection:  selection,
		Controller: calendar.NewController(selection, s.locales, surface, view, calendar.WithLocation(s.loc)),
	}
}

// Routes returns the HTTP handler of the server.
func (s *Server) Routes(logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withLogger(logger))
	r.Use(withSession)

	r.Get("/", s.ServeIndex)
	r.Get("/picker/{widget}", s.ServePicker)
	r.Post("/picker/{widget}/{intent}", s.HandleIntent)
	r.Get("/api/picker/{widget}", s.HandlePickerJSON)
	r.Get("/api/events", s.HandleEvents)
	r.Get("/api/export", s.HandleExport)

	if s.edit {
		r.Post("/api/events/add", s.auth.Require(s.AddEvent))
		r.Post("/api/events/delete", s.auth.Require(s.DeleteEvent))
		r.Post("/api/events/reload", s.auth.Require(s.ReloadEvents))
	}
	return r
}

// Run serves on cfg.Listen until ctx is done.
func (s *Server) Run(ctx context.Context, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go s.pruneLoop(ctx, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting widecal", "mode", s.Mode(), "listen", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) pruneLoop(ctx context.Context, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Prune(WidgetIdleTimeout); n > 0 {
				logger.Debug("pruned idle widgets", "count", n, "remaining", s.registry.Len())
			}
		}
	}
}

type sessionKey struct{}

// SessionID returns the browser session of the request context.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

func withLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxlog.WithLogger(r.Context(), logger.With("method", r.Method, "path", r.URL.Path))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withSession assigns every browser a session id kept in a cookie.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			if u, err := uuid.Parse(c.Value); err == nil {
				id = u.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		ctx = ctxlog.WithAttributes(ctx, "session", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
