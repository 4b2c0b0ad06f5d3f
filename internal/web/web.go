package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"notify/internal/catalog"
	"notify/internal/config"
	"notify/internal/i18n"
	appLog "notify/internal/log"
	"notify/internal/model"
	"notify/internal/session"
	"notify/internal/view"
)

// Server binds browser input to session coordinators and renders the
// event browser.
type Server struct {
	cfg   *config.Config
	cat   *catalog.Catalog
	store *session.Store
	views *view.Renderer
	tr    *i18n.Translator
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, cat *catalog.Catalog, store *session.Store, views *view.Renderer, tr *i18n.Translator) *Server {
	s := &Server{
		cfg:   cfg,
		cat:   cat,
		store: store,
		views: views,
		tr:    tr,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable the gate.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Notify", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Start serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
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
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("POST /select", s.handleSelect)
	s.mux.HandleFunc("POST /selection/clear", s.handleClearSelection)
	s.mux.HandleFunc("POST /favorite", s.handleFavorite)
	s.mux.HandleFunc("POST /menu/toggle", s.handleMenuToggle)

	s.mux.HandleFunc("GET /api/events", s.handleAPIEvents)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleAPIEvent)
	s.mux.HandleFunc("GET /api/session", s.handleAPISession)

	s.mux.HandleFunc("GET /live", s.handleLive)

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(view.Static()))))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// session returns the caller's session, creating one and setting the
// cookie when the request has none or it has expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	var id string
	if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
		id = c.Value
	}

	sess, created := s.store.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.Session.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		appLog.Debug("session created", "sessions", s.store.Len())
	}
	return sess
}

func (s *Server) locale(r *http.Request) string {
	if h := r.Header.Get("Accept-Language"); h != "" {
		return s.tr.Match(h)
	}
	return s.cfg.Locale
}

// page snapshots the coordinator into a view model. When takeScroll is set
// a pending scroll request is consumed and attached.
func (s *Server) page(c *session.Coordinator, locale string, takeScroll bool) view.Page {
	p := view.NewPage(c, locale, s.cfg.HeaderHeight)
	if takeScroll {
		if req, ok := c.TakeScroll(); ok {
			p.Scroll = &req
		}
	}
	return p
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	locale := s.locale(r)

	var p view.Page
	sess.Do(func(c *session.Coordinator) {
		p = s.page(c, locale, true)
	})

	var buf bytes.Buffer
	if err := s.views.RenderPage(&buf, p); err != nil {
		appLog.Error("render page failed", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleSearch is the form fallback for the live search inputs.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	q := r.PostFormValue("q")
	sess.Do(func(c *session.Coordinator) {
		c.SetSearchTerm(q)
	})
	http.Redirect(w, r, "/#"+session.ResultsAnchor, http.StatusSeeOther)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	id := model.EventID(r.PostFormValue("id"))
	sess.Do(func(c *session.Coordinator) {
		c.SelectEvent(id)
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Do(func(c *session.Coordinator) {
		c.ClearSelection()
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	id := model.EventID(r.PostFormValue("id"))
	sess.Do(func(c *session.Coordinator) {
		c.ToggleFavorite(id)
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleMenuToggle(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.Do(func(c *session.Coordinator) {
		c.ToggleMenu()
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	SearchTerm string        `json:"search_term"`
	Count      int           `json:"count"`
	Events     []model.Event `json:"events"`
}

// handleAPIEvents filters the catalog without touching any session.
//
// GET /api/events?q=jazz
func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	events := session.Filter(s.cat.Events(), q)
	writeJSON(w, http.StatusOK, eventsResponse{
		SearchTerm: q,
		Count:      len(events),
		Events:     events,
	})
}

// handleAPIEvent returns one catalog event.
//
// GET /api/events/3
func (s *Server) handleAPIEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.cat.Lookup(model.EventID(r.PathValue("id")))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// sessionResponse is the JSON response shape for /api/session.
type sessionResponse struct {
	session.State
	FilteredIDs []model.EventID `json:"filtered_ids"`
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	var resp sessionResponse
	sess.Do(func(c *session.Coordinator) {
		resp.State = c.Snapshot()
		filtered := c.FilteredEvents()
		resp.FilteredIDs = make([]model.EventID, 0, len(filtered))
		for _, ev := range filtered {
			resp.FilteredIDs = append(resp.FilteredIDs, ev.ID)
		}
	})
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
