package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/boutique/internal/cookie"
)

// Manager loads the session for each request and writes it back when it changed.
type Manager struct {
	store   Store
	cookies *cookie.Config
	ttl     time.Duration
	logger  *slog.Logger
}

func NewManager(store Store, cookies *cookie.Config, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{store: store, cookies: cookies, ttl: ttl, logger: logger}
}

// load returns the stored session for id, or a fresh unsaved one.
func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.fresh()
	}

	data, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.fresh()
		}
		return nil, err
	}

	s, err := decodeSession(id, data)
	if err != nil {
		// Unreadable payloads are replaced rather than failing every request.
		m.logger.Warn("discarding corrupt session", "error", err)
		return m.fresh()
	}
	return s, nil
}

func (m *Manager) fresh() (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	return newSession(id), nil
}

// commit persists s if it changed and sets or clears the cookie.
func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.dirty {
		return nil
	}

	if s.oldID != "" {
		if err := m.store.Delete(ctx, s.oldID); err != nil {
			return err
		}
		s.oldID = ""
	}

	if s.destroyed {
		if err := m.store.Delete(ctx, s.id); err != nil {
			return err
		}
		m.cookies.ClearSession(w, cookie.SessionCookieName)
		s.dirty = false
		return nil
	}

	data, err := s.encode()
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, s.id, data, m.ttl); err != nil {
		return err
	}
	m.cookies.SetSession(w, cookie.SessionCookieName, s.id, int(m.ttl.Seconds()))
	s.dirty = false
	return nil
}

// Middleware attaches the session to the request context. Changes are saved
// just before the response header is written, so handlers must modify the
// session before writing their response.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, err := m.load(ctx, cookie.Get(r, cookie.SessionCookieName))
		if err != nil {
			m.logger.Error("failed to load session", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		sw := &sessionWriter{ResponseWriter: w, commit: func() {
			if err := m.commit(ctx, w, s); err != nil {
				m.logger.Error("failed to save session", "error", err)
			}
		}}

		next.ServeHTTP(sw, r.WithContext(NewContext(ctx, s)))

		if !sw.wroteHeader {
			sw.commit()
		}
	})
}

type sessionWriter struct {
	http.ResponseWriter
	commit      func()
	wroteHeader bool
}

func (w *sessionWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
