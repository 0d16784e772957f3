package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"filedrop/internal/models"
	"filedrop/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// SessionStore is the session backend the handlers need. *security.SessionStore implements it.
type SessionStore interface {
	sessions.Store
	Destroy(r *http.Request, w http.ResponseWriter, session *sessions.Session) error
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func RequestIDFromContext(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey).(string)
	return rid
}

type Middleware struct {
	store SessionStore
}

func NewMiddleware(store SessionStore) *Middleware {
	return &Middleware{store: store}
}

// RequestID keeps a client supplied X-Request-Id or generates one.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-Id")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, rid)))
	})
}

// Logging writes one line per request.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r)

		log.Printf("rid=%s method=%s path=%s status=%d ms=%d bytes=%d",
			RequestIDFromContext(r.Context()),
			r.Method,
			r.URL.Path,
			lrw.status,
			time.Since(start).Milliseconds(),
			lrw.size,
		)
	})
}

// Session makes sure every visitor has a persisted session, even before logging in.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, security.SessionName)
		if err != nil {
			logError(r, "session_load_failed", err)
		}
		if session.IsNew {
			if err := session.Save(r, w); err != nil {
				logError(r, "session_save_failed", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLogin redirects anonymous visitors to the login page with an error notice.
func (m *Middleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, security.SessionName)
		if err != nil {
			logError(r, "session_load_failed", err)
		}
		if security.Username(session) != "" {
			next.ServeHTTP(w, r)
			return
		}

		session.AddFlash(models.Notice{Kind: models.NoticeError, Message: "Please log in to upload files."})
		if err := session.Save(r, w); err != nil {
			logError(r, "session_save_failed", err)
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}

// RequireLoginJSON rejects anonymous callers of JSON endpoints with 401.
func (m *Middleware) RequireLoginJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, security.SessionName)
		if err != nil {
			logError(r, "session_load_failed", err)
		}
		if security.Username(session) == "" {
			writeJSON(w, http.StatusUnauthorized, result{Success: false})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func logError(r *http.Request, msg string, err error) {
	log.Printf("rid=%s msg=%q err=%v", RequestIDFromContext(r.Context()), msg, err)
}
