package security

import (
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"filedrop/internal/db"
	"filedrop/internal/models"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	SessionName = "filedrop.sid"
	usernameKey = "username"
)

func init() {
	gob.Register(models.Notice{})
	gob.Register([]interface{}{})
}

// SessionRepository persists session rows. *db.DB implements it.
type SessionRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionStore is a sessions.Store that keeps session values server side. The cookie
// only carries the signed session id. Expiry is fixed when the session is first saved.
type SessionStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	repo SessionRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionStore(repo SessionRepository, ttl time.Duration, keyPairs ...[]byte) *SessionStore {
	s := &SessionStore{
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}

	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(s.Options.MaxAge)
			sc.MaxLength(0)
		}
	}
	return s
}

func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request cookie, or a fresh anonymous one when
// the cookie is missing, forged, unknown or expired.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	row, err := s.repo.GetSession(r.Context(), session.ID)
	if errors.Is(err, db.ErrNotFound) {
		session.ID = ""
		return session, nil
	}
	if err != nil {
		session.ID = ""
		return session, err
	}

	now := s.now()
	if row.Expired(now) {
		session.ID = ""
		return session, nil
	}

	if row.Data != "" {
		if err := securecookie.DecodeMulti(name, row.Data, &session.Values, s.Codecs...); err != nil {
			// Undecodable values (rotated keys) drop the stored state, not the identity column.
			session.Values = make(map[interface{}]interface{})
		}
	}
	if row.Username != "" {
		session.Values[usernameKey] = row.Username
	}
	session.Options.MaxAge = int(row.ExpiresAt.Sub(now) / time.Second)
	session.IsNew = false
	return session, nil
}

func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.repo.DeleteSession(r.Context(), session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = strings.TrimRight(
			base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return err
	}

	row := &models.Session{
		ID:        session.ID,
		Username:  Username(session),
		Data:      data,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.SaveSession(r.Context(), row); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Destroy removes the session row and expires the cookie.
func (s *SessionStore) Destroy(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	session.Options.MaxAge = -1
	session.Values = make(map[interface{}]interface{})
	return s.Save(r, w, session)
}

// RunCleanup deletes expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpiredSessions(ctx, s.now())
			if err != nil {
				log.Printf("component=sessions msg=%q err=%v", "cleanup_failed", err)
				continue
			}
			if n > 0 {
				log.Printf("component=sessions msg=%q removed=%d", "cleanup", n)
			}
		}
	}
}

// Username returns the identity attached to the session, or "" for anonymous sessions.
func Username(session *sessions.Session) string {
	name, _ := session.Values[usernameKey].(string)
	return name
}

func SetUsername(session *sessions.Session, username string) {
	session.Values[usernameKey] = username
}
