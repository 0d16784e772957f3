package handlers

import (
	"encoding/json"
	"net/http"

	"filedrop/internal/http/views"
	"filedrop/internal/models"
	"filedrop/internal/security"

	"github.com/gorilla/sessions"
)

type result struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pages renders templates with the session's identity and pending notices.
type pages struct {
	store SessionStore
}

// session returns the request's session. On a store error gorilla still hands back a
// usable, empty session, so the request proceeds as anonymous.
func (p *pages) session(r *http.Request) *sessions.Session {
	session, err := p.store.Get(r, security.SessionName)
	if err != nil {
		logError(r, "session_load_failed", err)
	}
	return session
}

func (p *pages) notify(w http.ResponseWriter, r *http.Request, notice models.Notice) {
	session := p.session(r)
	session.AddFlash(notice)
	if err := session.Save(r, w); err != nil {
		logError(r, "session_save_failed", err)
	}
}

func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	session := p.session(r)
	page.Username = security.Username(session)

	if flashes := session.Flashes(); len(flashes) > 0 {
		for _, f := range flashes {
			if n, ok := f.(models.Notice); ok {
				page.Notices = append(page.Notices, n)
			}
		}
		if err := session.Save(r, w); err != nil {
			logError(r, "session_save_failed", err)
		}
	}

	if err := views.Render(w, status, name, page); err != nil {
		logError(r, "render_failed", err)
	}
}
