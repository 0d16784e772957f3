package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"filedrop/internal/http/views"
	"filedrop/internal/models"
	"filedrop/internal/security"
)

// Authenticator is the credential store. *security.Credentials implements it.
type Authenticator interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type AuthHandler struct {
	pages
	creds               Authenticator
	logoutClearsSession bool
}

func NewAuthHandler(creds Authenticator, store SessionStore, logoutClearsSession bool) *AuthHandler {
	return &AuthHandler{
		pages:               pages{store: store},
		creds:               creds,
		logoutClearsSession: logoutClearsSession,
	}
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", views.Page{Title: "Register"})
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", views.Page{Title: "Log in"})
}

// Logout renders the login page. The session is only cleared when configured to.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if !h.logoutClearsSession {
		h.LoginForm(w, r)
		return
	}

	if err := h.store.Destroy(r, w, h.session(r)); err != nil {
		logError(r, "session_destroy_failed", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	username, password, ok := readCredentials(r)
	if !ok {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if _, err := h.creds.Register(r.Context(), username, password); err != nil {
		if errors.Is(err, security.ErrDuplicateUsername) {
			logError(r, "register_duplicate", err)
		} else {
			logError(r, "register_failed", err)
		}
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	h.signIn(w, r, username)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	username, password, ok := readCredentials(r)
	if !ok {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.creds.Authenticate(r.Context(), username, password)
	if errors.Is(err, security.ErrInvalidCredentials) {
		http.Error(w, "Invalid username or password!", http.StatusBadRequest)
		return
	}
	if err != nil {
		logError(r, "login_failed", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.signIn(w, r, user.Username)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, username string) {
	session := h.session(r)
	security.SetUsername(session, username)
	if err := session.Save(r, w); err != nil {
		logError(r, "session_save_failed", err)
	}
}

// readCredentials accepts a JSON body or a regular form post.
func readCredentials(r *http.Request) (username, password string, ok bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", "", false
		}
		username, password = req.Username, req.Password
	} else {
		username, password = r.PostFormValue("username"), r.PostFormValue("password")
	}
	return username, password, username != "" && password != ""
}
