package router

import (
	"net/http"

	"filedrop/internal/http/handlers"

	"github.com/gorilla/mux"
)

type Options struct {
	Credentials         handlers.Authenticator
	Sessions            handlers.SessionStore
	Files               handlers.Files
	UploadsDir          string
	MaxUploadBytes      int64
	PublicBaseURL       string
	LogoutClearsSession bool
}

func Setup(opts Options) *mux.Router {
	r := mux.NewRouter()

	// Initialize handlers
	mw := handlers.NewMiddleware(opts.Sessions)
	authHandler := handlers.NewAuthHandler(opts.Credentials, opts.Sessions, opts.LogoutClearsSession)
	fileHandler := handlers.NewFileHandler(opts.Files, opts.Sessions, opts.MaxUploadBytes, opts.PublicBaseURL)

	r.Use(mw.RequestID, mw.Logging, mw.Session)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	r.HandleFunc("/register", authHandler.RegisterForm).Methods("GET")
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.LoginForm).Methods("GET")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("GET")

	r.Handle("/", mw.RequireLogin(http.HandlerFunc(fileHandler.Index))).Methods("GET")
	r.Handle("/upload", mw.RequireLogin(http.HandlerFunc(fileHandler.UploadFile))).Methods("POST")
	r.Handle("/delete/{filename}", mw.RequireLoginJSON(http.HandlerFunc(fileHandler.DeleteFile))).Methods("DELETE")

	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))

	return r
}
