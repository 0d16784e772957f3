package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filedrop/internal/config"
	"filedrop/internal/db"
	"filedrop/internal/http/router"
	"filedrop/internal/security"
	"filedrop/internal/uploads"
)

func main() {
	// Load configuration
	configPath := os.Getenv("FILEDROP_CONFIG")
	if configPath == "" {
		configPath = "config/app.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("service=filedrop msg=%q path=%s err=%v", "config_defaults", configPath, err)
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("service=filedrop msg=%q err=%v", "config_env_invalid", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("service=filedrop msg=%q err=%v", "config_invalid", err)
	}

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("service=filedrop msg=%q driver=%s err=%v", "db_init_failed", cfg.DBDriver, err)
	}
	defer database.Close()

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		log.Fatalf("service=filedrop msg=%q dir=%s err=%v", "uploads_dir_failed", cfg.UploadsDir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize session store
	sessionStore := security.NewSessionStore(database, cfg.SessionTTL, []byte(cfg.Secret))
	go sessionStore.RunCleanup(ctx, cfg.SessionCleanupInterval)

	// Setup router
	r := router.Setup(router.Options{
		Credentials:         security.NewCredentials(database),
		Sessions:            sessionStore,
		Files:               uploads.NewRegistry(cfg.UploadsDir),
		UploadsDir:          cfg.UploadsDir,
		MaxUploadBytes:      cfg.MaxUploadBytes,
		PublicBaseURL:       cfg.PublicBaseURL,
		LogoutClearsSession: cfg.LogoutClearsSession,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=filedrop msg=%q addr=%s driver=%s", "starting", srv.Addr, database.Driver())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("service=filedrop msg=%q", "shutting_down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("service=filedrop msg=%q err=%v", "server_failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("service=filedrop msg=%q err=%v", "shutdown_failed", err)
	}
}
