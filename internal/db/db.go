package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"filedrop/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

//go:embed migrations
var migrationsFS embed.FS

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already taken")
)

type DB struct {
	*sql.DB
	driver string
}

// Init opens the database, checks connectivity and applies pending migrations.
// SQLite handles are limited to one connection: the file is shared by every request.
func Init(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrateUp(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, driver: driver}, nil
}

func migrateUp(db *sql.DB, driver string) error {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer src.Close()

	var target database.Driver
	switch driver {
	case "sqlite3":
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	case "postgres":
		target, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	// m.Close would close db as well, so only the source is released.
	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	query := "INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id"

	user := &models.User{Username: username, PasswordHash: passwordHash}
	if err := db.QueryRowContext(ctx, query, username, passwordHash).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT id, username, password_hash FROM users WHERE username = $1"

	user := &models.User{}
	err := db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

func (db *DB) GetSession(ctx context.Context, id string) (*models.Session, error) {
	query := "SELECT id, username, data, expires_at FROM sessions WHERE id = $1"

	var (
		session  models.Session
		username sql.NullString
		expires  int64
	)
	err := db.QueryRowContext(ctx, query, id).Scan(&session.ID, &username, &session.Data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	session.Username = username.String
	session.ExpiresAt = time.Unix(expires, 0)
	return &session, nil
}

// SaveSession inserts the session or updates its username and data. The expiry of an
// existing row is never changed.
func (db *DB) SaveSession(ctx context.Context, s *models.Session) error {
	query := `INSERT INTO sessions (id, username, data, expires_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username, data = excluded.data`

	username := sql.NullString{String: s.Username, Valid: s.Username != ""}
	if _, err := db.ExecContext(ctx, query, s.ID, username, s.Data, s.ExpiresAt.Unix()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session whose expiry is at or before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (db *DB) Driver() string {
	return db.driver
}
