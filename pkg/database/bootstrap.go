package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkovalenko/student-journal-api/pkg/config"
)

// advisoryLockKey serializes first-boot initialization across concurrently
// starting server instances.
const advisoryLockKey = 1234567890

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	full_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_verified BOOLEAN NOT NULL DEFAULT FALSE,
	group_id TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS faculties (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS groups (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	faculty_id TEXT NOT NULL REFERENCES faculties(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subjects (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	faculty_id TEXT NOT NULL REFERENCES faculties(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subject_groups (
	id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL REFERENCES subjects(id),
	group_id TEXT NOT NULL REFERENCES groups(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS teacher_subjects (
	user_id TEXT NOT NULL REFERENCES users(id),
	subject_id TEXT NOT NULL REFERENCES subjects(id)
);

CREATE TABLE IF NOT EXISTS student_subjects (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES users(id),
	subject_id TEXT NOT NULL REFERENCES subjects(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS grades (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES users(id),
	subject_group_id TEXT NOT NULL REFERENCES subject_groups(id),
	grade INTEGER NOT NULL,
	date DATE NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL REFERENCES users(id),
	subject_group_id TEXT NOT NULL REFERENCES subject_groups(id),
	date DATE NOT NULL,
	is_present BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Bootstrap creates the schema and seed admin exactly once across a fleet of
// starting instances. The winner of the try-lock performs initialization; the
// others block on the full lock until it is done, then proceed without
// touching the schema.
func Bootstrap(ctx context.Context, db *sqlx.DB, seed config.SeedConfig, logr *zap.Logger) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire bootstrap connection: %w", err)
	}
	defer conn.Close()

	var acquired bool
	if err := conn.GetContext(ctx, &acquired, `SELECT pg_try_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("try advisory lock: %w", err)
	}

	if !acquired {
		logr.Info("another instance is initializing the database, waiting")
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("wait for advisory lock: %w", err)
		}
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		logr.Info("database initialization completed by another instance")
		return nil
	}

	defer func() {
		if _, unlockErr := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey); unlockErr != nil {
			logr.Warn("failed to release advisory lock", zap.Error(unlockErr))
		}
	}()

	var exists bool
	err = conn.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'users')`)
	if err != nil {
		return fmt.Errorf("check schema presence: %w", err)
	}

	if exists {
		logr.Info("database tables already exist, skipping initialization")
	} else {
		logr.Info("initializing database tables")
		if _, err := conn.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return seedAdmin(ctx, conn, seed, logr)
}

func seedAdmin(ctx context.Context, conn *sqlx.Conn, seed config.SeedConfig, logr *zap.Logger) error {
	var count int
	if err := conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE username = $1`, seed.AdminUsername); err != nil {
		return fmt.Errorf("check seed admin: %w", err)
	}
	if count > 0 {
		logr.Info("default admin user already exists")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}

	const insert = `INSERT INTO users (id, username, email, full_name, password_hash, role, is_active, is_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'admin', TRUE, TRUE, NOW(), NOW())`
	if _, err := conn.ExecContext(ctx, insert,
		uuid.NewString(),
		seed.AdminUsername,
		"admin@example.com",
		"Адміністратор системи",
		string(hash),
	); err != nil {
		return fmt.Errorf("create seed admin: %w", err)
	}

	logr.Info("created default admin user", zap.String("username", seed.AdminUsername))
	return nil
}
