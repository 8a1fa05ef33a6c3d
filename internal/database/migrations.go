package database

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Up      string
	Down    string
}

// Migrations contains all database migrations
var Migrations = []Migration{
	{
		Version: 1,
		Up: `
			CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				email VARCHAR(255) UNIQUE NOT NULL,
				full_name VARCHAR(255) NOT NULL,
				role VARCHAR(50) NOT NULL DEFAULT 'estudiante',
				password_hash VARCHAR(255) NOT NULL,
				blocked BOOLEAN NOT NULL DEFAULT false,
				blocked_reason TEXT,
				blocked_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
			CREATE INDEX IF NOT EXISTS idx_users_blocked ON users(blocked) WHERE blocked;
		`,
		Down: `
			DROP TABLE IF EXISTS users;
		`,
	},
	{
		Version: 2,
		Up: `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version INT PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT NOW()
			);
		`,
		Down: `
			DROP TABLE IF EXISTS schema_migrations;
		`,
	},
	{
		Version: 3,
		Up: `
			CREATE TABLE IF NOT EXISTS messages (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				sender_id UUID NOT NULL REFERENCES users(id),
				receiver_id UUID NOT NULL REFERENCES users(id),
				content TEXT NOT NULL,
				read BOOLEAN NOT NULL DEFAULT false,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at);
			CREATE INDEX IF NOT EXISTS idx_messages_receiver_unread ON messages(receiver_id) WHERE NOT read;
		`,
		Down: `
			DROP TABLE IF EXISTS messages;
		`,
	},
	{
		Version: 4,
		Up: `
			CREATE TABLE IF NOT EXISTS flagged_messages (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				message_id UUID,
				sender_id UUID NOT NULL REFERENCES users(id),
				receiver_id UUID NOT NULL REFERENCES users(id),
				content TEXT NOT NULL,
				matched_words TEXT[] NOT NULL DEFAULT '{}',
				category VARCHAR(50),
				reviewed BOOLEAN NOT NULL DEFAULT false,
				reviewed_by UUID REFERENCES users(id),
				reviewed_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_flagged_messages_reviewed ON flagged_messages(reviewed, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_flagged_messages_sender ON flagged_messages(sender_id);
		`,
		Down: `
			DROP TABLE IF EXISTS flagged_messages;
		`,
	},
	{
		Version: 5,
		Up: `
			CREATE TABLE IF NOT EXISTS blocked_pairs (
				id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
				user_a UUID NOT NULL REFERENCES users(id),
				user_b UUID NOT NULL REFERENCES users(id),
				created_at TIMESTAMP NOT NULL DEFAULT NOW(),
				UNIQUE(user_a, user_b),
				CHECK (user_a < user_b)
			);

			CREATE INDEX IF NOT EXISTS idx_blocked_pairs_user_a ON blocked_pairs(user_a);
			CREATE INDEX IF NOT EXISTS idx_blocked_pairs_user_b ON blocked_pairs(user_b);
		`,
		Down: `
			DROP TABLE IF EXISTS blocked_pairs;
		`,
	},
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB) error {
	// Ensure migrations table exists
	if err := ensureMigrationsTable(db); err != nil {
		return err
	}

	// Get current version
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return err
	}

	// Run pending migrations in ascending order by version
	sorted := make([]Migration, len(Migrations))
	copy(sorted, Migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, migration := range sorted {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d...\n", migration.Version)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if _, err := tx.Exec(migration.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to run migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("Migration %d completed\n", migration.Version)
	}

	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
