package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Open opens the bot database. WAL mode and a busy timeout avoid
// "database is locked" errors while whatsmeow shares the file.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// InitSchema creates the users and attendance tables.
func InitSchema(ctx context.Context, users *UserRepository, attendance *AttendanceRepository) error {
	if err := users.InitTable(ctx); err != nil {
		return fmt.Errorf("failed to init users table: %w", err)
	}
	if err := attendance.InitTable(ctx); err != nil {
		return fmt.Errorf("failed to init attendance table: %w", err)
	}
	return nil
}
