package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fardannozami/gym-streak/internal/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT user_id, name, role, weekly_goal, created_at FROM users WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, name, role, weekly_goal, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			weekly_goal = excluded.weekly_goal
	`
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Role, user.WeeklyGoal, createdAt.Format(time.RFC3339))
	return err
}

func (r *UserRepository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT user_id, name, role, weekly_goal, created_at FROM users ORDER BY created_at, user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ResolveLIDToPhone maps a WhatsApp LID to the phone number whatsmeow stored
// for it. Unknown LIDs come back unchanged.
func (r *UserRepository) ResolveLIDToPhone(ctx context.Context, lid string) string {
	var phone string
	err := r.db.QueryRowContext(ctx, `SELECT pn FROM whatsmeow_lid_map WHERE lid = ?`, lid).Scan(&phone)
	if err != nil || phone == "" {
		return lid
	}
	return phone
}

func (r *UserRepository) InitTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT,
			role TEXT NOT NULL DEFAULT 'member',
			weekly_goal INTEGER NOT NULL DEFAULT 3,
			created_at TEXT
		);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var createdAt sql.NullString
	if err := row.Scan(&user.ID, &user.Name, &user.Role, &user.WeeklyGoal, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid && createdAt.String != "" {
		t, err := time.Parse(time.RFC3339, createdAt.String)
		if err != nil {
			return nil, err
		}
		user.CreatedAt = t
	}
	return &user, nil
}
