package domain

import (
	"context"
	"time"
)

const (
	RoleMember = "member"
	RoleCoach  = "coach"

	DefaultWeeklyGoal = 3
)

type User struct {
	ID         string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	Role       string    `json:"role" db:"role"`
	WeeklyGoal int       `json:"weekly_goal" db:"weekly_goal"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type UserRepository interface {
	// GetUser returns nil, nil when the user does not exist.
	GetUser(ctx context.Context, userID string) (*User, error)
	UpsertUser(ctx context.Context, user *User) error
	GetAllUsers(ctx context.Context) ([]*User, error)
}
