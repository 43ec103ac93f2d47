package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fardannozami/gym-streak/internal/domain"
)

const maxWeeklyGoal = 7

type RegisterUserUsecase struct {
	repo     domain.UserRepository
	registry *ControllerRegistry
	goal     int
	clock    func() time.Time
}

func NewRegisterUserUsecase(repo domain.UserRepository, registry *ControllerRegistry, defaultGoal int, clock func() time.Time) *RegisterUserUsecase {
	if defaultGoal < 1 || defaultGoal > maxWeeklyGoal {
		defaultGoal = domain.DefaultWeeklyGoal
	}
	if clock == nil {
		clock = time.Now
	}
	return &RegisterUserUsecase{repo: repo, registry: registry, goal: defaultGoal, clock: clock}
}

// Execute registers the sender, or updates name and weekly goal of an
// existing user. args may hold the weekly goal.
func (uc *RegisterUserUsecase) Execute(ctx context.Context, userID, name, args string) (string, error) {
	goal, err := parseGoal(args)
	if err != nil {
		return fmt.Sprintf("Target mingguan harus angka 1-%d, contoh: #daftar 3", maxWeeklyGoal), nil
	}

	user, err := uc.repo.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	isNew := user == nil
	if isNew {
		user = &domain.User{
			ID:         userID,
			Role:       domain.RoleMember,
			WeeklyGoal: uc.goal,
			CreatedAt:  uc.clock(),
		}
	}
	user.Name = name
	if goal > 0 {
		user.WeeklyGoal = goal
	}

	if err := uc.repo.UpsertUser(ctx, user); err != nil {
		return "", err
	}
	if uc.registry != nil {
		uc.registry.UpdateUser(user)
	}

	if isNew {
		return fmt.Sprintf("Selamat datang %s! Target kamu %d kali latihan per minggu. Kirim #hadir setiap datang ke gym 💪", name, user.WeeklyGoal), nil
	}
	return fmt.Sprintf("Profil %s diperbarui, target %d kali per minggu.", name, user.WeeklyGoal), nil
}

// parseGoal returns 0 when args carries no goal.
func parseGoal(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, nil
	}
	goal, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, err
	}
	if goal < 1 || goal > maxWeeklyGoal {
		return 0, fmt.Errorf("goal %d out of range", goal)
	}
	return goal, nil
}
