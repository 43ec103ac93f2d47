package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fardannozami/gym-streak/internal/domain"
)

type GetLeaderboardUsecase struct {
	users        domain.UserRepository
	attendance   domain.AttendanceRepository
	requiredRole string
	clock        func() time.Time
}

// NewGetLeaderboardUsecase ranks users whose role is requiredRole, the same
// role the streak controllers track. An empty role ranks everyone.
func NewGetLeaderboardUsecase(users domain.UserRepository, attendance domain.AttendanceRepository, requiredRole string, clock func() time.Time) *GetLeaderboardUsecase {
	if clock == nil {
		clock = time.Now
	}
	return &GetLeaderboardUsecase{users: users, attendance: attendance, requiredRole: requiredRole, clock: clock}
}

type leaderboardEntry struct {
	name  string
	goal  int
	state domain.StreakState
}

func (uc *GetLeaderboardUsecase) Execute(ctx context.Context) (string, error) {
	users, err := uc.users.GetAllUsers(ctx)
	if err != nil {
		return "", err
	}

	now := uc.clock()

	// Active 🔥: current week already meets the goal.
	// Building 💪: some visits this week, goal not met yet.
	// Idle 💤: nothing this week.
	var active, building, idle []leaderboardEntry
	for _, u := range users {
		if uc.requiredRole != "" && u.Role != uc.requiredRole {
			continue
		}
		dates, err := uc.attendance.GetAttendance(ctx, u.ID)
		if err != nil {
			return "", err
		}
		goal := domain.NormalizeGoal(u.WeeklyGoal)
		e := leaderboardEntry{
			name:  u.Name,
			goal:  goal,
			state: domain.CalculateWeeklyStreak(dates, goal, now),
		}
		switch {
		case e.state.Streak > 0:
			active = append(active, e)
		case e.state.CurrentWeekCount > 0:
			building = append(building, e)
		default:
			idle = append(idle, e)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if active[i].state.Streak != active[j].state.Streak {
			return active[i].state.Streak > active[j].state.Streak
		}
		return active[i].state.CurrentWeekCount > active[j].state.CurrentWeekCount
	})
	sort.SliceStable(building, func(i, j int) bool {
		return building[i].state.CurrentWeekCount > building[j].state.CurrentWeekCount
	})

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Gym Streak – %s (%s)\n\n", domain.WeekKey(now), now.Format("02-01-2006")))
	sb.WriteString(fmt.Sprintf("%d orang on streak 🔥\n", len(active)))
	sb.WriteString(fmt.Sprintf("%d orang sedang mengejar target 💪\n", len(building)))
	sb.WriteString(fmt.Sprintf("%d orang belum latihan minggu ini 💤\n", len(idle)))
	sb.WriteString("\nKlasemen sementara:\n")

	rank := 1
	for _, e := range active {
		sb.WriteString(fmt.Sprintf("%d. %s - %d minggu 🔥 (%d/%d)\n", rank, e.name, e.state.Streak, e.state.CurrentWeekCount, e.goal))
		rank++
	}
	for _, e := range building {
		sb.WriteString(fmt.Sprintf("%d. %s - %d/%d 💪\n", rank, e.name, e.state.CurrentWeekCount, e.goal))
		rank++
	}
	for _, e := range idle {
		sb.WriteString(fmt.Sprintf("%d. %s - 0/%d 💤\n", rank, e.name, e.goal))
		rank++
	}

	sb.WriteString("\nYang sudah ke gym langsung kirim #hadir biar masuk klasemen 💪\n\nSemangat🔥")

	return sb.String(), nil
}
