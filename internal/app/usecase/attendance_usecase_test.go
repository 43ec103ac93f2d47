package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/usecase"
	"github.com/fardannozami/gym-streak/internal/domain"
	"github.com/fardannozami/gym-streak/internal/infra/exercisedb"
)

// mockUserRepo implements domain.UserRepository for testing
type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func (m *mockUserRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) UpsertUser(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.User
	for _, id := range []string{"user1", "user2", "user3", "coach1"} {
		if u, ok := m.users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

// mockAttendanceRepo implements domain.AttendanceRepository for testing
type mockAttendanceRepo struct {
	mu      sync.Mutex
	dates   map[string][]string
	saves   int
	saveErr error
}

func (m *mockAttendanceRepo) GetAttendance(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.dates[userID]...), nil
}

func (m *mockAttendanceRepo) SaveAttendance(ctx context.Context, userID string, dates []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.dates[userID] = append([]string{}, dates...)
	return nil
}

// Saturday 2024-06-15, the week runs Sunday 06-09 .. Saturday 06-15.
func fixedClock() time.Time {
	return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
}

type fixture struct {
	users      *mockUserRepo
	attendance *mockAttendanceRepo
	registry   *usecase.ControllerRegistry
	register   *usecase.RegisterUserUsecase
	mark       *usecase.MarkAttendanceUsecase
	show       *usecase.ShowStreakUsecase
	reset      *usecase.ResetAttendanceUsecase
	increment  *usecase.IncrementStreakUsecase
}

func newFixture(debug bool) *fixture {
	f := &fixture{
		users:      &mockUserRepo{users: make(map[string]*domain.User)},
		attendance: &mockAttendanceRepo{dates: make(map[string][]string)},
	}
	f.registry = usecase.NewControllerRegistry(f.users, f.attendance, controller.Options{
		RequiredRole: domain.RoleMember,
		DebugEnabled: debug,
		Clock:        fixedClock,
		Logger:       log.New(io.Discard),
	})
	f.register = usecase.NewRegisterUserUsecase(f.users, f.registry, 3, fixedClock)
	f.mark = usecase.NewMarkAttendanceUsecase(f.registry)
	f.show = usecase.NewShowStreakUsecase(f.registry)
	f.reset = usecase.NewResetAttendanceUsecase(f.registry)
	f.increment = usecase.NewIncrementStreakUsecase(f.registry)
	return f
}

// =============================================================================
// ATTENDANCE RULES
// =============================================================================
//
// 1. Unregistered sender → sign-in hint, nothing stored
// 2. #hadir once per day → today stored, widget shown
// 3. #hadir again same day → rejected ("sudah absen hari ini"), no write
// 4. Failed write → error returned, nothing stored, widget unchanged
// 5. Goal change via #daftar reaches the live controller
//
// =============================================================================

func TestMarkAttendance_Unregistered(t *testing.T) {
	f := newFixture(false)

	msg, err := f.mark.Execute(context.Background(), "stranger", "Nobody")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(msg, "#daftar") {
		t.Errorf("Expected sign-in hint, got '%s'", msg)
	}
	if f.attendance.saves != 0 {
		t.Errorf("Expected no writes, got %d", f.attendance.saves)
	}
}

func TestMarkAttendance_FirstVisit(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	if _, err := f.register.Execute(ctx, "user1", "Alice", ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	msg, err := f.mark.Execute(ctx, "user1", "Alice")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(msg, "Kehadiran diterima, Alice!") {
		t.Errorf("Expected confirmation, got '%s'", msg)
	}
	if !containsSubstring(msg, "1/3") {
		t.Errorf("Expected weekly progress 1/3, got '%s'", msg)
	}

	dates := f.attendance.dates["user1"]
	if len(dates) != 1 || dates[0] != "2024-06-15" {
		t.Errorf("Expected [2024-06-15], got %v", dates)
	}
}

func TestMarkAttendance_SameDay_Rejected(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	f.users.users["user1"] = &domain.User{ID: "user1", Name: "Diana", Role: domain.RoleMember, WeeklyGoal: 3}
	f.attendance.dates["user1"] = []string{"2024-06-15"}

	msg, err := f.mark.Execute(ctx, "user1", "Diana")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := "Diana sudah absen hari ini, ayo jangan curang! 😉"
	if msg != expected {
		t.Errorf("Same day: expected rejection message, got '%s'", msg)
	}
	if f.attendance.saves != 0 {
		t.Errorf("Same day: expected no write, got %d", f.attendance.saves)
	}
}

func TestMarkAttendance_SaveFails(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()
	f.users.users["user1"] = &domain.User{ID: "user1", Name: "Eve", Role: domain.RoleMember, WeeklyGoal: 3}
	f.attendance.saveErr = errors.New("database is locked")

	if _, err := f.mark.Execute(ctx, "user1", "Eve"); err == nil {
		t.Fatal("Expected error when storage fails")
	}

	msg, _ := f.show.Execute(ctx, "user1", "Eve")
	if !containsSubstring(msg, "0/3") {
		t.Errorf("Widget should be rolled back to 0/3, got '%s'", msg)
	}
}

func TestRegister_GoalReachesLiveController(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	if _, err := f.register.Execute(ctx, "user1", "Bob", "3"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := f.mark.Execute(ctx, "user1", "Bob"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	msg, _ := f.show.Execute(ctx, "user1", "Bob")
	if !containsSubstring(msg, "Streak mingguan: 0") {
		t.Errorf("Goal 3 with one visit: expected streak 0, got '%s'", msg)
	}

	reply, err := f.register.Execute(ctx, "user1", "Bob", "1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(reply, "diperbarui") {
		t.Errorf("Expected profile update reply, got '%s'", reply)
	}

	msg, _ = f.show.Execute(ctx, "user1", "Bob")
	if !containsSubstring(msg, "Streak mingguan: 1") || !containsSubstring(msg, "1/1") {
		t.Errorf("Goal 1 with one visit: expected streak 1, got '%s'", msg)
	}
}

func TestRegister_NameChangeReachesLiveController(t *testing.T) {
	f := newFixture(false)
	ctx := context.Background()

	if _, err := f.register.Execute(ctx, "user1", "Ana", ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	msg, _ := f.show.Execute(ctx, "user1", "Ana")
	if !containsSubstring(msg, "Ana\n") {
		t.Fatalf("Expected widget with name, got '%s'", msg)
	}

	if _, err := f.register.Execute(ctx, "user1", "Ana Baru", ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	msg, _ = f.show.Execute(ctx, "user1", "Ana Baru")
	if indexOf(msg, "Ana Baru\n") != 0 {
		t.Errorf("Widget should show the new name, got '%s'", msg)
	}
}

func TestRegister_CreatedAtUsesClock(t *testing.T) {
	f := newFixture(false)

	if _, err := f.register.Execute(context.Background(), "user1", "Bob", ""); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := f.users.users["user1"].CreatedAt; !got.Equal(fixedClock()) {
		t.Errorf("CreatedAt should come from the clock, got %v", got)
	}
}

func TestRegister_InvalidGoal(t *testing.T) {
	f := newFixture(false)

	for _, args := range []string{"0", "8", "abc", "-2"} {
		msg, err := f.register.Execute(context.Background(), "user1", "Bob", args)
		if err != nil {
			t.Fatalf("Unexpected error for '%s': %v", args, err)
		}
		if !containsSubstring(msg, "1-7") {
			t.Errorf("Expected range hint for '%s', got '%s'", args, msg)
		}
	}
	if len(f.users.users) != 0 {
		t.Error("Invalid goal must not register the user")
	}
}

func TestShowStreak_CoachIsNotTracked(t *testing.T) {
	f := newFixture(false)
	f.users.users["coach1"] = &domain.User{ID: "coach1", Name: "Coach", Role: domain.RoleCoach, WeeklyGoal: 3}

	msg, _ := f.show.Execute(context.Background(), "coach1", "Coach")
	if !containsSubstring(msg, "#daftar") {
		t.Errorf("Coach should see the sign-in state, got '%s'", msg)
	}
}

func TestDebugCommands(t *testing.T) {
	f := newFixture(true)
	ctx := context.Background()
	f.users.users["user1"] = &domain.User{ID: "user1", Name: "Dev", Role: domain.RoleMember, WeeklyGoal: 2}

	msg, err := f.increment.Execute(ctx, "user1", "Dev")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(msg, "[debug]") || !containsSubstring(msg, "Streak mingguan: 1") {
		t.Errorf("Expected streak 1 after increment, got '%s'", msg)
	}

	msg, _ = f.increment.Execute(ctx, "user1", "Dev")
	if !containsSubstring(msg, "Streak mingguan: 2") {
		t.Errorf("Expected streak 2 after second increment, got '%s'", msg)
	}

	if _, err := f.reset.Execute(ctx, "user1", "Dev"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(f.attendance.dates["user1"]) != 0 {
		t.Errorf("Expected empty attendance after reset, got %v", f.attendance.dates["user1"])
	}
}

func TestIncrement_DisabledIsSilent(t *testing.T) {
	f := newFixture(false)
	f.users.users["user1"] = &domain.User{ID: "user1", Name: "Dev", Role: domain.RoleMember, WeeklyGoal: 2}

	msg, err := f.increment.Execute(context.Background(), "user1", "Dev")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if msg != "" {
		t.Errorf("Expected no reply, got '%s'", msg)
	}
}

// =============================================================================
// LEADERBOARD
// =============================================================================
//
// On streak 🔥: current week met the goal, ranked by streak length
// Chasing 💪: some visits this week, ranked by visits
// Idle 💤: nothing this week
// Coaches are not listed.
//
// =============================================================================

func TestLeaderboard_RanksByStreak(t *testing.T) {
	users := &mockUserRepo{users: map[string]*domain.User{
		"user1":  {ID: "user1", Name: "Idle_User", Role: domain.RoleMember, WeeklyGoal: 3},
		"user2":  {ID: "user2", Name: "Chasing_User", Role: domain.RoleMember, WeeklyGoal: 3},
		"user3":  {ID: "user3", Name: "Streak_User", Role: domain.RoleMember, WeeklyGoal: 3},
		"coach1": {ID: "coach1", Name: "The_Coach", Role: domain.RoleCoach, WeeklyGoal: 3},
	}}
	attendance := &mockAttendanceRepo{dates: map[string][]string{
		"user1": {"2024-05-01"},
		"user2": {"2024-06-10"},
		"user3": {"2024-06-03", "2024-06-04", "2024-06-05", "2024-06-10", "2024-06-11", "2024-06-12"},
	}}
	uc := usecase.NewGetLeaderboardUsecase(users, attendance, domain.RoleMember, fixedClock)

	result, err := uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pos1 := indexOf(result, "Streak_User")
	pos2 := indexOf(result, "Chasing_User")
	pos3 := indexOf(result, "Idle_User")
	if pos1 < 0 || pos1 > pos2 || pos2 > pos3 {
		t.Errorf("Leaderboard order wrong: got positions %d, %d, %d", pos1, pos2, pos3)
	}

	if !containsSubstring(result, "Streak_User - 2 minggu 🔥 (3/3)") {
		t.Errorf("Streak user line missing, got:\n%s", result)
	}
	if !containsSubstring(result, "Chasing_User - 1/3 💪") {
		t.Errorf("Chasing user line missing, got:\n%s", result)
	}
	if !containsSubstring(result, "Idle_User - 0/3 💤") {
		t.Errorf("Idle user line missing, got:\n%s", result)
	}
	if containsSubstring(result, "The_Coach") {
		t.Error("Coach must not be ranked")
	}
	if !containsSubstring(result, "2024-W24") {
		t.Errorf("Header should carry the week key, got:\n%s", result)
	}
}

func TestLeaderboard_UsesConfiguredRole(t *testing.T) {
	users := &mockUserRepo{users: map[string]*domain.User{
		"user1":  {ID: "user1", Name: "Member_User", Role: domain.RoleMember, WeeklyGoal: 3},
		"coach1": {ID: "coach1", Name: "The_Coach", Role: domain.RoleCoach, WeeklyGoal: 3},
	}}
	attendance := &mockAttendanceRepo{dates: map[string][]string{}}

	result, err := usecase.NewGetLeaderboardUsecase(users, attendance, domain.RoleCoach, fixedClock).Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(result, "The_Coach") || containsSubstring(result, "Member_User") {
		t.Errorf("Only coaches should be ranked, got:\n%s", result)
	}

	result, err = usecase.NewGetLeaderboardUsecase(users, attendance, "", fixedClock).Execute(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(result, "The_Coach") || !containsSubstring(result, "Member_User") {
		t.Errorf("Empty role should rank everyone, got:\n%s", result)
	}
}

// =============================================================================
// EXERCISE LOOKUP
// =============================================================================

type mockFinder struct {
	results []exercisedb.Exercise
	err     error
}

func (m *mockFinder) SearchByName(ctx context.Context, name string) ([]exercisedb.Exercise, error) {
	return m.results, m.err
}

func TestLookupExercise(t *testing.T) {
	finder := &mockFinder{results: []exercisedb.Exercise{
		{Name: "barbell full squat", Target: "glutes", BodyPart: "upper legs", Equipment: "barbell"},
	}}
	uc := usecase.NewLookupExerciseUsecase(finder)
	ctx := context.Background()

	msg, err := uc.Execute(ctx, "squat")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !containsSubstring(msg, "1. barbell full squat - glutes (upper legs, barbell)") {
		t.Errorf("Unexpected lookup output: '%s'", msg)
	}

	if msg, _ := uc.Execute(ctx, "  "); !containsSubstring(msg, "#latihan") {
		t.Errorf("Empty query should show usage, got '%s'", msg)
	}

	finder.results = nil
	if msg, _ := uc.Execute(ctx, "levitation"); !containsSubstring(msg, "tidak ditemukan") {
		t.Errorf("Expected not found message, got '%s'", msg)
	}

	finder.err = errors.New("rate limited")
	if _, err := uc.Execute(ctx, "squat"); err == nil {
		t.Error("Expected finder error to propagate")
	}
}
