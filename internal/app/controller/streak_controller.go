// Package controller owns the in-memory attendance of one user and mediates
// every change to it.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fardannozami/gym-streak/internal/domain"
)

var (
	ErrNotActive        = errors.New("no active user")
	ErrMutationInFlight = errors.New("another change is still being saved")
	ErrDebugDisabled    = errors.New("debug streak increment is disabled")
	ErrClosed           = errors.New("controller closed")
)

type State int

const (
	StateLoading State = iota
	StateNoUser
	StateActive
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNoUser:
		return "no_user"
	case StateActive:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Phase tracks the most recent mutation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseCommitted
	PhaseRolledBack
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseCommitted:
		return "committed"
	case PhaseRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type UserSource interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

type UserSourceFunc func(ctx context.Context) (*domain.User, error)

func (f UserSourceFunc) CurrentUser(ctx context.Context) (*domain.User, error) {
	return f(ctx)
}

type Options struct {
	// RequiredRole, when set, turns users with another role into StateNoUser.
	RequiredRole string
	// DebugEnabled allows IncrementStreak.
	DebugEnabled bool
	Clock        func() time.Time
	Logger       *log.Logger
}

// Snapshot is a read-only copy of the controller state with the streak
// recomputed for the current clock.
type Snapshot struct {
	State      State
	User       *domain.User
	Goal       int
	Attendance []string
	Streak     domain.StreakState
	Phase      Phase
	// Revision changes whenever the rendered values may have changed.
	Revision int
}

type Controller struct {
	users UserSource
	store domain.AttendanceRepository
	opts  Options
	log   *log.Logger

	mu         sync.Mutex
	loaded     bool
	closed     bool
	state      State
	user       *domain.User
	goal       int
	attendance []string
	phase      Phase
	revision   int
}

func New(users UserSource, store domain.AttendanceRepository, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		users: users,
		store: store,
		opts:  opts,
		log:   logger.WithPrefix("streak"),
		state: StateLoading,
		goal:  domain.DefaultWeeklyGoal,
	}
}

// Load fetches the current user and their attendance once. Failures are
// logged and end in StateNoUser; they are never returned.
func (c *Controller) Load(ctx context.Context) State {
	c.mu.Lock()
	if c.loaded || c.closed {
		s := c.state
		c.mu.Unlock()
		return s
	}
	c.loaded = true
	c.mu.Unlock()

	user, attendance := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state
	}
	if user == nil {
		c.state = StateNoUser
		c.attendance = nil
	} else {
		c.state = StateActive
		c.user = user
		c.goal = domain.NormalizeGoal(user.WeeklyGoal)
		c.attendance = attendance
	}
	c.revision++
	return c.state
}

func (c *Controller) fetch(ctx context.Context) (*domain.User, []string) {
	user, err := c.users.CurrentUser(ctx)
	if err != nil {
		c.log.Error("failed to load current user", "err", err)
		return nil, nil
	}
	if user == nil {
		return nil, nil
	}
	if c.opts.RequiredRole != "" && user.Role != c.opts.RequiredRole {
		c.log.Debug("user role not allowed", "user", user.ID, "role", user.Role)
		return nil, nil
	}

	attendance, err := c.store.GetAttendance(ctx, user.ID)
	if err != nil {
		c.log.Error("failed to load attendance", "user", user.ID, "err", err)
		return nil, nil
	}
	if attendance == nil {
		attendance = []string{}
	}
	return user, attendance
}

// Close discards the results of any load or mutation still in flight.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// SetGoal changes the weekly goal used for every later computation.
func (c *Controller) SetGoal(goal int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	goal = domain.NormalizeGoal(goal)
	if c.goal == goal {
		return
	}
	c.goal = goal
	if c.user != nil {
		c.user.WeeklyGoal = goal
	}
	c.revision++
}

// UpdateUser replaces the profile of the loaded user. Name and goal changes
// show up in the next snapshot.
func (c *Controller) UpdateUser(user *domain.User) {
	if user == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive || c.user == nil || c.user.ID != user.ID {
		return
	}
	u := *user
	u.WeeklyGoal = domain.NormalizeGoal(u.WeeklyGoal)
	c.user = &u
	c.goal = u.WeeklyGoal
	c.revision++
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:      c.state,
		Goal:       c.goal,
		Attendance: append([]string(nil), c.attendance...),
		Phase:      c.phase,
		Revision:   c.revision,
	}
	if c.user != nil {
		u := *c.user
		snap.User = &u
	}
	if c.state == StateActive {
		snap.Streak = domain.CalculateWeeklyStreak(c.attendance, c.goal, c.opts.Clock())
	}
	return snap
}

// MarkAttendance records today. It reports false without touching storage
// when today is already recorded.
func (c *Controller) MarkAttendance(ctx context.Context) (bool, error) {
	return c.mutate(ctx, "mark", func(current []string, _ int, now time.Time) ([]string, bool) {
		return domain.AddAttendanceIfNeeded(current, now)
	})
}

// Reset clears the whole attendance history.
func (c *Controller) Reset(ctx context.Context) error {
	_, err := c.mutate(ctx, "reset", func([]string, int, time.Time) ([]string, bool) {
		return []string{}, true
	})
	return err
}

// IncrementStreak fabricates attendance so the displayed streak grows by one
// week without waiting for real time to pass. Test affordance only.
func (c *Controller) IncrementStreak(ctx context.Context) (bool, error) {
	if !c.opts.DebugEnabled {
		return false, ErrDebugDisabled
	}
	return c.mutate(ctx, "increment", synthesizeWeek)
}

type mutation func(current []string, goal int, now time.Time) (next []string, changed bool)

func (c *Controller) mutate(ctx context.Context, name string, fn mutation) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if c.state != StateActive {
		c.mu.Unlock()
		return false, ErrNotActive
	}
	if c.phase == PhasePending {
		c.mu.Unlock()
		return false, ErrMutationInFlight
	}

	prev := c.attendance
	next, changed := fn(prev, c.goal, c.opts.Clock())
	if !changed {
		c.mu.Unlock()
		return false, nil
	}
	userID := c.user.ID
	c.attendance = next
	c.phase = PhasePending
	c.revision++
	c.mu.Unlock()

	err := c.store.SaveAttendance(ctx, userID, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}
	c.revision++
	if err != nil {
		c.attendance = prev
		c.phase = PhaseRolledBack
		c.log.Error("failed to save attendance, rolled back", "op", name, "user", userID, "err", err)
		return false, fmt.Errorf("save attendance: %w", err)
	}
	c.phase = PhaseCommitted
	c.log.Info("attendance saved", "op", name, "user", userID, "days", len(next))
	return true, nil
}

// synthesizeWeek tops up one week to the goal. With no streak it fills the
// current week, preferring days after today; with a streak it fills the week
// right before the oldest counted one. A week too short to reach the goal,
// such as the split week around new year, is left untouched.
func synthesizeWeek(current []string, goal int, now time.Time) ([]string, bool) {
	state := domain.CalculateWeeklyStreak(current, goal, now)
	today := domain.StartOfDay(now)

	var candidates []time.Time
	var have int
	if state.Streak == 0 {
		have = state.CurrentWeekCount
		days := domain.WeekDays(today)
		for _, d := range days {
			if d.After(today) {
				candidates = append(candidates, d)
			}
		}
		for i := len(days) - 1; i >= 0; i-- {
			if !days[i].After(today) {
				candidates = append(candidates, days[i])
			}
		}
	} else {
		target := today.AddDate(0, 0, -7*state.Streak)
		have = domain.CountAttendancesThisWeek(current, target)
		candidates = domain.WeekDays(target)
	}

	present := make(map[string]struct{}, len(current))
	for _, d := range current {
		present[d] = struct{}{}
	}

	var added []string
	for _, d := range candidates {
		if have >= goal {
			break
		}
		s := domain.FormatDate(d)
		if _, ok := present[s]; ok {
			continue
		}
		present[s] = struct{}{}
		added = append(added, s)
		have++
	}
	if len(added) == 0 || have < goal {
		return current, false
	}

	next := make([]string, 0, len(current)+len(added))
	next = append(next, current...)
	next = append(next, added...)
	return domain.SortedUnique(next), true
}
