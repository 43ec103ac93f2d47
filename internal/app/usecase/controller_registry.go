package usecase

import (
	"context"
	"sync"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/domain"
)

// ControllerRegistry keeps one loaded controller per active user so that
// concurrent messages from the same sender share a single in-flight guard.
type ControllerRegistry struct {
	users      domain.UserRepository
	attendance domain.AttendanceRepository
	opts       controller.Options

	mu          sync.Mutex
	controllers map[string]*controller.Controller
}

func NewControllerRegistry(users domain.UserRepository, attendance domain.AttendanceRepository, opts controller.Options) *ControllerRegistry {
	return &ControllerRegistry{
		users:       users,
		attendance:  attendance,
		opts:        opts,
		controllers: make(map[string]*controller.Controller),
	}
}

// Get returns the controller for userID, loading it on first use. Only
// active controllers are kept, so a later registration is picked up.
func (r *ControllerRegistry) Get(ctx context.Context, userID string) *controller.Controller {
	r.mu.Lock()
	if c, ok := r.controllers[userID]; ok {
		r.mu.Unlock()
		return c
	}
	r.mu.Unlock()

	source := controller.UserSourceFunc(func(ctx context.Context) (*domain.User, error) {
		return r.users.GetUser(ctx, userID)
	})
	c := controller.New(source, r.attendance, r.opts)
	if c.Load(ctx) != controller.StateActive {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.controllers[userID]; ok {
		c.Close()
		return existing
	}
	r.controllers[userID] = c
	return c
}

// UpdateUser pushes a profile change into a live controller, if any.
func (r *ControllerRegistry) UpdateUser(user *domain.User) {
	if user == nil {
		return
	}
	r.mu.Lock()
	c, ok := r.controllers[user.ID]
	r.mu.Unlock()
	if ok {
		c.UpdateUser(user)
	}
}

// Forget closes and drops the controller of userID.
func (r *ControllerRegistry) Forget(userID string) {
	r.mu.Lock()
	c, ok := r.controllers[userID]
	delete(r.controllers, userID)
	r.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (r *ControllerRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.controllers {
		c.Close()
		delete(r.controllers, id)
	}
}
