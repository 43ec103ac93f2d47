package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/widget"
)

const busyMessage = "Sebentar ya %s, perubahan sebelumnya masih disimpan ⏳"

type MarkAttendanceUsecase struct {
	registry *ControllerRegistry
}

func NewMarkAttendanceUsecase(registry *ControllerRegistry) *MarkAttendanceUsecase {
	return &MarkAttendanceUsecase{registry: registry}
}

func (uc *MarkAttendanceUsecase) Execute(ctx context.Context, userID, name string) (string, error) {
	c := uc.registry.Get(ctx, userID)
	if c.Snapshot().State != controller.StateActive {
		return widget.MessageSignIn.Text(), nil
	}

	added, err := c.MarkAttendance(ctx)
	if errors.Is(err, controller.ErrMutationInFlight) {
		return fmt.Sprintf(busyMessage, name), nil
	}
	if err != nil {
		return "", err
	}
	if !added {
		return fmt.Sprintf("%s sudah absen hari ini, ayo jangan curang! 😉", name), nil
	}

	view := widget.Build(c.Snapshot())
	return fmt.Sprintf("Kehadiran diterima, %s! 🏋️\n%s", name, widget.RenderText(view)), nil
}

type ShowStreakUsecase struct {
	registry *ControllerRegistry
}

func NewShowStreakUsecase(registry *ControllerRegistry) *ShowStreakUsecase {
	return &ShowStreakUsecase{registry: registry}
}

func (uc *ShowStreakUsecase) Execute(ctx context.Context, userID, name string) (string, error) {
	c := uc.registry.Get(ctx, userID)
	return widget.RenderText(widget.Build(c.Snapshot())), nil
}

type ResetAttendanceUsecase struct {
	registry *ControllerRegistry
}

func NewResetAttendanceUsecase(registry *ControllerRegistry) *ResetAttendanceUsecase {
	return &ResetAttendanceUsecase{registry: registry}
}

func (uc *ResetAttendanceUsecase) Execute(ctx context.Context, userID, name string) (string, error) {
	c := uc.registry.Get(ctx, userID)
	if c.Snapshot().State != controller.StateActive {
		return widget.MessageSignIn.Text(), nil
	}

	err := c.Reset(ctx)
	if errors.Is(err, controller.ErrMutationInFlight) {
		return fmt.Sprintf(busyMessage, name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Riwayat kehadiran %s sudah dikosongkan.", name), nil
}

type IncrementStreakUsecase struct {
	registry *ControllerRegistry
}

func NewIncrementStreakUsecase(registry *ControllerRegistry) *IncrementStreakUsecase {
	return &IncrementStreakUsecase{registry: registry}
}

func (uc *IncrementStreakUsecase) Execute(ctx context.Context, userID, name string) (string, error) {
	c := uc.registry.Get(ctx, userID)
	if c.Snapshot().State != controller.StateActive {
		return widget.MessageSignIn.Text(), nil
	}

	_, err := c.IncrementStreak(ctx)
	switch {
	case errors.Is(err, controller.ErrDebugDisabled):
		return "", nil
	case errors.Is(err, controller.ErrMutationInFlight):
		return fmt.Sprintf(busyMessage, name), nil
	case err != nil:
		return "", err
	}
	return "[debug] " + widget.RenderText(widget.Build(c.Snapshot())), nil
}
