package widget_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/widget"
	"github.com/fardannozami/gym-streak/internal/domain"
)

func active(streak, week, goal int) controller.Snapshot {
	return controller.Snapshot{
		State:  controller.StateActive,
		User:   &domain.User{ID: "u1", Name: "Ana"},
		Goal:   goal,
		Streak: domain.StreakState{CurrentWeekCount: week, Streak: streak},
	}
}

func TestBuild_Loading(t *testing.T) {
	v := widget.Build(controller.Snapshot{State: controller.StateLoading})
	assert.False(t, v.ShowStreak)
	assert.Equal(t, widget.MessageNone, v.Message)
	assert.Empty(t, v.Markers)
}

func TestBuild_NoUser(t *testing.T) {
	v := widget.Build(controller.Snapshot{State: controller.StateNoUser})
	assert.True(t, v.ShowStreak)
	assert.True(t, v.Muted)
	assert.Zero(t, v.Streak)
	assert.Equal(t, widget.MessageSignIn, v.Message)
}

func TestBuild_ActiveMessages(t *testing.T) {
	cases := []struct {
		name   string
		streak int
		week   int
		want   widget.Message
	}{
		{"on streak", 2, 3, widget.MessageOnStreak},
		{"keep going", 0, 1, widget.MessageKeepGoing},
		{"start", 0, 0, widget.MessageStartStreak},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := widget.Build(active(tc.streak, tc.week, 3))
			assert.Equal(t, tc.want, v.Message)
			assert.Equal(t, tc.streak, v.Streak)
			assert.Equal(t, "Ana", v.Name)
		})
	}
}

func TestBuild_MarkersFollowCurrentWeek(t *testing.T) {
	v := widget.Build(active(0, 2, 4))
	assert.Equal(t, []bool{true, true, false, false}, v.Markers)

	// More visits than the goal still shows exactly one marker per goal unit.
	v = widget.Build(active(1, 5, 3))
	assert.Equal(t, []bool{true, true, true}, v.Markers)
}

func TestRenderText(t *testing.T) {
	out := widget.RenderText(widget.Build(active(2, 1, 3)))
	for _, want := range []string{"Ana", "Streak mingguan: 2", "🟢⚪⚪ 1/3", widget.MessageOnStreak.Text()} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}

	out = widget.RenderText(widget.Build(controller.Snapshot{State: controller.StateNoUser}))
	assert.Contains(t, out, "#daftar")
}
