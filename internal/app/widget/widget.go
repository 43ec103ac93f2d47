// Package widget turns controller snapshots into what the streak widget shows.
package widget

import (
	"fmt"
	"strings"

	"github.com/fardannozami/gym-streak/internal/app/controller"
)

type Message int

const (
	MessageNone Message = iota
	MessageSignIn
	MessageStartStreak
	MessageKeepGoing
	MessageOnStreak
)

type View struct {
	State controller.State
	Name  string
	// ShowStreak is false while loading; the numbers are meaningless then.
	ShowStreak       bool
	Muted            bool
	Streak           int
	CurrentWeekCount int
	Goal             int
	// Markers holds one entry per goal unit, true when filled.
	Markers []bool
	Message Message
}

func Build(s controller.Snapshot) View {
	v := View{State: s.State}
	switch s.State {
	case controller.StateLoading:
		return v
	case controller.StateNoUser:
		v.ShowStreak = true
		v.Muted = true
		v.Message = MessageSignIn
		return v
	}

	v.ShowStreak = true
	if s.User != nil {
		v.Name = s.User.Name
	}
	v.Streak = s.Streak.Streak
	v.CurrentWeekCount = s.Streak.CurrentWeekCount
	v.Goal = s.Goal
	v.Markers = make([]bool, s.Goal)
	for i := range v.Markers {
		v.Markers[i] = i < s.Streak.CurrentWeekCount
	}

	switch {
	case v.Streak > 0:
		v.Message = MessageOnStreak
	case v.CurrentWeekCount > 0:
		v.Message = MessageKeepGoing
	default:
		v.Message = MessageStartStreak
	}
	return v
}

// Text is the chat copy for each message.
func (m Message) Text() string {
	switch m {
	case MessageSignIn:
		return "Daftar dulu pakai #daftar untuk mulai menghitung streak kamu."
	case MessageStartStreak:
		return "Belum ada latihan minggu ini. Ayo mulai streak kamu! 💪"
	case MessageKeepGoing:
		return "Sudah mulai, lanjutkan sampai target minggu ini! 🏋️"
	case MessageOnStreak:
		return "Kamu lagi on fire, pertahankan streak-nya! 🔥"
	default:
		return ""
	}
}

// MarkerString renders markers as filled and empty dots.
func MarkerString(markers []bool, filled, empty string) string {
	var sb strings.Builder
	for _, m := range markers {
		if m {
			sb.WriteString(filled)
		} else {
			sb.WriteString(empty)
		}
	}
	return sb.String()
}

// RenderText formats a view for a chat reply.
func RenderText(v View) string {
	switch v.State {
	case controller.StateLoading:
		return "⏳ ..."
	case controller.StateNoUser:
		return fmt.Sprintf("Streak mingguan: 0\n%s", v.Message.Text())
	}

	sb := strings.Builder{}
	if v.Name != "" {
		sb.WriteString(fmt.Sprintf("%s\n", v.Name))
	}
	sb.WriteString(fmt.Sprintf("Streak mingguan: %d 🔥\n", v.Streak))
	sb.WriteString(fmt.Sprintf("Minggu ini: %s %d/%d\n", MarkerString(v.Markers, "🟢", "⚪"), v.CurrentWeekCount, v.Goal))
	sb.WriteString(v.Message.Text())
	return sb.String()
}
