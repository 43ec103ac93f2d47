package usecase

import (
	"context"
	"strings"
	"unicode"
)

type AttendanceCommand interface {
	Execute(ctx context.Context, userID, name string) (string, error)
}

type RegisterCommand interface {
	Execute(ctx context.Context, userID, name, args string) (string, error)
}

type LeaderboardCommand interface {
	Execute(ctx context.Context) (string, error)
}

type ExerciseCommand interface {
	Execute(ctx context.Context, query string) (string, error)
}

// Commands wires chat commands to use cases. A nil entry disables the command.
type Commands struct {
	Register    RegisterCommand
	Mark        AttendanceCommand
	Show        AttendanceCommand
	Leaderboard LeaderboardCommand
	Exercise    ExerciseCommand
	// Reset and Increment are debug-only.
	Reset     AttendanceCommand
	Increment AttendanceCommand
}

type HandleMessageUsecase struct {
	cmds Commands
}

func NewHandleMessageUsecase(cmds Commands) *HandleMessageUsecase {
	return &HandleMessageUsecase{cmds: cmds}
}

// Execute routes a chat message. Anything that is not a known command gets
// an empty response.
func (uc *HandleMessageUsecase) Execute(ctx context.Context, userID, name, msg string) (string, error) {
	msg = strings.TrimSpace(msg)
	if !strings.HasPrefix(msg, "#") {
		return "", nil
	}

	command, args := msg, ""
	if i := strings.IndexFunc(msg, unicode.IsSpace); i >= 0 {
		command, args = msg[:i], strings.TrimSpace(msg[i:])
	}

	switch strings.ToLower(command) {
	case "#daftar":
		if uc.cmds.Register != nil {
			return uc.cmds.Register.Execute(ctx, userID, name, args)
		}
	case "#hadir":
		if uc.cmds.Mark != nil {
			return uc.cmds.Mark.Execute(ctx, userID, name)
		}
	case "#streak":
		if uc.cmds.Show != nil {
			return uc.cmds.Show.Execute(ctx, userID, name)
		}
	case "#ranking":
		if uc.cmds.Leaderboard != nil {
			return uc.cmds.Leaderboard.Execute(ctx)
		}
	case "#latihan":
		if uc.cmds.Exercise != nil {
			return uc.cmds.Exercise.Execute(ctx, args)
		}
	case "#reset":
		if uc.cmds.Reset != nil {
			return uc.cmds.Reset.Execute(ctx, userID, name)
		}
	case "#naik":
		if uc.cmds.Increment != nil {
			return uc.cmds.Increment.Execute(ctx, userID, name)
		}
	}
	return "", nil
}
