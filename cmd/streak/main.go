// Package main provides the local CLI for the gym streak tracker.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/usecase"
	"github.com/fardannozami/gym-streak/internal/config"
	"github.com/fardannozami/gym-streak/internal/domain"
	"github.com/fardannozami/gym-streak/internal/infra/exercisedb"
	"github.com/fardannozami/gym-streak/internal/infra/sqlite"
	"github.com/fardannozami/gym-streak/internal/logging"
	"github.com/fardannozami/gym-streak/internal/tui"
)

var (
	flagUser   string
	flagName   string
	flagConfig string
	flagDebug  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "streak",
		Short:        "Weekly gym attendance streaks",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id (phone number)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "", "display name")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", os.Getenv("CONFIG_FILE"), "TOML config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable reset and bump")

	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newAttendanceCmd("mark", "Record attendance for today", false, func(r *usecase.ControllerRegistry) usecase.AttendanceCommand {
		return usecase.NewMarkAttendanceUsecase(r)
	}))
	rootCmd.AddCommand(newAttendanceCmd("show", "Show the streak widget", false, func(r *usecase.ControllerRegistry) usecase.AttendanceCommand {
		return usecase.NewShowStreakUsecase(r)
	}))
	rootCmd.AddCommand(newAttendanceCmd("reset", "Clear the attendance history", true, func(r *usecase.ControllerRegistry) usecase.AttendanceCommand {
		return usecase.NewResetAttendanceUsecase(r)
	}))
	rootCmd.AddCommand(newAttendanceCmd("bump", "Fabricate attendance to grow the streak by one week", true, func(r *usecase.ControllerRegistry) usecase.AttendanceCommand {
		return usecase.NewIncrementStreakUsecase(r)
	}))
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newExerciseCmd())
	rootCmd.AddCommand(newTUICmd())

	return rootCmd
}

type app struct {
	cfg        config.Config
	log        *log.Logger
	db         *sql.DB
	clock      func() time.Time
	users      *sqlite.UserRepository
	attendance *sqlite.AttendanceRepository
	registry   *usecase.ControllerRegistry
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.ApplyFile(flagConfig); err != nil {
		return nil, err
	}
	if flagDebug {
		cfg.DebugStreak = true
	}
	logger := logging.Setup(cfg.LogLevel, os.Stderr)

	clock, err := cfg.Clock()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	users := sqlite.NewUserRepository(db)
	attendance := sqlite.NewAttendanceRepository(db)
	if err := sqlite.InitSchema(ctx, users, attendance); err != nil {
		db.Close()
		return nil, err
	}

	registry := usecase.NewControllerRegistry(users, attendance, controller.Options{
		RequiredRole: cfg.RequiredRole,
		DebugEnabled: cfg.DebugStreak,
		Clock:        clock,
		Logger:       logger,
	})

	return &app{
		cfg:        cfg,
		log:        logger,
		db:         db,
		clock:      clock,
		users:      users,
		attendance: attendance,
		registry:   registry,
	}, nil
}

func (a *app) Close() {
	a.registry.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", "err", err)
	}
}

func requireUser() error {
	if strings.TrimSpace(flagUser) == "" {
		return errors.New("--user is required")
	}
	return nil
}

func displayName() string {
	if flagName != "" {
		return flagName
	}
	return flagUser
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [goal]",
		Short: "Register a user or change the weekly goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			uc := usecase.NewRegisterUserUsecase(a.users, a.registry, a.cfg.DefaultWeeklyGoal, a.clock)
			out, err := uc.Execute(ctx, flagUser, displayName(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newAttendanceCmd(use, short string, debugOnly bool, build func(*usecase.ControllerRegistry) usecase.AttendanceCommand) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if debugOnly && !a.cfg.DebugStreak {
				return fmt.Errorf("%s needs --debug or DEBUG_STREAK=true", use)
			}
			out, err := build(a.registry).Execute(ctx, flagUser, displayName())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank members by weekly streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := usecase.NewGetLeaderboardUsecase(a.users, a.attendance, a.cfg.RequiredRole, a.clock).Execute(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newExerciseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercise <name>",
		Short: "Look up an exercise by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if err := cfg.ApplyFile(flagConfig); err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel, os.Stderr)

			client := exercisedb.NewClient(exercisedb.Options{
				BaseURL:            cfg.ExerciseDBURL,
				APIKey:             cfg.ExerciseDBKey,
				APIHost:            cfg.ExerciseDBHost,
				Limit:              cfg.ExerciseLimit,
				CacheSize:          cfg.ExerciseCacheMB * 1024 * 1024,
				CacheExpireSeconds: cfg.ExerciseCacheTTLHours * int(time.Hour/time.Second),
				Logger:             logger,
			})
			out, err := usecase.NewLookupExerciseUsecase(client).Execute(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive streak widget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			// Info lines would draw over the widget.
			a.log.SetLevel(log.ErrorLevel)

			userID := flagUser
			ctrl := controller.New(
				controller.UserSourceFunc(func(ctx context.Context) (*domain.User, error) {
					return a.users.GetUser(ctx, userID)
				}),
				a.attendance,
				controller.Options{
					RequiredRole: a.cfg.RequiredRole,
					DebugEnabled: a.cfg.DebugStreak,
					Clock:        a.clock,
					Logger:       a.log,
				},
			)
			program := tea.NewProgram(tui.NewModel(ctx, ctrl, a.cfg.DebugStreak))
			_, err = program.Run()
			return err
		},
	}
}
