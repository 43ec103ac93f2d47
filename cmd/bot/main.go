package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"go.mau.fi/whatsmeow/types"
	walog "go.mau.fi/whatsmeow/util/log"

	"github.com/fardannozami/gym-streak/internal/app/controller"
	"github.com/fardannozami/gym-streak/internal/app/usecase"
	"github.com/fardannozami/gym-streak/internal/config"
	"github.com/fardannozami/gym-streak/internal/infra/exercisedb"
	"github.com/fardannozami/gym-streak/internal/infra/sqlite"
	"github.com/fardannozami/gym-streak/internal/infra/wa"
	"github.com/fardannozami/gym-streak/internal/logging"
)

func main() {
	// 1. Config
	cfg := config.Load()
	if err := cfg.ApplyFile(os.Getenv("CONFIG_FILE")); err != nil {
		log.Fatal("failed to load config file", "err", err)
	}

	// 2. Loggers
	logger := logging.Setup(cfg.LogLevel, os.Stderr)
	waLogger := walog.Stdout("Client", "INFO", true)

	clock, err := cfg.Clock()
	if err != nil {
		logger.Fatal("invalid timezone", "timezone", cfg.Timezone, "err", err)
	}

	// 3. Database & Repositories
	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("failed to open database", "err", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	attendanceRepo := sqlite.NewAttendanceRepository(db)
	if err := sqlite.InitSchema(context.Background(), userRepo, attendanceRepo); err != nil {
		logger.Fatal("failed to init schema", "err", err)
	}

	// 4. Use Cases
	registry := usecase.NewControllerRegistry(userRepo, attendanceRepo, controller.Options{
		RequiredRole: cfg.RequiredRole,
		DebugEnabled: cfg.DebugStreak,
		Clock:        clock,
		Logger:       logger,
	})
	defer registry.Close()

	exercises := exercisedb.NewClient(exercisedb.Options{
		BaseURL:            cfg.ExerciseDBURL,
		APIKey:             cfg.ExerciseDBKey,
		APIHost:            cfg.ExerciseDBHost,
		Limit:              cfg.ExerciseLimit,
		CacheSize:          cfg.ExerciseCacheMB * 1024 * 1024,
		CacheExpireSeconds: cfg.ExerciseCacheTTLHours * int(time.Hour/time.Second),
		Logger:             logger,
	})

	cmds := usecase.Commands{
		Register:    usecase.NewRegisterUserUsecase(userRepo, registry, cfg.DefaultWeeklyGoal, clock),
		Mark:        usecase.NewMarkAttendanceUsecase(registry),
		Show:        usecase.NewShowStreakUsecase(registry),
		Leaderboard: usecase.NewGetLeaderboardUsecase(userRepo, attendanceRepo, cfg.RequiredRole, clock),
		Exercise:    usecase.NewLookupExerciseUsecase(exercises),
	}
	if cfg.DebugStreak {
		logger.Warn("debug streak commands enabled")
		cmds.Reset = usecase.NewResetAttendanceUsecase(registry)
		cmds.Increment = usecase.NewIncrementStreakUsecase(registry)
	}
	handleMessageUC := usecase.NewHandleMessageUsecase(cmds)

	// 5. WhatsApp Service
	waService := wa.NewService(cfg.SQLitePath, waLogger, logger, wa.ReplyOptions{
		DelayMinMs: cfg.ReplyDelayMinMs,
		DelayMaxMs: cfg.ReplyDelayMaxMs,
		ShowTyping: cfg.ShowTyping,
	})

	// 6. Message Handler
	waService.SetMessageHandler(func(ctx context.Context, msg wa.Message) {
		if cfg.GroupID != "" && msg.Chat.String() != cfg.GroupID {
			return
		}
		if msg.FromMe {
			return
		}

		// LIDs are resolved to phone numbers so a user keeps one identity.
		userID := msg.Sender.User
		if msg.Sender.Server == types.HiddenUserServer || msg.Sender.Server == types.DefaultUserServer && len(msg.Sender.User) > 15 {
			userID = userRepo.ResolveLIDToPhone(ctx, msg.Sender.User)
		}

		name := msg.PushName
		if name == "" {
			name = "Unknown"
		}

		logger.Debug("message received", "user", userID, "name", name, "text", msg.Text)

		response, err := handleMessageUC.Execute(ctx, userID, name, msg.Text)
		if err != nil {
			logger.Error("failed to handle message", "user", userID, "err", err)
			return
		}
		if response == "" {
			return
		}
		if err := waService.Reply(ctx, msg.Chat, response); err != nil {
			logger.Error("failed to send response", "user", userID, "err", err)
		}
	})

	// 7. Initialize Client (DB, Device) without connecting
	if err := waService.Initialize(context.Background()); err != nil {
		logger.Fatal("failed to initialize WhatsApp service", "err", err)
	}

	// 8. Connect / Login
	if !waService.IsLoggedIn() {
		if cfg.BotPhone != "" {
			if err := waService.Connect(); err != nil {
				logger.Fatal("failed to connect for pairing", "err", err)
			}

			logger.Info("not logged in, pairing with phone", "phone", cfg.BotPhone)
			code, err := waService.Pair(context.Background(), cfg.BotPhone)
			if err != nil {
				logger.Error("failed to generate pair code", "err", err)
			} else {
				logger.Info("==================================================")
				logger.Info("PAIR CODE", "code", code)
				logger.Info("==================================================")
				logger.Info("Verify this code on WhatsApp (Linked Devices > Link with phone number)")
			}
		} else {
			logger.Info("not logged in and BOT_PHONE not set, printing QR")
			waService.PrintQR(context.Background())
		}
	} else {
		if err := waService.Connect(); err != nil {
			logger.Fatal("failed to connect", "err", err)
		}
		logger.Info("client is already logged in")
	}

	logger.Info("bot is running, press Ctrl+C to exit")

	// 9. Wait for OS Signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	waService.Disconnect()
}
