package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/fardannozami/gym-streak/internal/domain"
)

type Config struct {
	SQLitePath      string
	GroupID         string
	BotPhone        string
	ReplyDelayMinMs int  // Minimum delay before reply (milliseconds)
	ReplyDelayMaxMs int  // Maximum delay before reply (milliseconds), 0 = use min as fixed
	ShowTyping      bool // Show typing indicator during delay

	LogLevel string
	Timezone string

	DefaultWeeklyGoal int
	RequiredRole      string
	DebugStreak       bool // Enables #reset and #naik

	ExerciseDBURL         string
	ExerciseDBKey         string
	ExerciseDBHost        string
	ExerciseLimit         int
	ExerciseCacheMB       int
	ExerciseCacheTTLHours int
}

// FileConfig is the optional TOML overlay. Unset keys leave the environment
// value in place.
type FileConfig struct {
	SQLitePath        *string `toml:"sqlite_path"`
	GroupID           *string `toml:"group_id"`
	LogLevel          *string `toml:"log_level"`
	Timezone          *string `toml:"timezone"`
	DefaultWeeklyGoal *int    `toml:"default_weekly_goal"`
	RequiredRole      *string `toml:"required_role"`
	DebugStreak       *bool   `toml:"debug_streak"`

	ExerciseDB struct {
		URL      *string `toml:"url"`
		Key      *string `toml:"key"`
		Host     *string `toml:"host"`
		Limit    *int    `toml:"limit"`
		CacheMB  *int    `toml:"cache_mb"`
		TTLHours *int    `toml:"cache_ttl_hours"`
	} `toml:"exercisedb"`
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using defaults/environment variables")
	}

	return Config{
		SQLitePath:      getenv("SQLITE_PATH", "./data/gymstreak.db"),
		GroupID:         getenv("GROUP_ID", ""),
		BotPhone:        getenv("BOT_PHONE", ""),
		ReplyDelayMinMs: getenvInt("REPLY_DELAY_MIN_MS", 0),
		ReplyDelayMaxMs: getenvInt("REPLY_DELAY_MAX_MS", 0),
		ShowTyping:      getenvBool("SHOW_TYPING", false),

		LogLevel: getenv("LOG_LEVEL", "info"),
		Timezone: getenv("TIMEZONE", "Local"),

		DefaultWeeklyGoal: getenvInt("DEFAULT_WEEKLY_GOAL", domain.DefaultWeeklyGoal),
		RequiredRole:      getenv("REQUIRED_ROLE", domain.RoleMember),
		DebugStreak:       getenvBool("DEBUG_STREAK", false),

		ExerciseDBURL:         getenv("EXERCISEDB_URL", "https://exercisedb.p.rapidapi.com"),
		ExerciseDBKey:         getenv("EXERCISEDB_API_KEY", ""),
		ExerciseDBHost:        getenv("EXERCISEDB_HOST", "exercisedb.p.rapidapi.com"),
		ExerciseLimit:         getenvInt("EXERCISEDB_LIMIT", 5),
		ExerciseCacheMB:       getenvInt("EXERCISE_CACHE_MB", 10),
		ExerciseCacheTTLHours: getenvInt("EXERCISE_CACHE_TTL_HOURS", 24),
	}
}

// ApplyFile overlays the TOML file at path. A missing file is not an error.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat config: %w", err)
	}

	var fc FileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	setString(&c.SQLitePath, fc.SQLitePath)
	setString(&c.GroupID, fc.GroupID)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.Timezone, fc.Timezone)
	setInt(&c.DefaultWeeklyGoal, fc.DefaultWeeklyGoal)
	setString(&c.RequiredRole, fc.RequiredRole)
	if fc.DebugStreak != nil {
		c.DebugStreak = *fc.DebugStreak
	}
	setString(&c.ExerciseDBURL, fc.ExerciseDB.URL)
	setString(&c.ExerciseDBKey, fc.ExerciseDB.Key)
	setString(&c.ExerciseDBHost, fc.ExerciseDB.Host)
	setInt(&c.ExerciseLimit, fc.ExerciseDB.Limit)
	setInt(&c.ExerciseCacheMB, fc.ExerciseDB.CacheMB)
	setInt(&c.ExerciseCacheTTLHours, fc.ExerciseDB.TTLHours)
	return nil
}

// Location resolves Timezone. Every calendar computation uses it.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Clock returns now in the configured location.
func (c Config) Clock() (func() time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return func() time.Time { return time.Now().In(loc) }, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
