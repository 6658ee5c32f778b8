package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// APIBaseURL is the root of the attendance REST API, without a trailing
	// slash. Endpoint paths (/api/teacher/..., /api/attendance/...) are
	// appended verbatim.
	APIBaseURL string
	GinMode    string
	LogLevel   string
	LogFormat  string
	// HTTPTimeout bounds every API call. Zero disables the client timeout
	// entirely (parity with the original browser client, which never set one).
	HTTPTimeout time.Duration
	// StateDir holds the single lastAttendanceDate state file. Empty means
	// the OS user config dir.
	StateDir string
	StubPort string
	// AllowedOrigins controls CORS on the stub server. Empty means allow-all
	// (dev default).
	AllowedOrigins []string

	// Workflow timings. Production defaults mirror the deployed UI; tests
	// compress them to keep suites fast.
	OTPCountdownSeconds int
	AttendanceWindow    time.Duration
	RevealDelay         time.Duration
	LoginRedirectPause  time.Duration
	FlipPause           time.Duration
	RoleFlipPause       time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		APIBaseURL:          strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "pretty"),
		HTTPTimeout:         getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		StateDir:            getEnv("STATE_DIR", ""),
		StubPort:            getEnv("STUB_PORT", "8080"),
		AllowedOrigins:      parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		OTPCountdownSeconds: getEnvInt("OTP_COUNTDOWN_SECONDS", 120),
		AttendanceWindow:    getEnvDuration("ATTENDANCE_WINDOW", 2*time.Minute),
		RevealDelay:         getEnvDuration("REVEAL_DELAY", 5*time.Minute),
		LoginRedirectPause:  getEnvDuration("LOGIN_REDIRECT_PAUSE", 800*time.Millisecond),
		FlipPause:           getEnvDuration("FLIP_PAUSE", 600*time.Millisecond),
		RoleFlipPause:       getEnvDuration("ROLE_FLIP_PAUSE", 400*time.Millisecond),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
