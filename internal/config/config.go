package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL  string
	Timeout time.Duration

	// Connectivity probing. A zero ProbeInterval probes once at startup.
	ProbeInterval time.Duration
	ProbeMinGap   time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Analytics enables best-effort usage events.
	Analytics bool

	// Ticket form prefill
	UserName       string
	UserEmail      string
	TicketCategory string
}

// fileConfig is the optional YAML overlay. Empty fields fall through to
// defaults.
type fileConfig struct {
	APIURL         string `yaml:"api_url"`
	Timeout        string `yaml:"timeout"`
	ProbeInterval  string `yaml:"probe_interval"`
	ProbeMinGap    string `yaml:"probe_min_gap"`
	LogFile        string `yaml:"log_file"`
	LogLevel       string `yaml:"log_level"`
	Analytics      *bool  `yaml:"analytics"`
	UserName       string `yaml:"user_name"`
	UserEmail      string `yaml:"user_email"`
	TicketCategory string `yaml:"ticket_category"`
}

// Load reads configuration from environment variables, after loading
// .env from the working directory when present. When HELPDESK_CONFIG
// names a YAML file its values replace the defaults; environment
// variables still win.
func Load() (Config, error) {
	_ = godotenv.Load()

	var file fileConfig
	if path := os.Getenv("HELPDESK_CONFIG"); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	analytics := "false"
	if file.Analytics != nil {
		analytics = strconv.FormatBool(*file.Analytics)
	}

	cfg := Config{
		APIURL:         strings.TrimRight(getEnv("HELPDESK_API_URL", cmp.Or(file.APIURL, "http://localhost:8000")), "/"),
		LogFile:        getEnv("HELPDESK_LOG_FILE", cmp.Or(file.LogFile, "/tmp/helpdesk.log")),
		LogLevel:       parseLogLevel(getEnv("HELPDESK_LOG_LEVEL", cmp.Or(file.LogLevel, "INFO"))),
		Analytics:      parseBool(getEnv("HELPDESK_ANALYTICS", analytics)),
		UserName:       getEnv("HELPDESK_USER_NAME", file.UserName),
		UserEmail:      getEnv("HELPDESK_USER_EMAIL", file.UserEmail),
		TicketCategory: getEnv("HELPDESK_TICKET_CATEGORY", cmp.Or(file.TicketCategory, "general")),
	}

	var errs []error
	cfg.Timeout, errs = durationVar(errs, "HELPDESK_TIMEOUT", cmp.Or(file.Timeout, "30s"))
	cfg.ProbeInterval, errs = durationVar(errs, "HELPDESK_PROBE_INTERVAL", cmp.Or(file.ProbeInterval, "0"))
	cfg.ProbeMinGap, errs = durationVar(errs, "HELPDESK_PROBE_MIN_GAP", cmp.Or(file.ProbeMinGap, "5s"))
	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("HELPDESK_TIMEOUT must be positive, got %s", cfg.Timeout))
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var file fileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return file, fmt.Errorf("config file %s not found", path)
	}
	if err != nil {
		return file, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}


func durationVar(errs []error, key, defaultVal string) (time.Duration, []error) {
	raw := getEnv(key, defaultVal)
	if raw == "0" {
		return 0, errs
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s: invalid duration %q", key, raw))
	}
	if d < 0 {
		return 0, append(errs, fmt.Errorf("%s: must not be negative", key))
	}
	return d, errs
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
