/*
Package config loads the server configuration.

SOURCES (later wins):
  1. Built-in defaults
  2. YAML file given with -config
  3. Environment, optionally from a .env file:
       ATTENDANCE_PORT, ATTENDANCE_DB, ATTENDANCE_LOG_LEVEL

The engine section is the raw branch/weight configuration. It is resolved
once here so a bad file fails at startup; the store may still hold a newer
copy that takes precedence at request time.

EXAMPLE:
  server:
    port: 8080
    shutdown_timeout: 30s
  database:
    path: ./data/attendance.db
  log:
    level: info
    format: json
  scheduler:
    enabled: true
    interval: 1h
  engine:
    branches:
      factory:
        work_start_time: "07:00"
        work_end_time: "15:00"
        penalty_value: 2
    weights: {overtime: 80, commitment: 10, absence: 10}
  holidays:
    - {name: "New Year", start: "2025-01-01", end: "2025-01-01"}
*/
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

// Config is the whole server configuration.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Database  DatabaseConfig     `yaml:"database"`
	Log       LogConfig          `yaml:"log"`
	Scheduler SchedulerConfig    `yaml:"scheduler"`
	Engine    schedule.RawConfig `yaml:"engine"`
	Holidays  []HolidayConfig    `yaml:"holidays"`

	// Resolved from the raw sections by validateAndNormalize.
	Settings     *schedule.Settings `yaml:"-"`
	HolidayDates calendar.Holidays  `yaml:"-"`
}

type ServerConfig struct {
	Port               int           `yaml:"port"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	CalendarWorkers    int           `yaml:"calendar_workers"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig controls automatic drafting of last month's payroll.
type SchedulerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"-"`
	IntervalRaw string        `yaml:"interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type HolidayConfig struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			AllowedOrigins:     []string{"*"},
			CalendarWorkers:    8,
			ShutdownTimeoutRaw: "30s",
		},
		Database: DatabaseConfig{Path: "./data/attendance.db"},
		Log:       LogConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{IntervalRaw: "1h"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are not an error; variables already set are kept.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("ATTENDANCE_PORT", ""); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ATTENDANCE_PORT: %w", err)
		}
		c.Server.Port = port
	}
	c.Database.Path = getEnv("ATTENDANCE_DB", c.Database.Path)
	c.Log.Level = getEnv("ATTENDANCE_LOG_LEVEL", c.Log.Level)
	return nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.CalendarWorkers <= 0 {
		c.Server.CalendarWorkers = 1
	}
	timeout, err := parseDurationAllowEmpty(c.Server.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c.Server.ShutdownTimeout = timeout

	interval, err := parseDurationAllowEmpty(c.Scheduler.IntervalRaw)
	if err != nil {
		return fmt.Errorf("config: scheduler.interval: %w", err)
	}
	if interval <= 0 {
		interval = time.Hour
	}
	c.Scheduler.Interval = interval

	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must be set")
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		c.Log.Format = "text"
	case "json":
		c.Log.Format = "json"
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}

	settings, err := schedule.Resolve(c.Engine)
	if err != nil {
		return fmt.Errorf("config: engine: %w", err)
	}
	c.Settings = settings

	c.HolidayDates = c.HolidayDates[:0]
	for i, h := range c.Holidays {
		holiday, err := h.parse()
		if err != nil {
			return fmt.Errorf("config: holidays[%d]: %w", i, err)
		}
		c.HolidayDates = append(c.HolidayDates, holiday)
	}
	return nil
}

func (h HolidayConfig) parse() (calendar.Holiday, error) {
	start, err := calendar.ParseDate(h.Start)
	if err != nil {
		return calendar.Holiday{}, err
	}
	end := start
	if h.End != "" {
		if end, err = calendar.ParseDate(h.End); err != nil {
			return calendar.Holiday{}, err
		}
	}
	holiday := calendar.Holiday{Name: h.Name, Start: start, End: end}
	return holiday, holiday.Validate()
}

// NewLogger builds the process logger from the log section.
func (l LogConfig) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if lvl, err := logrus.ParseLevel(l.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
	return logger
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}
