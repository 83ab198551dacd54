package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/schedule"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	path := writeFile(t, "config.yaml", `server:
  port: 9090
  shutdown_timeout: "10s"
  calendar_workers: 4

database:
  path: /tmp/attendance.db

log:
  level: debug
  format: json

scheduler:
  enabled: true
  interval: 15m

engine:
  branches:
    factory:
      work_start_time: "07:00"
      work_end_time: "15:00"
      weekend_days: [5, 6]
      penalty_value: 2
  weights:
    overtime: 70
    commitment: 20
    absence: 10

holidays:
  - name: New Year
    start: "2025-01-01"
  - name: Spring Break
    start: "2025-04-20"
    end: "2025-04-22"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Server.CalendarWorkers)
	assert.Equal(t, "/tmp/attendance.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)

	factory := cfg.Settings.For(schedule.BranchFactory)
	assert.Equal(t, "07:00", factory.WorkStart.String())
	assert.Equal(t, "2", factory.PenaltyValue.String())
	assert.True(t, factory.IsWeekend(calendar.NewDate(2025, time.January, 4)), "saturday")

	office := cfg.Settings.For(schedule.BranchOffice)
	assert.Equal(t, "09:00", office.WorkStart.String(), "office keeps defaults")
	assert.Equal(t, 70.0, cfg.Settings.Weights.Overtime)

	require.Len(t, cfg.HolidayDates, 2)
	assert.True(t, cfg.HolidayDates.Contains(calendar.NewDate(2025, time.January, 1)))
	assert.True(t, cfg.HolidayDates.Contains(calendar.NewDate(2025, time.April, 21)))
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, schedule.DefaultWeights, cfg.Settings.Weights)
	assert.Empty(t, cfg.HolidayDates)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("ATTENDANCE_PORT", "7070")
	t.Setenv("ATTENDANCE_DB", ":memory:")
	t.Setenv("ATTENDANCE_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad duration", "server:\n  shutdown_timeout: soon\n"},
		{"bad scheduler interval", "scheduler:\n  interval: often\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad log format", "log:\n  format: xml\n"},
		{"bad engine clock", "engine:\n  branches:\n    office:\n      work_start_time: \"9am\"\n"},
		{"weights not 100", "engine:\n  weights:\n    overtime: 50\n"},
		{"bad holiday", "holidays:\n  - name: x\n    start: \"2025-13-01\"\n"},
		{"holiday ends before start", "holidays:\n  - name: x\n    start: \"2025-02-02\"\n    end: \"2025-02-01\"\n"},
		{"not yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.yaml", tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EngineErrorIsConfigError(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "engine:\n  branches:\n    office:\n      grace_period_minutes: -1\n"))
	assert.ErrorIs(t, err, schedule.ErrInvalidConfig)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "ATTENDANCE_TEST_ONLY=from-dotenv\n")
	t.Setenv("ATTENDANCE_TEST_ONLY", "")
	os.Unsetenv("ATTENDANCE_TEST_ONLY")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("ATTENDANCE_TEST_ONLY"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
