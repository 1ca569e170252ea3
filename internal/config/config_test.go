package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{BasePath: "/some/path"},
		Tasks: TasksConfig{
			UpcomingWindow: 7 * 24 * time.Hour,
			QueryTimeout:   5 * time.Second,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"WARN", true}, // levels are case-insensitive
		{"verbose", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_QueryTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks.QueryTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg.Tasks.QueryTimeout = time.Second
	assert.NoError(t, cfg.Validate())
}

func TestValidate_NegativeUpcomingWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Tasks.UpcomingWindow = -time.Hour
	assert.Error(t, cfg.Validate())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/vidmemo", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "vidmemo"), got)

	got, err = expandPath("", "/fallback")
	require.NoError(t, err)
	assert.Equal(t, "/fallback", got)

	got, err = expandPath("/abs/path/", "")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nVIDMEMO_TEST_KEY=hello\nVIDMEMO_TEST_QUOTED=\"quoted\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("VIDMEMO_TEST_KEY", "")
	t.Setenv("VIDMEMO_TEST_QUOTED", "")
	os.Unsetenv("VIDMEMO_TEST_KEY")
	os.Unsetenv("VIDMEMO_TEST_QUOTED")

	require.NoError(t, loadEnvFile(path))

	assert.Equal(t, "hello", os.Getenv("VIDMEMO_TEST_KEY"))
	assert.Equal(t, "quoted", os.Getenv("VIDMEMO_TEST_QUOTED"))
}

func TestLoadEnvFile_DoesNotOverrideExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VIDMEMO_TEST_EXISTING=file\n"), 0o600))

	t.Setenv("VIDMEMO_TEST_EXISTING", "env")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "env", os.Getenv("VIDMEMO_TEST_EXISTING"))
}
