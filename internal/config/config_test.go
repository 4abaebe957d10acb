package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-data-prep/internal/model"
	"go-data-prep/pkg/errors"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// isolated viper instance, no config file or environment
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDir)
	assert.True(t, cfg.Strict)
	assert.Equal(t, model.DefaultJobs(), cfg.Jobs)
	assert.Empty(t, cfg.History.Path)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeoutDuration())
	assert.EqualValues(t, 64, cfg.Server.MaxBodyMB)
	assert.False(t, cfg.Log.JSON)
}

func TestNew_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prepare.toml")
	content := `
output_dir = "exports"
strict = false

[history]
path = "runs.db"

[server]
addr = "127.0.0.1:9090"
shutdown_timeout = "3s"

[[jobs]]
name = "reviews"
source = "data/reviews.jsonl"
dest = "reviews.csv"
fields = ["id", "stars", "body"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "exports", cfg.OutputDir)
	assert.False(t, cfg.Strict)
	assert.Equal(t, "runs.db", cfg.History.Path)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeoutDuration())
	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, model.Job{
		Name:   "reviews",
		Source: "data/reviews.jsonl",
		Dest:   "reviews.csv",
		Fields: []string{"id", "stars", "body"},
	}, cfg.Jobs[0])
}

func TestNew_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PREPARE_OUTPUT_DIR", "/tmp/prepared")
	t.Setenv("PREPARE_SERVER_ADDR", ":9999")

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/prepared", cfg.OutputDir)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestNew_MissingExplicitFile(t *testing.T) {
	v, err := New(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Nil(t, v)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestNew_NoConfigFileInWorkingDir(t *testing.T) {
	chdir(t, t.TempDir())

	v, err := New("")
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Len(t, cfg.Jobs, 2)
}

func TestValidate(t *testing.T) {
	valid := model.Job{Name: "a", Source: "a.txt", Dest: "a.csv", Fields: []string{"x"}}

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"no jobs", Config{}, ""},
		{"valid", Config{Jobs: []model.Job{valid}}, ""},
		{"missing name", Config{Jobs: []model.Job{{Source: "a", Dest: "b", Fields: []string{"x"}}}}, "job #1: name is required"},
		{"duplicate", Config{Jobs: []model.Job{valid, valid}}, "duplicate name"},
		{"missing source", Config{Jobs: []model.Job{{Name: "a", Dest: "b", Fields: []string{"x"}}}}, "source is required"},
		{"missing dest", Config{Jobs: []model.Job{{Name: "a", Source: "b", Fields: []string{"x"}}}}, "dest is required"},
		{"no fields", Config{Jobs: []model.Job{{Name: "a", Source: "b", Dest: "c"}}}, "at least one field"},
		{"negative body limit", Config{Server: ServerConfig{MaxBodyMB: -1}}, "max_body_mb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

func TestRunConfig(t *testing.T) {
	cfg := &Config{OutputDir: "out", Strict: true, Jobs: model.DefaultJobs()}
	rc := cfg.RunConfig(cfg.Jobs[:1])
	assert.Equal(t, "out", rc.OutputDir)
	assert.True(t, rc.Strict)
	require.Len(t, rc.Jobs, 1)
	assert.Equal(t, "products", rc.Jobs[0].Name)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
