package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/casekeeper/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "casekeeper.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Engine.DefaultProfile != "" {
			t.Errorf("expected no default profile, got %s", cfg.Engine.DefaultProfile)
		}
		if cfg.Engine.PathCacheSize != 512 {
			t.Errorf("expected path_cache_size 512, got %d", cfg.Engine.PathCacheSize)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Errorf("expected info/json logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
		}
		if cfg.Database.URL != "" || cfg.Metrics.Textfile != "" {
			t.Errorf("expected empty database url and textfile, got %+v", cfg)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("CK_ENGINE_DEFAULT_PROFILE", "mfds")
		t.Setenv("CK_LOG_LEVEL", "DEBUG")
		t.Setenv("CK_DATABASE_URL", "sqlite://cases.db")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Engine.DefaultProfile != types.ProfileMFDS {
			t.Errorf("expected MFDS, got %s", cfg.Engine.DefaultProfile)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected debug, got %s", cfg.Log.Level)
		}
		if cfg.Database.URL != "sqlite://cases.db" {
			t.Errorf("unexpected database url %s", cfg.Database.URL)
		}
	})

	t.Run("file values", func(t *testing.T) {
		path := writeConfig(t, `engine:
  default_profile: FDA
  path_cache_size: 64
log:
  format: text
metrics:
  textfile: /var/lib/node_exporter/casekeeper.prom
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Engine.DefaultProfile != types.ProfileFDA || cfg.Engine.PathCacheSize != 64 {
			t.Errorf("unexpected engine config %+v", cfg.Engine)
		}
		if cfg.Log.Format != "text" {
			t.Errorf("expected text, got %s", cfg.Log.Format)
		}
		if cfg.Metrics.Textfile != "/var/lib/node_exporter/casekeeper.prom" {
			t.Errorf("unexpected textfile %s", cfg.Metrics.Textfile)
		}
	})

	t.Run("environment over file", func(t *testing.T) {
		t.Setenv("CK_ENGINE_PATH_CACHE_SIZE", "32")
		path := writeConfig(t, "engine:\n  path_cache_size: 64\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Engine.PathCacheSize != 32 {
			t.Errorf("environment should override config file, got %d", cfg.Engine.PathCacheSize)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
			t.Errorf("expected read error, got %v", err)
		}
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown profile", map[string]string{"CK_ENGINE_DEFAULT_PROFILE": "EMA"}, "engine.default_profile"},
		{"cache size", map[string]string{"CK_ENGINE_PATH_CACHE_SIZE": "0"}, "path_cache_size"},
		{"log level", map[string]string{"CK_LOG_LEVEL": "loud"}, "log.level"},
		{"log format", map[string]string{"CK_LOG_FORMAT": "xml"}, "log.format"},
		{"database scheme", map[string]string{"CK_DATABASE_URL": "mysql://db"}, "database.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_RejectsPasswordInFile(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://ck:hunter2@db/cases\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for password in config file")
	}
	if err.Error() != "database passwords not allowed in config files (use CK_DATABASE_URL environment variable)" {
		t.Fatalf("wrong error message: %v", err)
	}

	// Without credentials the file may carry the URL.
	path = writeConfig(t, "database:\n  url: postgres://db/cases?sslmode=disable\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Database.URL != "postgres://db/cases?sslmode=disable" {
		t.Errorf("unexpected url %s", cfg.Database.URL)
	}
}
