package config_test

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/km-arc/go-planteuf/framework/config"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func setEnv(t *testing.T, key, val string) {
	t.Helper()
	t.Setenv(key, val) // automatically restored after test
}

// ── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load("testdata/empty.env")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"App.Name", cfg.App.Name, "planteuf"},
		{"App.Env", cfg.App.Env, "local"},
		{"App.Port", cfg.App.Port, "8000"},
		{"Log.Level", cfg.Log.Level, "INFO"},
		{"Log.Filename", cfg.Log.Filename, ""},
		{"Log.Format", cfg.Log.Format, "text"},
		{"DB.Path", cfg.DB.Path, "planteuf.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if cfg.DB.CacheTTL != 300*time.Second {
		t.Errorf("DB.CacheTTL: got %v want %v", cfg.DB.CacheTTL, 300*time.Second)
	}
	if want := []string{"password", "secret", "token", "key"}; !reflect.DeepEqual(cfg.Redact.Keys, want) {
		t.Errorf("Redact.Keys: got %v want %v", cfg.Redact.Keys, want)
	}
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	setEnv(t, "APP_NAME", "MyApp")
	setEnv(t, "APP_ENV", "production")
	setEnv(t, "APP_PORT", "9000")
	setEnv(t, "LOGGING_LEVEL", "debug")
	setEnv(t, "LOGGING_FORMAT", "JSON")
	setEnv(t, "DB_PATH", ":memory:")
	setEnv(t, "REDACT_KEYS", "pin, ,cvv")

	cfg := config.Load("testdata/empty.env")

	if cfg.App.Name != "MyApp" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "MyApp")
	}
	if cfg.App.Env != "production" {
		t.Errorf("App.Env: got %q want %q", cfg.App.Env, "production")
	}
	if cfg.App.Port != "9000" {
		t.Errorf("App.Port: got %q want %q", cfg.App.Port, "9000")
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("Log.Level: got %q want %q", cfg.Log.Level, "DEBUG")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format: got %q want %q", cfg.Log.Format, "json")
	}
	if cfg.DB.Path != ":memory:" {
		t.Errorf("DB.Path: got %q want %q", cfg.DB.Path, ":memory:")
	}
	if want := []string{"pin", "cvv"}; !reflect.DeepEqual(cfg.Redact.Keys, want) {
		t.Errorf("Redact.Keys: got %v want %v", cfg.Redact.Keys, want)
	}
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	// godotenv never overrides set variables; t.Setenv restores them.
	setEnv(t, "APP_NAME", "")
	setEnv(t, "DB_CACHE_TTL", "")
	os.Unsetenv("APP_NAME")
	os.Unsetenv("DB_CACHE_TTL")

	cfg := config.Load("testdata/app.env")

	if cfg.App.Name != "fromfile" {
		t.Errorf("App.Name: got %q want %q", cfg.App.Name, "fromfile")
	}
	if cfg.DB.CacheTTL != time.Minute {
		t.Errorf("DB.CacheTTL: got %v want %v", cfg.DB.CacheTTL, time.Minute)
	}
}

func TestLoad_AppDebugTrue(t *testing.T) {
	setEnv(t, "APP_DEBUG", "true")
	cfg := config.Load()
	if !cfg.App.Debug {
		t.Error("expected App.Debug to be true")
	}
}

func TestLoad_AppDebugFalse(t *testing.T) {
	setEnv(t, "APP_DEBUG", "false")
	cfg := config.Load()
	if cfg.App.Debug {
		t.Error("expected App.Debug to be false")
	}
}

// ── Get / GetInt / GetBool ───────────────────────────────────────────────────

func TestGet_ReturnsValue(t *testing.T) {
	setEnv(t, "CUSTOM_KEY", "hello")
	if got := config.Get("CUSTOM_KEY", "default"); got != "hello" {
		t.Errorf("got %q want %q", got, "hello")
	}
}

func TestGet_ReturnsFallback(t *testing.T) {
	os.Unsetenv("MISSING_KEY")
	if got := config.Get("MISSING_KEY", "fallback"); got != "fallback" {
		t.Errorf("got %q want %q", got, "fallback")
	}
}

func TestGetInt_ReturnsInt(t *testing.T) {
	setEnv(t, "SOME_INT", "42")
	if got := config.GetInt("SOME_INT", 0); got != 42 {
		t.Errorf("got %d want %d", got, 42)
	}
}

func TestGetInt_ReturnsFallbackOnInvalid(t *testing.T) {
	setEnv(t, "SOME_INT", "notanint")
	if got := config.GetInt("SOME_INT", 99); got != 99 {
		t.Errorf("got %d want %d", got, 99)
	}
}

func TestGetBool_True(t *testing.T) {
	for _, val := range []string{"true", "1", "True", "TRUE"} {
		setEnv(t, "BOOL_KEY", val)
		if !config.GetBool("BOOL_KEY", false) {
			t.Errorf("expected true for %q", val)
		}
	}
}

func TestGetBool_ReturnsFallbackOnInvalid(t *testing.T) {
	setEnv(t, "BOOL_KEY", "notabool")
	if config.GetBool("BOOL_KEY", true) != true {
		t.Error("expected fallback true")
	}
}
