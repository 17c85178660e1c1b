package config

import (
	"os"
	"path/filepath"
	"testing"
)

type testSettings struct {
	Token string `split_words:"true" required:"true"`
	Host  string `split_words:"true" default:"localhost"`
}

func TestNewMissingRequiredCredential(t *testing.T) {
	t.Setenv("CONCIERGE_ENV_FILE", "")
	t.Setenv("APP_TOKEN", "")

	if _, err := New[testSettings]("APP"); err == nil {
		t.Fatal("expected error for missing required value")
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("CONCIERGE_ENV_FILE", "")
	t.Setenv("APP_TOKEN", "secret")

	conf, err := New[testSettings]("APP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Token != "secret" {
		t.Errorf("Token = %q", conf.Token)
	}
	if conf.Host != "localhost" {
		t.Errorf("Host = %q, want default", conf.Host)
	}
}

func TestNewExportsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("app_token=from-file\napp_host=db.internal\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// register restores before the loader mutates the process env
	t.Setenv("APP_TOKEN", "placeholder")
	t.Setenv("APP_HOST", "placeholder")
	t.Setenv("CONCIERGE_ENV_FILE", path)

	conf, err := New[testSettings]("APP")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Token != "from-file" {
		t.Errorf("Token = %q, want value from env file", conf.Token)
	}
	if conf.Host != "db.internal" {
		t.Errorf("Host = %q, want value from env file", conf.Host)
	}
}

func TestMustNewPanicsOnError(t *testing.T) {
	t.Setenv("CONCIERGE_ENV_FILE", "")
	t.Setenv("APP_TOKEN", "")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustNew[testSettings]("APP")
}
