package config

import (
	"os"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"ASSISTANT_HTTP_PORT",
			"ASSISTANT_SQLITE_DSN",
			"ASSISTANT_PHOTO_DIR",
			"ASSISTANT_PATIENT_TZ",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:assistant.db?_pragma=foreign_keys(1)" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.PhotoDir != "fotos_medicamentos" {
			t.Fatalf("unexpected default photo dir: %q", cfg.PhotoDir)
		}
	})

	t.Run("errors when values are invalid", func(t *testing.T) {
		t.Setenv("ASSISTANT_HTTP_PORT", "not-a-port")
		t.Setenv("ASSISTANT_PATIENT_TZ", "Planeta/Marte")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		expected := "variaveis de ambiente com valores invalidos: ASSISTANT_HTTP_PORT, ASSISTANT_PATIENT_TZ"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("ASSISTANT_HTTP_PORT", "9090")
		t.Setenv("ASSISTANT_SQLITE_DSN", "file:/tmp/assistant.db")
		t.Setenv("ASSISTANT_PHOTO_DIR", "/tmp/fotos")
		t.Setenv("ASSISTANT_PATIENT_TZ", "America/Sao_Paulo")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/assistant.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.PhotoDir != "/tmp/fotos" {
			t.Fatalf("unexpected photo dir: %q", cfg.PhotoDir)
		}
		if cfg.Location == nil || cfg.Location.String() != "America/Sao_Paulo" {
			t.Fatalf("unexpected location: %v", cfg.Location)
		}
	})
}
