package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the assistant.
type Config struct {
	HTTPPort  int
	SQLiteDSN string
	PhotoDir  string
	Location  *time.Location
}

// Load parses configuration values from the current process environment.
//
// Every field has a default, so an empty environment yields a runnable
// configuration; invalid values are reported with localized messages.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:  8080,
		SQLiteDSN: "file:assistant.db?_pragma=foreign_keys(1)",
		PhotoDir:  "fotos_medicamentos",
		Location:  time.Local,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("ASSISTANT_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "ASSISTANT_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("ASSISTANT_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if dir := strings.TrimSpace(os.Getenv("ASSISTANT_PHOTO_DIR")); dir != "" {
		cfg.PhotoDir = dir
	}

	if tz := strings.TrimSpace(os.Getenv("ASSISTANT_PATIENT_TZ")); tz != "" {
		location, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "ASSISTANT_PATIENT_TZ")
		} else {
			cfg.Location = location
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variaveis de ambiente com valores invalidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
