package config

import (
	"os"

	log "github.com/Sirupsen/logrus"

	"github.com/vrischmann/envconfig"
)

// LogConfig configures the process-wide logger, same knobs
// go-syncstorage exposes for its own server.
type LogConfig struct {
	// logging level, panic, fatal, error, warn, info, debug
	Level string `envconfig:"default=info"`

	// use mozlog format
	Mozlog bool `envconfig:"default=false"`
}

// ProcessConfig is the environment-driven boot configuration for
// cmd/dlgauth-server. It is distinct from Location, which holds the
// per-location policy a request is actually authenticated against;
// ProcessConfig only decides how the process listens and logs.
var ProcessConfig struct {
	Log      *LogConfig
	Hostname string `envconfig:"optional"`
	Host     string `envconfig:"default=0.0.0.0"`
	Port     int    `envconfig:"default=8080"`

	// Realm is the single location's Hawk realm. Multi-location
	// deployments configure Location values in code instead.
	Realm string `envconfig:"default=api"`

	// AllowedClockSkew in seconds.
	AllowedClockSkew uint `envconfig:"default=1"`

	// PasswordFile holds "id secret" pairs, one per line, used to
	// build the location's PasswordTable. Empty lines and lines
	// starting with # are ignored.
	PasswordFile string `envconfig:"optional"`

	// Enable the pprof web endpoint /debug/pprof/
	EnablePprof bool `envconfig:"default=false"`
}

func init() {
	if err := envconfig.Init(&ProcessConfig); err != nil {
		log.Fatalf("Config Error: %s\n", err)
	}

	if ProcessConfig.Port < 1 || ProcessConfig.Port > 65535 {
		log.Fatal("Config Error: PORT invalid")
	}

	switch ProcessConfig.Log.Level {
	case "panic", "fatal", "error", "warn", "info", "debug":
	default:
		log.Fatalf("Config Error: LOG_LEVEL must be [panic, fatal, error, warn, info, debug]")
	}

	if ProcessConfig.Hostname == "" {
		ProcessConfig.Hostname, _ = os.Hostname()
	}
}
