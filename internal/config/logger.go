// Package config creates the logger and loads player profiles.
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger, debug output enables the per section and
// per pointer details of all conversion stages.
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	switch {
	case debug:
		cfg.Level = log.DebugLevel
	case quiet:
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}
