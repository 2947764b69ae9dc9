// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup applies the level ("debug", "info", ...) and format ("text" or "json")
func Setup(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q: must be text or json", format)
	}
	return nil
}
