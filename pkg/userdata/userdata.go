// Package userdata renders the boot script that installs the idle-shutdown
// watchdog on a launched instance.
//
// The watchdog runs from cron every IntervalMinutes, counts consecutive runs
// without an ESTABLISHED connection on Port in StateFile and powers the
// instance off once the count reaches IdleStrikes.
package userdata

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	"path"
	"text/template"
)

// Version identifies the watchdog asset revision; bump it whenever a template changes
const Version = "1"

//go:embed assets/*.tmpl
var assets embed.FS

var templates = template.Must(template.ParseFS(assets, "assets/*.tmpl"))

// Options parameterize the boot script
type Options struct {
	Port            int
	IntervalMinutes int
	IdleStrikes     int
	StateFile       string
	ScriptPath      string
	InstallCommand  string
}

// DefaultOptions returns the watchdog settings: port 22, every 3 minutes,
// shutdown after 3 idle checks
func DefaultOptions() Options {
	return Options{
		Port:            22,
		IntervalMinutes: 3,
		IdleStrikes:     3,
		StateFile:       "/tmp/ssh_idle_count",
		ScriptPath:      "/tmp/ssh_idle_shutdown.sh",
		InstallCommand:  "apt install net-tools -y",
	}
}

// Validate checks that the options produce a usable script
func (o Options) Validate() error {
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("invalid watchdog port %d", o.Port)
	}
	if o.IntervalMinutes < 1 || o.IntervalMinutes > 59 {
		return fmt.Errorf("watchdog interval must be 1-59 minutes, got %d", o.IntervalMinutes)
	}
	if o.IdleStrikes < 1 {
		return fmt.Errorf("watchdog idle strikes must be positive, got %d", o.IdleStrikes)
	}
	if !path.IsAbs(o.StateFile) || !path.IsAbs(o.ScriptPath) {
		return fmt.Errorf("watchdog paths must be absolute: %q, %q", o.StateFile, o.ScriptPath)
	}
	return nil
}

// RenderWatchdog returns the watchdog script itself
func RenderWatchdog(o Options) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}
	return execute("watchdog.sh.tmpl", struct {
		Options
		Version string
	}{o, Version})
}

// Render returns the plain boot script that installs the watchdog
func Render(o Options) (string, error) {
	watchdog, err := RenderWatchdog(o)
	if err != nil {
		return "", err
	}
	return execute("bootstrap.sh.tmpl", struct {
		Options
		EncodedWatchdog string
	}{o, base64.StdEncoding.EncodeToString([]byte(watchdog))})
}

// Encode returns the boot script base64 encoded, ready for RunInstances UserData
func Encode(o Options) (string, error) {
	script, err := Render(o)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(script)), nil
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("error rendering %s: %w", name, err)
	}
	return buf.String(), nil
}
