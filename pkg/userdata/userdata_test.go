package userdata

import (
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Defaults(t *testing.T) {
	script, err := Render(DefaultOptions())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	assert.Contains(t, script, "apt install net-tools -y")
	assert.Contains(t, script, "chmod +x /tmp/ssh_idle_shutdown.sh")
	assert.Contains(t, script, `echo "*/3 * * * * /tmp/ssh_idle_shutdown.sh"`)
}

func TestRender_EmbedsWatchdog(t *testing.T) {
	script, err := Render(DefaultOptions())
	require.NoError(t, err)

	m := regexp.MustCompile(`echo "([A-Za-z0-9+/=]+)" \| base64 -d >/tmp/ssh_idle_shutdown.sh`).FindStringSubmatch(script)
	require.Len(t, m, 2, "boot script should install the encoded watchdog")

	decoded, err := base64.StdEncoding.DecodeString(m[1])
	require.NoError(t, err)

	watchdog, err := RenderWatchdog(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, watchdog, string(decoded))
}

func TestRenderWatchdog_Defaults(t *testing.T) {
	watchdog, err := RenderWatchdog(DefaultOptions())
	require.NoError(t, err)

	assert.Contains(t, watchdog, `STATE_FILE="/tmp/ssh_idle_count"`)
	assert.Contains(t, watchdog, "grep ':22' | grep -c 'ESTABLISHED'")
	assert.Contains(t, watchdog, `if [ "$IDLE_COUNT" -ge 3 ]; then`)
	assert.Contains(t, watchdog, "shutdown -h now")
	assert.Contains(t, watchdog, "v"+Version)
}

func TestEncode_RoundTrip(t *testing.T) {
	encoded, err := Encode(DefaultOptions())
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	plain, err := Render(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, plain, string(decoded))
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero port", func(o *Options) { o.Port = 0 }},
		{"interval too long", func(o *Options) { o.IntervalMinutes = 60 }},
		{"no strikes", func(o *Options) { o.IdleStrikes = 0 }},
		{"relative state file", func(o *Options) { o.StateFile = "idle_count" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			_, err := Render(o)
			assert.Error(t, err)
		})
	}
}
