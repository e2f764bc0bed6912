package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:       AppConfig{Name: "test", Env: "local"},
		Log:       LogConfig{Level: "info", Format: "console"},
		Container: ContainerConfig{MaxDepth: 256},
		Inspect:   InspectConfig{Addr: ":8000", Prefix: "/_container"},
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Log.Level = "WARN"
	cfg.Log.Format = ""
	cfg.Inspect.Prefix = ""
	cfg.Container.MaxDepth = 0
	assert.NoError(t, cfg.Validate(), "optional keys may be blank, levels are case-insensitive")
}

func TestValidate_CollectsEveryField(t *testing.T) {
	cfg := validConfig()
	cfg.App.Env = "staging"
	cfg.Log.Level = ""
	cfg.Container.MaxDepth = -1
	cfg.Inspect.Prefix = "_container"

	err := cfg.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "The selected APP_ENV is invalid.", verr.First("APP_ENV"))
	assert.Equal(t, "The LOG_LEVEL field is required.", verr.First("LOG_LEVEL"))
	assert.Equal(t, "The CONTAINER_MAX_DEPTH must be greater than or equal to 0.", verr.First("CONTAINER_MAX_DEPTH"))
	assert.Equal(t, "The INSPECT_PREFIX must start with /.", verr.First("INSPECT_PREFIX"))
	assert.Empty(t, verr.First("LOG_FORMAT"))

	assert.Equal(t,
		"config: The selected APP_ENV is invalid. "+
			"The CONTAINER_MAX_DEPTH must be greater than or equal to 0. "+
			"The INSPECT_PREFIX must start with /. "+
			"The LOG_LEVEL field is required.",
		err.Error())
}

func TestValidate_InspectAddr(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		addr    string
		ok      bool
	}{
		{"disabled blank", false, "", true},
		{"enabled blank", true, "", false},
		{"port only", true, ":9000", true},
		{"host and port", true, "127.0.0.1:9000", true},
		{"ipv6", true, "[::1]:9000", true},
		{"no port", true, "localhost", false},
		{"disabled but malformed", false, "localhost", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Inspect.Enabled = tt.enabled
			cfg.Inspect.Addr = tt.addr

			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// ── rule engine ──────────────────────────────────────────────────────────────

func TestCheck_Rules(t *testing.T) {
	tests := []struct {
		rule  string
		value string
		ok    bool
	}{
		{"required", "x", true},
		{"required", "   ", false},
		{"integer", "12", true},
		{"integer", "1.5", false},
		{"boolean", "false", true},
		{"boolean", "maybe", false},
		{"gte:10", "10", true},
		{"gte:10", "9", false},
		{"in:a,b", "B", true},
		{"in:a,b", "c", false},
		{"starts_with:/", "/x", true},
		{"starts_with:/", "x", false},
		{`regex:^\d+$`, "42", true},
		{`regex:^\d+$`, "4a", false},
		{"regex:(", "anything", false},
		{"nullable|integer", "", true},
		{"unknown_rule", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.value, func(t *testing.T) {
			verr := check(map[string]string{"f": tt.value}, Rules{"f": tt.rule})
			assert.Equal(t, tt.ok, verr == nil)
		})
	}
}

func TestValidate_RawValuesWin(t *testing.T) {
	cfg := validConfig()
	cfg.raw = map[string]string{"CONTAINER_MAX_DEPTH": "deep"}

	err := cfg.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "The CONTAINER_MAX_DEPTH must be an integer.", verr.First("CONTAINER_MAX_DEPTH"))
}

func TestCheck_StopsOnFirstFailure(t *testing.T) {
	verr := check(map[string]string{"f": ""}, Rules{"f": "required|integer|gte:1"})
	require.NotNil(t, verr)
	assert.Len(t, verr.Bag["f"], 1)
}
