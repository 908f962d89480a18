package config

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpal/internal/push"
)

func testRegistries() Registries {
	return Registries{
		HasPlugin:  func(id string) bool { return id == "placeholder" },
		HasChannel: func(typ string) bool { return typ == "pushplus" },
	}
}

func validConfig() *Config {
	return &Config{
		Recipients: map[string]Recipient{
			"me": {Channel: ChannelConfig{Type: "pushplus", Raw: json.RawMessage(`{"type":"pushplus","token":"x"}`)}},
		},
		Schedules: []Schedule{{
			ID:   "morning",
			Cron: "0 8 * * *",
			Jobs: []Job{{RecipientID: "me", PluginID: "placeholder", ConfigRef: "empty"}},
		}},
		PluginConfigs: map[string]json.RawMessage{"empty": json.RawMessage(`{}`)},
	}
}

func TestValidateOK(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate(testRegistries()))
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantMsg string
	}{
		{
			name:    "no recipients",
			mutate:  func(c *Config) { c.Recipients = nil },
			wantMsg: "no recipients",
		},
		{
			name:    "unknown channel type",
			mutate:  func(c *Config) { r := c.Recipients["me"]; r.Channel.Type = "smoke-signal"; c.Recipients["me"] = r },
			wantMsg: "unknown channel type",
		},
		{
			name: "duplicate schedule id",
			mutate: func(c *Config) {
				c.Schedules = append(c.Schedules, Schedule{ID: "morning", Cron: "0 9 * * *"})
			},
			wantMsg: "duplicate schedule id",
		},
		{
			name:    "unknown recipient",
			mutate:  func(c *Config) { c.Schedules[0].Jobs[0].RecipientID = "nobody" },
			wantMsg: "unknown recipient",
		},
		{
			name:    "unknown plugin",
			mutate:  func(c *Config) { c.Schedules[0].Jobs[0].PluginID = "nonesuch" },
			wantMsg: "unknown plugin",
		},
		{
			name:    "unknown config ref",
			mutate:  func(c *Config) { c.Schedules[0].Jobs[0].ConfigRef = "missing" },
			wantMsg: "unknown plugin config",
		},
		{
			name:    "missing cron",
			mutate:  func(c *Config) { c.Schedules[0].Cron = "" },
			wantMsg: "missing cron",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate(testRegistries())
			require.Error(t, err)
			assert.True(t, errors.Is(err, push.ErrConfig), "want ConfigError, got %T", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestScheduleByID(t *testing.T) {
	t.Parallel()
	cfg := validConfig()

	sch, err := cfg.ScheduleByID("morning")
	require.NoError(t, err)
	assert.Equal(t, "morning", sch.ID)

	_, err = cfg.ScheduleByID("evening")
	require.Error(t, err)
	assert.True(t, errors.Is(err, push.ErrConfig))
}
