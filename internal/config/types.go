package config

import (
	"bytes"
	"encoding/json"
)

// Config is the validated in-memory model of one run's configuration.
//
// All entities are loaded once at process start and are immutable for
// the lifetime of the invocation.
type Config struct {
	Logging LoggingConfig `json:"logging,omitempty"`

	// Global holds shared defaults passed read-only to every plugin.
	Global json.RawMessage `json:"global_config,omitempty"`

	Recipients    map[string]Recipient       `json:"recipients"`
	Schedules     []Schedule                 `json:"schedules"`
	PluginConfigs map[string]json.RawMessage `json:"plugin_configs,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level,omitempty"`
	Console bool        `json:"console,omitempty"`
	File    LoggingFile `json:"file,omitempty"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Recipient is a named destination with one bound delivery channel.
type Recipient struct {
	Channel ChannelConfig `json:"channel"`
}

// Schedule is a named cron pattern plus an ordered list of jobs.
type Schedule struct {
	ID   string `json:"id"`
	Cron string `json:"cron"`
	Jobs []Job  `json:"jobs,omitempty"`
}

// Job is a (recipient, plugin, plugin-config) triple within a schedule.
// Jobs have no identity beyond their position.
type Job struct {
	RecipientID string `json:"recipient_id"`
	PluginID    string `json:"plugin_id"`
	ConfigRef   string `json:"config_ref"`
}

// ChannelConfig carries the channel type tag plus the channel-specific
// blob. The blob stays raw: each channel implementation parses its own
// expected shape. Values may contain ${ENV} placeholders; those are
// resolved at send time, never written back.
type ChannelConfig struct {
	Type string
	Raw  json.RawMessage
}

func (c *ChannelConfig) UnmarshalJSON(b []byte) error {
	var t struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*c = ChannelConfig{Type: t.Type, Raw: append(json.RawMessage(nil), b...)}
	return nil
}

func (c ChannelConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	t, err := json.Marshal(c.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(t)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
