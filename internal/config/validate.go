package config

import (
	"fmt"
	"strings"

	"pushpal/internal/push"
)

// Registries answers "is this id known" questions during validation so
// the config package does not depend on the plugin/channel packages.
type Registries struct {
	HasPlugin  func(id string) bool
	HasChannel func(typ string) bool
}

// Validate checks internal consistency: non-empty recipients, unique
// schedule ids, and that every job reference (recipient, plugin,
// config_ref) resolves. Any failure here is fatal for the whole run;
// a half-trusted config must not produce partial deliveries.
func (c *Config) Validate(reg Registries) error {
	if len(c.Recipients) == 0 {
		return push.Configf("recipients", "no recipients defined")
	}
	for id, r := range c.Recipients {
		if strings.TrimSpace(id) == "" {
			return push.Configf("recipients", "empty recipient id")
		}
		typ := strings.TrimSpace(r.Channel.Type)
		if typ == "" {
			return push.Configf(fmt.Sprintf("recipients.%s.channel.type", id), "missing channel type")
		}
		if reg.HasChannel != nil && !reg.HasChannel(typ) {
			return push.Configf(fmt.Sprintf("recipients.%s.channel.type", id), "unknown channel type %q", typ)
		}
	}

	seen := make(map[string]struct{}, len(c.Schedules))
	for i, sch := range c.Schedules {
		if strings.TrimSpace(sch.ID) == "" {
			return push.Configf(fmt.Sprintf("schedules[%d]", i), "missing id")
		}
		if _, dup := seen[sch.ID]; dup {
			return push.Configf(fmt.Sprintf("schedules[%d]", i), "duplicate schedule id %q", sch.ID)
		}
		seen[sch.ID] = struct{}{}
		if strings.TrimSpace(sch.Cron) == "" {
			return push.Configf(fmt.Sprintf("schedules[%d].cron", i), "missing cron pattern for schedule %q", sch.ID)
		}
		for j, job := range sch.Jobs {
			path := fmt.Sprintf("schedules[%d].jobs[%d]", i, j)
			if _, ok := c.Recipients[job.RecipientID]; !ok {
				return push.Configf(path+".recipient_id", "unknown recipient %q", job.RecipientID)
			}
			if strings.TrimSpace(job.PluginID) == "" {
				return push.Configf(path+".plugin_id", "missing plugin id")
			}
			if reg.HasPlugin != nil && !reg.HasPlugin(job.PluginID) {
				return push.Configf(path+".plugin_id", "unknown plugin %q", job.PluginID)
			}
			if strings.TrimSpace(job.ConfigRef) == "" {
				return push.Configf(path+".config_ref", "missing config_ref")
			}
			if _, ok := c.PluginConfigs[job.ConfigRef]; !ok {
				return push.Configf(path+".config_ref", "unknown plugin config %q", job.ConfigRef)
			}
		}
	}
	return nil
}

// ScheduleByID looks up one schedule. Used for the explicit-id
// invocation path where an unknown id is fatal.
func (c *Config) ScheduleByID(id string) (*Schedule, error) {
	for i := range c.Schedules {
		if c.Schedules[i].ID == id {
			return &c.Schedules[i], nil
		}
	}
	return nil, push.Configf("schedules", "schedule %q not found", id)
}
