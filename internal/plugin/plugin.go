// Package plugin defines the content-plugin contract and the registry
// the runner resolves plugin ids against.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"pushpal/internal/push"
)

// Context is built fresh by the runner for each job and never mutated
// after construction. Config is the job's plugin-config template entry;
// Global is the shared read-only defaults block. Both stay raw so each
// plugin parses its own expected shape.
type Context struct {
	Now         time.Time
	RecipientID string
	Config      json.RawMessage
	Global      json.RawMessage
}

// Plugin generates messages from an execution context.
//
// A plugin must not read ambient state beyond what the context carries
// and must not perform delivery itself; the runner owns delivery.
// External fetch failures for individual items should degrade into
// inline error markers in the output rather than failing the run.
type Plugin interface {
	// ID is the stable registry key, e.g. "stocks.daily-brief".
	ID() string
	Run(ctx context.Context, job Context) ([]push.Message, error)
}

// ParseConfig decodes a plugin's raw config into its typed shape,
// wrapping any mismatch as a PluginError.
func ParseConfig[T any](id string, raw json.RawMessage, out *T) error {
	if len(raw) == 0 {
		return &push.PluginError{PluginID: id, Err: fmt.Errorf("plugin config is empty")}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &push.PluginError{PluginID: id, Err: fmt.Errorf("decode plugin config: %w", err)}
	}
	return nil
}

// Registry maps plugin ids to implementations. Populated once during
// startup, read-only afterwards.
type Registry struct {
	byID map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]Plugin{}}
}

// Register adds plugins, failing on duplicate or empty ids so a bad
// wiring mistake surfaces at startup instead of at job time.
func (r *Registry) Register(plugins ...Plugin) error {
	for _, p := range plugins {
		id := p.ID()
		if id == "" {
			return fmt.Errorf("plugin with empty id")
		}
		if _, dup := r.byID[id]; dup {
			return fmt.Errorf("duplicate plugin id %q", id)
		}
		r.byID[id] = p
	}
	return nil
}

func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) Get(id string) (Plugin, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// IDs returns registered plugin ids, sorted for stable logs.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
