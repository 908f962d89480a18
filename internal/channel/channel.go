// Package channel defines the delivery-transport contract and the
// built-in channel implementations (pushplus, telegram).
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"pushpal/internal/push"
)

// Channel sends one message using a channel-specific config blob.
//
// Implementations make at most one delivery attempt per call and must
// not mutate the message or the config they are given. Failures are
// returned as *push.DeliveryError (config-shape problems as
// *push.ConfigError).
type Channel interface {
	// Type is the registry key matched against a recipient's channel type.
	Type() string
	Send(ctx context.Context, msg push.Message, cfg json.RawMessage) error
}

// Registry maps channel types to implementations. Populated once at
// startup, read-only afterwards.
type Registry struct {
	byType map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{byType: map[string]Channel{}}
}

func (r *Registry) Register(channels ...Channel) error {
	for _, c := range channels {
		typ := c.Type()
		if typ == "" {
			return fmt.Errorf("channel with empty type")
		}
		if _, dup := r.byType[typ]; dup {
			return fmt.Errorf("duplicate channel type %q", typ)
		}
		r.byType[typ] = c
	}
	return nil
}

func (r *Registry) Has(typ string) bool {
	_, ok := r.byType[typ]
	return ok
}

func (r *Registry) Get(typ string) (Channel, bool) {
	c, ok := r.byType[typ]
	return c, ok
}

// Types returns registered channel types, sorted for stable logs.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.byType))
	for t := range r.byType {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
