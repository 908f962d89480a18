// Package placeholder is a fixed-output plugin used to verify the
// runner and channel wiring end to end.
package placeholder

import (
	"context"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "placeholder" }

func (p *Plugin) Run(ctx context.Context, job plugin.Context) ([]push.Message, error) {
	return []push.Message{{
		Title:  "Test",
		Body:   "Hello from pushpal",
		Format: push.FormatText,
	}}, nil
}
