package push

import (
	"errors"
	"fmt"
)

// Failure classes. Load-time config errors abort the run; plugin and
// delivery errors are isolated at the job boundary.
var (
	ErrConfig   = errors.New("config error")
	ErrPlugin   = errors.New("plugin error")
	ErrDelivery = errors.New("delivery error")
)

// ConfigError marks a malformed or internally inconsistent configuration.
type ConfigError struct {
	Path string // config location, e.g. "schedules[0].jobs[1].recipient_id"
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// Configf builds a ConfigError at the given config path.
func Configf(path, format string, args ...any) error {
	return &ConfigError{Path: path, Err: fmt.Errorf(format, args...)}
}

// PluginError marks a plugin run that failed or produced invalid output.
type PluginError struct {
	PluginID string
	Err      error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.PluginID, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

func (e *PluginError) Is(target error) bool { return target == ErrPlugin }

// DeliveryError marks a failed channel send. Detail carries whatever
// transport diagnostics were available (status code, response snippet).
type DeliveryError struct {
	Channel   string
	Recipient string
	Detail    string
	Err       error
}

func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("deliver via %s to %s", e.Channel, e.Recipient)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func (e *DeliveryError) Is(target error) bool { return target == ErrDelivery }
