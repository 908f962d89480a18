// Package push holds the message model and error taxonomy shared by the
// plugin, channel, and runner layers.
package push

import (
	"errors"
	"fmt"
	"strings"
)

// Format tags the markup of a message body.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format tag. Empty defaults to text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return FormatText, nil
	case FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown message format %q", s)
	}
}

// Message is the unit of content passed from a plugin to a channel.
//
// TargetRecipient may be left empty by the plugin; the runner binds it
// to the owning job's recipient before delivery. Priority and Tags are
// passed through opaquely.
type Message struct {
	Title           string
	Body            string
	Format          Format
	TargetRecipient string
	Priority        string
	Tags            []string
}

// Validate checks the producer-side invariants (recipient binding is
// the runner's job, not the plugin's).
func (m Message) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return errors.New("message title is empty")
	}
	switch m.Format {
	case FormatText, FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("unknown message format %q", m.Format)
	}
	return nil
}
