package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pushpal/internal/config"
	"pushpal/internal/push"
	"pushpal/pkg/logx"
)

const pushPlusURL = "https://www.pushplus.plus/send"

// PushPlus delivers via the PushPlus send API: a single POST carrying
// token, title, content, and a template selector.
type PushPlus struct {
	log    logx.Logger
	client *http.Client
}

func NewPushPlus(log logx.Logger) *PushPlus {
	return &PushPlus{
		log:    log.With(logx.String("channel", "pushplus")),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *PushPlus) Type() string { return "pushplus" }

type pushPlusConfig struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Topic string `json:"topic,omitempty"`
	// Endpoint overrides the default API URL; used by tests and
	// self-hosted relays.
	Endpoint string `json:"endpoint,omitempty"`
}

type pushPlusRequest struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
	Topic    string `json:"topic,omitempty"`
}

type pushPlusResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (p *PushPlus) Send(ctx context.Context, msg push.Message, cfg json.RawMessage) error {
	var cc pushPlusConfig
	if err := json.Unmarshal(cfg, &cc); err != nil {
		return &push.ConfigError{Path: "channel", Err: fmt.Errorf("decode pushplus config: %w", err)}
	}
	if cc.Token == "" {
		return &push.ConfigError{Path: "channel.token", Err: errors.New("missing pushplus token")}
	}

	token := config.ExpandEnv(cc.Token)
	if token == "" || config.HasPlaceholder(token) {
		return &push.DeliveryError{
			Channel:   p.Type(),
			Recipient: msg.TargetRecipient,
			Err:       errors.New("pushplus token did not resolve (env var unset or empty)"),
		}
	}
	p.log.Debug("resolved pushplus token", logx.Int("len", len(token)), logx.String("prefix", maskToken(token)))

	body, err := json.Marshal(pushPlusRequest{
		Token:    token,
		Title:    msg.Title,
		Content:  msg.Body,
		Template: pushPlusTemplate(msg.Format),
		Topic:    config.ExpandEnv(cc.Topic),
	})
	if err != nil {
		return &push.DeliveryError{Channel: p.Type(), Recipient: msg.TargetRecipient, Err: err}
	}

	endpoint := cc.Endpoint
	if endpoint == "" {
		endpoint = pushPlusURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &push.DeliveryError{Channel: p.Type(), Recipient: msg.TargetRecipient, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &push.DeliveryError{Channel: p.Type(), Recipient: msg.TargetRecipient, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return &push.DeliveryError{
			Channel:   p.Type(),
			Recipient: msg.TargetRecipient,
			Detail:    fmt.Sprintf("status=%d body=%s", resp.StatusCode, snippet(raw)),
			Err:       errors.New("pushplus send failed"),
		}
	}
	var pr pushPlusResponse
	if err := json.Unmarshal(raw, &pr); err == nil && pr.Code != 200 {
		return &push.DeliveryError{
			Channel:   p.Type(),
			Recipient: msg.TargetRecipient,
			Detail:    fmt.Sprintf("code=%d msg=%s", pr.Code, pr.Msg),
			Err:       errors.New("pushplus API error"),
		}
	}
	return nil
}

// pushPlusTemplate maps the message format to the PushPlus template
// selector ("txt" is their plain-text template name).
func pushPlusTemplate(f push.Format) string {
	switch f {
	case push.FormatMarkdown:
		return "markdown"
	case push.FormatHTML:
		return "html"
	default:
		return "txt"
	}
}

func maskToken(token string) string {
	if len(token) > 4 {
		return token[:4] + "***"
	}
	return "***"
}

func snippet(b []byte) string {
	s := string(b)
	if len(s) > 500 {
		s = s[:500] + "..."
	}
	return s
}
