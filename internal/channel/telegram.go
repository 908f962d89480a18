package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"pushpal/internal/config"
	"pushpal/internal/push"
	"pushpal/pkg/logx"
)

// Telegram delivers via the Bot API. The bot handle is created per
// send in offline mode (no getMe round-trip); a one-shot run has no
// long-lived session to keep.
type Telegram struct {
	log    logx.Logger
	client *http.Client
}

func NewTelegram(log logx.Logger) *Telegram {
	return &Telegram{
		log:    log.With(logx.String("channel", "telegram")),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Type() string { return "telegram" }

type telegramConfig struct {
	Type   string `json:"type"`
	Token  string `json:"token"`
	ChatID string `json:"chat_id"`
	// APIURL overrides the Bot API base URL; used by tests.
	APIURL string `json:"api_url,omitempty"`
}

func (t *Telegram) Send(ctx context.Context, msg push.Message, cfg json.RawMessage) error {
	var cc telegramConfig
	if err := json.Unmarshal(cfg, &cc); err != nil {
		return &push.ConfigError{Path: "channel", Err: fmt.Errorf("decode telegram config: %w", err)}
	}
	if cc.Token == "" || cc.ChatID == "" {
		return &push.ConfigError{Path: "channel", Err: errors.New("telegram config needs token and chat_id")}
	}

	token := config.ExpandEnv(cc.Token)
	if token == "" || config.HasPlaceholder(token) {
		return &push.DeliveryError{
			Channel:   t.Type(),
			Recipient: msg.TargetRecipient,
			Err:       errors.New("telegram token did not resolve (env var unset or empty)"),
		}
	}
	chatID, err := strconv.ParseInt(config.ExpandEnv(cc.ChatID), 10, 64)
	if err != nil {
		return &push.ConfigError{Path: "channel.chat_id", Err: fmt.Errorf("not a chat id: %w", err)}
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		URL:     cc.APIURL,
		Client:  t.client,
		Offline: true,
	})
	if err != nil {
		return &push.DeliveryError{Channel: t.Type(), Recipient: msg.TargetRecipient, Err: err}
	}

	opts := &tele.SendOptions{ParseMode: telegramParseMode(msg.Format)}
	if _, err := bot.Send(tele.ChatID(chatID), telegramText(msg), opts); err != nil {
		return &push.DeliveryError{
			Channel:   t.Type(),
			Recipient: msg.TargetRecipient,
			Detail:    fmt.Sprintf("chat_id=%d", chatID),
			Err:       err,
		}
	}
	return nil
}

// telegramText folds the title into the body; the Bot API has no
// separate title field.
func telegramText(msg push.Message) string {
	switch msg.Format {
	case push.FormatHTML:
		return "<b>" + msg.Title + "</b>\n" + msg.Body
	case push.FormatMarkdown:
		return "*" + msg.Title + "*\n" + msg.Body
	default:
		return msg.Title + "\n\n" + msg.Body
	}
}

func telegramParseMode(f push.Format) tele.ParseMode {
	switch f {
	case push.FormatMarkdown:
		return tele.ModeMarkdown
	case push.FormatHTML:
		return tele.ModeHTML
	default:
		return tele.ModeDefault
	}
}
