// Package gold implements the gold.daily-brief plugin: gold quotes per
// configured symbol rendered as one HTML message. Two providers are
// supported via provider.type: metalpriceapi (spot XAU, latest plus a
// dated request to derive the change) and tanshuapi_bankgold2 (bank
// paper-gold board with prev/open/change supplied by the API).
package gold

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

type Config struct {
	Symbols     []string          `json:"symbols"`
	SymbolNames map[string]string `json:"symbol_names,omitempty"`
	Provider    ProviderConfig    `json:"provider,omitempty"`
	Display     DisplayConfig     `json:"display,omitempty"`
}

type ProviderConfig struct {
	// Type selects the provider: "metalpriceapi" (default) or
	// "tanshuapi_bankgold2".
	Type string `json:"type,omitempty"`
	// APIKey normally carries an ${ENV} placeholder; the runner
	// resolves it before the plugin sees the config.
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint,omitempty"`
	BaseCurrency string `json:"base_currency,omitempty"` // only XAU is supported
	Unit         string `json:"unit,omitempty"`          // "ounce" (default) or "gram"
	HistoryDays  int    `json:"history_days,omitempty"`  // change baseline, default 1
}

type DisplayConfig struct {
	PricePrecision int `json:"price_precision,omitempty"`
}

type quote struct {
	Symbol    string
	Name      string
	Current   float64
	PrevClose float64
	ChangeAbs float64
	ChangePct float64
	Failed    bool
	ErrMsg    string
}

type Plugin struct {
	client *http.Client
}

func New() *Plugin {
	return &Plugin{client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *Plugin) ID() string { return "gold.daily-brief" }

func (p *Plugin) Run(ctx context.Context, job plugin.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.ParseConfig(p.ID(), job.Config, &cfg); err != nil {
		return nil, err
	}
	cfg.Symbols = cleanSymbols(cfg.Symbols)
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("plugin config needs a non-empty 'symbols' list")
	}
	// Name overrides must match the normalized symbols regardless of
	// how the config file spells the keys.
	cfg.SymbolNames = upperKeys(cfg.SymbolNames)
	precision := cfg.Display.PricePrecision
	if precision <= 0 {
		precision = 2
	}

	date := job.Now.UTC().Format("2006-01-02")
	var body string
	if cfg.providerType() == "tanshuapi_bankgold2" {
		body = renderBankHTML(date, p.fetchBankQuotes(ctx, cfg), precision)
	} else {
		body = renderHTML(date, p.fetchQuotes(ctx, cfg, job.Now), precision)
	}

	return []push.Message{{
		Title:  "Daily gold brief " + date,
		Body:   body,
		Format: push.FormatHTML,
	}}, nil
}

func (c Config) providerType() string {
	if t := strings.ToLower(strings.TrimSpace(c.Provider.Type)); t != "" {
		return t
	}
	return "metalpriceapi"
}

// fetchQuotes resolves every configured symbol, degrading individual
// failures into inline markers instead of failing the message.
func (p *Plugin) fetchQuotes(ctx context.Context, cfg Config, now time.Time) []quote {
	if pt := cfg.providerType(); pt != "metalpriceapi" {
		return allFailed(cfg, fmt.Sprintf("unsupported provider.type %q", pt))
	}

	currencies := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		if cur := symbolCurrency(s); cur != "" && !contains(currencies, cur) {
			currencies = append(currencies, cur)
		}
	}
	if len(currencies) == 0 {
		return allFailed(cfg, "no usable symbols, expected XAUUSD/XAUCNY")
	}

	historyDays := cfg.Provider.HistoryDays
	if historyDays < 1 {
		historyDays = 1
	}
	baseline := now.UTC().AddDate(0, 0, -historyDays).Format("2006-01-02")

	current, err := p.fetchRates(ctx, cfg.Provider, currencies, "")
	if err != nil {
		return allFailed(cfg, err.Error())
	}
	previous, err := p.fetchRates(ctx, cfg.Provider, currencies, baseline)
	if err != nil {
		return allFailed(cfg, err.Error())
	}

	quotes := make([]quote, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		name := cfg.SymbolNames[symbol]
		if name == "" {
			name = symbol
		}
		cur := symbolCurrency(symbol)
		if cur == "" {
			quotes = append(quotes, quote{Symbol: symbol, Name: name, Failed: true, ErrMsg: "unsupported symbol"})
			continue
		}
		now, okNow := current[cur]
		prev, okPrev := previous[cur]
		if !okNow || !okPrev || prev == 0 {
			quotes = append(quotes, quote{Symbol: symbol, Name: name, Failed: true,
				ErrMsg: fmt.Sprintf("missing %s rate", cur)})
			continue
		}
		quotes = append(quotes, quote{
			Symbol:    symbol,
			Name:      name,
			Current:   now,
			PrevClose: prev,
			ChangeAbs: now - prev,
			ChangePct: (now - prev) / prev * 100,
		})
	}
	return quotes
}

// symbolCurrency maps a gold symbol to its quote currency.
func symbolCurrency(symbol string) string {
	switch trimUpper(symbol) {
	case "XAUUSD":
		return "USD"
	case "XAUCNY", "XAUUSD_CNY":
		return "CNY"
	default:
		return ""
	}
}

func allFailed(cfg Config, msg string) []quote {
	quotes := make([]quote, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		name := cfg.SymbolNames[s]
		if name == "" {
			name = s
		}
		quotes[i] = quote{Symbol: s, Name: name, Failed: true, ErrMsg: msg}
	}
	return quotes
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func cleanSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = trimUpper(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func upperKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[trimUpper(k)] = v
	}
	return out
}
