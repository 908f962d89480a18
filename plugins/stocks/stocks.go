// Package stocks implements the stocks.daily-brief plugin: a snapshot
// of configured A-share/HK quotes from the Sina HQ feed, optionally
// enriched with per-symbol news, rendered as one HTML message.
package stocks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

type Config struct {
	Symbols     []string          `json:"symbols"`
	SymbolNames map[string]string `json:"symbol_names,omitempty"`

	WithNews      bool `json:"with_news,omitempty"`
	NewsPerSymbol int  `json:"news_per_symbol,omitempty"`

	// QuoteEndpoint / NewsEndpoint override the upstream URLs (tests).
	QuoteEndpoint string `json:"quote_endpoint,omitempty"`
	NewsEndpoint  string `json:"news_endpoint,omitempty"`
}

type Plugin struct {
	client *http.Client
}

func New() *Plugin {
	return &Plugin{client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *Plugin) ID() string { return "stocks.daily-brief" }

func (p *Plugin) Run(ctx context.Context, job plugin.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.ParseConfig(p.ID(), job.Config, &cfg); err != nil {
		return nil, err
	}
	symbols := cleanSymbols(cfg.Symbols)
	if len(symbols) == 0 {
		return nil, errors.New("plugin config needs a non-empty 'symbols' list")
	}
	// Name overrides must match the normalized symbols regardless of
	// how the config file spells the keys.
	cfg.SymbolNames = upperKeys(cfg.SymbolNames)
	newsPer := cfg.NewsPerSymbol
	if newsPer <= 0 {
		newsPer = 3
	}

	date := job.Now.UTC().Format("2006-01-02")
	quotes := p.fetchQuotes(ctx, cfg.QuoteEndpoint, symbols)

	var news map[string][]newsItem
	if cfg.WithNews {
		news = make(map[string][]newsItem, len(quotes))
		for _, q := range quotes {
			if q.Failed || q.Name == "" {
				continue
			}
			// Partial news failures degrade to "no news", never abort the brief.
			news[q.Symbol] = p.fetchNews(ctx, cfg.NewsEndpoint, q.Name, newsPer)
		}
	}

	return []push.Message{{
		Title:  "Daily stock brief " + date,
		Body:   renderHTML(date, quotes, cfg, news),
		Format: push.FormatHTML,
	}}, nil
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
