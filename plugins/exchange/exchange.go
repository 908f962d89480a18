// Package exchange implements the exchange.daily-brief plugin: bank
// FX boards from the tanshuapi bank exchange API, one HTML message
// with a table per configured bank.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

const tanshuBankURL = "https://api.tanshuapi.com/api/bank_exchange/v1/index"

// Display names for the bank codes the upstream API understands.
var bankNames = map[string]string{
	"ICBC":     "Industrial and Commercial Bank of China",
	"BOC":      "Bank of China",
	"ABCHINA":  "Agricultural Bank of China",
	"BANKCOMM": "Bank of Communications",
	"CCB":      "China Construction Bank",
	"CMBCHINA": "China Merchants Bank",
	"CEBBANK":  "China Everbright Bank",
	"SPDB":     "Shanghai Pudong Development Bank",
	"CIB":      "Industrial Bank",
	"ECITIC":   "China CITIC Bank",
}

type Config struct {
	Banks         []string          `json:"banks"`
	Currencies    []string          `json:"currencies"`
	CurrencyNames map[string]string `json:"currency_names,omitempty"`
	Provider      ProviderConfig    `json:"provider,omitempty"`
	Display       DisplayConfig     `json:"display,omitempty"`
}

type ProviderConfig struct {
	// APIKey normally carries an ${ENV} placeholder; the runner
	// resolves it before the plugin sees the config.
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint,omitempty"`
}

type DisplayConfig struct {
	PricePrecision int `json:"price_precision,omitempty"`
}

// rateEntry mirrors one code_list item. The upstream sends numbers as
// strings; empty values mean the bank does not quote that leg.
type rateEntry struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Mid     string `json:"zhesuan"`
	SpotBuy string `json:"hui_in"`
	SpotSel string `json:"hui_out"`
}

type bankResult struct {
	BankCode   string
	UpdateTime string
	Rates      map[string]rateEntry
	Failed     bool
	ErrMsg     string
}

type Plugin struct {
	client *http.Client
}

func New() *Plugin {
	return &Plugin{client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *Plugin) ID() string { return "exchange.daily-brief" }

func (p *Plugin) Run(ctx context.Context, job plugin.Context) ([]push.Message, error) {
	var cfg Config
	if err := plugin.ParseConfig(p.ID(), job.Config, &cfg); err != nil {
		return nil, err
	}
	banks := cleanUpper(cfg.Banks)
	if len(banks) == 0 {
		return nil, errors.New("plugin config needs a non-empty 'banks' list")
	}
	currencies := cleanUpper(cfg.Currencies)
	if len(currencies) == 0 {
		return nil, errors.New("plugin config needs a non-empty 'currencies' list")
	}
	precision := cfg.Display.PricePrecision
	if precision <= 0 {
		precision = 4
	}

	date := job.Now.UTC().Format("2006-01-02")
	results := make([]bankResult, 0, len(banks))
	for _, bank := range banks {
		results = append(results, p.fetchBank(ctx, cfg.Provider, bank))
	}

	return []push.Message{{
		Title:  "Daily FX brief " + date,
		Body:   renderHTML(date, results, currencies, cfg.CurrencyNames, precision),
		Format: push.FormatHTML,
	}}, nil
}

// fetchBank queries one bank's board. Failures are returned inline so
// one bank outage does not sink the whole brief.
func (p *Plugin) fetchBank(ctx context.Context, prov ProviderConfig, bankCode string) bankResult {
	fail := func(msg string) bankResult {
		return bankResult{BankCode: bankCode, Failed: true, ErrMsg: msg}
	}
	if prov.APIKey == "" {
		return fail("provider api_key is missing (env var unset?)")
	}
	endpoint := prov.Endpoint
	if endpoint == "" {
		endpoint = tanshuBankURL
	}

	q := url.Values{}
	q.Set("key", prov.APIKey)
	q.Set("bank_code", bankCode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fail(err.Error())
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fail(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Sprintf("request failed: status=%d", resp.StatusCode))
	}

	var body struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Time     string      `json:"time"`
			CodeList []rateEntry `json:"code_list"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fail(fmt.Sprintf("decode response: %v", err))
	}
	if body.Code != 1 {
		msg := body.Msg
		if msg == "" {
			msg = "unknown provider error"
		}
		return fail(msg)
	}

	rates := make(map[string]rateEntry, len(body.Data.CodeList))
	for _, e := range body.Data.CodeList {
		rates[strings.ToUpper(strings.TrimSpace(e.Code))] = e
	}
	return bankResult{BankCode: bankCode, UpdateTime: body.Data.Time, Rates: rates}
}

func cleanUpper(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
