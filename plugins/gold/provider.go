package gold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const metalPriceURL = "https://api.metalpriceapi.com/v1/latest"

// Troy ounce to gram, for provider.unit == "gram".
const ounceToGram = 31.1034768

// fetchRates queries metalpriceapi for XAU quoted in the given
// currencies. A non-empty date (YYYY-MM-DD) requests historical rates
// from the dated endpoint instead of /latest.
func (p *Plugin) fetchRates(ctx context.Context, prov ProviderConfig, currencies []string, date string) (map[string]float64, error) {
	if prov.APIKey == "" {
		return nil, errors.New("provider api_key is missing (env var unset?)")
	}
	base := trimUpper(prov.BaseCurrency)
	if base == "" {
		base = "XAU"
	}
	if base != "XAU" {
		return nil, fmt.Errorf("provider.base_currency %q not supported, only XAU", base)
	}

	endpoint := prov.Endpoint
	if endpoint == "" {
		endpoint = metalPriceURL
	}
	if date != "" {
		endpoint = strings.TrimSuffix(endpoint, "/latest") + "/" + date
	}

	q := url.Values{}
	q.Set("api_key", prov.APIKey)
	q.Set("base", base)
	q.Set("currencies", strings.Join(currencies, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gold rate request failed: status=%d", resp.StatusCode)
	}

	var body struct {
		Success *bool `json:"success"`
		Error   struct {
			Info    string `json:"info"`
			Message string `json:"message"`
		} `json:"error"`
		Rates map[string]float64 `json:"rates"`
		Data  struct {
			Rates map[string]float64 `json:"rates"`
		} `json:"data"`
		Result struct {
			Rates map[string]float64 `json:"rates"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gold rates: %w", err)
	}
	if body.Success != nil && !*body.Success {
		msg := body.Error.Info
		if msg == "" {
			msg = body.Error.Message
		}
		if msg == "" {
			msg = "provider returned failure"
		}
		return nil, errors.New(msg)
	}

	rates := body.Rates
	if len(rates) == 0 {
		rates = body.Data.Rates
	}
	if len(rates) == 0 {
		rates = body.Result.Rates
	}
	if len(rates) == 0 {
		return nil, errors.New("provider returned no rates")
	}

	out := make(map[string]float64, len(rates))
	perGram := trimUpper(prov.Unit) == "GRAM"
	for k, v := range rates {
		if perGram {
			v /= ounceToGram
		}
		out[trimUpper(k)] = v
	}
	return out, nil
}

func trimUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
