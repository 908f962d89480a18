package gold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const tanshuBankGoldURL = "https://api.tanshuapi.com/api/gold/v1/bankgold2"

// bankGoldItem mirrors one data.list entry of the tanshuapi bank
// paper-gold board. Numbers arrive as strings; empty means the board
// has no value for that leg.
type bankGoldItem struct {
	Price      string `json:"price"`
	LastClose  string `json:"lastclosingprice"`
	OpenToday  string `json:"openingprice"`
	ChangeAbs  string `json:"changequantity"`
	ChangePct  string `json:"changepercent"`
	BuyPrice   string `json:"buyprice"`
	SellPrice  string `json:"sellprice"`
	Unit       string `json:"unit"`
	UpdateTime string `json:"updatetime"`
}

type bankQuote struct {
	Symbol  string
	Name    string
	Current float64
	Item    bankGoldItem
	Failed  bool
	ErrMsg  string
}

// fetchBankQuotes resolves every configured symbol against the board,
// degrading failures into inline markers instead of failing the message.
func (p *Plugin) fetchBankQuotes(ctx context.Context, cfg Config) []bankQuote {
	board, err := p.fetchBankGoldBoard(ctx, cfg.Provider)
	if err != nil {
		return allBankFailed(cfg, err.Error())
	}

	quotes := make([]bankQuote, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		name := cfg.SymbolNames[symbol]
		if name == "" {
			name = symbol
		}
		item, ok := board[symbol]
		if !ok {
			quotes = append(quotes, bankQuote{Symbol: symbol, Name: name, Failed: true, ErrMsg: "not on the board"})
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(item.Price), 64)
		if err != nil {
			quotes = append(quotes, bankQuote{Symbol: symbol, Name: name, Failed: true, ErrMsg: "missing price"})
			continue
		}
		quotes = append(quotes, bankQuote{Symbol: symbol, Name: name, Current: price, Item: item})
	}
	return quotes
}

// fetchBankGoldBoard requests the full board, keyed by uppercased
// product code.
func (p *Plugin) fetchBankGoldBoard(ctx context.Context, prov ProviderConfig) (map[string]bankGoldItem, error) {
	if prov.APIKey == "" {
		return nil, errors.New("provider api_key is missing (env var unset?)")
	}
	endpoint := prov.Endpoint
	if endpoint == "" {
		endpoint = tanshuBankGoldURL
	}

	q := url.Values{}
	q.Set("key", prov.APIKey)
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
		return nil, fmt.Errorf("bank gold request failed: status=%d", resp.StatusCode)
	}

	var body struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			List map[string]bankGoldItem `json:"list"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode bank gold board: %w", err)
	}
	if body.Code != 1 {
		msg := body.Msg
		if msg == "" {
			msg = "unknown provider error"
		}
		return nil, errors.New(msg)
	}
	if len(body.Data.List) == 0 {
		return nil, errors.New("provider returned no board entries")
	}

	board := make(map[string]bankGoldItem, len(body.Data.List))
	for k, v := range body.Data.List {
		board[trimUpper(k)] = v
	}
	return board, nil
}

func allBankFailed(cfg Config, msg string) []bankQuote {
	quotes := make([]bankQuote, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		name := cfg.SymbolNames[s]
		if name == "" {
			name = s
		}
		quotes[i] = bankQuote{Symbol: s, Name: name, Failed: true, ErrMsg: msg}
	}
	return quotes
}
