package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pushpal/internal/plugin"
	"pushpal/internal/push"
)

const bankBoardOK = `{
	"code": 1,
	"msg": "success",
	"data": {
		"time": "2025-03-03 08:00:00",
		"code_list": [
			{"code": "USD", "name": "美元", "zhesuan": "7.2412", "hui_in": "7.2230", "hui_out": "7.2590"},
			{"code": "EUR", "name": "欧元", "zhesuan": "7.8510", "hui_in": "", "hui_out": "7.8820"}
		]
	}
}`

func TestRunProducesBoard(t *testing.T) {
	t.Parallel()
	var banksSeen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		bank := r.URL.Query().Get("bank_code")
		banksSeen = append(banksSeen, bank)
		if bank == "BOC" {
			fmt.Fprint(w, `{"code":0,"msg":"bank unavailable"}`)
			return
		}
		fmt.Fprint(w, bankBoardOK)
	}))
	defer srv.Close()

	p := New()
	cfg := fmt.Sprintf(`{
		"banks": ["icbc", "boc"],
		"currencies": ["USD", "EUR", "JPY"],
		"currency_names": {"USD": "US Dollar"},
		"provider": {"api_key": "test-key", "endpoint": "%s"}
	}`, srv.URL)

	msgs, err := p.Run(context.Background(), plugin.Context{
		Now:    time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC),
		Config: json.RawMessage(cfg),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, []string{"ICBC", "BOC"}, banksSeen)

	msg := msgs[0]
	assert.Equal(t, "Daily FX brief 2025-03-03", msg.Title)
	assert.Equal(t, push.FormatHTML, msg.Format)

	assert.Contains(t, msg.Body, "Industrial and Commercial Bank of China")
	assert.Contains(t, msg.Body, "Updated: 2025-03-03 08:00:00")
	assert.Contains(t, msg.Body, "US Dollar")
	assert.Contains(t, msg.Body, "7.2412")
	// Configured name wins over the upstream one for USD; EUR falls back.
	assert.Contains(t, msg.Body, "欧元")
	// One bank down renders inline, the run still succeeds.
	assert.Contains(t, msg.Body, "Bank of China")
	assert.Contains(t, msg.Body, "bank unavailable")
}

func TestRunRejectsEmptyLists(t *testing.T) {
	t.Parallel()
	p := New()
	ctx := plugin.Context{Now: time.Now()}

	ctx.Config = json.RawMessage(`{"banks":[],"currencies":["USD"]}`)
	_, err := p.Run(context.Background(), ctx)
	require.Error(t, err)

	ctx.Config = json.RawMessage(`{"banks":["ICBC"],"currencies":[" "]}`)
	_, err = p.Run(context.Background(), ctx)
	require.Error(t, err)
}

func TestFetchBankMissingKey(t *testing.T) {
	t.Parallel()
	p := New()
	res := p.fetchBank(context.Background(), ProviderConfig{}, "ICBC")
	assert.True(t, res.Failed)
	assert.Contains(t, res.ErrMsg, "api_key is missing")
}

func TestFormatRate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "7.2412", formatRate("7.2412", true, 4))
	assert.Equal(t, "7.24", formatRate("7.2412", true, 2))
	assert.Equal(t, "—", formatRate("", true, 4))
	assert.Equal(t, "—", formatRate("n/a", true, 4))
	assert.Equal(t, "—", formatRate("7.2412", false, 4))
}
