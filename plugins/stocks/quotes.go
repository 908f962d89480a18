package stocks

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const sinaHQURL = "http://hq.sinajs.cn/list="

type quote struct {
	Symbol    string
	Name      string
	PrevClose float64
	OpenToday float64
	Current   float64
	ChangePct float64
	Failed    bool
	ErrMsg    string
}

// sinaCode maps a user symbol to the Sina HQ code.
//
//	600519.SH -> sh600519
//	000858.SZ -> sz000858
//	1024.HK   -> hk01024  (Sina pads HK codes to 5 digits)
func sinaCode(symbol string) string {
	s := trimUpper(symbol)
	switch {
	case s == "":
		return ""
	case strings.HasSuffix(s, ".SH"):
		return "sh" + s[:len(s)-3]
	case strings.HasSuffix(s, ".SZ"):
		return "sz" + s[:len(s)-3]
	case strings.HasSuffix(s, ".HK"):
		digits := onlyDigits(s[:len(s)-3])
		if digits == "" {
			return ""
		}
		for len(digits) < 5 {
			digits = "0" + digits
		}
		return "hk" + digits
	case strings.HasPrefix(s, "6"):
		return "sh" + s
	default:
		// Bare numeric codes default to the SZ A-share style.
		return "sz" + s
	}
}

func (p *Plugin) fetchQuotes(ctx context.Context, endpoint string, symbols []string) []quote {
	if endpoint == "" {
		endpoint = sinaHQURL
	}
	codes := make([]string, len(symbols))
	for i, s := range symbols {
		codes[i] = sinaCode(s)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+strings.Join(codes, ","), nil)
	if err != nil {
		return allFailed(symbols, err.Error())
	}
	// Sina rejects requests without a finance referer.
	req.Header.Set("Referer", "https://finance.sina.com.cn/")

	resp, err := p.client.Do(req)
	if err != nil {
		return allFailed(symbols, err.Error())
	}
	defer resp.Body.Close()

	// The feed is GBK-encoded.
	raw, err := io.ReadAll(transform.NewReader(resp.Body, simplifiedchinese.GBK.NewDecoder()))
	if err != nil {
		return allFailed(symbols, err.Error())
	}
	return parseQuotes(string(raw), symbols, codes)
}

// parseQuotes extracts one quote per symbol from the Sina response
// lines (var hq_str_<code>="field,field,...";). A-shares carry
// name,open,prev,current in fields 0-3; HK lines carry en/cn name in
// 0/1, open/prev in 2/3, and current in 6.
func parseQuotes(text string, symbols, codes []string) []quote {
	quotes := make([]quote, 0, len(symbols))
	for i, symbol := range symbols {
		isHK := strings.HasSuffix(trimUpper(symbol), ".HK")

		re := regexp.MustCompile(`var\s+hq_str_` + regexp.QuoteMeta(codes[i]) + `="([^"]*)"`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			quotes = append(quotes, quote{Symbol: symbol, Failed: true, ErrMsg: "no data"})
			continue
		}
		parts := strings.Split(m[1], ",")
		minLen := 4
		if isHK {
			minLen = 7
		}
		if len(parts) < minLen {
			quotes = append(quotes, quote{Symbol: symbol, Failed: true, ErrMsg: "short response"})
			continue
		}

		var (
			name             string
			open, prev, curr float64
			err              error
		)
		if isHK {
			// Prefer the Chinese name when it actually contains Han
			// runes; some HK lines return mojibake there.
			if hasHan(parts[1]) {
				name = strings.TrimSpace(parts[1])
			} else {
				name = strings.TrimSpace(parts[0])
			}
			open, prev, curr, err = parseFloats(parts[2], parts[3], parts[6])
		} else {
			name = strings.TrimSpace(parts[0])
			open, prev, curr, err = parseFloats(parts[1], parts[2], parts[3])
		}
		if err != nil {
			quotes = append(quotes, quote{Symbol: symbol, Name: name, Failed: true, ErrMsg: err.Error()})
			continue
		}

		var changePct float64
		if prev != 0 {
			changePct = (curr - prev) / prev * 100
		}
		quotes = append(quotes, quote{
			Symbol:    symbol,
			Name:      name,
			PrevClose: prev,
			OpenToday: open,
			Current:   curr,
			ChangePct: changePct,
		})
	}
	return quotes
}

func parseFloats(open, prev, curr string) (float64, float64, float64, error) {
	o, err := strconv.ParseFloat(strings.TrimSpace(open), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	p, err := strconv.ParseFloat(strings.TrimSpace(prev), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := strconv.ParseFloat(strings.TrimSpace(curr), 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return o, p, c, nil
}

func allFailed(symbols []string, msg string) []quote {
	quotes := make([]quote, len(symbols))
	for i, s := range symbols {
		quotes[i] = quote{Symbol: s, Failed: true, ErrMsg: msg}
	}
	return quotes
}

func hasHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func trimUpper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
