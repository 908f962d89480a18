package exchange

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

func renderHTML(date string, results []bankResult, currencies []string, currencyNames map[string]string, precision int) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">`)
	fmt.Fprintf(&b, `<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">Daily FX brief (%s)</h2>`, date)

	for _, res := range results {
		display := bankNames[res.BankCode]
		if display == "" {
			display = res.BankCode
		}
		fmt.Fprintf(&b, `<h3 style="margin:16px 0 8px;font-size:14px;font-weight:600;">%s (%s)</h3>`,
			html.EscapeString(display), html.EscapeString(res.BankCode))

		if res.Failed {
			fmt.Fprintf(&b, `<div style="margin-bottom:12px;color:#e53935;">Failed to fetch: %s</div>`,
				html.EscapeString(res.ErrMsg))
			continue
		}
		if res.UpdateTime != "" {
			fmt.Fprintf(&b, `<p style="margin:0 0 8px;font-size:12px;color:#666;">Updated: %s</p>`,
				html.EscapeString(res.UpdateTime))
		}

		b.WriteString(`<table style="width:100%;border-collapse:collapse;border:1px solid #eee;border-radius:6px;background:#fafafa;margin-bottom:12px;">` +
			`<tr style="background:#f5f5f5;">` +
			`<th style="padding:8px 12px;text-align:left;font-size:12px;">Currency</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">Mid</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">Spot buy</th>` +
			`<th style="padding:8px 12px;text-align:right;font-size:12px;">Spot sell</th>` +
			`</tr>`)

		for _, code := range currencies {
			entry, ok := res.Rates[code]
			name := currencyNames[code]
			if name == "" && ok && entry.Name != "" {
				name = entry.Name
			}
			if name == "" {
				name = code
			}
			fmt.Fprintf(&b,
				`<tr style="border-bottom:1px solid #eee;">`+
					`<td style="padding:8px 12px;font-size:12px;">%s</td>`+
					`<td style="padding:8px 12px;text-align:right;font-size:12px;">%s</td>`+
					`<td style="padding:8px 12px;text-align:right;font-size:12px;">%s</td>`+
					`<td style="padding:8px 12px;text-align:right;font-size:12px;">%s</td></tr>`,
				html.EscapeString(name),
				formatRate(entry.Mid, ok, precision),
				formatRate(entry.SpotBuy, ok, precision),
				formatRate(entry.SpotSel, ok, precision))
		}
		b.WriteString(`</table>`)
	}

	b.WriteString(`</div>`)
	return b.String()
}

// formatRate renders a string-typed upstream number at the configured
// precision; missing or unparsable legs render as an em dash.
func formatRate(raw string, present bool, precision int) string {
	if !present {
		return "—"
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "—"
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "—"
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
