package gold

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

func renderHTML(date string, quotes []quote, precision int) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">`)
	fmt.Fprintf(&b, `<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">Daily gold brief (%s)</h2>`, date)

	b.WriteString(`<table style="width:100%;border-collapse:collapse;font-size:13px;">` +
		`<thead><tr>` +
		`<th style="text-align:left;padding:4px 6px;">Name</th>` +
		`<th style="text-align:right;padding:4px 6px;">Price</th>` +
		`<th style="text-align:right;padding:4px 6px;">Change</th>` +
		`<th style="text-align:right;padding:4px 6px;">Prev</th>` +
		`</tr></thead><tbody>`)

	var failed []quote
	for _, q := range quotes {
		if q.Failed {
			failed = append(failed, q)
			continue
		}
		fmt.Fprintf(&b,
			`<tr><td style="padding:4px 6px;border-top:1px solid #eee;">%s</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.*f</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%s / %s</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.*f</td></tr>`,
			html.EscapeString(q.Name),
			precision, q.Current,
			changePctHTML(q.ChangePct),
			signed(q.ChangeAbs, precision),
			precision, q.PrevClose)
	}
	b.WriteString(`</tbody></table>`)

	if len(failed) > 0 {
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">Failed to fetch:</div>`)
		for _, q := range failed {
			fmt.Fprintf(&b, `<div style="margin-bottom:4px;color:#e53935;">%s: %s</div>`,
				html.EscapeString(q.Name), html.EscapeString(q.ErrMsg))
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

// renderBankHTML builds the bank paper-gold brief: one card per
// product with buy/sell and prev/open legs, plus a failed section.
func renderBankHTML(date string, quotes []bankQuote, precision int) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">`)
	fmt.Fprintf(&b, `<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">Daily gold brief (%s)</h2>`, date)

	var failed []bankQuote
	for _, q := range quotes {
		if q.Failed {
			failed = append(failed, q)
			continue
		}
		unit := strings.TrimSpace(q.Item.Unit)
		if unit == "" {
			unit = "—"
		}
		updated := strings.TrimSpace(q.Item.UpdateTime)
		if updated == "" {
			updated = "—"
		}
		fmt.Fprintf(&b,
			`<div style="margin-bottom:12px;padding:10px;border:1px solid #eee;border-radius:6px;background:#fafafa;">`+
				`<div style="display:flex;justify-content:space-between;align-items:baseline;margin-bottom:6px;">`+
				`<span style="font-size:14px;font-weight:600;">%s</span>`+
				`<span style="font-size:16px;font-weight:600;">%.*f <span style="font-size:11px;color:#666;font-weight:400;">%s</span></span>`+
				`</div>`+
				`<div style="font-size:12px;color:#666;margin-bottom:4px;">Buy %s / Sell %s · Prev %s / Open %s</div>`+
				`<div style="font-size:12px;">Change %s (%s) <span style="color:#999;font-size:11px;">%s</span></div>`+
				`</div>`,
			html.EscapeString(q.Name),
			precision, q.Current,
			html.EscapeString(unit),
			optNum(q.Item.BuyPrice, precision),
			optNum(q.Item.SellPrice, precision),
			optNum(q.Item.LastClose, precision),
			optNum(q.Item.OpenToday, precision),
			bankChangePct(q.Item.ChangePct),
			bankChangeAbs(q.Item.ChangeAbs),
			html.EscapeString(updated))
	}

	if len(failed) > 0 {
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">Failed to fetch:</div>`)
		for _, q := range failed {
			fmt.Fprintf(&b, `<div style="margin-bottom:4px;color:#e53935;">%s: %s</div>`,
				html.EscapeString(q.Name), html.EscapeString(q.ErrMsg))
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

// optNum renders a string-typed upstream number at the given precision;
// missing or unparsable values render as an em dash.
func optNum(raw string, precision int) string {
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

// bankChangePct parses the board's "0.38%" / "-0.36%" change strings;
// absent or unparsable values render as "--".
func bankChangePct(raw string) string {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return "--"
	}
	return changePctHTML(v)
}

func bankChangeAbs(raw string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "--"
	}
	return signed(v, 2)
}

// CN market convention: red marks gains, green marks losses.
func changePctHTML(pct float64) string {
	s := signed(pct, 2) + "%"
	switch {
	case pct > 0:
		return `<span style="color:#e53935;">` + s + `</span>`
	case pct < 0:
		return `<span style="color:#1b5e20;">` + s + `</span>`
	default:
		return s
	}
}

func signed(v float64, precision int) string {
	if v >= 0 {
		return fmt.Sprintf("+%.*f", precision, v)
	}
	return fmt.Sprintf("%.*f", precision, v)
}
