package stocks

import (
	"fmt"
	"html"
	"strings"
)

// renderHTML builds the compact phone-friendly brief: a quote table,
// a failed-fetch section, and an optional news section.
func renderHTML(date string, quotes []quote, cfg Config, news map[string][]newsItem) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',sans-serif;font-size:14px;line-height:1.6;">`)
	fmt.Fprintf(&b, `<h2 style="margin:0 0 8px;font-size:15px;font-weight:600;">Daily stock brief (%s)</h2>`, date)

	b.WriteString(`<table style="width:100%;border-collapse:collapse;font-size:13px;">` +
		`<thead><tr>` +
		`<th style="text-align:left;padding:4px 6px;">Name</th>` +
		`<th style="text-align:right;padding:4px 6px;">Price</th>` +
		`<th style="text-align:right;padding:4px 6px;">Change</th>` +
		`<th style="text-align:right;padding:4px 6px;">Prev / Open</th>` +
		`</tr></thead><tbody>`)

	var failed []quote
	for _, q := range quotes {
		if q.Failed {
			failed = append(failed, q)
			continue
		}
		fmt.Fprintf(&b,
			`<tr><td style="padding:4px 6px;border-top:1px solid #eee;">%s</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.2f</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%s / %s</td>`+
				`<td style="padding:4px 6px;border-top:1px solid #eee;text-align:right;">%.2f / %.2f</td></tr>`,
			html.EscapeString(displayName(q, cfg)),
			q.Current,
			changePctHTML(q.ChangePct),
			signedAmount(q.Current-q.PrevClose),
			q.PrevClose, q.OpenToday)
	}
	b.WriteString(`</tbody></table>`)

	if len(failed) > 0 {
		b.WriteString(`<div style="margin-top:8px;color:#e53935;">Failed to fetch:</div>`)
		for _, q := range failed {
			fmt.Fprintf(&b, `<div style="margin-bottom:4px;color:#e53935;">%s: %s</div>`,
				html.EscapeString(q.Symbol), html.EscapeString(q.ErrMsg))
		}
	}

	if news != nil {
		b.WriteString(`<h3 style="margin:8px 0 4px;">News</h3>`)
		for _, q := range quotes {
			if q.Failed || q.Name == "" {
				continue
			}
			fmt.Fprintf(&b, `<div style="margin-top:6px;font-weight:600;">%s</div>`,
				html.EscapeString(newsHeading(q, cfg)))
			items := news[q.Symbol]
			if len(items) == 0 {
				b.WriteString(`<div style="color:#757575;">No related news.</div>`)
				continue
			}
			b.WriteString(`<ul style="padding-left:18px;margin:4px 0 8px;">`)
			for _, it := range items {
				fmt.Fprintf(&b, `<li><a href="%s" target="_blank">%s</a></li>`,
					html.EscapeString(it.URL), html.EscapeString(it.Title))
			}
			b.WriteString(`</ul>`)
		}
	}

	b.WriteString(`</div>`)
	return b.String()
}

// displayName prefers the configured override; the feed name is only
// trusted for A-shares (HK feed names are unreliable).
func displayName(q quote, cfg Config) string {
	if name := cfg.SymbolNames[q.Symbol]; name != "" {
		return name
	}
	if !strings.HasSuffix(trimUpper(q.Symbol), ".HK") && q.Name != "" {
		return q.Name
	}
	return q.Symbol
}

func newsHeading(q quote, cfg Config) string {
	if _, named := cfg.SymbolNames[q.Symbol]; !named && strings.HasSuffix(trimUpper(q.Symbol), ".HK") {
		return q.Symbol
	}
	name := cfg.SymbolNames[q.Symbol]
	if name == "" {
		name = q.Name
	}
	return q.Symbol + " " + name
}

// CN market convention: red marks gains, green marks losses.
func changePctHTML(pct float64) string {
	s := signedAmount(pct) + "%"
	switch {
	case pct > 0:
		return `<span style="color:#e53935;">` + s + `</span>`
	case pct < 0:
		return `<span style="color:#1b5e20;">` + s + `</span>`
	default:
		return s
	}
}

func signedAmount(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
