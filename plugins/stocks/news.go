package stocks

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const eastmoneyNewsURL = "https://so.eastmoney.com/news/s"

type newsItem struct {
	Title string
	URL   string
}

// fetchNews scrapes the Eastmoney search page for recent headlines
// matching keyword. Best effort: any failure returns an empty list.
func (p *Plugin) fetchNews(ctx context.Context, endpoint, keyword string, limit int) []newsItem {
	if limit <= 0 {
		return nil
	}
	if endpoint == "" {
		endpoint = eastmoneyNewsURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		endpoint+"?keyword="+url.QueryEscape(keyword), nil)
	if err != nil {
		return nil
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	items := make([]newsItem, 0, limit)
	doc.Find("div.news_item_t a, .newslist a, a[href*='eastmoney.com']").
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			if !strings.Contains(href, "eastmoney.com") &&
				!strings.HasPrefix(href, "http") && !strings.HasPrefix(href, "/") {
				return true
			}
			if strings.HasPrefix(href, "/") {
				href = "https://so.eastmoney.com" + href
			} else if !strings.HasPrefix(href, "http") {
				href = "https://" + href
			}
			title := strings.TrimSpace(sel.Text())
			if len([]rune(title)) <= 4 {
				return true
			}
			// Drop promo links and anything that does not look like a
			// Chinese-language headline.
			if strings.Contains(strings.ToLower(title), "level-2") ||
				strings.Contains(href, "acttg.eastmoney.com") ||
				!hasHan(title) {
				return true
			}
			if r := []rune(title); len(r) > 80 {
				title = string(r[:80])
			}
			items = append(items, newsItem{Title: title, URL: href})
			return len(items) < limit
		})
	return items
}
