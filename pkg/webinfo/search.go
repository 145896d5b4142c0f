package webinfo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Result is one search hit, optionally enriched with page text.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
}

// Searcher scrapes the DuckDuckGo HTML endpoint and fetches result pages.
type Searcher struct {
	httpClient *http.Client
	baseURL    string
}

func NewSearcher() *Searcher {
	return NewSearcherWithClient(&http.Client{Timeout: 10 * time.Second})
}

// NewSearcherWithClient uses the given HTTP client, e.g. one routed through
// a proxy.
func NewSearcherWithClient(client *http.Client) *Searcher {
	return &Searcher{
		httpClient: client,
		baseURL:    "https://html.duckduckgo.com",
	}
}

// ProxyClient builds an HTTP client that routes through proxyURL.
func ProxyClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(u)},
	}, nil
}

// Search returns up to limit results for the query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}
	u := s.baseURL + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results []Result
	seen := make(map[string]bool)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find("a.result__a").Text())
		href, _ := sel.Find("a.result__a").Attr("href")
		desc := strings.TrimSpace(sel.Find("a.result__snippet").Text())
		href = unwrapRedirect(href)
		if title == "" || href == "" || seen[href] {
			return true
		}
		seen[href] = true
		results = append(results, Result{Title: title, URL: href, Description: desc})
		return len(results) < limit
	})
	return results, nil
}

// unwrapRedirect resolves DuckDuckGo /l/?uddg= redirect links to the real URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if real := parsed.Query().Get("uddg"); strings.HasPrefix(real, "http") {
		return real
	}
	return href
}

// FetchPage downloads a page and returns its visible text, capped at maxLen runes.
func (s *Searcher) FetchPage(ctx context.Context, pageURL string, maxLen int) (string, error) {
	if maxLen <= 0 {
		maxLen = 2000
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: %s", resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	text := strings.Join(strings.Fields(visibleText(doc)), " ")
	runes := []rune(text)
	if len(runes) > maxLen {
		text = string(runes[:maxLen]) + "..."
	}
	return text, nil
}

// SearchAndFetch runs a search and enriches each result with page text.
func (s *Searcher) SearchAndFetch(ctx context.Context, query string, limit int) ([]Result, error) {
	results, err := s.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	for i := range results {
		content, err := s.FetchPage(ctx, results[i].URL, 2000)
		if err != nil {
			continue
		}
		results[i].Content = content
	}
	return results, nil
}

func visibleText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			buf.WriteString(node.Data)
			buf.WriteString(" ")
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" || node.Data == "noscript" {
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return buf.String()
}
