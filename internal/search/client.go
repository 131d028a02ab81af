// Package search implements a web search client backed by DuckDuckGo's HTML
// endpoint. Results are scraped from the result page, so no API key is needed.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/dsoares/relaybot/internal/config"
)

// ErrNoResults is returned when the result page contained no usable items.
var ErrNoResults = errors.New("search returned no results")

const maxBodyBytes = 2 * 1024 * 1024

// Result is one search hit in engine order.
type Result struct {
	Title string
	Link  string
}

// Client defines the search operation used by the bot.
type Client interface {
	// Search issues the query and returns up to the configured number of
	// results in the order the engine returned them.
	Search(ctx context.Context, query string) ([]Result, error)
}

type httpClient struct {
	baseURL    string
	maxResults int
	userAgent  string
	client     *http.Client
	log        *slog.Logger
}

// NewClient creates a search client from the provided configuration.
func NewClient(cfg config.SearchConfig, log *slog.Logger) Client {
	return &httpClient{
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		userAgent:  cfg.UserAgent,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log.With("component", "search_client"),
	}
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is empty")
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base URL: %w", err)
	}
	u := *base
	qs := u.Query()
	qs.Set("q", query)
	u.RawQuery = qs.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "Search request failed", "query", query, "error", err)
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.ErrorContext(ctx, "Search returned unexpected status", "query", query, "status", resp.StatusCode)
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	results, err := parseResultPage(body, c.maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	if len(results) == 0 {
		c.log.WarnContext(ctx, "Search produced no results", "query", query)
		return nil, ErrNoResults
	}

	c.log.DebugContext(ctx, "Search completed", "query", query, "result_count", len(results))
	return results, nil
}

// parseResultPage walks the DuckDuckGo HTML result page. Result title links
// look like: <a class="result__a" href="...">Title</a>.
func parseResultPage(page []byte, maxResults int) ([]Result, error) {
	root, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var out []Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil || len(out) >= maxResults {
			return
		}

		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			href := attrValue(n, "href")
			title := strings.Join(strings.Fields(textContent(n)), " ")
			if href != "" && title != "" {
				out = append(out, Result{Title: title, Link: normalizeResultURL(href)})
			}
		}

		for c := n.FirstChild; c != nil && len(out) < maxResults; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return out, nil
}

// normalizeResultURL unwraps DuckDuckGo's redirect links (/l/?uddg=<encoded>)
// to the target URL.
func normalizeResultURL(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if u.Path == "/l/" {
		if uddg := u.Query().Get("uddg"); uddg != "" {
			if decoded, err := url.QueryUnescape(uddg); err == nil && decoded != "" {
				return decoded
			}
		}
	}

	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	return href
}

func hasClass(n *html.Node, want string) bool {
	for _, part := range strings.Fields(attrValue(n, "class")) {
		if part == want {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x == nil {
			return
		}
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
