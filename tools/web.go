package tools

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// webGet performs a GET request and returns at most max_bytes of the body
// (default: the same 50 000-byte cap as shell output), keeping the start of
// the body and reporting whether it was cut.
func webGet(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	url := argString(args, "url")
	if url == "" {
		return errMap("url is required")
	}
	maxBytes := argInt(args, "max_bytes", maxOutputBytes)

	timeout := tctx.ToolTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(runCtx, http.MethodGet, url, nil)
	if err != nil {
		return errMap(err.Error())
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errMap(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxBytes)+1))
	if err != nil {
		return errMap(err.Error())
	}
	truncated := len(body) > maxBytes
	if truncated {
		body = body[:maxBytes]
	}
	return map[string]any{
		"status":       resp.StatusCode,
		"body":         string(body),
		"truncated":    truncated,
		"content_type": resp.Header.Get("Content-Type"),
	}
}

// searchBaseURL is the HTML (non-JS) search endpoint; a variable so tests
// can point it at a local server.
var searchBaseURL = "https://duckduckgo.com/html/"

var (
	searchResultRe = regexp.MustCompile(`(?is)<a[^>]*class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
)

// webSearch scrapes the search engine's HTML results page; the crude regex
// parse keeps the result shape to {title, url} pairs.
func webSearch(ctx context.Context, tctx Context, args map[string]any) map[string]any {
	query := argString(args, "query")
	if query == "" {
		return errMap("query is required")
	}
	maxResults := argInt(args, "max_results", 5)

	timeout := tctx.ToolTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(runCtx, http.MethodGet, searchBaseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return errMap(err.Error())
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errMap(err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return errMap(err.Error())
	}

	results := make([]map[string]any, 0, maxResults)
	for _, m := range searchResultRe.FindAllStringSubmatch(string(body), -1) {
		title := strings.TrimSpace(html.UnescapeString(htmlTagRe.ReplaceAllString(m[2], "")))
		results = append(results, map[string]any{"title": title, "url": m[1]})
		if len(results) >= maxResults {
			break
		}
	}
	return map[string]any{"query": query, "results": results}
}
