package tooling

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

// routingDoer maps URL substrings to canned responses, for tools that hit
// several endpoints in one call.
type routingDoer struct {
	routes map[string]*fakeDoer
}

func (r *routingDoer) Do(req *http.Request) (*http.Response, error) {
	for fragment, doer := range r.routes {
		if strings.Contains(req.URL.String(), fragment) {
			return doer.Do(req)
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("")),
		Header:     make(http.Header),
	}, nil
}

func ddgResultHTML(n int) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, `<div class="result">
			<h2 class="result__title">Result %d</h2>
			<a class="result__url">example%d.com</a>
			<div class="result__snippet">Snippet %d</div>
		</div>`, i, i, i)
	}
	sb.WriteString("</body></html>")
	return sb.String()
}

// =============================================================================
// web_scrape_search tests
// =============================================================================

func TestWebSearchCall_ShouldFormatScrapedResults(t *testing.T) {
	doer := &fakeDoer{body: ddgResultHTML(2)}
	tool := NewWebSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"query": "jane doe"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doer.lastReq.URL.String(), "html.duckduckgo.com/html/?q=jane+doe") {
		t.Errorf("unexpected search URL: %s", doer.lastReq.URL)
	}
	for _, want := range []string{"1. Result 1", "example1.com", "Snippet 1", "2. Result 2"} {
		if !strings.Contains(result.Data, want) {
			t.Errorf("output missing %q:\n%s", want, result.Data)
		}
	}
}

func TestWebSearchCall_ShouldCapTheResultCount(t *testing.T) {
	doer := &fakeDoer{body: ddgResultHTML(9)}
	tool := NewWebSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"query": "common term"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(result.Data, "6. Result 6") {
		t.Errorf("output should stop at %d results:\n%s", maxSearchResults, result.Data)
	}
	if !strings.Contains(result.Data, "5. Result 5") {
		t.Errorf("output should include the %dth result:\n%s", maxSearchResults, result.Data)
	}
}

func TestWebSearchCall_WhenNoResults_ShouldSaySo(t *testing.T) {
	doer := &fakeDoer{body: "<html><body></body></html>"}
	tool := NewWebSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"query": "gibberish"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "No results found") {
		t.Errorf("unexpected output: %q", result.Data)
	}
}

// =============================================================================
// social_search tests
// =============================================================================

func TestSocialSearchCall_ShouldRestrictTheQueryToSocialSites(t *testing.T) {
	doer := &fakeDoer{body: ddgResultHTML(1)}
	tool := NewSocialSearchTool(doer)

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"target": "jane doe"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := doer.lastReq.URL.Query().Get("q")
	for _, site := range []string{"site:linkedin.com", "site:x.com", "site:tiktok.com"} {
		if !strings.Contains(sent, site) {
			t.Errorf("query should include %q, got %q", site, sent)
		}
	}
}

// =============================================================================
// search_username tests
// =============================================================================

func TestUsernameSearchCall_ShouldReportPerPlatformStatus(t *testing.T) {
	// Given a username that exists on GitHub, is absent on Reddit, and is
	// rate-limited on Instagram
	doer := &routingDoer{routes: map[string]*fakeDoer{
		"github.com":    {status: http.StatusOK},
		"reddit.com":    {status: http.StatusNotFound},
		"instagram.com": {status: http.StatusTooManyRequests},
		"gitlab.com":    {status: http.StatusOK},
		"x.com":         {status: http.StatusOK},
		"tiktok.com":    {status: http.StatusServiceUnavailable},
	}}
	tool := NewUsernameSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"username": "janedoe"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"GitHub: found",
		"Reddit: not found",
		"Instagram: blocked (manual check needed)",
		"TikTok: inconclusive (status 503)",
	} {
		if !strings.Contains(result.Data, want) {
			t.Errorf("report missing %q:\n%s", want, result.Data)
		}
	}
}

// =============================================================================
// dark_search tests
// =============================================================================

func TestDarkSearchCall_ShouldListOnionAddresses(t *testing.T) {
	doer := &fakeDoer{body: `<html><body><ul>
		<li class="result"><h4>Hidden Wiki Mirror</h4><cite>abc123.onion</cite></li>
		<li class="result"><h4>Forum</h4><cite>def456.onion</cite></li>
	</ul></body></html>`}
	tool := NewDarkSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"query": "leak"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doer.lastReq.URL.String(), "ahmia.fi/search/?q=leak") {
		t.Errorf("unexpected search URL: %s", doer.lastReq.URL)
	}
	if !strings.Contains(result.Data, "abc123.onion") || !strings.Contains(result.Data, "Hidden Wiki Mirror") {
		t.Errorf("unexpected output:\n%s", result.Data)
	}
}

func TestDarkSearchCall_WhenNoResults_ShouldSaySo(t *testing.T) {
	doer := &fakeDoer{body: "<html><body></body></html>"}
	tool := NewDarkSearchTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"query": "nothing"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "No hidden service results") {
		t.Errorf("unexpected output: %q", result.Data)
	}
}
