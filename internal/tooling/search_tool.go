package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"argus/internal/domain"
)

// maxSearchResults caps how many hits a search tool reports back to the model.
const maxSearchResults = 5

// fetchDocument GETs a URL with the probe user agent and parses the response
// body as HTML. Shared by the scraping-based search tools.
func fetchDocument(ctx context.Context, client HTTPDoer, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return doc, nil
}

// scrapeDuckDuckGo runs a query against the DuckDuckGo HTML endpoint and
// returns up to maxSearchResults formatted hits.
func scrapeDuckDuckGo(ctx context.Context, client HTTPDoer, query string) (string, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
	doc, err := fetchDocument(ctx, client, searchURL)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	count := 0
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find(".result__title").Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())
		link := strings.TrimSpace(s.Find(".result__url").Text())
		if title == "" {
			return true
		}
		count++
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", count, title, link, snippet)
		return count < maxSearchResults
	})

	if count == 0 {
		return fmt.Sprintf("No results found for %q.", query), nil
	}
	return sb.String(), nil
}

// ==========================================================================
// web_scrape_search
// ==========================================================================

type webSearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search query"`
}

// WebSearchTool runs a general web search via the DuckDuckGo HTML endpoint.
type WebSearchTool struct {
	schema string
	client HTTPDoer
}

func NewWebSearchTool(client HTTPDoer) *WebSearchTool {
	return &WebSearchTool{schema: GenerateSchema(&webSearchArgs{}), client: client}
}

func (t *WebSearchTool) Name() string { return "web_scrape_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for a query and return the top results with titles, URLs and snippets."
}

func (t *WebSearchTool) Definition() string { return t.schema }

func (t *WebSearchTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a webSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	out, err := scrapeDuckDuckGo(ctx, t.client, a.Query)
	if err != nil {
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	return &domain.ToolResult{Data: out}, nil
}

// ==========================================================================
// social_search
// ==========================================================================

type socialSearchArgs struct {
	Target string `json:"target" jsonschema:"required,description=Person or handle to search for on social platforms"`
}

// SocialSearchTool narrows a web search to major social media sites.
type SocialSearchTool struct {
	schema string
	client HTTPDoer
}

func NewSocialSearchTool(client HTTPDoer) *SocialSearchTool {
	return &SocialSearchTool{schema: GenerateSchema(&socialSearchArgs{}), client: client}
}

func (t *SocialSearchTool) Name() string { return "social_search" }

func (t *SocialSearchTool) Description() string {
	return "Search for a person or handle across major social media platforms (LinkedIn, Twitter/X, Instagram, Facebook, TikTok)."
}

func (t *SocialSearchTool) Definition() string { return t.schema }

func (t *SocialSearchTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a socialSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Target) == "" {
		return nil, fmt.Errorf("target must not be empty")
	}
	query := fmt.Sprintf("%q site:linkedin.com OR site:twitter.com OR site:x.com OR site:instagram.com OR site:facebook.com OR site:tiktok.com", a.Target)
	out, err := scrapeDuckDuckGo(ctx, t.client, query)
	if err != nil {
		return nil, fmt.Errorf("social search failed: %w", err)
	}
	return &domain.ToolResult{Data: out}, nil
}

// ==========================================================================
// search_username
// ==========================================================================

type usernameArgs struct {
	Username string `json:"username" jsonschema:"required,description=Username to probe across platforms"`
}

// usernameProbe describes one platform profile URL pattern.
type usernameProbe struct {
	platform string
	urlFmt   string
}

var usernameProbes = []usernameProbe{
	{"GitHub", "https://github.com/%s"},
	{"GitLab", "https://gitlab.com/%s"},
	{"Reddit", "https://www.reddit.com/user/%s"},
	{"Twitter/X", "https://x.com/%s"},
	{"Instagram", "https://www.instagram.com/%s/"},
	{"TikTok", "https://www.tiktok.com/@%s"},
}

// UsernameSearchTool probes well-known platforms for a username and reports
// which ones answer with a profile page.
type UsernameSearchTool struct {
	schema string
	client HTTPDoer
}

func NewUsernameSearchTool(client HTTPDoer) *UsernameSearchTool {
	return &UsernameSearchTool{schema: GenerateSchema(&usernameArgs{}), client: client}
}

func (t *UsernameSearchTool) Name() string { return "search_username" }

func (t *UsernameSearchTool) Description() string {
	return "Check whether a username exists on GitHub, GitLab, Reddit, Twitter/X, Instagram and TikTok."
}

func (t *UsernameSearchTool) Definition() string { return t.schema }

func (t *UsernameSearchTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a usernameArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	username := strings.TrimSpace(a.Username)
	if username == "" {
		return nil, fmt.Errorf("username must not be empty")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Username probe for %q:\n", username)
	for _, probe := range usernameProbes {
		profileURL := fmt.Sprintf(probe.urlFmt, url.PathEscape(username))
		status := probeUsername(ctx, t.client, profileURL)
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", probe.platform, status, profileURL)
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}

func probeUsername(ctx context.Context, client HTTPDoer, profileURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return "error"
	}
	req.Header.Set("User-Agent", probeUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return "found"
	case resp.StatusCode == http.StatusNotFound:
		return "not found"
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return "blocked (manual check needed)"
	default:
		return fmt.Sprintf("inconclusive (status %d)", resp.StatusCode)
	}
}

// ==========================================================================
// dark_search
// ==========================================================================

type darkSearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Query to search on Tor hidden service indexes"`
}

// DarkSearchTool searches Ahmia, a clearnet index of Tor hidden services. It
// returns .onion addresses only; it never fetches hidden service content.
type DarkSearchTool struct {
	schema string
	client HTTPDoer
}

func NewDarkSearchTool(client HTTPDoer) *DarkSearchTool {
	return &DarkSearchTool{schema: GenerateSchema(&darkSearchArgs{}), client: client}
}

func (t *DarkSearchTool) Name() string { return "dark_search" }

func (t *DarkSearchTool) Description() string {
	return "Search the Ahmia index of Tor hidden services for a query. Returns onion addresses and titles, without visiting them."
}

func (t *DarkSearchTool) Definition() string { return t.schema }

func (t *DarkSearchTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a darkSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	searchURL := "https://ahmia.fi/search/?q=" + url.QueryEscape(a.Query)
	doc, err := fetchDocument(ctx, t.client, searchURL)
	if err != nil {
		return nil, fmt.Errorf("dark web search failed: %w", err)
	}

	var sb strings.Builder
	count := 0
	doc.Find("li.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := strings.TrimSpace(s.Find("h4").Text())
		onion := strings.TrimSpace(s.Find("cite").Text())
		if onion == "" {
			return true
		}
		count++
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", count, title, onion)
		return count < maxSearchResults
	})

	if count == 0 {
		return &domain.ToolResult{Data: fmt.Sprintf("No hidden service results found for %q.", a.Query)}, nil
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}
