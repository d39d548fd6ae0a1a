package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	readability "github.com/go-shiori/go-readability"

	"argus/internal/domain"
)

// maxPageChars caps how much extracted page text is handed back to the model.
const maxPageChars = 4000

// renderPageFunc renders a URL in a headless browser and returns the page
// HTML. Package-level so tests can avoid launching Chromium.
var renderPageFunc = func(ctx context.Context, pageURL string) (string, error) {
	path, found := launcher.LookPath()
	if !found {
		return "", fmt.Errorf("no chromium/chrome binary found for headless rendering")
	}
	u, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return "", fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	return page.HTML()
}

// fetchHTMLFunc is the plain HTTP path tried before headless rendering.
var fetchHTMLFunc = func(ctx context.Context, client HTTPDoer, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	doc, err := readability.FromReader(resp.Body, mustParseURL(pageURL))
	if err != nil {
		return "", err
	}
	return doc.TextContent, nil
}

func mustParseURL(raw string) *neturl.URL {
	u, err := neturl.Parse(raw)
	if err != nil {
		return &neturl.URL{}
	}
	return u
}

type browseArgs struct {
	URL string `json:"url" jsonschema:"required,description=URL of the page to fetch and extract readable text from"`
}

// BrowseTool fetches a web page and extracts its readable text. Plain HTTP
// plus readability extraction is tried first; JavaScript-heavy pages fall back
// to a headless browser render.
type BrowseTool struct {
	schema string
	client HTTPDoer
}

func NewBrowseTool(client HTTPDoer) *BrowseTool {
	return &BrowseTool{schema: GenerateSchema(&browseArgs{}), client: client}
}

func (t *BrowseTool) Name() string { return "browse_url" }

func (t *BrowseTool) Description() string {
	return "Fetch a web page and return its readable text content. Falls back to headless browser rendering for JavaScript-heavy pages."
}

func (t *BrowseTool) Definition() string { return t.schema }

func (t *BrowseTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a browseArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	pageURL := strings.TrimSpace(a.URL)
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return nil, fmt.Errorf("invalid URL %q: must start with http:// or https://", a.URL)
	}

	text, err := fetchHTMLFunc(ctx, t.client, pageURL)
	if err != nil || len(strings.TrimSpace(text)) < 200 {
		rendered, renderErr := renderPageFunc(ctx, pageURL)
		if renderErr != nil {
			if err != nil {
				return nil, fmt.Errorf("page fetch failed: %v (render fallback: %v)", err, renderErr)
			}
		} else {
			doc, parseErr := readability.FromReader(strings.NewReader(rendered), mustParseURL(pageURL))
			if parseErr == nil && len(strings.TrimSpace(doc.TextContent)) > len(strings.TrimSpace(text)) {
				text = doc.TextContent
			}
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &domain.ToolResult{Data: fmt.Sprintf("No readable text could be extracted from %s.", pageURL)}, nil
	}
	if len(text) > maxPageChars {
		// Back up to a rune boundary so the cut never produces invalid UTF-8.
		cut := maxPageChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n[content truncated]"
	}
	return &domain.ToolResult{Data: text}, nil
}
