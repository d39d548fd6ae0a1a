package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"argus/internal/domain"
)

// ==========================================================================
// ip_intel
// ==========================================================================

type ipIntelArgs struct {
	IP string `json:"ip" jsonschema:"required,description=IPv4 or IPv6 address to geolocate and profile"`
}

// IPIntelTool geolocates an IP address and reports ISP, ASN, and proxy/hosting
// flags via the ip-api.com free endpoint.
type IPIntelTool struct {
	schema string
	client HTTPDoer
}

func NewIPIntelTool(client HTTPDoer) *IPIntelTool {
	return &IPIntelTool{schema: GenerateSchema(&ipIntelArgs{}), client: client}
}

func (t *IPIntelTool) Name() string { return "ip_intel" }

func (t *IPIntelTool) Description() string {
	return "Geolocate an IP address and report its ISP, organization, ASN, and whether it is a known proxy or hosting provider."
}

func (t *IPIntelTool) Definition() string { return t.schema }

func (t *IPIntelTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a ipIntelArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if !isSafeTarget(a.IP) {
		return nil, fmt.Errorf("invalid IP address %q", a.IP)
	}
	// fields bitmask selects geo, network and proxy/hosting flags.
	reqURL := fmt.Sprintf("http://ip-api.com/json/%s?fields=66842623", url.PathEscape(a.IP))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip intel lookup failed: %w", err)
	}
	defer resp.Body.Close()

	var info struct {
		Status     string  `json:"status"`
		Message    string  `json:"message"`
		Country    string  `json:"country"`
		RegionName string  `json:"regionName"`
		City       string  `json:"city"`
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		ISP        string  `json:"isp"`
		Org        string  `json:"org"`
		AS         string  `json:"as"`
		Proxy      bool    `json:"proxy"`
		Hosting    bool    `json:"hosting"`
		Mobile     bool    `json:"mobile"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("ip intel lookup failed: %w", err)
	}
	if info.Status != "success" {
		return nil, fmt.Errorf("ip intel lookup failed for %s: %s", a.IP, info.Message)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "IP intelligence for %s:\n", a.IP)
	fmt.Fprintf(&sb, "- Location: %s, %s, %s (%.4f, %.4f)\n", info.City, info.RegionName, info.Country, info.Lat, info.Lon)
	fmt.Fprintf(&sb, "- ISP: %s\n", info.ISP)
	fmt.Fprintf(&sb, "- Organization: %s\n", info.Org)
	fmt.Fprintf(&sb, "- ASN: %s\n", info.AS)
	fmt.Fprintf(&sb, "- Proxy/VPN: %t, Hosting: %t, Mobile: %t\n", info.Proxy, info.Hosting, info.Mobile)
	return &domain.ToolResult{Data: sb.String()}, nil
}

// ==========================================================================
// shodan_intel
// ==========================================================================

type shodanArgs struct {
	IP string `json:"ip" jsonschema:"required,description=IP address to look up on Shodan"`
}

// ShodanTool queries the Shodan host API for open ports and banners. Requires
// an API key; a missing key is a negative result, not a crash.
type ShodanTool struct {
	schema string
	client HTTPDoer
	apiKey string
}

func NewShodanTool(client HTTPDoer, apiKey string) *ShodanTool {
	return &ShodanTool{schema: GenerateSchema(&shodanArgs{}), client: client, apiKey: apiKey}
}

func (t *ShodanTool) Name() string { return "shodan_intel" }

func (t *ShodanTool) Description() string {
	return "Look up an IP address on Shodan for open ports, service banners, and known vulnerabilities. Requires a configured Shodan API key."
}

func (t *ShodanTool) Definition() string { return t.schema }

func (t *ShodanTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a shodanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if t.apiKey == "" {
		return nil, fmt.Errorf("shodan API key is not configured; set keys.shodan in the config file")
	}
	if !isSafeTarget(a.IP) {
		return nil, fmt.Errorf("invalid IP address %q", a.IP)
	}
	reqURL := fmt.Sprintf("https://api.shodan.io/shodan/host/%s?key=%s", url.PathEscape(a.IP), url.QueryEscape(t.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shodan lookup failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256*1024))

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return &domain.ToolResult{Data: fmt.Sprintf("Shodan has no information for %s.", a.IP)}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		if strings.Contains(string(body), "Requires membership") {
			return nil, fmt.Errorf("shodan query requires a paid membership tier")
		}
		return nil, fmt.Errorf("shodan rejected the API key (status %d)", resp.StatusCode)
	default:
		return nil, fmt.Errorf("shodan lookup returned status %d", resp.StatusCode)
	}

	var host struct {
		IPStr string   `json:"ip_str"`
		Org   string   `json:"org"`
		ISP   string   `json:"isp"`
		OS    string   `json:"os"`
		Ports []int    `json:"ports"`
		Vulns []string `json:"vulns"`
		Data  []struct {
			Port      int    `json:"port"`
			Transport string `json:"transport"`
			Product   string `json:"product"`
			Version   string `json:"version"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &host); err != nil {
		return nil, fmt.Errorf("shodan lookup failed: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Shodan report for %s:\n", host.IPStr)
	fmt.Fprintf(&sb, "- Organization: %s (ISP: %s)\n", host.Org, host.ISP)
	if host.OS != "" {
		fmt.Fprintf(&sb, "- OS: %s\n", host.OS)
	}
	fmt.Fprintf(&sb, "- Open ports: %v\n", host.Ports)
	for _, svc := range host.Data {
		if svc.Product == "" {
			continue
		}
		fmt.Fprintf(&sb, "- %d/%s: %s %s\n", svc.Port, svc.Transport, svc.Product, svc.Version)
	}
	if len(host.Vulns) > 0 {
		fmt.Fprintf(&sb, "- Known vulnerabilities: %s\n", strings.Join(host.Vulns, ", "))
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}

// ==========================================================================
// search_leaks
// ==========================================================================

type breachArgs struct {
	Target string `json:"target" jsonschema:"required,description=Email address to check against known data breaches"`
}

// LeaksTool checks an email address against Have I Been Pwned. Requires an
// HIBP API key.
type LeaksTool struct {
	schema string
	client HTTPDoer
	apiKey string
}

func NewLeaksTool(client HTTPDoer, apiKey string) *LeaksTool {
	return &LeaksTool{schema: GenerateSchema(&breachArgs{}), client: client, apiKey: apiKey}
}

func (t *LeaksTool) Name() string { return "search_leaks" }

func (t *LeaksTool) Description() string {
	return "Check whether an email address appears in known data breaches via Have I Been Pwned. Requires a configured HIBP API key."
}

func (t *LeaksTool) Definition() string { return t.schema }

func (t *LeaksTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a breachArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if t.apiKey == "" {
		return nil, fmt.Errorf("HIBP API key is not configured; set keys.hibp in the config file")
	}
	email := strings.TrimSpace(a.Target)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", a.Target)
	}
	reqURL := "https://haveibeenpwned.com/api/v3/breachedaccount/" + url.PathEscape(email) + "?truncateResponse=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("hibp-api-key", t.apiKey)
	req.Header.Set("User-Agent", "argus-osint")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("breach check failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return &domain.ToolResult{Data: fmt.Sprintf("%s appears in no known breaches.", email)}, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("HIBP rejected the API key")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("HIBP rate limit exceeded, retry later")
	default:
		return nil, fmt.Errorf("breach check returned status %d", resp.StatusCode)
	}

	var breaches []struct {
		Name        string   `json:"Name"`
		Title       string   `json:"Title"`
		BreachDate  string   `json:"BreachDate"`
		PwnCount    int64    `json:"PwnCount"`
		DataClasses []string `json:"DataClasses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&breaches); err != nil {
		return nil, fmt.Errorf("breach check failed: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s appears in %d known breach(es):\n", email, len(breaches))
	for _, b := range breaches {
		fmt.Fprintf(&sb, "- %s (%s): %d accounts, exposed: %s\n",
			b.Title, b.BreachDate, b.PwnCount, strings.Join(b.DataClasses, ", "))
	}
	return &domain.ToolResult{Data: sb.String()}, nil
}

// ==========================================================================
// virustotal (CLI-only)
// ==========================================================================

type virusTotalArgs struct {
	Resource string `json:"resource" jsonschema:"required,description=Domain, IP address or file hash to look up on VirusTotal"`
}

// VirusTotalTool queries the VirusTotal v3 API for a domain, IP or hash. It
// is wired into the lookup CLI command but not advertised to the model.
type VirusTotalTool struct {
	schema string
	client HTTPDoer
	apiKey string
}

func NewVirusTotalTool(client HTTPDoer, apiKey string) *VirusTotalTool {
	return &VirusTotalTool{schema: GenerateSchema(&virusTotalArgs{}), client: client, apiKey: apiKey}
}

func (t *VirusTotalTool) Name() string { return "virustotal" }

func (t *VirusTotalTool) Description() string {
	return "Look up the VirusTotal reputation of a domain, IP address or file hash. Requires a configured VirusTotal API key."
}

func (t *VirusTotalTool) Definition() string { return t.schema }

func (t *VirusTotalTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a virusTotalArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if t.apiKey == "" {
		return nil, fmt.Errorf("VirusTotal API key is not configured; set keys.virustotal in the config file")
	}
	resource := strings.TrimSpace(a.Resource)
	if resource == "" {
		return nil, fmt.Errorf("resource must not be empty")
	}

	kind := classifyVTResource(resource)
	reqURL := fmt.Sprintf("https://www.virustotal.com/api/v3/%s/%s", kind, url.PathEscape(resource))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-apikey", t.apiKey)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("virustotal lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return &domain.ToolResult{Data: fmt.Sprintf("VirusTotal has no record for %s.", resource)}, nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("VirusTotal rejected the API key")
	default:
		return nil, fmt.Errorf("virustotal lookup returned status %d", resp.StatusCode)
	}

	var report struct {
		Data struct {
			Attributes struct {
				LastAnalysisStats map[string]int `json:"last_analysis_stats"`
				Reputation        int            `json:"reputation"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("virustotal lookup failed: %w", err)
	}

	stats := report.Data.Attributes.LastAnalysisStats
	return &domain.ToolResult{
		Data: fmt.Sprintf(
			"VirusTotal report for %s: %d malicious, %d suspicious, %d harmless, %d undetected (reputation %d).",
			resource, stats["malicious"], stats["suspicious"], stats["harmless"], stats["undetected"],
			report.Data.Attributes.Reputation),
	}, nil
}

// classifyVTResource picks the v3 API collection for a raw resource string.
func classifyVTResource(resource string) string {
	if isHexHash(resource) {
		return "files"
	}
	if isSafeTarget(resource) && !strings.ContainsAny(resource, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return "ip_addresses"
	}
	if strings.Contains(resource, ":") {
		return "ip_addresses"
	}
	return "domains"
}

func isHexHash(s string) bool {
	if len(s) != 32 && len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
