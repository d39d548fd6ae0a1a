package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strings"

	"argus/internal/domain"
)

// Injectable seams for the network tools. Tests swap these to avoid touching
// the real network or spawning processes.
var (
	runPingFunc = func(ctx context.Context, target string) ([]byte, error) {
		return exec.CommandContext(ctx, "ping", "-c", "4", target).CombinedOutput()
	}
	lookupHostFunc = func(ctx context.Context, host string) ([]string, error) {
		return net.DefaultResolver.LookupHost(ctx, host)
	}
)

// isSafeTarget rejects anything that could smuggle shell metacharacters or
// extra flags into a spawned command. Hostnames and IPs only.
func isSafeTarget(target string) bool {
	if target == "" || len(target) > 253 || strings.HasPrefix(target, "-") {
		return false
	}
	for _, r := range target {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '-' || r == ':':
		default:
			return false
		}
	}
	return true
}

// ==========================================================================
// ping
// ==========================================================================

type pingArgs struct {
	Target string `json:"target" jsonschema:"required,description=Hostname or IP address to ping"`
}

// PingTool checks basic reachability of a host with 4 ICMP echo requests.
type PingTool struct {
	schema string
}

func NewPingTool() *PingTool {
	return &PingTool{schema: GenerateSchema(&pingArgs{})}
}

func (t *PingTool) Name() string { return "ping" }

func (t *PingTool) Description() string {
	return "Check whether a host or IP address is reachable by sending 4 ICMP echo requests. Returns round-trip statistics."
}

func (t *PingTool) Definition() string { return t.schema }

func (t *PingTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a pingArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if !isSafeTarget(a.Target) {
		return nil, fmt.Errorf("invalid target %q: only hostnames and IP addresses are allowed", a.Target)
	}
	out, err := runPingFunc(ctx, a.Target)
	if err != nil {
		// ping exits non-zero on total packet loss; the output still matters.
		if len(out) > 0 {
			return &domain.ToolResult{Data: fmt.Sprintf("Host %s appears unreachable:\n%s", a.Target, string(out))}, nil
		}
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	return &domain.ToolResult{Data: string(out)}, nil
}

// ==========================================================================
// whois
// ==========================================================================

type whoisArgs struct {
	Target string `json:"target" jsonschema:"required,description=Domain name to look up registration and DNS data for"`
}

// WhoisTool fetches domain registration data via the networkcalc DNS API.
type WhoisTool struct {
	schema string
	client HTTPDoer
}

func NewWhoisTool(client HTTPDoer) *WhoisTool {
	return &WhoisTool{schema: GenerateSchema(&whoisArgs{}), client: client}
}

func (t *WhoisTool) Name() string { return "whois" }

func (t *WhoisTool) Description() string {
	return "Look up domain registration and DNS records (A, MX, NS, TXT) for a domain name."
}

func (t *WhoisTool) Definition() string { return t.schema }

func (t *WhoisTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a whoisArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if !isSafeTarget(a.Target) {
		return nil, fmt.Errorf("invalid domain %q", a.Target)
	}
	url := "https://networkcalc.com/api/dns/lookup/" + a.Target
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", probeUserAgent)
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whois lookup failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("whois lookup failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whois lookup returned status %d", resp.StatusCode)
	}
	return &domain.ToolResult{Data: string(body)}, nil
}

// ==========================================================================
// dns
// ==========================================================================

type dnsArgs struct {
	Target string `json:"target" jsonschema:"required,description=Hostname to resolve to IP addresses"`
}

// DNSTool resolves a hostname to its IP addresses using the system resolver.
type DNSTool struct {
	schema string
}

func NewDNSTool() *DNSTool {
	return &DNSTool{schema: GenerateSchema(&dnsArgs{})}
}

func (t *DNSTool) Name() string { return "dns" }

func (t *DNSTool) Description() string {
	return "Resolve a hostname to its IPv4 and IPv6 addresses."
}

func (t *DNSTool) Definition() string { return t.schema }

func (t *DNSTool) Call(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error) {
	var a dnsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if !isSafeTarget(a.Target) {
		return nil, fmt.Errorf("invalid host %q", a.Target)
	}
	addrs, err := lookupHostFunc(ctx, a.Target)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed for %s: %w", a.Target, err)
	}
	return &domain.ToolResult{
		Data: fmt.Sprintf("%s resolves to: %s", a.Target, strings.Join(addrs, ", ")),
	}, nil
}
