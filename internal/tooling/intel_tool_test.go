package tooling

import (
	"context"
	"net/http"
	"strings"
	"testing"
)

// =============================================================================
// ip_intel tests
// =============================================================================

func TestIPIntelCall_WhenLookupSucceeds_ShouldSummarize(t *testing.T) {
	doer := &fakeDoer{body: `{"status":"success","country":"Netherlands","regionName":"North Holland",
		"city":"Amsterdam","lat":52.37,"lon":4.89,"isp":"ExampleNet","org":"Example Org",
		"as":"AS64496 ExampleNet","proxy":true,"hosting":false,"mobile":false}`}
	tool := NewIPIntelTool(doer)

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "1.2.3.4"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "Amsterdam") {
		t.Errorf("expected location in summary, got %q", result.Data)
	}
	if !strings.Contains(result.Data, "Proxy/VPN: true") {
		t.Errorf("expected proxy flag in summary, got %q", result.Data)
	}
}

func TestIPIntelCall_WhenLookupFails_ShouldCarryTheAPIMessage(t *testing.T) {
	doer := &fakeDoer{body: `{"status":"fail","message":"private range"}`}
	tool := NewIPIntelTool(doer)

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "10.0.0.1"}))

	if err == nil || !strings.Contains(err.Error(), "private range") {
		t.Errorf("expected API failure message, got %v", err)
	}
}

// =============================================================================
// shodan_intel tests
// =============================================================================

func TestShodanCall_WhenKeyMissing_ShouldErrorWithGuidance(t *testing.T) {
	tool := NewShodanTool(&fakeDoer{}, "")

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "1.2.3.4"}))

	if err == nil || !strings.Contains(err.Error(), "keys.shodan") {
		t.Errorf("missing key should point at the config field, got %v", err)
	}
}

func TestShodanCall_WhenHostUnknown_ShouldReturnNoInformation(t *testing.T) {
	doer := &fakeDoer{status: http.StatusNotFound}
	tool := NewShodanTool(doer, "key")

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "1.2.3.4"}))

	if err != nil {
		t.Fatalf("a 404 is a negative result, not an error: %v", err)
	}
	if !strings.Contains(result.Data, "no information") {
		t.Errorf("unexpected result: %q", result.Data)
	}
}

func TestShodanCall_WhenMembershipRequired_ShouldSayso(t *testing.T) {
	doer := &fakeDoer{status: http.StatusForbidden, body: `{"error":"Requires membership or higher"}`}
	tool := NewShodanTool(doer, "key")

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "1.2.3.4"}))

	if err == nil || !strings.Contains(err.Error(), "membership") {
		t.Errorf("expected membership error, got %v", err)
	}
}

func TestShodanCall_WhenHostFound_ShouldListPortsAndVulns(t *testing.T) {
	doer := &fakeDoer{body: `{"ip_str":"1.2.3.4","org":"Example Org","isp":"ExampleNet","os":"Linux",
		"ports":[22,80],"vulns":["CVE-2024-0001"],
		"data":[{"port":22,"transport":"tcp","product":"OpenSSH","version":"9.6"}]}`}
	tool := NewShodanTool(doer, "key")

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"ip": "1.2.3.4"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"[22 80]", "OpenSSH", "CVE-2024-0001"} {
		if !strings.Contains(result.Data, want) {
			t.Errorf("report missing %q:\n%s", want, result.Data)
		}
	}
}

// =============================================================================
// search_leaks tests
// =============================================================================

func TestLeaksCall_WhenNoBreaches_ShouldReturnCleanResult(t *testing.T) {
	doer := &fakeDoer{status: http.StatusNotFound}
	tool := NewLeaksTool(doer, "key")

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"target": "clean@example.com"}))

	if err != nil {
		t.Fatalf("a 404 means no breaches, not an error: %v", err)
	}
	if !strings.Contains(result.Data, "no known breaches") {
		t.Errorf("unexpected result: %q", result.Data)
	}
}

func TestLeaksCall_WhenBreachesFound_ShouldListThem(t *testing.T) {
	doer := &fakeDoer{body: `[{"Name":"ExampleLeak","Title":"Example Leak","BreachDate":"2023-05-01",
		"PwnCount":1000000,"DataClasses":["Email addresses","Passwords"]}]`}
	tool := NewLeaksTool(doer, "key")

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"target": "victim@example.com"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "1 known breach") {
		t.Errorf("expected breach count, got %q", result.Data)
	}
	if !strings.Contains(result.Data, "Passwords") {
		t.Errorf("expected exposed data classes, got %q", result.Data)
	}
	if doer.lastReq.Header.Get("hibp-api-key") != "key" {
		t.Error("request should authenticate with the HIBP key header")
	}
}

func TestLeaksCall_WhenRateLimited_ShouldError(t *testing.T) {
	doer := &fakeDoer{status: http.StatusTooManyRequests}
	tool := NewLeaksTool(doer, "key")

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"target": "a@b.com"}))

	if err == nil || !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestLeaksCall_WhenNotAnEmail_ShouldReject(t *testing.T) {
	tool := NewLeaksTool(&fakeDoer{}, "key")

	_, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"target": "not-an-email"}))

	if err == nil {
		t.Fatal("expected rejection of a non-email target")
	}
}

// =============================================================================
// virustotal tests
// =============================================================================

func TestClassifyVTResource(t *testing.T) {
	cases := []struct {
		resource string
		want     string
	}{
		{"d41d8cd98f00b204e9800998ecf8427e", "files"},
		{strings.Repeat("a1", 32), "files"},
		{"1.2.3.4", "ip_addresses"},
		{"2001:db8::1", "ip_addresses"},
		{"example.com", "domains"},
	}
	for _, tc := range cases {
		if got := classifyVTResource(tc.resource); got != tc.want {
			t.Errorf("classifyVTResource(%q) = %q, want %q", tc.resource, got, tc.want)
		}
	}
}

func TestVirusTotalCall_WhenRecordFound_ShouldSummarizeStats(t *testing.T) {
	doer := &fakeDoer{body: `{"data":{"attributes":{
		"last_analysis_stats":{"malicious":5,"suspicious":1,"harmless":60,"undetected":10},
		"reputation":-12}}}`}
	tool := NewVirusTotalTool(doer, "key")

	result, err := tool.Call(context.Background(), rawArgs(t, map[string]string{"resource": "evil.example"}))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Data, "5 malicious") || !strings.Contains(result.Data, "reputation -12") {
		t.Errorf("unexpected summary: %q", result.Data)
	}
	if doer.lastReq.Header.Get("x-apikey") != "key" {
		t.Error("request should authenticate with the x-apikey header")
	}
}
