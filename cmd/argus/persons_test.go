package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a config pointing the data dir at a temp location so
// commands never touch the working directory.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "argus.json")
	body := fmt.Sprintf(
		`{"backend":{"provider":"gemini"},"agent":{"maxTurns":5},"gateway":{"port":0},"infra":{"logFormat":"text","logLevel":"error"},"dataDir":%q}`,
		filepath.Join(dir, "data"))
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runArgus(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := tryArgus(cfgPath, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out)
	}
	return out
}

func tryArgus(cfgPath string, args ...string) (string, error) {
	root := newRootCommand(newBuildMeta("test", "", ""))
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return buf.String(), err
}

// =============================================================================
// cases persons tests
// =============================================================================

func TestPersonsCommands_ShouldManageDossierLifecycle(t *testing.T) {
	cfgPath := writeTestConfig(t)
	runArgus(t, cfgPath, "cases", "create", "op-falcon")

	// Given a created dossier with a nickname
	created := runArgus(t, cfgPath, "cases", "persons", "create", "op-falcon",
		"--first-name", "Jane", "--last-name", "Doe", "--nickname", "jd")
	fields := strings.Fields(created)
	if len(fields) != 3 || fields[0] != "person" || fields[2] != "created" {
		t.Fatalf("unexpected create output: %q", created)
	}
	personID := fields[1]

	// When listed, the dossier carries the stored fields
	listing := runArgus(t, cfgPath, "cases", "persons", "list", "op-falcon")
	if !strings.Contains(listing, "Jane Doe") || !strings.Contains(listing, `aka "jd"`) {
		t.Errorf("listing missing dossier data:\n%s", listing)
	}

	// And a partial update only changes the flagged field
	runArgus(t, cfgPath, "cases", "persons", "update", "op-falcon", personID,
		"--email", "jane@example.com")
	listing = runArgus(t, cfgPath, "cases", "persons", "list", "op-falcon")
	if !strings.Contains(listing, "email: jane@example.com") {
		t.Errorf("email not updated:\n%s", listing)
	}
	if !strings.Contains(listing, "Jane Doe") {
		t.Errorf("unflagged fields must be preserved:\n%s", listing)
	}

	// And sub-entities attach and appear in the listing
	runArgus(t, cfgPath, "cases", "persons", "add-job", "op-falcon", personID,
		"--title", "Analyst", "--company", "Example Corp")
	listing = runArgus(t, cfgPath, "cases", "persons", "list", "op-falcon")
	if !strings.Contains(listing, "job: Analyst at Example Corp") {
		t.Errorf("job missing from listing:\n%s", listing)
	}

	// And deletion empties the case
	runArgus(t, cfgPath, "cases", "persons", "delete", "op-falcon", personID)
	listing = runArgus(t, cfgPath, "cases", "persons", "list", "op-falcon")
	if !strings.Contains(listing, "no persons") {
		t.Errorf("expected empty listing after delete:\n%s", listing)
	}
}

func TestPersonsUpdate_WhenPersonUnknown_ShouldError(t *testing.T) {
	cfgPath := writeTestConfig(t)
	runArgus(t, cfgPath, "cases", "create", "op-falcon")

	if _, err := tryArgus(cfgPath, "cases", "persons", "update", "op-falcon", "ghost-id",
		"--email", "x@example.com"); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("updating an unknown person must fail, got %v", err)
	}
}

func TestPersonsRemoveJob_WhenIDUnknown_ShouldError(t *testing.T) {
	cfgPath := writeTestConfig(t)
	runArgus(t, cfgPath, "cases", "create", "op-falcon")

	if _, err := tryArgus(cfgPath, "cases", "persons", "remove-job", "op-falcon", "ghost-id"); err == nil {
		t.Error("removing an unknown job must fail")
	}
}
