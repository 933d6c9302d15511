package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestAnalyzeCmdWritesMarkdownToStdout(t *testing.T) {
	path := writeFixture(t, "reqs.md", "The system should respond quickly to user actions.\n")

	cmd := newAnalyzeCmd(&rootOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "# Requirements Risk Report") {
		t.Fatalf("missing report heading:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "should") {
		t.Errorf("vague term finding missing:\n%s", out.String())
	}
}

func TestAnalyzeCmdWritesJSONFile(t *testing.T) {
	path := writeFixture(t, "reqs.txt", "Users can log in to their account.\n")
	outPath := filepath.Join(t.TempDir(), "report.json")

	cmd := newAnalyzeCmd(&rootOptions{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{path, "--format", "json", "--output", outPath})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), `"risks_by_requirement"`) {
		t.Fatalf("unexpected report content:\n%s", data)
	}
	if !strings.Contains(out.String(), "report written to") {
		t.Errorf("missing confirmation line: %s", out.String())
	}
}

func TestAnalyzeCmdPrintsProgressToStderr(t *testing.T) {
	path := writeFixture(t, "reqs.txt", "Users can log in to their account.\n")

	cmd := newAnalyzeCmd(&rootOptions{})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{path, "--progress"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(errOut.String(), "[100%] complete") {
		t.Errorf("missing final progress line:\n%s", errOut.String())
	}
	if strings.Contains(out.String(), "[100%] complete") {
		t.Error("progress leaked into the report stream")
	}
}

func TestAnalyzeCmdRejectsUnknownFormat(t *testing.T) {
	path := writeFixture(t, "reqs.txt", "The system shall work.\n")

	cmd := newAnalyzeCmd(&rootOptions{})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{path, "--format", "pdf"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRulesValidateCmd(t *testing.T) {
	good := writeFixture(t, "rules.yaml", `
detectors:
  ambiguity:
    enabled: true
    severity: medium
    rules:
      vague_terms:
        keywords: ["should", "might"]
global_settings:
  case_sensitive: false
  ignore_comments: true
  min_requirement_length: 10
  max_similarity_check: 100
`)

	cmd := newRulesValidateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{good})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "is valid") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	bad := writeFixture(t, "bad.json", `{"detectors": "not an object"}`)
	cmd = newRulesValidateCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{bad})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
}
