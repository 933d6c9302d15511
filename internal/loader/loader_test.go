package loader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSkipsBlanksCommentsAndSeparators(t *testing.T) {
	doc := strings.Join([]string{
		"# Requirements",
		"",
		"The system shall export reports as CSV.",
		"// internal note, not a requirement",
		"---",
		"The system shall retain exports for 30 days.",
	}, "\n")

	reqs, err := New(nil).Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requirements, want 2: %+v", len(reqs), reqs)
	}

	if reqs[0].ID != "R001" || reqs[0].LineNumber != 3 {
		t.Errorf("first = %+v, want id R001 at line 3", reqs[0])
	}
	if reqs[1].ID != "R002" || reqs[1].LineNumber != 6 {
		t.Errorf("second = %+v, want id R002 at line 6", reqs[1])
	}
}

func TestParseStripsListMarkers(t *testing.T) {
	doc := strings.Join([]string{
		"- The system shall send receipts by email.",
		"* The system shall archive receipts monthly.",
		"1. The system shall purge archives yearly.",
	}, "\n")

	reqs, err := New(nil).Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("got %d requirements, want 3", len(reqs))
	}
	for i, want := range []string{
		"The system shall send receipts by email.",
		"The system shall archive receipts monthly.",
		"The system shall purge archives yearly.",
	} {
		if reqs[i].Text != want {
			t.Errorf("reqs[%d].Text = %q, want %q", i, reqs[i].Text, want)
		}
	}
}

func TestParseEmptyDocument(t *testing.T) {
	_, err := New(nil).Parse(strings.NewReader("# headers only\n\n---\n"))
	if !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("err = %v, want ErrNoRequirements", err)
	}
}

func TestLoadFileRejectsUnknownExtension(t *testing.T) {
	_, err := New(nil).LoadFile("requirements.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadFileReadsMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.md")
	content := "# Spec\n\n- The gateway shall queue undeliverable messages.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	reqs, err := New(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(reqs) != 1 || reqs[0].Text != "The gateway shall queue undeliverable messages." {
		t.Fatalf("unexpected parse result: %+v", reqs)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := New(nil).LoadFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
