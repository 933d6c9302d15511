// Package loader reads requirement documents from disk and turns them into
// the numbered requirement collection the analyzer consumes. Plain text and
// markdown are supported; one non-empty, non-comment line is one requirement.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/model"
)

// ErrUnsupportedFormat is returned for file extensions the loader does not
// understand.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoRequirements is returned when a document yields nothing analyzable.
var ErrNoRequirements = errors.New("no requirements found")

// supportedExts lists the accepted source extensions.
var supportedExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// bulletPattern strips leading markdown list markers so the requirement text
// starts at the actual sentence.
var bulletPattern = regexp.MustCompile(`^([-*+]|\d+[.)])\s+`)

// separatorPattern matches markdown horizontal rules and underline headers.
var separatorPattern = regexp.MustCompile(`^(-{3,}|={3,}|\*{3,})$`)

// Loader turns requirement documents into model.Requirement collections.
type Loader struct {
	logger logging.Logger
}

// New builds a loader. A nil logger is replaced with a no-op one.
func New(logger logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Loader{logger: logger.With(logging.Field{Key: "component", Value: "loader"})}
}

// LoadFile reads a .txt or .md file and parses it into requirements.
// Line numbers refer to the original file, including skipped lines.
func (l *Loader) LoadFile(path string) ([]model.Requirement, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return nil, fmt.Errorf("%w: %q (supported: .txt, .md)", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open requirements file: %w", err)
	}
	defer f.Close()

	reqs, err := l.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	l.logger.Info("loaded requirements",
		logging.Field{Key: "file", Value: path},
		logging.Field{Key: "count", Value: len(reqs)})
	return reqs, nil
}

// Parse reads lines from r and produces sequentially numbered requirements.
// Blank lines, comment lines (# or //), markdown headers, and separator
// rules are skipped; leading list markers are stripped from kept lines.
func (l *Loader) Parse(r io.Reader) ([]model.Requirement, error) {
	var reqs []model.Requirement

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text, ok := extractRequirementText(scanner.Text())
		if !ok {
			continue
		}
		reqs = append(reqs, model.Requirement{
			ID:         fmt.Sprintf("R%03d", len(reqs)+1),
			LineNumber: lineNo,
			Text:       text,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNoRequirements
	}
	return reqs, nil
}

// extractRequirementText decides whether a raw line carries requirement text
// and normalizes it if so.
func extractRequirementText(line string) (string, bool) {
	text := strings.TrimSpace(line)
	if text == "" {
		return "", false
	}
	// Markdown headers double as comments in plain-text documents.
	if strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
		return "", false
	}
	if separatorPattern.MatchString(text) {
		return "", false
	}
	text = strings.TrimSpace(bulletPattern.ReplaceAllString(text, ""))
	if text == "" {
		return "", false
	}
	return text, true
}
