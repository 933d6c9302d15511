// Package report renders an analysis report in the supported output
// formats. Renderers are pure: they read the report and write bytes, nothing
// else.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/avendel/reqstress/internal/model"
)

// ErrUnknownFormat is returned by New for formats no renderer handles.
var ErrUnknownFormat = errors.New("unknown report format")

// Renderer writes one serialization of a report.
type Renderer interface {
	// Format returns the canonical format name, e.g. "markdown".
	Format() string

	// Render writes the report to w.
	Render(w io.Writer, rep *model.Report) error
}

// New returns the renderer for a format name. Common aliases ("md", "htm")
// are accepted.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "markdown", "md", "":
		return markdownRenderer{}, nil
	case "csv":
		return csvRenderer{}, nil
	case "json":
		return jsonRenderer{}, nil
	case "html", "htm":
		return htmlRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Formats lists the canonical format names.
func Formats() []string {
	return []string{"markdown", "csv", "json", "html"}
}

// sortedRequirementIDs returns the report's requirement ids in document
// order, so renderers emit stable output.
func sortedRequirementIDs(rep *model.Report) []string {
	ids := make([]string, 0, len(rep.Requirements))
	for _, req := range rep.Requirements {
		ids = append(ids, req.ID)
	}
	return ids
}

// categoryCounts flattens the per-category tally into a sorted slice.
func categoryCounts(rep *model.Report) []categoryCount {
	tally := rep.RisksByCategory()
	out := make([]categoryCount, 0, len(tally))
	for cat, n := range tally {
		out = append(out, categoryCount{Category: string(cat), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

type categoryCount struct {
	Category string
	Count    int
}
