package model

import "fmt"

// Requirement is a single analyzable text unit produced by the loader.
// Instances are immutable once created; detectors only ever read them.
type Requirement struct {
	// ID is the run-unique identifier, e.g. "R001".
	ID string `json:"id"`

	// LineNumber is the 1-based line in the source file this came from.
	LineNumber int `json:"line_number"`

	// Text is the requirement text with surrounding whitespace stripped.
	Text string `json:"text"`
}

// Validate reports whether the requirement satisfies the shape the core
// expects: non-empty id, positive line number, non-empty text.
func (r Requirement) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("requirement id is empty")
	}
	if r.LineNumber <= 0 {
		return fmt.Errorf("requirement %s: line number must be positive, got %d", r.ID, r.LineNumber)
	}
	if r.Text == "" {
		return fmt.Errorf("requirement %s: text is empty", r.ID)
	}
	return nil
}

func (r Requirement) String() string {
	return fmt.Sprintf("%s: %s", r.ID, r.Text)
}
