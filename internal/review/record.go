package review

import (
	"fmt"
	"strings"
)

// Source identifies the platform a record was harvested from.
type Source string

const (
	SourceMapListing Source = "map_listing"
	SourceDirectory  Source = "directory"
	SourceTravelSite Source = "travel_site"
)

// Sources lists every known source in the order the command runs them.
var Sources = []Source{SourceMapListing, SourceDirectory, SourceTravelSite}

// ParseSource resolves a source id, accepting dashes in place of underscores.
func ParseSource(s string) (Source, error) {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, src := range Sources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown source: %q", s)
}

// Record is one normalized review.
type Record struct {
	Source       Source  `json:"source"`
	ReviewerName string  `json:"reviewer_name"`
	Rating       float64 `json:"rating"`
	Date         string  `json:"date"`
	Text         string  `json:"text"`
	Location     string  `json:"location"`
}

// RawRecord holds the fields read from one DOM node before gating and dedup.
type RawRecord struct {
	// ID is the platform's identity for the review node, or "" when it has none.
	ID           string
	ReviewerName string
	Rating       float64
	Date         string
	Text         string
	Location     string
}

// Result is the outcome of extracting one DOM node: either Raw or Err is meaningful.
type Result struct {
	Raw RawRecord
	Err error
}

// OK reports whether the node was extracted.
func (r Result) OK() bool { return r.Err == nil }

// ExtractionError describes a single node that could not be read.
type ExtractionError struct {
	Node int
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract node %d: %v", e.Node, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
