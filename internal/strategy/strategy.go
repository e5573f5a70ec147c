// Package strategy holds the collection loops that decide when a source has
// disclosed enough reviews. The loops only see an Adapter; selectors and
// navigation live in the site packages.
package strategy

import (
	"context"

	"kuchikomi/internal/review"
)

// Adapter is the pair of primitives a collection loop drives.
type Adapter interface {
	// Source is the platform the adapter harvests.
	Source() review.Source
	// RevealMore triggers one unit of additional disclosure and reports whether
	// it believes more content was disclosed.
	RevealMore(ctx context.Context) (bool, error)
	// Snapshot prepares the page (expanding truncated bodies) and returns its markup.
	Snapshot(ctx context.Context) (string, error)
	// ParseSnapshot extracts candidate records from markup.
	ParseSnapshot(snapshot string) []review.Result
}

// Reason is why a collection loop stopped.
type Reason string

const (
	ReasonLimitReached     Reason = "limit_reached"
	ReasonConverged        Reason = "converged"
	ReasonIterationCap     Reason = "iteration_cap"
	ReasonEmptyPage        Reason = "empty_page"
	ReasonNoNextPage       Reason = "no_next_page"
	ReasonNavigationFailed Reason = "navigation_failed"
	ReasonCancelled        Reason = "cancelled"
)

// Failure reports whether the loop stopped because something went wrong rather
// than by reaching one of its expected terminal states.
func (r Reason) Failure() bool {
	return r == ReasonNavigationFailed || r == ReasonCancelled
}

// Outcome is the result of one collection loop.
type Outcome struct {
	Records []review.Record
	Reason  Reason
	// Ticks counts scroll ticks or fetched pages.
	Ticks int
	// Skipped counts nodes that failed extraction.
	Skipped int
}
