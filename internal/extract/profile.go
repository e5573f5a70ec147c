package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kuchikomi/internal/review"
)

// ErrEmptyBlock marks a review node that rendered no text at all.
var ErrEmptyBlock = errors.New("review block has no text")

// Profile is the per-platform selector set used to turn a snapshot into records.
type Profile struct {
	// Blocks are tried in order; the first selector matching any node wins.
	Blocks   []string
	// ID reads the node identity used to merge re-reads of the same review.
	ID       Field
	Text     Field
	Date     Field
	Name     Field
	Location Field
	Rating   []RatingStrategy
}

// Parse parses an HTML snapshot and extracts every review block.
func (p Profile) Parse(snapshot string) ([]review.Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return p.ParseDocument(doc), nil
}

// ParseDocument extracts every review block of doc. A node that fails is
// reported as an ExtractionError in its Result and does not stop the batch.
func (p Profile) ParseDocument(doc *goquery.Document) []review.Result {
	blocks := p.blocks(doc)
	results := make([]review.Result, 0, blocks.Length())
	blocks.Each(func(i int, block *goquery.Selection) {
		results = append(results, p.extract(i, block))
	})
	return results
}

// blocks returns the matches of the first selector that matches anything. A
// match nested inside another match of the same selector is dropped, so a card
// is extracted once even when inner nodes carry the same marker.
func (p Profile) blocks(doc *goquery.Document) *goquery.Selection {
	for _, sel := range p.Blocks {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		return found.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.ParentsFiltered(sel).Length() == 0
		})
	}
	return doc.Selection.Slice(0, 0)
}

func (p Profile) extract(i int, block *goquery.Selection) (res review.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = review.Result{Err: &review.ExtractionError{Node: i, Err: fmt.Errorf("panic: %v", r)}}
		}
	}()

	if strings.TrimSpace(block.Text()) == "" {
		return review.Result{Err: &review.ExtractionError{Node: i, Err: ErrEmptyBlock}}
	}

	return review.Result{Raw: review.RawRecord{
		ID:           p.ID.Read(block),
		ReviewerName: p.Name.Read(block),
		Rating:       Rating(block, p.Rating...),
		Date:         p.Date.Read(block),
		Text:         review.CleanText(p.Text.Read(block)),
		Location:     p.Location.Read(block),
	}}
}
