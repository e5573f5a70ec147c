package maplisting

import (
	"kuchikomi/internal/extract"
	"kuchikomi/internal/review"
)

// Profile is the selector set for map listing review cards.
var Profile = extract.Profile{
	Blocks: []string{"div[data-review-id]", `div[class*="jftiEf"]`},
	ID:     extract.OwnAttr("data-review-id"),
	Text: extract.Chain(
		extract.Text(`[class*="wiI7pd"]`, `[class*="MyEned"]`, `[class*="review-full-text"]`),
		extract.LongestLeaf("span, p"),
	),
	Date: extract.Chain(
		extract.Text(`[class*="rsqaWe"]`, `[class*="xRkPPb"]`, `[class*="review-date"]`),
		extract.Attr("time", "datetime"),
	),
	Name: extract.Text(`[class*="d4r55"]`, `[class*="reviewer"]`, `[class*="al6Kxe"]`),
	Rating: []extract.RatingStrategy{
		extract.LabelRating(extract.RatingLabelSelector),
		extract.ClassRating(`[class*="bubble"]`),
	},
}

// ParseSnapshot extracts review cards from a map listing snapshot.
func ParseSnapshot(snapshot string) []review.Result {
	results, err := Profile.Parse(snapshot)
	if err != nil {
		return []review.Result{{Err: &review.ExtractionError{Node: -1, Err: err}}}
	}
	return results
}
