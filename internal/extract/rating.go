package extract

import (
	"github.com/PuerkitoBio/goquery"

	"kuchikomi/internal/review"
)

// RatingLabelSelector matches the accessible labels that carry star ratings,
// leaving out buttons and photo counters that also have an aria-label.
const RatingLabelSelector = `[role="img"][aria-label], [aria-label*="星"], [aria-label*="段階"], ` +
	`[aria-label*="star"], [aria-label*="Star"], [aria-label*="bubble"], [aria-label*="out of"]`

// RatingStrategy decodes a rating from a review block.
type RatingStrategy func(block *goquery.Selection) (float64, bool)

// Rating runs strategies in order and returns the first decoded value, or 0.0
// when every strategy fails.
func Rating(block *goquery.Selection, strategies ...RatingStrategy) float64 {
	for _, s := range strategies {
		if v, ok := s(block); ok {
			return v
		}
	}
	return 0
}

// LabelRating decodes the aria-label of elements matching selector.
func LabelRating(selector string) RatingStrategy {
	return func(block *goquery.Selection) (float64, bool) {
		return firstDecoded(block.Find(selector), "aria-label", review.DecodeRatingLabel)
	}
}

// ClassRating decodes a bubbleNN class token on elements matching selector.
func ClassRating(selector string) RatingStrategy {
	return func(block *goquery.Selection) (float64, bool) {
		return firstDecoded(block.Find(selector), "class", review.DecodeRatingClass)
	}
}

// ScoreRating decodes the visible numeric score of the first element matching selector.
func ScoreRating(selector string) RatingStrategy {
	return func(block *goquery.Selection) (float64, bool) {
		text, ok := Text(selector)(block)
		if !ok {
			return 0, false
		}
		return review.DecodeRatingScore(text)
	}
}

func firstDecoded(sel *goquery.Selection, attr string, decode func(string) (float64, bool)) (float64, bool) {
	var (
		value float64
		found bool
	)
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attr)
		if !ok {
			return true
		}
		value, found = decode(v)
		return !found
	})
	return value, found
}
