package directory

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kuchikomi/internal/extract"
	"kuchikomi/internal/review"
)

// Profile is the selector set for directory review items.
var Profile = extract.Profile{
	Blocks: []string{"div.rvw-item", "div.js-rvw-item-clickable-area", "li.rvw-item"},
	Text: extract.Chain(
		extract.Text(`[class*="rvw-item__review-text"]`, `[class*="js-rvw-item-review-text"]`, `p[class*="review-body"]`),
		extract.LongestLeaf("p, span"),
	),
	Date: extract.Chain(
		extract.Text(`[class*="rvw-item__visit-date"]`, `[class*="c-rating__time"]`),
		extract.Attr("time", "datetime"),
		extract.Text("time"),
	),
	Name: extract.Text(`[class*="rvw-item__reviewer-name"]`, `[class*="reviewer-name"]`),
	Rating: []extract.RatingStrategy{
		extract.LabelRating(extract.RatingLabelSelector),
		extract.ClassRating(`[class*="bubble"]`),
		extract.ScoreRating(`[class*="rvw-item__score"], [class*="c-rating__val"]`),
	},
}

var nextClass = regexp.MustCompile(`c-pagination__arrow--next|\bnext\b`)

// ParseSnapshot extracts review items from a directory list page.
func ParseSnapshot(snapshot string) []review.Result {
	results, err := Profile.Parse(snapshot)
	if err != nil {
		return []review.Result{{Err: &review.ExtractionError{Node: -1, Err: err}}}
	}
	return results
}

// HasNextPage reports whether a list page links to a following page.
func HasNextPage(snapshot string) bool {
	if snapshot == "" {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return false
	}

	found := false
	doc.Find("a[class]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		class, _ := a.Attr("class")
		found = nextClass.MatchString(class)
		return !found
	})
	if found {
		return true
	}

	doc.Find(`[class*="c-pagination"] a`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		found = strings.Contains(a.Text(), "次")
		return !found
	})
	return found
}
