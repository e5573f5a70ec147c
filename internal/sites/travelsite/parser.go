package travelsite

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kuchikomi/internal/extract"
	"kuchikomi/internal/review"
)

// Profile is the selector set for travel site review cards across its old and
// new layouts.
var Profile = extract.Profile{
	Blocks: []string{`div[data-reviewid]`, `div.review-container, div.reviewSelector`, `div[class*="SvjLX"]`},
	ID:     extract.Chain(extract.OwnAttr("data-reviewid"), extract.Attr("[data-reviewid]", "data-reviewid")),
	Text: extract.Chain(
		extract.Text(`[class*="partial_entry"]`, `[class*="reviewText"]`, `[class*="biGQs"] q`, `q`, `p[class*="review"]`),
		extract.LongestLeaf("span, p"),
	),
	Date: extract.Chain(
		extract.AttrOrText(`[class*="ratingDate"]`, "title"),
		extract.Text(`[class*="date_visited"]`, `[data-prwidget-name*="date"]`),
		extract.Attr("time", "datetime"),
	),
	Name:     extract.Text(`[class*="username"]`, `[class*="member_info"] [class*="info_text"]`, `a[class*="memberOverlayLink"]`),
	Location: extract.Text(`[class*="userLocation"]`, `[class*="hometown"]`),
	Rating: []extract.RatingStrategy{
		extract.LabelRating(extract.RatingLabelSelector),
		extract.ClassRating(`[class*="bubble"]`),
	},
}

var nextLabel = regexp.MustCompile(`(?i)次|next`)

// ParseSnapshot extracts review cards from a travel site page.
func ParseSnapshot(snapshot string) []review.Result {
	results, err := Profile.Parse(snapshot)
	if err != nil {
		return []review.Result{{Err: &review.ExtractionError{Node: -1, Err: err}}}
	}
	return results
}

// HasNextPage reports whether the page shown as page links to page+1.
func HasNextPage(snapshot string, page int) bool {
	if snapshot == "" {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot))
	if err != nil {
		return false
	}
	if doc.Find(`a[data-page-number="` + strconv.Itoa(page+1) + `"]`).Length() > 0 {
		return true
	}

	found := false
	doc.Find("a[aria-label]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label, _ := a.Attr("aria-label")
		found = nextLabel.MatchString(label)
		return !found
	})
	return found
}
