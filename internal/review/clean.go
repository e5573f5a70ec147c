package review

import (
	"regexp"
	"strings"
)

// metadataMarkers are labels the map listing appends after the review body
// (meal type, price per person, sub-scores, reservation and party size sections).
var metadataMarkers = regexp.MustCompile(strings.Join([]string{
	`(?:食事の種類)`,
	`(?:1\s*人あたりの料金)`,
	`(?:食事[:：]\s*\d)`,
	`(?:サービス[:：]\s*\d)`,
	`(?:雰囲気[:：]\s*\d)`,
	`(?:予約\n)`,
	`(?:グループの人数)`,
}, "|"))

// CleanText cuts raw at the earliest platform metadata marker and trims the rest.
func CleanText(raw string) string {
	if loc := metadataMarkers.FindStringIndex(raw); loc != nil {
		raw = raw[:loc[0]]
	}
	return strings.TrimSpace(raw)
}

// dedupKey folds case and whitespace so that membership checks ignore both.
func dedupKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
