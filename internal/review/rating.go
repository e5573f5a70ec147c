package review

import (
	"math"
	"regexp"
	"strconv"
)

const MaxRating = 5.0

var (
	// ratingLabels are tried in order; each captures the awarded value.
	ratingLabels = []*regexp.Regexp{
		// 星5つ中4つ
		regexp.MustCompile(`中\s*(\d(?:\.\d)?)\s*つ`),
		// 5つ星のうち4.0
		regexp.MustCompile(`のうち\s*(\d(?:\.\d)?)`),
		// 5段階中4.0
		regexp.MustCompile(`段階中\s*(\d(?:\.\d)?)`),
		// 4.5 out of 5, 5.0 of 5 bubbles
		regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*(?:out\s+of\s*5|of\s*5\s*(?:bubbles?|stars?))`),
		// a bare "4/5" label; counters such as "写真 1/5" carry other words
		regexp.MustCompile(`^\s*(\d(?:\.\d)?)\s*/\s*5\s*$`),
		// 4 stars, 4つ星, 4★
		regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*(?:つ星|stars?\b|★)`),
	}
	bubbleToken = regexp.MustCompile(`bubble_?(\d{1,2})\b`)
	scoreText   = regexp.MustCompile(`\d(?:\.\d+)?`)
)

// DecodeRatingLabel reads a star count out of an accessible label such as "星5つ中4つ".
func DecodeRatingLabel(label string) (float64, bool) {
	for _, re := range ratingLabels {
		m := re.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		return normalizeRating(m[1])
	}
	return 0, false
}

// DecodeRatingClass reads a "bubble_NN" class token as NN/10.
func DecodeRatingClass(class string) (float64, bool) {
	m := bubbleToken.FindStringSubmatch(class)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return clampRating(float64(n) / 10)
}

// DecodeRatingScore reads the first decimal number of a visible score such as "3.8".
func DecodeRatingScore(text string) (float64, bool) {
	m := scoreText.FindString(text)
	if m == "" {
		return 0, false
	}
	return normalizeRating(m)
}

func normalizeRating(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampRating(v)
}

// clampRating snaps v to the nearest half star and rejects values outside [0, 5].
func clampRating(v float64) (float64, bool) {
	if math.IsNaN(v) || v < 0 || v > MaxRating {
		return 0, false
	}
	return math.Round(v*2) / 2, true
}
