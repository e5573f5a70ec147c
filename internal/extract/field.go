// Package extract reads review fields out of rendered markup with ordered
// selector chains: the first extractor that yields a value wins.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Field reads one string value from a review block.
type Field func(block *goquery.Selection) (string, bool)

// Read returns the field value or "" when nothing matched. A nil Field reads "".
func (f Field) Read(block *goquery.Selection) string {
	if f == nil {
		return ""
	}
	v, _ := f(block)
	return v
}

// Chain tries fields in order and returns the first non-empty value.
func Chain(fields ...Field) Field {
	return func(block *goquery.Selection) (string, bool) {
		for _, f := range fields {
			if f == nil {
				continue
			}
			if v, ok := f(block); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
}

// Text returns the trimmed text of the first element matching any selector.
// Selectors are tried in order, so earlier ones take precedence.
func Text(selectors ...string) Field {
	return func(block *goquery.Selection) (string, bool) {
		for _, sel := range selectors {
			var out string
			block.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				out = strings.TrimSpace(s.Text())
				return out == ""
			})
			if out != "" {
				return out, true
			}
		}
		return "", false
	}
}

// Attr returns the trimmed attribute of the first element matching selector.
func Attr(selector, attr string) Field {
	return func(block *goquery.Selection) (string, bool) {
		var out string
		block.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, ok := s.Attr(attr)
			out = strings.TrimSpace(v)
			return !ok || out == ""
		})
		return out, out != ""
	}
}

// OwnAttr returns the trimmed attribute of the block element itself.
func OwnAttr(attr string) Field {
	return func(block *goquery.Selection) (string, bool) {
		v, ok := block.Attr(attr)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
}

// AttrOrText prefers attr on the first match of selector and falls back to its text.
func AttrOrText(selector, attr string) Field {
	return func(block *goquery.Selection) (string, bool) {
		first := block.Find(selector).First()
		if first.Length() == 0 {
			return "", false
		}
		if v, ok := first.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
		v := strings.TrimSpace(first.Text())
		return v, v != ""
	}
}

// LongestLeaf returns the longest text among elements matching tags that have no
// element children. It is the heuristic used when no known content class matches.
func LongestLeaf(tags string) Field {
	return func(block *goquery.Selection) (string, bool) {
		var best string
		bestLen := 0
		block.Find(tags).Each(func(_ int, s *goquery.Selection) {
			if s.Children().Length() > 0 {
				return
			}
			t := strings.TrimSpace(s.Text())
			if n := utf8.RuneCountInString(t); n > bestLen {
				best, bestLen = t, n
			}
		})
		return best, best != ""
	}
}
