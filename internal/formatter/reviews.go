package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"kuchikomi/internal/review"
)

// ReviewContent holds the harvested records of one store and implements Content.
type ReviewContent struct {
	name    string
	records []review.Record
}

// NewReviewContent creates a ReviewContent. name titles the rendered output and
// may be empty.
func NewReviewContent(name string, records []review.Record) *ReviewContent {
	return &ReviewContent{name: name, records: records}
}

func (c *ReviewContent) title() string {
	if c.name == "" {
		return "Reviews"
	}
	return c.name + " Reviews"
}

type sourceSummary struct {
	source  review.Source
	count   int
	rated   int
	average float64
}

// summary counts records per source in first-seen order. Unrated records (0)
// are left out of the average.
func (c *ReviewContent) summary() []sourceSummary {
	var out []sourceSummary
	index := map[review.Source]int{}
	for _, r := range c.records {
		i, ok := index[r.Source]
		if !ok {
			i = len(out)
			index[r.Source] = i
			out = append(out, sourceSummary{source: r.Source})
		}
		s := &out[i]
		s.count++
		if r.Rating > 0 {
			s.average = (s.average*float64(s.rated) + r.Rating) / float64(s.rated+1)
			s.rated++
		}
	}
	return out
}

func formatRating(v float64) string {
	if v <= 0 {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// ToHTML renders a summary table followed by one article per review.
func (c *ReviewContent) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(c.title())))
	sb.WriteString(fmt.Sprintf("<p>%d reviews</p>\n", len(c.records)))

	sb.WriteString("<table>\n<thead><tr><th>Source</th><th>Reviews</th><th>Average</th></tr></thead>\n<tbody>\n")
	for _, s := range c.summary() {
		sb.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%s</td></tr>\n", s.source, s.count, formatRating(s.average)))
	}
	sb.WriteString("</tbody>\n</table>\n")

	for _, r := range c.records {
		sb.WriteString("<article>\n")
		sb.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(reviewHeading(r))))
		if meta := reviewMeta(r); meta != "" {
			sb.WriteString(fmt.Sprintf("<p><em>%s</em></p>\n", html.EscapeString(meta)))
		}
		for _, para := range strings.Split(r.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				sb.WriteString("<p>" + html.EscapeString(para) + "</p>\n")
			}
		}
		sb.WriteString("</article>\n")
	}
	return sb.String(), nil
}

// ToMarkdown converts the HTML rendering; the summary table becomes a GitHub
// style table.
func (c *ReviewContent) ToMarkdown() (string, error) {
	page, err := c.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())
	markdown, err := converter.ConvertString(page)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

func (c *ReviewContent) ToText() (string, error) {
	var sb strings.Builder
	sb.WriteString(c.title() + "\n\n")
	for _, s := range c.summary() {
		sb.WriteString(fmt.Sprintf("%-12s %4d reviews  avg %s\n", s.source, s.count, formatRating(s.average)))
	}
	sb.WriteString("\n")
	for i, r := range c.records {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, reviewHeading(r)))
		if meta := reviewMeta(r); meta != "" {
			sb.WriteString("   " + meta + "\n")
		}
		for _, line := range strings.Split(r.Text, "\n") {
			sb.WriteString("   " + line + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ToJSON returns the records as an indented array, keeping non-ASCII text and
// markup characters unescaped.
func (c *ReviewContent) ToJSON() ([]byte, error) {
	records := c.records
	if records == nil {
		records = []review.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *ReviewContent) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"source", "reviewer_name", "rating", "date", "text", "location"})
	for _, r := range c.records {
		_ = w.Write([]string{
			string(r.Source),
			r.ReviewerName,
			strconv.FormatFloat(r.Rating, 'f', 1, 64),
			r.Date,
			r.Text,
			r.Location,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}

func reviewHeading(r review.Record) string {
	name := r.ReviewerName
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("[%s] %s ★%s", r.Source, name, formatRating(r.Rating))
}

func reviewMeta(r review.Record) string {
	parts := make([]string, 0, 2)
	if r.Date != "" {
		parts = append(parts, r.Date)
	}
	if r.Location != "" {
		parts = append(parts, r.Location)
	}
	return strings.Join(parts, " / ")
}
