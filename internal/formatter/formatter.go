package formatter

import (
	"fmt"
	"strings"
)

// Content is a harvest result that can render itself in every output format.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}

// Formats lists the accepted format names; json is the default.
var Formats = []string{"json", "csv", "text", "markdown", "html"}

// Format renders content in the named format. Names are case-insensitive.
func Format(content Content, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		b, err := content.ToJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "csv":
		return content.ToCSV()
	case "text":
		return content.ToText()
	case "markdown", "md":
		return content.ToMarkdown()
	case "html":
		return content.ToHTML()
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}
