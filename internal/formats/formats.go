package formats

import (
	"fmt"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"
)

// Format is the markup a caller used for the passage body.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Parse normalizes a passageFormat value. The empty string selects
// FormatText.
//
// The returned error message is user-facing and is wired directly into
// HTTP error responses.
func Parse(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "plain":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("Unsupported passageFormat %q; allowed formats are: text, markdown, html", name)
	}
}

// Normalize converts the passage into the text that is placed in the
// prompt. HTML is converted to CommonMark; other formats pass through.
func Normalize(passage string, f Format) (string, error) {
	if f != FormatHTML {
		return passage, nil
	}

	converter := htmlmd.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(passage)
	if err != nil {
		return "", fmt.Errorf("convert html passage: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
