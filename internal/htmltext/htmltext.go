// Package htmltext renders HTML mail bodies as readable plain text, for
// messages that carry no text/plain alternative.
package htmltext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Renderer converts an HTML document into plain text. Safe for
// concurrent use.
type Renderer struct {
	spaceRun   *regexp.Regexp
	newlineRun *regexp.Regexp
	invisibles *regexp.Regexp
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		spaceRun:   regexp.MustCompile(`[^\S\n]+`),
		newlineRun: regexp.MustCompile(`\n{3,}`),
		// zero-width and other invisible runes common in marketing mail
		invisibles: regexp.MustCompile(`[\x{200B}-\x{200D}\x{FEFF}\x{00AD}\x{2060}-\x{2064}]+`),
	}
}

// Render extracts the text content of an HTML document, preserving block
// structure as line breaks.
func (r *Renderer) Render(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, head, meta, link").Remove()

	doc.Find("p, div, br, h1, h2, h3, h4, h5, h6, li, tr").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("\n")
	})

	text := doc.Text()
	text = r.invisibles.ReplaceAllString(text, "")
	text = r.spaceRun.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	text = strings.Join(lines, "\n")
	text = r.newlineRun.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
