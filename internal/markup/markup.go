// Package markup rewrites the restricted wiki-style dialect used by
// the ticket tracker into Markdown suitable for repository-host
// issues.
//
// The conversion is an ordered list of global text substitutions.
// Order matters: later rules operate on the output of earlier ones.
// The pipeline is best-effort and not idempotent under adversarial
// input; for example the strikethrough rule can misfire on ordinary
// text containing two hyphens on one line. Callers must treat the
// output as a one-way conversion, not a verified round trip.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

type rule struct {
	re          *regexp.Regexp
	replacement string
}

// rules are applied in exactly this order.
var rules = buildRules()

func buildRules() []rule {
	r := []rule{
		// Single newlines become paragraph breaks.
		{regexp.MustCompile(`\n`), "\n\n"},
	}

	// hN. headings map to Markdown headings of the same level.
	for level := 1; level <= 6; level++ {
		r = append(r, rule{
			regexp.MustCompile(fmt.Sprintf(`(?m)^h%d\.\s*(.+)$`, level)),
			strings.Repeat("#", level) + " ${1}",
		})
	}

	r = append(r, []rule{
		// Bold, italic, strikethrough.
		{regexp.MustCompile(`\*([^*]+)\*`), "**${1}**"},
		{regexp.MustCompile(`_([^_]+)_`), "*${1}*"},
		{regexp.MustCompile(`-([^-]+)-`), "~~${1}~~"},
		// Code fences, then inline code.
		{regexp.MustCompile(`\{code\}`), "```"},
		{regexp.MustCompile(`\{code:([^}]+)\}`), "```${1}"},
		{regexp.MustCompile(`\{\{([^}]+)\}\}`), "`${1}`"},
		// List markers at line start.
		{regexp.MustCompile(`(?m)^\*\s+`), "- "},
		{regexp.MustCompile(`(?m)^#\s+`), "1. "},
		// Block quotes.
		{regexp.MustCompile(`(?m)^bq\.\s*(.+)$`), "> ${1}"},
		// Links and images.
		{regexp.MustCompile(`\[([^|\]]+)\|([^\]]+)\]`), "[${1}](${2})"},
		{regexp.MustCompile(`!([^!]+)!`), "![](${1})"},
		// Collapse runs of blank lines back down to one.
		{regexp.MustCompile(`\n{3,}`), "\n\n"},
	}...)

	return r
}

// Convert rewrites tracker markup into Markdown. Empty input yields
// empty output.
func Convert(text string) string {
	if text == "" {
		return ""
	}

	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.replacement)
	}

	return strings.TrimSpace(text)
}
