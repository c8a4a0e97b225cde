// Package extract parses free-text analysis reports produced by an
// external reviewer. The reports follow no fixed schema, so the parser
// is a single forward line scan that never fails: markers it does not
// find simply leave the corresponding field at its zero value.
package extract

import (
	"regexp"
	"strings"
)

var (
	scoreRe = regexp.MustCompile(`(\d+)/(\d+)|(\d+)分`)
	idRe    = regexp.MustCompile(`Analyze Request ID[：:]\s*(.+)`)
)

// Result holds whatever the scanner managed to pull out of a report.
type Result struct {
	Score         string
	RelatedFiles  []string
	CorrelationID string
}

// Parse scans the report line by line, keeping a single in-file-section
// flag as state. For the score and the correlation id the last
// occurrence in the document wins (forward overwrite); related files
// keep their input order.
func Parse(report string) Result {
	result := Result{RelatedFiles: []string{}}

	inFileSection := false

	for _, rawLine := range strings.Split(report, "\n") {
		line := strings.TrimSpace(rawLine)

		if strings.Contains(line, "Relevance Score") || strings.Contains(line, "相關性評分") {
			if m := scoreRe.FindStringSubmatch(line); m != nil {
				// "N/M" puts the numerator in group 1, "N分" in group 3.
				if m[1] != "" {
					result.Score = m[1]
				} else {
					result.Score = m[3]
				}
			}

			continue
		}

		if strings.Contains(line, "Related Files") || strings.Contains(line, "相關文件") {
			inFileSection = true
			continue
		}

		if strings.Contains(line, "Analyze Request ID") {
			if m := idRe.FindStringSubmatch(line); m != nil {
				result.CorrelationID = strings.TrimSpace(m[1])
			}

			continue
		}

		if inFileSection {
			if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "##") || strings.HasPrefix(line, "###") {
				inFileSection = false
				continue
			}

			if strings.HasPrefix(line, "- ") {
				if path := strings.TrimSpace(line[2:]); path != "" {
					result.RelatedFiles = append(result.RelatedFiles, path)
				}
			}
		}
	}

	return result
}
