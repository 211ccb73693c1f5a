package agent

import "strings"

// ExtractMarkdownPoints collects the bullet points under a "## <header>"
// section, stopping at the next "## " header. Both "-"/"*" bullets and simple
// numbered items are recognized; the markers are stripped from the returned
// points. The header match is case-insensitive.
func ExtractMarkdownPoints(markdownText, sectionHeader string) []string {
	want := strings.ToLower("## " + sectionHeader)

	var points []string
	inSection := false
	for _, line := range strings.Split(markdownText, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "## ") {
			inSection = strings.ToLower(stripped) == want
			continue
		}
		if !inSection {
			continue
		}

		switch {
		case strings.HasPrefix(stripped, "- "), strings.HasPrefix(stripped, "* "):
			points = append(points, strings.TrimSpace(stripped[2:]))
		default:
			if point, ok := numberedItem(stripped); ok {
				points = append(points, point)
			}
		}
	}
	return points
}

func numberedItem(line string) (string, bool) {
	before, after, found := strings.Cut(line, ".")
	if !found || before == "" {
		return "", false
	}
	for _, r := range before {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return strings.TrimSpace(after), true
}
