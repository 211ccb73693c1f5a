package agent

import (
	"sort"
	"strings"
	"unicode"
)

// tokenize lowercases text and splits it on every non-alphanumeric rune.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// RankFilesByQuery orders filenames by relevance to the query using token
// overlap, with special-casing for a few common intents: "log" queries prefer
// log files, and note/meeting/discussion queries prefer the well-known notes
// files. At most three names are returned; names with no overlap are dropped.
func RankFilesByQuery(filenames []string, query string) []string {
	if len(filenames) == 0 {
		return nil
	}

	q := strings.ToLower(query)
	if strings.Contains(q, "log") {
		var candidates []string
		for _, f := range filenames {
			if strings.Contains(strings.ToLower(f), "log") {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) > 0 {
			sort.Strings(candidates)
			return candidates
		}
	}
	if strings.Contains(q, "note") || strings.Contains(q, "meeting") || strings.Contains(q, "discussion") {
		for _, wellKnown := range []string{"project_notes.txt", "notes.txt"} {
			for _, f := range filenames {
				if strings.EqualFold(f, wellKnown) {
					return []string{f}
				}
			}
		}
	}

	qTokens := tokenize(q)
	score := func(name string) int {
		overlap := 0
		for token := range tokenize(name) {
			if _, ok := qTokens[token]; ok {
				overlap++
			}
		}
		return overlap
	}

	ranked := make([]string, len(filenames))
	copy(ranked, filenames)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i] < ranked[j]
	})

	var out []string
	for _, name := range ranked {
		if score(name) == 0 {
			continue
		}
		out = append(out, name)
		if len(out) == 3 {
			break
		}
	}
	return out
}
