package agent

import (
	"context"
	"fmt"
	"strings"
)

// ResourceReader is the slice of the protocol client the context assembler
// needs. It is satisfied by *mcp.Client.
type ResourceReader interface {
	ListFiles(ctx context.Context) []string
	ReadResourceText(ctx context.Context, uri string) (string, error)
}

// BuildContext assembles background text for a query: it lists the shared
// files, ranks them against the query, and reads the top-ranked ones. Files
// that fail to read are skipped rather than failing the whole assembly.
func BuildContext(ctx context.Context, reader ResourceReader, query string) (string, error) {
	files := reader.ListFiles(ctx)
	ranked := RankFilesByQuery(files, query)
	if len(ranked) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, name := range ranked {
		text, err := reader.ReadResourceText(ctx, "file:///"+name)
		if err != nil || text == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n%s\n\n", name, strings.TrimRight(text, "\n"))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
