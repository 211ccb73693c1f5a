// Command agentic-resources is a demo harness pairing a small MCP server
// (shared files + web tools) with a client-side chat and one-shot tool caller,
// all over the SSE transport.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory:
//
//	MCP_SERVER_BASE_URL  base URL of the server (default http://localhost:8000)
//	MCP_ADDR             listen address for serve (default :8000)
//	MCP_SHARED_DIR       directory served by the filebox (default ./shared)
//	MCP_SERVE_GLOBS      comma-separated allow-list for the file listing
//	API_NINJAS_KEY       key for the validate_contact tool
var rootCmd = &cobra.Command{
	Use:          "agentic-resources",
	Short:        "MCP-over-SSE demo harness: server, chat REPL, and one-shot tool calls",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// A missing .env file is fine; the environment may be set directly.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, chatCmd, callCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
