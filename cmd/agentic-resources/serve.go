package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcp "github.com/Ramc26/agentic-resources"
	"github.com/Ramc26/agentic-resources/servers/filebox"
	"github.com/Ramc26/agentic-resources/servers/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo MCP server (shared files + web tools) over SSE",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr := envOr("MCP_ADDR", ":8000")
		baseURL := envOr("MCP_SERVER_BASE_URL", "http://localhost:8000")
		sharedDir := envOr("MCP_SHARED_DIR", "./shared")

		var globs []string
		if raw := os.Getenv("MCP_SERVE_GLOBS"); raw != "" {
			for _, g := range strings.Split(raw, ",") {
				if g = strings.TrimSpace(g); g != "" {
					globs = append(globs, g)
				}
			}
		}

		fileSrv, err := filebox.NewServer(sharedDir, globs)
		if err != nil {
			return fmt.Errorf("failed to create filebox server: %w", err)
		}
		webSrv := web.NewServer(web.WithAPIKey(os.Getenv("API_NINJAS_KEY")))

		srv := mcp.NewServer(mcp.Info{Name: "agentic-resources", Version: "0.1.0"},
			mcp.WithToolServer(webSrv),
			mcp.WithResourceServer(fileSrv),
		)
		sseSrv := mcp.NewSSEServer(baseURL+"/mcp/message", srv)

		mux := http.NewServeMux()
		mux.Handle("/mcp/sse", sseSrv.HandleSSE())
		mux.Handle("/mcp/message", sseSrv.HandleMessage())

		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errs := make(chan error, 1)
		go func() {
			slog.Info("server listening", "addr", addr, "sharedDir", sharedDir)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()

		select {
		case err := <-errs:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
		}

		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sseSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down SSE sessions", "err", err)
		}
		return httpSrv.Shutdown(shutdownCtx)
	},
}
