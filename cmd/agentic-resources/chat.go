package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	mcp "github.com/Ramc26/agentic-resources"
	"github.com/Ramc26/agentic-resources/agent"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session against the server",
	Long: `Connects to the server and starts a small REPL:

  files              list the shared files
  read <uri>         read a resource
  tool <name> k=v …  invoke a tool (validated and cached)
  <anything else>    assemble background context for the query
  exit | quit        leave`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cli, err := connectClient(ctx)
		if err != nil {
			return err
		}
		defer cli.Close()

		invoker := agent.NewInvoker(cli, agent.DefaultRegistry())

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Printf("connected (session %s). Type 'exit' to leave.\n", cli.SessionID())
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			fields := strings.Fields(line)
			switch fields[0] {
			case "exit", "quit":
				return nil
			case "files":
				for _, name := range cli.ListFiles(ctx) {
					fmt.Println(name)
				}
			case "read":
				if len(fields) != 2 {
					fmt.Println("usage: read <uri>")
					continue
				}
				text, err := cli.ReadResource(ctx, fields[1])
				if err != nil {
					fmt.Printf("read failed: %v\n", err)
					continue
				}
				fmt.Println(text)
			case "tool":
				if len(fields) < 2 {
					fmt.Printf("usage: tool <name> k=v …  (known tools: %s)\n", strings.Join(invoker.Tools(), ", "))
					continue
				}
				args, err := parseKV(fields[2:])
				if err != nil {
					fmt.Println(err)
					continue
				}
				out, err := invoker.Invoke(ctx, fields[1], args)
				if err != nil {
					fmt.Printf("tool failed: %v\n", err)
					continue
				}
				fmt.Println(out)
			default:
				background, err := agent.BuildContext(ctx, cli, line)
				if err != nil {
					fmt.Printf("failed to assemble context: %v\n", err)
					continue
				}
				if background == "" {
					fmt.Println("no shared files match that query")
					continue
				}
				fmt.Println(background)
				if points := agent.ExtractMarkdownPoints(background, "Discussion Points"); len(points) > 0 {
					fmt.Println("\ndiscussion points:")
					for _, p := range points {
						fmt.Printf("  - %s\n", p)
					}
				}
			}
		}
	},
}

func connectClient(ctx context.Context) (*mcp.Client, error) {
	baseURL := envOr("MCP_SERVER_BASE_URL", "http://localhost:8000")

	cli, err := mcp.NewClient(baseURL+"/mcp/sse", baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := cli.Connect(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := cli.Initialize(ctx); err != nil {
		cli.Close()
		return nil, err
	}
	return cli, nil
}

func parseKV(pairs []string) (map[string]string, error) {
	args := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("argument %q is not of the form key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}
