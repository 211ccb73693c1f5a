package main

import (
	"fmt"

	"github.com/Ramc26/agentic-resources/agent"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value ...]",
	Short: "Invoke one tool and print its result",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kv, err := parseKV(args[1:])
		if err != nil {
			return err
		}

		cli, err := connectClient(ctx)
		if err != nil {
			return err
		}
		defer cli.Close()

		invoker := agent.NewInvoker(cli, agent.DefaultRegistry())
		out, err := invoker.Invoke(ctx, args[0], kv)
		if err != nil {
			return err
		}

		fmt.Println(out)
		return nil
	},
}
