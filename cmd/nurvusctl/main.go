// Command nurvusctl is the CLI binary for the remote command surface: it
// parses the closed vocabulary (status, list, start, stop, restart,
// config get/list, cluster info) and talks to a node's HTTP control
// surface through pkg/client.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurvus/nurvus/pkg/client"
)

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(b))
}

func main() {
	var addr string
	var timeout time.Duration

	root := &cobra.Command{Use: "nurvusctl"}
	root.PersistentFlags().StringVar(&addr, "addr", "http://localhost:4001", "node control surface address")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	newClient := func() *client.Client {
		return client.New(client.Config{BaseURL: addr, Timeout: timeout})
	}

	cmdStatus := &cobra.Command{
		Use:   "status",
		Short: "Show this node's full status and platform info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(addr, timeout, []string{"status"})
		},
	}

	cmdShow := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single process's detailed status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			detail, err := newClient().GetProcess(ctx, args[0])
			if err != nil {
				return err
			}
			printJSON(detail)
			return nil
		},
	}

	cmdList := &cobra.Command{
		Use:   "list",
		Short: "List every declared process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			list, err := newClient().ListProcesses(ctx)
			if err != nil {
				return err
			}
			printJSON(list)
			return nil
		},
	}

	cmdStart := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a declared process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return newClient().StartProcess(ctx, args[0])
		},
	}

	cmdStop := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a running process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return newClient().StopProcess(ctx, args[0])
		},
	}

	cmdRestart := &cobra.Command{
		Use:   "restart <id>",
		Short: "Restart a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return newClient().RestartProcess(ctx, args[0])
		},
	}

	cmdConfig := &cobra.Command{Use: "config", Short: "Inspect the node's own settings"}
	cmdConfigGet := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a single settings key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(addr, timeout, []string{"config", "get", args[0]})
		},
	}
	cmdConfigList := &cobra.Command{
		Use:   "list",
		Short: "List the node's own settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(addr, timeout, []string{"config", "list"})
		},
	}
	cmdConfig.AddCommand(cmdConfigGet, cmdConfigList)

	cmdCluster := &cobra.Command{Use: "cluster", Short: "Cluster identity"}
	cmdClusterInfo := &cobra.Command{
		Use:   "info",
		Short: "Show this node's identity and configured peers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(addr, timeout, []string{"cluster", "info"})
		},
	}
	cmdCluster.AddCommand(cmdClusterInfo)

	root.AddCommand(cmdStatus, cmdShow, cmdList, cmdStart, cmdStop, cmdRestart, cmdConfig, cmdCluster)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runCommand relays argv to the node's generic /api/command endpoint,
// used for status and for the parts of the vocabulary (config get/list,
// cluster info) that have no dedicated REST route.
func runCommand(addr string, timeout time.Duration, argv []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c := client.New(client.Config{BaseURL: addr, Timeout: timeout})
	result, err := c.RunCommand(ctx, argv)
	if err != nil {
		return err
	}
	printJSON(result)
	return nil
}
