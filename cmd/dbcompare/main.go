package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Progress lines go to stdout, logs to
// stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "dbcompare",
		Short:         "Benchmark MovieLens queries on PostgreSQL and Neo4j and compare their results",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	addConfigFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run both benchmarks, compare their results and plot the timings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, true)
		},
	})

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the result files already in the results tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runBenchmarks, _ := cmd.Flags().GetBool("run")
			return runPipeline(cmd, runBenchmarks)
		},
	}
	compareCmd.Flags().Bool("run", false, "Run both benchmarks before comparing")
	root.AddCommand(compareCmd)

	root.AddCommand(&cobra.Command{
		Use:   "plot",
		Short: "Render timing charts from the timing files in the results tree",
		Args:  cobra.NoArgs,
		RunE:  runPlot,
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dbcompare %s\n", version)
		},
	})

	return root
}
