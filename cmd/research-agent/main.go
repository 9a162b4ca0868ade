// Command research-agent is the research-agent orchestrator's process
// entrypoint. Grounded on the teacher's single-binary cmd/tarsy/main.go for
// the overall config-dir/env/gin-mode bootstrap, restructured around
// Cobra the way greg-hellings-devdashboard/cmd/devdashboard/main.go
// structures its subcommands, since this binary needs more than one verb
// (serve, migrate, backfill-embeddings, status, version).
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeready-toolchain/research-agent/pkg/version"
)

var (
	flagConfigDir string
	flagVerbose   bool
	flagDebug     bool
)

func main() {
	root := newRootCmd()
	root.SilenceUsage = true
	root.SilenceErrors = true

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research-agent",
		Short: "Research agent orchestrator",
		Long: strings.TrimSpace(`
research-agent runs the research-agent orchestrator: plan decomposition,
phase execution against registered tools, iterative rubric evaluation,
and hybrid-search-backed knowledge persistence.`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initLogging()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", defaultConfigDir(), "Path to configuration directory")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (info) logging")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging (overrides --verbose)")
	cmd.Version = version.Full()

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newBackfillEmbeddingsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func defaultConfigDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	return "./deploy/config"
}

func initLogging() {
	level := slog.LevelWarn
	switch {
	case flagDebug:
		level = slog.LevelDebug
	case flagVerbose:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	}
}
