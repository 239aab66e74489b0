// Package cli implements the specrag command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is reported by --version.
var Version = "dev"

// Execute runs the specrag CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "specrag",
		Short: "Answer questions about an OpenAPI spec with grounded curl commands",
		Long: "specrag indexes an OpenAPI 3.x document into a vector store and turns natural-language " +
			"questions into curl commands grounded in the matching endpoint, with validation and a confidence score.",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("config", "c", "", "Config file path (YAML or JSON)")
	pf.String("ollama-url", "", "Ollama API URL")
	pf.String("embedding-model", "", "Ollama embedding model")
	pf.String("llm-model", "", "Ollama generation model")
	pf.String("storage-driver", "", "Vector store: sqlite, postgres, mongodb, memory")
	pf.String("sqlite-path", "", "Path to the SQLite index (sqlite driver)")
	pf.String("postgres-dsn", "", "PostgreSQL connection string (postgres driver)")
	pf.String("mongodb-uri", "", "MongoDB connection URI (mongodb driver)")
	pf.String("collection", "", "Collection name")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: text, json")

	for _, sub := range []*cobra.Command{
		newIngestCmd(),
		newQueryCmd(),
		newInfoCmd(),
		newCheckCmd(),
		newServeCmd(),
		newMCPCmd(),
	} {
		cmd.AddCommand(sub)
	}

	// Convert Cobra flag errors (like unknown flags) into usage errors that
	// also show the command's help text.
	setFlagErrorFunc(cmd)

	return cmd
}

func setFlagErrorFunc(cmd *cobra.Command) {
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
	})
	for _, sub := range cmd.Commands() {
		setFlagErrorFunc(sub)
	}
}

// exactArgs is cobra.ExactArgs reported as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return newUsageError(fmt.Sprintf("%v\n\n%s", err, cmd.UsageString()))
		}
		return nil
	}
}
