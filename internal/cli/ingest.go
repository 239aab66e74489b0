package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <spec-file>",
		Short: "Parse, chunk, embed and index an OpenAPI 3.x spec",
		Example: strings.TrimSpace(`  specrag ingest openapi.yaml
  specrag ingest openapi.json --force`),
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			p, done, err := rt.pipeline(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer done()

			report, err := p.Ingest(cmd.Context(), args[0], force)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprintf(w, "Indexed %d endpoints", report.Chunks)
			fmt.Fprintf(w, " from %s %s (%d paths, %d operations) into %s\n",
				report.Title, report.Version, report.Paths, report.Operations, report.Collection)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Empty the collection before indexing")
	cmd.Flags().String("remote", "", "Upload to a running specrag server instead of indexing locally")
	return cmd
}
