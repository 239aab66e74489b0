package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the configuration and the indexed collection",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			bold.Fprintln(w, "Configuration:")
			fmt.Fprint(w, rt.cfg.String())

			p, done, err := rt.pipeline(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer done()

			info, err := p.Info(cmd.Context())
			if err != nil {
				return err
			}

			bold.Fprintln(w, "\nCollection:")
			fmt.Fprintf(w, "name: %s\n", info.Name)
			fmt.Fprintf(w, "endpoints: %d\n", info.Count)
			fmt.Fprintf(w, "embedding_model: %s\n", info.Metadata.EmbeddingModel)
			fmt.Fprintf(w, "distance_metric: %s\n", info.Metadata.DistanceMetric)
			if !info.Metadata.CreatedAt.IsZero() {
				fmt.Fprintf(w, "created_at: %s\n", info.Metadata.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			}
			if info.Metadata.EmbeddingModel != "" && info.Metadata.EmbeddingModel != rt.cfg.EmbeddingModel {
				yellow.Fprintf(w, "Warning: collection was built with %s but %s is configured; re-run ingest --force\n",
					info.Metadata.EmbeddingModel, rt.cfg.EmbeddingModel)
			}
			return nil
		},
	}

	cmd.Flags().String("remote", "", "Read collection info from a running specrag server")
	return cmd
}
