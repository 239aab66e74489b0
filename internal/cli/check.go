package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/service"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the embedding and generation models are installed",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}

			svc, err := openService(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			report, err := svc.Check(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			bold.Fprintf(w, "Installed models (%s):\n", rt.cfg.OllamaURL)
			if len(report.Installed) == 0 {
				fmt.Fprintln(w, "  (none)")
			}
			for _, m := range report.Installed {
				fmt.Fprintf(w, "  %s (%.2f GB)\n", m.Name, float64(m.Size)/1e9)
			}

			fmt.Fprintln(w)
			printModelStatus(cmd, "embedding model", report.Embedding)
			printModelStatus(cmd, "generation model", report.LLM)

			if !report.Ready() {
				return apperr.New(apperr.KindValidation, "required models are missing")
			}
			return nil
		},
	}
}

func printModelStatus(cmd *cobra.Command, label string, s service.ModelStatus) {
	w := cmd.OutOrStdout()
	if s.Present {
		green.Fprintf(w, "✓ %s %s is installed\n", label, s.Name)
		return
	}
	red.Fprintf(w, "✗ %s %s is missing", label, s.Name)
	fmt.Fprintf(w, " (run: ollama pull %s)\n", s.Name)
}
