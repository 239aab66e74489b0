package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MereWhiplash/specrag/internal/service"
	"github.com/MereWhiplash/specrag/internal/types"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Generate a curl command for a natural-language question",
		Example: strings.TrimSpace(`  specrag query "approve a pending payment" --validate
  specrag query "결제 승인" --top-k 3 --verbose --spec openapi.yaml
  specrag query "list items" --filter method=GET --remote http://localhost:8080`),
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			opts, view, err := resolveQueryOptions(cmd, args[0])
			if err != nil {
				return err
			}

			p, done, err := rt.pipeline(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer done()

			w := cmd.OutOrStdout()
			if view.stream {
				opts.OnFragment = func(s string) error {
					_, err := fmt.Fprint(w, s)
					return err
				}
			}

			result, err := p.Query(cmd.Context(), opts)
			if err != nil {
				return err
			}
			view.threshold = rt.cfg.HighConfidenceThreshold
			printQueryResult(w, result, view)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("top-k", 0, "Number of endpoints to retrieve (1-20); defaults to the configured top_k")
	flags.BoolP("verbose", "v", false, "Show retrieved endpoints, explanation and expected responses")
	flags.Bool("validate", false, "Validate the command against the spec and score confidence")
	flags.String("spec", "", "Re-read this spec file to restore full endpoint detail before generation")
	flags.Bool("stream", false, "Print the model reply as it is generated")
	flags.Bool("strict", false, "Exit with an error when the spec lacks the information asked for")
	flags.StringArray("filter", nil, "Metadata filter as key=value (method, requires_auth, content_type); repeatable")
	flags.String("remote", "", "Query a running specrag server instead of the local index")
	return cmd
}

// queryView controls how a result is printed.
type queryView struct {
	verbose   bool
	stream    bool
	threshold float64
}

func resolveQueryOptions(cmd *cobra.Command, text string) (service.QueryOptions, queryView, error) {
	flags := cmd.Flags()
	opts := service.QueryOptions{Text: text}
	var view queryView

	opts.TopK, _ = flags.GetInt("top-k")
	opts.Validate, _ = flags.GetBool("validate")
	opts.Strict, _ = flags.GetBool("strict")
	opts.SpecPath, _ = flags.GetString("spec")
	view.verbose, _ = flags.GetBool("verbose")
	view.stream, _ = flags.GetBool("stream")

	raw, _ := flags.GetStringArray("filter")
	filters, err := parseFilters(raw)
	if err != nil {
		return opts, view, err
	}
	opts.Filters = filters
	return opts, view, nil
}

func parseFilters(raw []string) (types.Filters, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	filters := types.Filters{}
	for _, f := range raw {
		key, value, ok := strings.Cut(f, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, newUsageError(fmt.Sprintf("invalid filter %q (expected key=value)", f))
		}
		switch key {
		case "method", "requires_auth", "content_type":
		default:
			return nil, newUsageError(fmt.Sprintf("unsupported filter key %q (allowed: method, requires_auth, content_type)", key))
		}
		filters[key] = value
	}
	return filters, nil
}
