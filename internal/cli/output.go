package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/MereWhiplash/specrag/internal/service"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	bold   = color.New(color.Bold)
)

func printQueryResult(w io.Writer, res *service.QueryResult, view queryView) {
	gen := res.Generation
	best := res.Best()

	if view.stream {
		fmt.Fprintln(w)
	}

	if gen.Refused() {
		yellow.Fprintf(w, "Cannot generate a command: insufficient information: %s\n", gen.MissingInfo)
		fmt.Fprintf(w, "Closest endpoint: %s %s (similarity %.2f)\n", best.Chunk.Method, best.Chunk.Path, best.Similarity)
		return
	}

	if !view.stream {
		fmt.Fprintln(w, gen.Curl.Command)
	}
	fmt.Fprintf(w, "\nEndpoint: %s %s (similarity %.2f)\n", best.Chunk.Method, best.Chunk.Path, best.Similarity)

	if view.verbose {
		printDetails(w, res)
	}

	if res.Confidence != nil {
		fmt.Fprintln(w)
		if res.Syntax.Valid {
			green.Fprintln(w, "Syntax: valid")
		} else {
			red.Fprintf(w, "Syntax: invalid (%s)\n", strings.Join(res.Syntax.Errors, "; "))
		}
		if res.Compliance.Valid {
			green.Fprintln(w, "Spec compliance: valid")
		} else {
			yellow.Fprintln(w, "Spec compliance: warnings")
		}
		fmt.Fprintln(w, res.Explanation)
	}

	var warnings []string
	warnings = append(warnings, gen.Warnings...)
	if res.Compliance != nil {
		warnings = append(warnings, res.Compliance.Warnings...)
	}
	for _, warn := range warnings {
		yellow.Fprintf(w, "Warning: %s\n", warn)
	}

	if !res.HighSimilarity {
		yellow.Fprintf(w, "Note: best match similarity %.2f is below %.2f; check the endpoint fits the question\n", best.Similarity, view.threshold)
	}
}

func printDetails(w io.Writer, res *service.QueryResult) {
	gen := res.Generation

	bold.Fprintln(w, "\nRetrieved endpoints:")
	for _, r := range res.Reranked {
		fmt.Fprintf(w, "  %d. %s %s (similarity %.2f)\n", r.Rank, r.Chunk.Method, r.Chunk.Path, r.Similarity)
	}

	if gen.Curl.Explanation != "" {
		bold.Fprintln(w, "\nExplanation:")
		fmt.Fprintf(w, "  %s\n", gen.Curl.Explanation)
	}
	if len(gen.Curl.RequiredParams) > 0 {
		bold.Fprint(w, "\nRequired inputs: ")
		fmt.Fprintln(w, strings.Join(gen.Curl.RequiredParams, ", "))
	}
	if len(gen.Curl.ExpectedResponses) > 0 {
		bold.Fprintln(w, "\nExpected responses:")
		codes := make([]string, 0, len(gen.Curl.ExpectedResponses))
		for code := range gen.Curl.ExpectedResponses {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(w, "  %s: %s\n", code, gen.Curl.ExpectedResponses[code])
		}
	}
	fmt.Fprintf(w, "\nModel confidence: %s\n", gen.Confidence)
}
