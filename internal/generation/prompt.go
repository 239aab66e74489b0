// Package generation renders prompts, calls the generative model and parses
// its reply into a curl command.
package generation

import (
	"fmt"
	"strings"

	"github.com/MereWhiplash/specrag/internal/types"
)

// SystemPrompt is sent with every generation request.
const SystemPrompt = "You are an expert at writing exact cURL commands from an OpenAPI specification.\n" +
	"\n" +
	"Rules:\n" +
	"1. Build the cURL command only from the specification text provided.\n" +
	"2. Never guess parameters or values that are not in the specification.\n" +
	"3. If required information is missing, answer with the single line \"insufficient information: <item>\".\n" +
	"4. Use explicit placeholders such as <payment_id> or <YOUR_API_KEY>.\n" +
	"5. Clearly separate required and optional parameters.\n" +
	"\n" +
	"Output format:\n" +
	"```bash\n" +
	"curl -X [METHOD] [URL] \\\n" +
	"  -H \"Header: value\" \\\n" +
	"  -d '{json data}'\n" +
	"```\n" +
	"\n" +
	"Then:\n" +
	"Explanation:\n" +
	"<what each parameter means>\n" +
	"\n" +
	"Required inputs:\n" +
	"- <value the user must supply>\n" +
	"\n" +
	"Expected responses:\n" +
	"- <status code>: <meaning>\n" +
	"\n" +
	"Confidence: high/medium/low\n"

var separator = "\n\n" + strings.Repeat("=", 60) + "\n\n"

// Build renders the prompts for query over the candidate chunks.
func Build(query string, chunks []types.EndpointChunk) types.GenerationRequest {
	return types.GenerationRequest{
		Query:        query,
		Chunks:       chunks,
		SystemPrompt: SystemPrompt,
		UserPrompt:   UserPrompt(query, chunks),
	}
}

// UserPrompt embeds every chunk and the query.
func UserPrompt(query string, chunks []types.EndpointChunk) string {
	formatted := make([]string, len(chunks))
	for i, c := range chunks {
		formatted[i] = formatChunk(i+1, c)
	}

	var b strings.Builder
	b.WriteString("API specification:\n---\n")
	b.WriteString(strings.Join(formatted, separator))
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "User query: %s\n\n", query)
	b.WriteString("Generate an executable cURL command based on the specification above.\n")
	b.WriteString("If required information is missing, answer \"cannot generate: <reason>\".")
	return b.String()
}

func formatChunk(n int, c types.EndpointChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Endpoint %d]\n", n)
	fmt.Fprintf(&b, "Method: %s\n", c.Method)
	fmt.Fprintf(&b, "Path: %s\n", c.Path)
	fmt.Fprintf(&b, "Summary: %s\n", orNA(c.Summary))
	fmt.Fprintf(&b, "Description: %s", orNA(c.Description))

	if len(c.Parameters) > 0 {
		b.WriteString("\n\nParameters:")
		for _, p := range c.Parameters {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "\n  - %s (%s): %s [%s]", p.Name, p.In, orNA(p.Description), req)
		}
	}

	if c.RequestBody != nil {
		b.WriteString("\n\nRequest body:")
		fmt.Fprintf(&b, "\n  Required: %t", c.RequestBody.Required)
		for _, ct := range c.RequestBody.ContentTypes {
			fmt.Fprintf(&b, "\n  Content-Type: %s", ct)
		}
	}

	if len(c.Responses) > 0 {
		b.WriteString("\n\nResponses:")
		for _, r := range c.Responses {
			fmt.Fprintf(&b, "\n  %s: %s", r.Status, r.Description)
		}
	}

	if c.Metadata.RequiresAuth {
		b.WriteString("\n\nAuthentication: required (Bearer token)")
	}

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
