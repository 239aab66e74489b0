// Package validation checks generated curl commands for syntax and for
// agreement with the endpoint they claim to call, and scores the result.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MereWhiplash/specrag/internal/types"
)

// Methods curl may be asked to send.
var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

var (
	methodFlag = regexp.MustCompile(`(?:^|\s)(?:-X|--request)\s+["']?(\w+)`)
	headerFlag = regexp.MustCompile(`(?:^|\s)(?:-H|--header)\s+(?:"((?:[^"\\]|\\.)*)"|'([^']*)')`)
	bodyFlag   = regexp.MustCompile(`(?:^|\s)(?:-d|--data|--data-raw|--data-binary)\s+(?:"((?:[^"\\]|\\.)*)"|'([^']*)')`)

	// URL forms in priority order.
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`https?://\S+`),
		regexp.MustCompile(`<[A-Z_]+>(?:/\S*)?`),
		regexp.MustCompile(`\$\{[A-Z_]+\}(?:/\S*)?`),
	}
)

// Components are the parts of a curl command the compliance check needs.
type Components struct {
	Method  string   `json:"method"`
	URL     string   `json:"url"`
	Headers []string `json:"headers"`
	Body    string   `json:"body,omitempty"`
}

// HasBody reports whether the command sends a non-empty body.
func (c Components) HasBody() bool {
	return c.Body != ""
}

// ValidateCommand checks a command's shape without reference to any spec.
// A missing curl prefix is reported alone; other problems are collected.
func ValidateCommand(command string) types.ValidationResult {
	if !strings.HasPrefix(strings.TrimSpace(command), "curl ") {
		return types.ValidationResult{
			Errors:   []string{"command does not start with 'curl'"},
			Warnings: []string{},
		}
	}

	errs := []string{}
	for _, m := range methodFlag.FindAllStringSubmatch(command, -1) {
		if !validMethods[strings.ToUpper(m[1])] {
			errs = append(errs, fmt.Sprintf("unsupported HTTP method: %s", m[1]))
		}
	}

	if findURL(command) == "" {
		errs = append(errs, "no URL found in command")
	}

	for _, h := range headers(command) {
		if !strings.Contains(h, ":") {
			errs = append(errs, fmt.Sprintf("invalid header format: %s (expected 'Key: Value')", h))
		}
	}

	return types.ValidationResult{Valid: len(errs) == 0, Errors: errs, Warnings: []string{}}
}

// Decompose extracts the method (GET when unspecified), the first URL-shaped
// token, every header and the first body from a command.
func Decompose(command string) Components {
	c := Components{Method: "GET", URL: findURL(command), Headers: headers(command)}
	if m := methodFlag.FindStringSubmatch(command); m != nil {
		c.Method = strings.ToUpper(m[1])
	}
	if m := bodyFlag.FindStringSubmatch(command); m != nil {
		c.Body = quoted(m)
	}
	return c
}

func findURL(command string) string {
	for _, re := range urlPatterns {
		if u := re.FindString(command); u != "" {
			return strings.TrimRight(u, `"'`)
		}
	}
	return ""
}

func headers(command string) []string {
	out := []string{}
	for _, m := range headerFlag.FindAllStringSubmatch(command, -1) {
		out = append(out, quoted(m))
	}
	return out
}

// quoted returns whichever of the double- or single-quoted groups matched.
func quoted(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
