package generation

import (
	"regexp"
	"strings"

	"github.com/MereWhiplash/specrag/internal/apperr"
	"github.com/MereWhiplash/specrag/internal/types"
)

var (
	fencedCurl   = regexp.MustCompile("(?is)```(?:bash|sh|shell|console)?[ \\t]*\\n(curl\\s.+?)\\n\\s*```")
	responseLine = regexp.MustCompile(`^(\d{3})\s*:\s*(.+)$`)
)

// Parser turns a model reply into a structured command.
type Parser struct {
	p *patterns
}

// NewParser creates a parser for the given label set.
func NewParser(labels Labels) *Parser {
	return &Parser{p: compile(labels)}
}

var defaultParser = NewParser(DefaultLabels)

// Parse parses text with DefaultLabels.
func Parse(text, sourceEndpoint string) (types.GenerationResponse, error) {
	return defaultParser.Parse(text, sourceEndpoint)
}

// Parse extracts the command, explanation, inputs, responses, confidence
// and warnings from text. A refusal yields an empty command with low
// confidence; a reply with no command is an error.
func (ps *Parser) Parse(text, sourceEndpoint string) (types.GenerationResponse, error) {
	p := ps.p

	if p.refusal.MatchString(text) {
		missing := ps.missingInfo(text)
		return types.GenerationResponse{
			Curl: types.CurlCommand{
				Explanation:       strings.TrimSpace(text),
				RequiredParams:    []string{},
				OptionalParams:    []string{},
				ExpectedResponses: map[string]string{},
			},
			SourceEndpoint: sourceEndpoint,
			Confidence:     types.ConfidenceLow,
			Warnings:       []string{"insufficient information: " + missing},
			MissingInfo:    missing,
		}, nil
	}

	command := ExtractCommand(text)
	if command == "" {
		return types.GenerationResponse{}, apperr.New(apperr.KindGeneration, "could not extract curl command from output")
	}

	return types.GenerationResponse{
		Curl: types.CurlCommand{
			Command:           command,
			Explanation:       ps.explanation(text),
			RequiredParams:    ps.requiredParams(text),
			OptionalParams:    []string{},
			ExpectedResponses: ps.expectedResponses(text),
		},
		SourceEndpoint: sourceEndpoint,
		Confidence:     ps.confidence(text),
		Warnings:       ps.warnings(text),
	}, nil
}

func (ps *Parser) missingInfo(text string) string {
	for _, re := range ps.p.missing {
		if m := re.FindStringSubmatch(text); m != nil {
			if s := strings.TrimSpace(m[1]); s != "" {
				return s
			}
		}
	}
	return ps.p.unknown
}

// ExtractCommand returns the curl command from a fenced code block, or from
// the first raw line starting with curl plus its backslash continuations.
func ExtractCommand(text string) string {
	if m := fencedCurl.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	var block []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(block) == 0 {
			if trimmed == "curl" || strings.HasPrefix(trimmed, "curl ") || strings.HasPrefix(trimmed, "curl\t") {
				block = append(block, strings.TrimRight(line, " \t\r"))
			}
			continue
		}
		if trimmed == "" || !strings.HasSuffix(strings.TrimSpace(block[len(block)-1]), `\`) {
			break
		}
		block = append(block, strings.TrimRight(line, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}

func (ps *Parser) explanation(text string) string {
	if m := ps.p.explanation.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func (ps *Parser) requiredParams(text string) []string {
	params := []string{}
	m := ps.p.required.FindStringSubmatch(text)
	if m == nil {
		return params
	}
	for _, line := range strings.Split(m[1], "\n") {
		if item, ok := bullet(line); ok && item != "" {
			params = append(params, item)
		}
	}
	return params
}

func (ps *Parser) expectedResponses(text string) map[string]string {
	responses := map[string]string{}
	m := ps.p.responses.FindStringSubmatch(text)
	if m == nil {
		return responses
	}
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(line)
		if item, ok := bullet(line); ok {
			line = item
		}
		if rm := responseLine.FindStringSubmatch(line); rm != nil {
			responses[rm[1]] = strings.TrimSpace(rm[2])
		}
	}
	return responses
}

func (ps *Parser) confidence(text string) string {
	if m := ps.p.confidence.FindStringSubmatch(text); m != nil {
		if level, ok := ps.p.levels[strings.ToLower(m[1])]; ok {
			return level
		}
	}
	return types.ConfidenceMedium
}

func (ps *Parser) warnings(text string) []string {
	warnings := []string{}
	for _, line := range strings.Split(text, "\n") {
		lowered := strings.ToLower(line)
		for _, marker := range ps.p.warnings {
			if strings.Contains(lowered, marker) {
				warnings = append(warnings, strings.TrimSpace(line))
				break
			}
		}
	}
	return warnings
}

// bullet strips a leading "-" or "*" list marker.
func bullet(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, marker := range []string{"-", "*"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	return line, false
}
