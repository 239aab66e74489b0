package generation

import (
	"regexp"
	"strings"

	"github.com/MereWhiplash/specrag/internal/types"
)

// LevelMarker maps the words a model may use for a confidence level.
type LevelMarker struct {
	Level   string
	Markers []string
}

// Labels holds every fixed string the output parser looks for. Each label
// lists its accepted spellings across languages.
type Labels struct {
	Explanation       []string
	RequiredInputs    []string
	ExpectedResponses []string
	Confidence        []string
	Levels            []LevelMarker

	// Refusal phrases, matched case-insensitively anywhere in the reply.
	Refusal []string
	// Labels preceding the missing item, tried in order.
	MissingInfo [][]string
	Unknown     string

	Warning []string
}

// DefaultLabels covers English and Korean replies.
var DefaultLabels = Labels{
	Explanation:       []string{"설명", "Explanation"},
	RequiredInputs:    []string{"필수 입력", "Required inputs"},
	ExpectedResponses: []string{"예상 응답", "Expected responses"},
	Confidence:        []string{"신뢰도", "Confidence"},
	Levels: []LevelMarker{
		{Level: types.ConfidenceHigh, Markers: []string{"high", "높음"}},
		{Level: types.ConfidenceMedium, Markers: []string{"medium", "중간"}},
		{Level: types.ConfidenceLow, Markers: []string{"low", "낮음"}},
	},
	Refusal: []string{"cURL 생성 불가", "정보 부족", "insufficient information", "cannot generate"},
	MissingInfo: [][]string{
		{"정보 부족", "insufficient information"},
		{"cURL 생성 불가", "cannot generate"},
	},
	Unknown: "unknown",
	Warning: []string{"⚠", "warning", "경고"},
}

// alternation quotes each label and joins them for use inside a group.
func alternation(labels ...[]string) string {
	var quoted []string
	for _, set := range labels {
		for _, l := range set {
			quoted = append(quoted, regexp.QuoteMeta(l))
		}
	}
	return strings.Join(quoted, "|")
}

// patterns are the compiled forms of a Labels value.
type patterns struct {
	refusal     *regexp.Regexp
	missing     []*regexp.Regexp
	explanation *regexp.Regexp
	required    *regexp.Regexp
	responses   *regexp.Regexp
	confidence  *regexp.Regexp
	levels      map[string]string
	warnings    []string
	unknown     string
}

// section matches the body after one of labels up to a blank line, one of
// the stop labels, or the end of the text.
func section(labels []string, stops ...[]string) *regexp.Regexp {
	stop := `\n\s*\n`
	if alt := alternation(stops...); alt != "" {
		stop += "|" + alt
	}
	return regexp.MustCompile(`(?is)(?:` + alternation(labels) + `)\s*:[ \t]*\n?(.+?)(?:` + stop + `|$)`)
}

func compile(l Labels) *patterns {
	p := &patterns{
		refusal:     regexp.MustCompile(`(?i)` + alternation(l.Refusal)),
		explanation: section(l.Explanation, l.RequiredInputs, l.ExpectedResponses, l.Confidence),
		required:    section(l.RequiredInputs, l.ExpectedResponses, l.Confidence),
		responses:   section(l.ExpectedResponses, l.Confidence),
		levels:      map[string]string{},
		unknown:     l.Unknown,
	}
	for _, set := range l.MissingInfo {
		p.missing = append(p.missing, regexp.MustCompile(`(?i)(?:`+alternation(set)+`)\s*:\s*(.+)`))
	}

	var markers []string
	for _, lm := range l.Levels {
		for _, m := range lm.Markers {
			p.levels[strings.ToLower(m)] = lm.Level
			markers = append(markers, regexp.QuoteMeta(m))
		}
	}
	p.confidence = regexp.MustCompile(`(?i)(?:` + alternation(l.Confidence) + `)\s*:\s*(` + strings.Join(markers, "|") + `)`)

	for _, w := range l.Warning {
		p.warnings = append(p.warnings, strings.ToLower(w))
	}
	return p
}
