package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/MereWhiplash/specrag/internal/types"
)

// Check weights; together they sum to 1.
const (
	weightMethod      = 0.30
	weightPath        = 0.20
	weightAuth        = 0.20
	weightContentType = 0.15
	weightParams      = 0.15
)

var pathParam = regexp.MustCompile(`\{[^}]+\}`)

// ValidateAgainstSpec checks a decomposed command against the endpoint it
// should call. Each failing check adds a warning and withholds its weight;
// the result is valid only when every check passes.
func ValidateAgainstSpec(c Components, chunk types.EndpointChunk) types.ComplianceResult {
	warnings := []string{}
	score := 0.0

	method := chunk.Metadata.Method
	if method == "" {
		method = chunk.Method
	}
	if strings.EqualFold(c.Method, method) {
		score += weightMethod
	} else {
		warnings = append(warnings, fmt.Sprintf("HTTP method mismatch: command=%s, spec=%s", c.Method, strings.ToUpper(method)))
	}

	path := chunk.Metadata.Endpoint
	if path == "" {
		path = chunk.Path
	}
	if pathMatches(c.URL, path) {
		score += weightPath
	} else {
		warnings = append(warnings, fmt.Sprintf("endpoint path mismatch: URL does not contain '%s'", path))
	}

	if !chunk.Metadata.RequiresAuth || hasHeader(c.Headers, "authorization") {
		score += weightAuth
	} else {
		warnings = append(warnings, "endpoint requires authentication but no Authorization header is present")
	}

	if !c.HasBody() || hasHeader(c.Headers, "content-type") {
		score += weightContentType
	} else {
		warnings = append(warnings, "request body present but no Content-Type header")
	}

	found, missing := requiredParamCoverage(c, chunk)
	if len(missing) > 0 {
		warnings = append(warnings, fmt.Sprintf("missing required parameters: %s", strings.Join(missing, ", ")))
	}
	// explicit conversion keeps the product rounded before the sum
	score += float64(weightParams * found)

	return types.ComplianceResult{Valid: len(warnings) == 0, Warnings: warnings, Completeness: score}
}

// pathMatches accepts the path with its {param} segments removed, the raw
// path, or the path with each {param} filled by any single segment.
func pathMatches(url, path string) bool {
	if strings.Contains(url, pathParam.ReplaceAllString(path, "")) || strings.Contains(url, path) {
		return true
	}
	locs := pathParam.FindAllStringIndex(path, -1)
	if len(locs) == 0 {
		return false
	}
	var expr strings.Builder
	last := 0
	for _, loc := range locs {
		expr.WriteString(regexp.QuoteMeta(path[last:loc[0]]))
		expr.WriteString(`[^/?#\s]+`)
		last = loc[1]
	}
	expr.WriteString(regexp.QuoteMeta(path[last:]))
	re, err := regexp.Compile(expr.String())
	return err == nil && re.MatchString(url)
}

func hasHeader(headers []string, prefix string) bool {
	for _, h := range headers {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), prefix) {
			return true
		}
	}
	return false
}

// requiredParamCoverage returns the fraction of required parameters the
// command mentions by name, <NAME> or ${NAME}, and the names it does not.
func requiredParamCoverage(c Components, chunk types.EndpointChunk) (float64, []string) {
	required := chunk.RequiredParameters()
	if len(required) == 0 {
		return 1.0, nil
	}

	combined := c.URL + " " + strings.Join(c.Headers, " ") + " " + c.Body
	var missing []string
	for _, name := range required {
		upper := strings.ToUpper(name)
		if strings.Contains(combined, name) ||
			strings.Contains(combined, "<"+upper+">") ||
			strings.Contains(combined, "${"+upper+"}") {
			continue
		}
		missing = append(missing, name)
	}
	return float64(len(required)-len(missing)) / float64(len(required)), missing
}
