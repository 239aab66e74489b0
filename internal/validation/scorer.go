package validation

import (
	"fmt"

	"github.com/MereWhiplash/specrag/internal/types"
)

// Score combines retrieval similarity, spec completeness and both validation
// outcomes into a confidence score.
func Score(similarity, completeness float64, syntaxValid, specValid bool) types.ConfidenceScore {
	return types.CalculateConfidence(similarity, completeness, syntaxValid && specValid)
}

// Explain renders a score for people.
func Explain(s types.ConfidenceScore) string {
	passed := "no"
	if s.ValidationPassed {
		passed = "yes"
	}
	return fmt.Sprintf("Confidence: %s (%.2f)\n- Retrieval similarity: %.2f\n- Spec completeness: %.2f\n- Validation passed: %s",
		s.Level, s.Overall, s.Similarity, s.SpecCompleteness, passed)
}
