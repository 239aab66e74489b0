package types

// ValidationResult is the outcome of a syntactic command check.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ComplianceResult is the outcome of checking a command against one endpoint.
type ComplianceResult struct {
	Valid        bool     `json:"valid"`
	Warnings     []string `json:"warnings"`
	Completeness float64  `json:"completeness"`
}

// ConfidenceScore combines retrieval, completeness and validation into one level.
type ConfidenceScore struct {
	Similarity       float64 `json:"similarity"`
	SpecCompleteness float64 `json:"spec_completeness"`
	ValidationPassed bool    `json:"validation_passed"`
	Overall          float64 `json:"overall"`
	Level            string  `json:"level"`
}

// CalculateConfidence applies the 0.4/0.3/0.3 weighting.
func CalculateConfidence(similarity, completeness float64, validationPassed bool) ConfidenceScore {
	validation := 0.0
	if validationPassed {
		validation = 1.0
	}
	// explicit conversions keep each product rounded so results do not depend on FMA
	overall := float64(similarity*0.4) + float64(completeness*0.3) + float64(validation*0.3)

	return ConfidenceScore{
		Similarity:       similarity,
		SpecCompleteness: completeness,
		ValidationPassed: validationPassed,
		Overall:          overall,
		Level:            LevelFor(overall),
	}
}

// LevelFor classifies an overall score. Boundaries fall to the lower tier.
func LevelFor(overall float64) string {
	switch {
	case overall > 0.8:
		return ConfidenceHigh
	case overall > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
