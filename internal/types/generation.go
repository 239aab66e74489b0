package types

// Confidence levels.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// CurlCommand is the structured form of a generated command.
type CurlCommand struct {
	Command           string            `json:"command"`
	Explanation       string            `json:"explanation"`
	RequiredParams    []string          `json:"required_params"`
	OptionalParams    []string          `json:"optional_params"`
	ExpectedResponses map[string]string `json:"expected_responses"`
}

// GenerationRequest carries the rendered prompts for one generation call.
type GenerationRequest struct {
	Query        string          `json:"query"`
	Chunks       []EndpointChunk `json:"chunks"`
	SystemPrompt string          `json:"system_prompt"`
	UserPrompt   string          `json:"user_prompt"`
}

// GenerationResponse is the parsed model reply.
type GenerationResponse struct {
	Curl           CurlCommand `json:"curl_command"`
	SourceEndpoint string      `json:"source_endpoint"`
	Confidence     string      `json:"confidence"`
	Warnings       []string    `json:"warnings"`
	// MissingInfo is set when the model refused for lack of information.
	MissingInfo string `json:"missing_info,omitempty"`
}

// Refused reports whether the reply was an insufficient-information refusal.
func (g GenerationResponse) Refused() bool {
	return g.MissingInfo != ""
}
