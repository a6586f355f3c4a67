package types

// GenerateRequest carries the user preferences for one generation call.
// Version and Implementation select the stored configuration to run against.
type GenerateRequest struct {
	Version           string   `json:"version,omitempty"`
	Themes            []string `json:"themes" validate:"required,min=1,dive,min=1"`
	AdditionalContext string   `json:"additionalContext,omitempty"`
	Implementation    string   `json:"implementation,omitempty"`
	Tone              string   `json:"tone,omitempty"`
	Challenges        []string `json:"challenges,omitempty"`
}

// GenerationResult is the typed outcome of one generation call.
// Affirmations holds the list for list/tagged experiments; Text holds the
// single block for text experiments. Exactly one of the two is populated.
type GenerationResult struct {
	Affirmations []string `json:"affirmations,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Text         string   `json:"text,omitempty"`
	Model        string   `json:"model"`
	Implementation string `json:"implementation"`
}
