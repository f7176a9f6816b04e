package model

// VoiceCommandRequest carries a transcribed utterance for matching.
type VoiceCommandRequest struct {
	Utterance string `json:"utterance" binding:"required"`
}

// VoiceCommandMatch is the resolved action for an utterance.
type VoiceCommandMatch struct {
	Action     string            `json:"action"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Confidence float64           `json:"confidence"`
	Matched    bool              `json:"matched"`
}
