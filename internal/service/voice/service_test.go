package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxishealth/praxis-api/internal/model"
)

func TestMatchExactPhrase(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "start dictation"})
	assert.True(t, match.Matched)
	assert.Equal(t, ActionStartDictation, match.Action)
	assert.Equal(t, 1.0, match.Confidence)
}

func TestMatchIsCaseAndPunctuationInsensitive(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "  Start Dictation.  "})
	assert.True(t, match.Matched)
	assert.Equal(t, ActionStartDictation, match.Action)
	assert.Equal(t, 1.0, match.Confidence)
}

func TestMatchContainedPhrase(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "please open chart for me"})
	assert.True(t, match.Matched)
	assert.Equal(t, ActionOpenChart, match.Action)
	assert.Equal(t, 0.9, match.Confidence)
}

func TestMatchExtractsQueryParameter(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "open chart for sarah jones"})
	assert.True(t, match.Matched)
	assert.Equal(t, ActionOpenChart, match.Action)
	assert.Equal(t, "sarah jones", match.Parameters["query"])

	// Exact phrase carries no parameters
	exact := svc.Match(&model.VoiceCommandRequest{Utterance: "open chart"})
	assert.Nil(t, exact.Parameters)
}

func TestMatchFuzzyTranscriptionSlip(t *testing.T) {
	svc := NewService()

	// "dictation" transcribed with one wrong letter
	match := svc.Match(&model.VoiceCommandRequest{Utterance: "start dictition"})
	assert.True(t, match.Matched)
	assert.Equal(t, ActionStartDictation, match.Action)
	assert.Less(t, match.Confidence, 1.0)
}

func TestMatchUnknownUtterance(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "order a pizza"})
	assert.False(t, match.Matched)
	assert.Empty(t, match.Action)
}

func TestMatchEmptyUtterance(t *testing.T) {
	svc := NewService()

	match := svc.Match(&model.VoiceCommandRequest{Utterance: "   "})
	assert.False(t, match.Matched)
}

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("note", "note"))
	assert.Equal(t, 1, levenshtein("note", "notes"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, 4, levenshtein("", "sign"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "next patient", normalize("  Next   Patient! "))
}
