package voice

import (
	"strings"

	"github.com/praxishealth/praxis-api/internal/model"
)

// Actions resolvable from a spoken utterance.
const (
	ActionStartDictation = "start_dictation"
	ActionStopDictation  = "stop_dictation"
	ActionNextPatient    = "next_patient"
	ActionOpenChart      = "open_chart"
	ActionNewNote        = "new_note"
	ActionSignNote       = "sign_note"
	ActionShowSchedule   = "show_schedule"
	ActionCallNext       = "call_next"
)

type command struct {
	action  string
	phrases []string
}

// commandTable maps each action to the phrasings clinicians actually use.
// Exact variants first, a fuzzy pass covers small transcription slips.
var commandTable = []command{
	{ActionStartDictation, []string{"start dictation", "begin dictation", "start recording", "take a note"}},
	{ActionStopDictation, []string{"stop dictation", "end dictation", "stop recording"}},
	{ActionNextPatient, []string{"next patient", "bring in the next patient", "who is next"}},
	{ActionOpenChart, []string{"open chart", "show chart", "open patient chart", "pull up the chart"}},
	{ActionNewNote, []string{"new note", "create note", "start a new note"}},
	{ActionSignNote, []string{"sign note", "sign the note", "finalize note"}},
	{ActionShowSchedule, []string{"show schedule", "show my schedule", "what is my schedule", "today's appointments"}},
	{ActionCallNext, []string{"call next", "call the next patient"}},
}

// fuzzyThreshold is the maximum normalized edit distance still treated as
// a match.
const fuzzyThreshold = 0.25

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Match resolves an utterance to an action. Exact phrase matches win, then
// substring containment, then fuzzy edit distance against each phrase.
func (s *Service) Match(req *model.VoiceCommandRequest) *model.VoiceCommandMatch {
	utterance := normalize(req.Utterance)
	if utterance == "" {
		return &model.VoiceCommandMatch{Matched: false}
	}

	for _, cmd := range commandTable {
		for _, phrase := range cmd.phrases {
			if utterance == phrase {
				return &model.VoiceCommandMatch{
					Action:     cmd.action,
					Confidence: 1.0,
					Matched:    true,
				}
			}
		}
	}

	for _, cmd := range commandTable {
		for _, phrase := range cmd.phrases {
			if strings.Contains(utterance, phrase) {
				return &model.VoiceCommandMatch{
					Action:     cmd.action,
					Parameters: extractParams(utterance, phrase),
					Confidence: 0.9,
					Matched:    true,
				}
			}
		}
	}

	bestAction := ""
	bestScore := 0.0
	for _, cmd := range commandTable {
		for _, phrase := range cmd.phrases {
			dist := levenshtein(utterance, phrase)
			maxLen := len(utterance)
			if len(phrase) > maxLen {
				maxLen = len(phrase)
			}
			normalized := float64(dist) / float64(maxLen)
			if normalized <= fuzzyThreshold {
				score := 1 - normalized
				if score > bestScore {
					bestScore = score
					bestAction = cmd.action
				}
			}
		}
	}
	if bestAction != "" {
		return &model.VoiceCommandMatch{
			Action:     bestAction,
			Confidence: bestScore,
			Matched:    true,
		}
	}

	return &model.VoiceCommandMatch{Matched: false}
}

// extractParams pulls the qualifier after a matched phrase, so
// "open chart for sarah jones" yields query "sarah jones".
func extractParams(utterance, phrase string) map[string]string {
	idx := strings.Index(utterance, phrase)
	rest := strings.TrimSpace(utterance[idx+len(phrase):])
	for _, lead := range []string{"for ", "of ", "on "} {
		if strings.HasPrefix(rest, lead) {
			rest = strings.TrimSpace(strings.TrimPrefix(rest, lead))
			break
		}
	}
	if rest == "" {
		return nil
	}
	return map[string]string{"query": rest}
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
