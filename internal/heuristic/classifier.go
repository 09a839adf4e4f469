package heuristic

import (
	"strings"

	"meeting-roles-go/internal/types"
)

// advisorTerms is the fixed vocabulary of advisory-side terminology. A
// speaker matching enough distinct terms is assumed to be the one doing
// the advising.
var advisorTerms = []string{
	"portfolio", "investment", "asset", "fund", "stock", "bond",
	"return", "risk", "market", "recommend", "strategy",
	"allocation", "diversif",
}

const (
	advisorThreshold  = 2
	advisorConfidence = 0.7
	clientConfidence  = 0.6
)

// Classify scores one speaker's utterances against the advisory vocabulary.
// It is deterministic, offline, and never fails; its job is to keep role
// attribution moving when the LLM is unreachable or unparsable, not to be
// accurate.
func Classify(speakerID string, utterances []string) types.RoleClassification {
	matched := map[string]struct{}{}
	for _, text := range utterances {
		lower := strings.ToLower(text)
		for _, term := range advisorTerms {
			if strings.Contains(lower, term) {
				matched[term] = struct{}{}
			}
		}
	}
	if len(matched) >= advisorThreshold {
		return types.RoleClassification{
			SpeakerID:  speakerID,
			Role:       types.RoleAdvisor,
			Confidence: advisorConfidence,
			Rationale:  "matched financial-advisory terminology",
		}
	}
	return types.RoleClassification{
		SpeakerID:  speakerID,
		Role:       types.RoleClient,
		Confidence: clientConfidence,
		Rationale:  "insufficient terminology matches",
	}
}

// ClassifyAll runs the keyword classifier over every speaker in the
// evidence map. Always returns one classification per input speaker.
func ClassifyAll(evidence map[string][]string) map[string]types.RoleClassification {
	out := make(map[string]types.RoleClassification, len(evidence))
	for id, texts := range evidence {
		out[id] = Classify(id, texts)
	}
	return out
}
