package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-roles-go/internal/types"
)

func TestClassifyAdvisorOnTerminology(t *testing.T) {
	rc := Classify("A", []string{
		"Let's review your portfolio allocation",
		"I recommend increasing your bond exposure",
	})

	assert.Equal(t, types.RoleAdvisor, rc.Role)
	assert.Equal(t, 0.7, rc.Confidence)
	assert.Equal(t, "matched financial-advisory terminology", rc.Rationale)
	assert.Equal(t, "A", rc.SpeakerID)
}

func TestClassifyClientOnFewMatches(t *testing.T) {
	rc := Classify("B", []string{"What's our current risk level?"})

	assert.Equal(t, types.RoleClient, rc.Role)
	assert.Equal(t, 0.6, rc.Confidence)
	assert.Equal(t, "insufficient terminology matches", rc.Rationale)
}

func TestClassifyCountsDistinctTermsOnly(t *testing.T) {
	// The same term repeated across utterances counts once.
	rc := Classify("C", []string{"risk risk risk", "more risk talk", "risk again"})

	assert.Equal(t, types.RoleClient, rc.Role)
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	rc := Classify("D", []string{"PORTFOLIO Strategy review"})

	assert.Equal(t, types.RoleAdvisor, rc.Role)
}

func TestClassifyDeterministic(t *testing.T) {
	utterances := []string{
		"we should diversify across markets",
		"equities carry more risk",
	}
	first := Classify("E", utterances)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify("E", utterances))
	}
}

func TestClassifyNeverEmpty(t *testing.T) {
	// Degenerate inputs still produce exactly one classification.
	for _, utterances := range [][]string{nil, {}, {""}, {"..."}} {
		rc := Classify("X", utterances)
		assert.NotEmpty(t, rc.Role)
		assert.Greater(t, rc.Confidence, 0.0)
	}
}

func TestClassifyAllCoversEverySpeaker(t *testing.T) {
	evidence := map[string][]string{
		"A": {"I recommend a balanced portfolio strategy"},
		"B": {"sounds good"},
		"C": nil,
	}
	out := ClassifyAll(evidence)

	require.Len(t, out, 3)
	for id := range evidence {
		assert.Contains(t, out, id)
		assert.Equal(t, id, out[id].SpeakerID)
	}
}
