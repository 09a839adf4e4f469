package oracle

import (
	"fmt"
	"sort"
	"strings"
)

// classificationSystemPrompt instructs the model to assign advisor/client
// roles and answer with a strict JSON object keyed by speaker ID.
const classificationSystemPrompt = `You are an AI assistant that analyzes financial advisory meeting transcripts.
Your task is to determine which speakers are financial advisors and which are clients.

Financial advisors typically:
- Use professional financial terminology
- Provide advice and recommendations
- Explain investment concepts and strategies
- Ask discovery questions to understand client needs
- Present options and strategies

Clients typically:
- Ask questions about investments
- Express concerns, goals, or constraints
- Share personal financial information
- React to advisor recommendations

Analyze the provided utterances and determine the role of each speaker.
Return ONLY a JSON object with the following structure, no commentary and
no markdown fences:
{
  "roles": {"speaker_id": "advisor" or "client"},
  "confidence": {"speaker_id": confidence between 0.0 and 1.0},
  "reasoning": {"speaker_id": "Brief explanation of the classification"}
}`

// BuildClassificationPrompt serializes all evidence into a deterministic
// text representation: speakers in sorted ID order, utterances in arrival
// order. Full conversational context goes into one prompt so the model can
// infer roles relative to each other.
func BuildClassificationPrompt(evidence map[string][]string) (system, user string) {
	ids := make([]string, 0, len(evidence))
	for id := range evidence {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString("Here are the utterances from each speaker in a financial advisory meeting:\n\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "Speaker %s:\n", id)
		for _, text := range evidence[id] {
			fmt.Fprintf(&b, "- %q\n", text)
		}
		b.WriteString("\n")
	}
	b.WriteString("Analyze these utterances and determine which speakers are financial advisors and which are clients.")
	return classificationSystemPrompt, b.String()
}
