package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"meeting-roles-go/internal/types"
)

// ExtractJSON finds the first balanced JSON object in a string and returns
// it. Common markdown fences are stripped first, since models wrap payloads
// in them despite instructions.
func ExtractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				// Best effort: return the candidate even if it does not
				// decode cleanly, so the repair step gets a chance.
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	// No balanced block; hand the tail to the repair step.
	return strings.TrimSpace(s[start:])
}

// UnmarshalRepaired decodes JSON into v, attempting to repair malformed
// payloads with jsonrepair before retrying.
func UnmarshalRepaired(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// ParseClassification turns raw completion text into usable per-speaker
// classifications. Two response shapes are accepted and normalized
// deterministically:
//
//	{"roles": {"A": "advisor"}, "confidence": {"A": 0.9}, "reasoning": {"A": "..."}}
//	{"A": {"role": "advisor", "confidence": 0.9, "rationale": "..."}}
//
// Speakers whose role cannot be folded into the known enum are omitted from
// the result; callers fall back per speaker. An error means nothing in the
// response was usable.
func ParseClassification(raw string) (map[string]types.RoleClassification, error) {
	payload := ExtractJSON(raw)
	if payload == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var obj map[string]any
	if err := UnmarshalRepaired([]byte(payload), &obj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var out map[string]types.RoleClassification
	if roles, ok := obj["roles"].(map[string]any); ok {
		out = normalizeTripleMap(roles, obj)
	} else {
		out = normalizePerSpeaker(obj)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no usable speaker classifications in response")
	}
	return out, nil
}

func normalizeTripleMap(roles map[string]any, obj map[string]any) map[string]types.RoleClassification {
	confidences, _ := obj["confidence"].(map[string]any)
	reasonings, _ := obj["reasoning"].(map[string]any)
	if reasonings == nil {
		reasonings, _ = obj["rationale"].(map[string]any)
	}

	out := make(map[string]types.RoleClassification, len(roles))
	for id, v := range roles {
		roleStr, _ := v.(string)
		role, ok := foldRole(roleStr)
		if !ok {
			continue
		}
		out[id] = types.RoleClassification{
			SpeakerID:  id,
			Role:       role,
			Confidence: foldConfidence(confidences[id]),
			Rationale:  foldRationale(reasonings[id]),
		}
	}
	return out
}

func normalizePerSpeaker(obj map[string]any) map[string]types.RoleClassification {
	out := make(map[string]types.RoleClassification, len(obj))
	for id, v := range obj {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		roleStr, _ := entry["role"].(string)
		role, ok := foldRole(roleStr)
		if !ok {
			continue
		}
		rationale := entry["rationale"]
		if rationale == nil {
			rationale = entry["reasoning"]
		}
		out[id] = types.RoleClassification{
			SpeakerID:  id,
			Role:       role,
			Confidence: foldConfidence(entry["confidence"]),
			Rationale:  foldRationale(rationale),
		}
	}
	return out
}

func foldRole(s string) (types.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "advisor", "adviser", "financial advisor":
		return types.RoleAdvisor, true
	case "client", "customer":
		return types.RoleClient, true
	case "unknown":
		return types.RoleUnknown, true
	default:
		return types.RoleUnknown, false
	}
}

// foldConfidence accepts numbers or numeric strings and clamps to [0,1].
func foldConfidence(v any) float64 {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		c, _ = strconv.ParseFloat(strings.TrimSpace(t), 64)
	case json.Number:
		c, _ = t.Float64()
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// foldRationale accepts a string or a list of strings; lists are joined so
// the field stays a single sentence-like value.
func foldRationale(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if s, ok := p.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
