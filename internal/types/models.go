package types

import "time"

// Role is the conversational function of a speaker in a two-sided
// advisory dialogue.
type Role string

const (
	RoleAdvisor Role = "advisor"
	RoleClient  Role = "client"
	RoleUnknown Role = "unknown"
)

// Utterance is one recognized span of speech, tied to a session-local
// speaker ID. Immutable once created.
type Utterance struct {
	SpeakerID string    `json:"speaker_id"`
	Text      string    `json:"text"`
	Sequence  int       `json:"sequence_number"`
	Timestamp time.Time `json:"timestamp"`
}

// RoleClassification is the latest belief about one speaker's role.
// Each analysis pass replaces it wholesale; there is no history.
type RoleClassification struct {
	SpeakerID  string  `json:"speaker_id"`
	Role       Role    `json:"role"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// MeetingSummary is the rolling structured summary extracted from the
// conversation so far. Missing fields stay empty.
type MeetingSummary struct {
	ClientName   string   `json:"client_name,omitempty"`
	MeetingDate  string   `json:"meeting_date,omitempty"`
	KeyPoints    string   `json:"key_points,omitempty"`
	ActionItems  []string `json:"action_items,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// SpeakerResult is the per-speaker slice of a finalized session.
type SpeakerResult struct {
	ID             string  `json:"id"`
	Role           Role    `json:"role"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale"`
	UtteranceCount int     `json:"utterance_count"`
}

// SessionResult aggregates everything known at session end.
type SessionResult struct {
	SessionID  string          `json:"session_id"`
	Speakers   []SpeakerResult `json:"speakers"`
	Transcript []string        `json:"transcript"`
	Summary    MeetingSummary  `json:"summary"`
}
