package evidence

import "sync"

// Store holds the per-speaker utterance texts collected during one session.
// Sequences are append-only and keep arrival order; a single mutex covers
// append and snapshot so classification always reads a non-torn view. The
// lock is never held across external calls.
type Store struct {
	mu         sync.Mutex
	utterances map[string][]string
}

func NewStore() *Store {
	return &Store{utterances: make(map[string][]string)}
}

// Append records one utterance text for a speaker and reports whether this
// is the first utterance seen for that speaker. Empty text is ignorable and
// mutates nothing.
func (s *Store) Append(speakerID, text string) bool {
	if text == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, known := s.utterances[speakerID]
	s.utterances[speakerID] = append(s.utterances[speakerID], text)
	return !known
}

// UtteranceCount returns the number of utterances recorded for a speaker,
// zero for unknown speakers.
func (s *Store) UtteranceCount(speakerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.utterances[speakerID])
}

// Counts returns the utterance count for every known speaker.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int, len(s.utterances))
	for id, texts := range s.utterances {
		counts[id] = len(texts)
	}
	return counts
}

// Snapshot returns a copy of one speaker's utterances in arrival order.
// Callers may mutate the returned slice freely.
func (s *Store) Snapshot(speakerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := s.utterances[speakerID]
	if texts == nil {
		return nil
	}
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}

// SnapshotAll returns a copy of all evidence keyed by speaker ID.
func (s *Store) SnapshotAll() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.utterances))
	for id, texts := range s.utterances {
		cp := make([]string, len(texts))
		copy(cp, texts)
		out[id] = cp
	}
	return out
}

// SpeakerIDs returns the IDs of all speakers with recorded evidence.
func (s *Store) SpeakerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.utterances))
	for id := range s.utterances {
		ids = append(ids, id)
	}
	return ids
}
