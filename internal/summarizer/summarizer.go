package summarizer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"meeting-roles-go/internal/logger"
	"meeting-roles-go/internal/oracle"
	"meeting-roles-go/internal/types"
)

const defaultRefreshTimeout = 30 * time.Second

const summarySystemPrompt = `Extract these fields from the meeting transcript as JSON:
- client_name: The name of the client or organization mentioned
- meeting_date: The date of the meeting in YYYY-MM-DD format
- key_points: A summary of the main points discussed
- action_items: A list of action items or next steps mentioned
- participants: Names of participants mentioned in the meeting

Set missing fields to null. Return ONLY valid JSON, no commentary and no
markdown fences.`

// Summarizer maintains the rolling structured summary of one session. Each
// refresh is a fresh holistic extraction over the full transcript; a failed
// refresh keeps the previous summary so readers always see the last good
// one.
type Summarizer struct {
	complete oracle.CompletionFunc
	log      *logrus.Entry
	timeout  time.Duration

	mu      sync.Mutex
	current types.MeetingSummary
}

func New(complete oracle.CompletionFunc) *Summarizer {
	return &Summarizer{
		complete: complete,
		log:      logger.Component("summarizer"),
		timeout:  defaultRefreshTimeout,
	}
}

// Refresh re-extracts the structured summary from the transcript so far and
// replaces the held summary atomically. On any failure the previous summary
// is kept and the error reported.
func (s *Summarizer) Refresh(ctx context.Context, transcript []string) error {
	if len(transcript) == 0 {
		return nil
	}

	user := fmt.Sprintf("Meeting transcript so far:\n\n%s", strings.Join(transcript, "\n"))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.complete(callCtx, summarySystemPrompt, user)
	if err != nil {
		return fmt.Errorf("summary completion: %w", err)
	}

	payload := oracle.ExtractJSON(raw)
	if payload == "" {
		s.log.WithField("raw_response", raw).Warn("no JSON in summary response")
		return fmt.Errorf("no JSON object in summary response")
	}
	var sum types.MeetingSummary
	if err := oracle.UnmarshalRepaired([]byte(payload), &sum); err != nil {
		s.log.WithError(err).WithField("raw_response", raw).Warn("unparsable summary response")
		return fmt.Errorf("decode summary: %w", err)
	}

	s.mu.Lock()
	s.current = sum
	s.mu.Unlock()
	s.log.WithField("key_points_len", len(sum.KeyPoints)).Debug("summary refreshed")
	return nil
}

// Current returns the latest successfully extracted summary.
func (s *Summarizer) Current() types.MeetingSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
