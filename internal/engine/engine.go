package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"meeting-roles-go/internal/evidence"
	"meeting-roles-go/internal/heuristic"
	"meeting-roles-go/internal/logger"
	"meeting-roles-go/internal/oracle"
	"meeting-roles-go/internal/types"
)

const (
	defaultPassTimeout   = 30 * time.Second
	defaultPollInterval  = time.Second
	defaultMinUtterances = 2
)

// SummaryRefresher is the optional rolling-summary collaborator. Refresh is
// called after every completed classification pass with the transcript so
// far; implementations keep their previous summary on failure.
type SummaryRefresher interface {
	Refresh(ctx context.Context, transcript []string) error
	Current() types.MeetingSummary
}

// Engine is the single source of truth for what we currently believe about
// each speaker's role in one session. Ingestion goes through RecordUtterance
// and never blocks on the oracle; classification passes run on the
// background analysis loop (or synchronously via RequestClassificationNow)
// and are serialized so at most one oracle call is ever in flight.
type Engine struct {
	sessionID string
	complete  oracle.CompletionFunc
	summary   SummaryRefresher
	log       *logrus.Entry

	store *evidence.Store

	mu         sync.Mutex
	beliefs    map[string]types.RoleClassification // replaced wholesale per pass
	watermarks map[string]int                      // counts at last pass, per speaker
	transcript []types.Utterance
	sequence   int
	inProgress bool
	loop       *analysisLoop

	passTimeout  time.Duration
	pollInterval time.Duration
}

// Option customizes the engine.
type Option func(*Engine)

// WithSummarizer attaches a rolling-summary collaborator.
func WithSummarizer(s SummaryRefresher) Option {
	return func(e *Engine) { e.summary = s }
}

// WithPassTimeout bounds the oracle call made by one classification pass.
func WithPassTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.passTimeout = d
		}
	}
}

// WithPollInterval overrides the background loop's polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// New constructs an engine for one session. The completion function is the
// injected classifier oracle; it is treated as opaque and non-deterministic.
func New(complete oracle.CompletionFunc, opts ...Option) *Engine {
	sessionID := uuid.New().String()
	e := &Engine{
		sessionID:    sessionID,
		complete:     complete,
		log:          logger.Component("engine").WithField("session_id", sessionID),
		store:        evidence.NewStore(),
		beliefs:      make(map[string]types.RoleClassification),
		watermarks:   make(map[string]int),
		passTimeout:  defaultPassTimeout,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SessionID returns the identifier assigned to this session.
func (e *Engine) SessionID() string { return e.sessionID }

// RecordUtterance appends one diarized utterance to the evidence store. This
// is the ingestion hot path: it returns immediately and never invokes the
// oracle. An empty speaker ID is an ingestion bug and is reported; empty
// text is ignorable.
func (e *Engine) RecordUtterance(speakerID, text string) error {
	if strings.TrimSpace(speakerID) == "" {
		return fmt.Errorf("record utterance: empty speaker id")
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	isFirst := e.store.Append(speakerID, text)

	e.mu.Lock()
	e.sequence++
	e.transcript = append(e.transcript, types.Utterance{
		SpeakerID: speakerID,
		Text:      text,
		Sequence:  e.sequence,
		Timestamp: time.Now(),
	})
	loop := e.loop
	_, considered := e.watermarks[speakerID]
	e.mu.Unlock()

	if isFirst {
		e.log.WithField("speaker_id", speakerID).Info("new speaker detected")
	}

	// Eager trigger: a speaker reaching the minimum threshold for the first
	// time should not wait out a full poll interval.
	if loop != nil && !considered && e.store.UtteranceCount(speakerID) == loop.minUtterances {
		loop.nudgeNow()
	}
	return nil
}

// RequestClassificationNow synchronously performs one classification pass
// over all speakers with recorded evidence. Returns false when the pass was
// skipped: no evidence yet, or another pass is already in flight.
func (e *Engine) RequestClassificationNow(ctx context.Context) bool {
	e.mu.Lock()
	if e.inProgress {
		e.mu.Unlock()
		e.log.Debug("classification pass already in flight; skipping")
		return false
	}
	e.inProgress = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.inProgress = false
		e.mu.Unlock()
	}()
	return e.runPass(ctx)
}

// runPass does the actual classify/parse/fallback/merge work. Caller holds
// the in-progress guard; no lock is held across the oracle call.
func (e *Engine) runPass(ctx context.Context) bool {
	all := e.store.SnapshotAll()
	if len(all) == 0 {
		e.log.Debug("no evidence recorded yet; nothing to classify")
		return false
	}
	counts := make(map[string]int, len(all))
	for id, texts := range all {
		counts[id] = len(texts)
	}

	results := e.classifyEvidence(ctx, all)

	// Merge per speaker: oracle result wins, then the prior belief, then the
	// keyword fallback. Built as a fresh map and published wholesale so
	// readers never observe a half-updated pass.
	merged := make(map[string]types.RoleClassification, len(all))

	e.mu.Lock()
	for id := range all {
		if rc, ok := results[id]; ok {
			merged[id] = rc
			continue
		}
		if prior, ok := e.beliefs[id]; ok {
			merged[id] = prior
			continue
		}
		merged[id] = heuristic.Classify(id, all[id])
	}
	e.beliefs = merged
	for id, c := range counts {
		e.watermarks[id] = c
	}
	transcript := e.transcriptLinesLocked()
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"speakers":       len(merged),
		"oracle_results": len(results),
	}).Info("classification pass complete")

	if e.summary != nil {
		if err := e.summary.Refresh(ctx, transcript); err != nil {
			e.log.WithError(err).Warn("summary refresh failed; keeping previous summary")
		}
	}
	return true
}

// classifyEvidence invokes the oracle and parses its answer. A nil result
// means the pass gets no usable oracle output and falls back per speaker.
func (e *Engine) classifyEvidence(ctx context.Context, all map[string][]string) map[string]types.RoleClassification {
	system, user := oracle.BuildClassificationPrompt(all)

	callCtx, cancel := context.WithTimeout(ctx, e.passTimeout)
	defer cancel()

	raw, err := e.complete(callCtx, system, user)
	if err != nil {
		e.log.WithError(err).Warn("oracle call failed; using keyword fallback for this pass")
		return nil
	}
	results, err := oracle.ParseClassification(raw)
	if err != nil {
		e.log.WithError(err).WithField("raw_response", raw).
			Warn("unparsable oracle response; using keyword fallback for this pass")
		return nil
	}
	return results
}

// BeliefState returns a snapshot of the latest classification per speaker.
// Safe to call concurrently with ingestion and in-flight passes; the
// returned map always reflects one complete pass.
func (e *Engine) BeliefState() map[string]types.RoleClassification {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]types.RoleClassification, len(e.beliefs))
	for id, rc := range e.beliefs {
		out[id] = rc
	}
	return out
}

// UtteranceCount reports how many utterances have been recorded for a
// speaker, zero for unknown speakers.
func (e *Engine) UtteranceCount(speakerID string) int {
	return e.store.UtteranceCount(speakerID)
}

// SpeakerIDs returns every speaker with recorded evidence.
func (e *Engine) SpeakerIDs() []string {
	return e.store.SpeakerIDs()
}

// Summary returns the latest rolling summary, empty when no summarizer is
// attached or no refresh has succeeded yet.
func (e *Engine) Summary() types.MeetingSummary {
	if e.summary == nil {
		return types.MeetingSummary{}
	}
	return e.summary.Current()
}

// Finalize runs one last synchronous classification pass and assembles the
// session result. Speakers that never converged are reported as unknown
// rather than dropped.
func (e *Engine) Finalize(ctx context.Context) types.SessionResult {
	e.RequestClassificationNow(ctx)

	beliefs := e.BeliefState()
	counts := e.store.Counts()

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	speakers := make([]types.SpeakerResult, 0, len(ids))
	for _, id := range ids {
		rc, ok := beliefs[id]
		if !ok {
			rc = types.RoleClassification{SpeakerID: id, Role: types.RoleUnknown}
		}
		speakers = append(speakers, types.SpeakerResult{
			ID:             id,
			Role:           rc.Role,
			Confidence:     rc.Confidence,
			Rationale:      rc.Rationale,
			UtteranceCount: counts[id],
		})
	}

	e.mu.Lock()
	transcript := e.transcriptLinesLocked()
	e.mu.Unlock()

	return types.SessionResult{
		SessionID:  e.sessionID,
		Speakers:   speakers,
		Transcript: transcript,
		Summary:    e.Summary(),
	}
}

func (e *Engine) transcriptLinesLocked() []string {
	lines := make([]string, 0, len(e.transcript))
	for _, u := range e.transcript {
		lines = append(lines, fmt.Sprintf("[%s] Speaker %s: %s",
			u.Timestamp.Format("15:04:05"), u.SpeakerID, u.Text))
	}
	return lines
}
