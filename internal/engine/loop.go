package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// analysisLoop is the long-lived worker that watches the evidence store and
// triggers classification passes. It owns no classification logic itself:
// every trigger funnels through RequestClassificationNow so passes stay
// serialized with on-demand ones.
type analysisLoop struct {
	engine        *Engine
	interval      time.Duration
	minUtterances int
	log           *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
	nudge  chan struct{}
}

// StartBackgroundAnalysis launches the analysis worker. minUtterances is the
// evidence threshold a speaker must reach before its growth can trigger a
// pass; values below 1 fall back to the default of 2.
func (e *Engine) StartBackgroundAnalysis(minUtterances int) error {
	if minUtterances <= 0 {
		minUtterances = defaultMinUtterances
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop != nil {
		return errors.New("background analysis already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &analysisLoop{
		engine:        e,
		interval:      e.pollInterval,
		minUtterances: minUtterances,
		log:           e.log.WithField("worker", "analysis-loop"),
		cancel:        cancel,
		nudge:         make(chan struct{}, 1),
	}
	e.loop = l

	l.wg.Add(1)
	go l.run(ctx)
	l.log.WithFields(logrus.Fields{
		"poll_interval":  l.interval.String(),
		"min_utterances": l.minUtterances,
	}).Info("background analysis started")
	return nil
}

// StopBackgroundAnalysis stops the worker and waits for it to exit. A pass
// already in flight is allowed to finish and merge its results; stop only
// means no new passes are started.
func (e *Engine) StopBackgroundAnalysis() {
	e.mu.Lock()
	l := e.loop
	e.loop = nil
	e.mu.Unlock()
	if l == nil {
		return
	}

	l.cancel()
	l.wg.Wait()
	l.log.Info("background analysis stopped")
}

func (l *analysisLoop) run(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-l.nudge:
		}
		l.scan(ctx)
	}
}

// scan compares utterance counts against the watermarks and triggers one
// whole-session pass when any qualifying speaker has net new evidence. The
// watermark comparison is the debounce: at most one pass per evidence
// growth event, not per tick.
func (l *analysisLoop) scan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !l.engine.evidenceGrew(l.minUtterances) {
		return
	}
	l.log.Debug("evidence growth detected; triggering classification pass")

	// The pass deliberately runs on a fresh context: a stop request lets
	// in-flight work finish and merge instead of aborting it.
	l.engine.RequestClassificationNow(context.Background())
}

// nudgeNow asks the loop to scan without waiting for the next tick.
// Non-blocking; a pending nudge is enough.
func (l *analysisLoop) nudgeNow() {
	select {
	case l.nudge <- struct{}{}:
	default:
	}
}

// evidenceGrew reports whether any speaker has crossed the minimum threshold
// with more utterances than at the last classification attempt.
func (e *Engine) evidenceGrew(minUtterances int) bool {
	counts := e.store.Counts()

	e.mu.Lock()
	defer e.mu.Unlock()
	for id, count := range counts {
		if count >= minUtterances && count > e.watermarks[id] {
			return true
		}
	}
	return false
}
