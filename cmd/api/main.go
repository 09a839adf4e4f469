package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"meeting-roles-go/internal/engine"
	"meeting-roles-go/internal/logger"
	"meeting-roles-go/internal/oracle"
	"meeting-roles-go/internal/summarizer"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "meeting-roles-go").Info("starting service")

	complete, err := oracle.NewCompletion(oracle.ConfigFromEnv())
	if err != nil {
		log.WithError(err).Fatal("failed to configure classifier oracle")
	}

	minUtterances := envInt("MIN_UTTERANCES", 2)
	sum := summarizer.New(complete)
	eng := engine.New(complete, engine.WithSummarizer(sum))
	if err := eng.StartBackgroundAnalysis(minUtterances); err != nil {
		log.WithError(err).Fatal("failed to start background analysis")
	}
	defer eng.StopBackgroundAnalysis()
	log.WithField("session_id", eng.SessionID()).
		WithField("min_utterances", minUtterances).Info("engine ready")

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	// ingestion: one diarized utterance per call, posted by the
	// transcription producer
	mux.HandleFunc("POST /utterances", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "utterances")

		var in struct {
			SpeakerID string `json:"speaker_id"`
			Text      string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			reqLog.WithError(err).Warn("bad utterance payload")
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := eng.RecordUtterance(in.SpeakerID, in.Text); err != nil {
			reqLog.WithError(err).Warn("utterance rejected")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	// query: current belief state
	mux.HandleFunc("GET /roles", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, eng.BeliefState())
	})

	// query: rolling structured summary
	mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, eng.Summary())
	})

	// control: on-demand classification pass
	mux.HandleFunc("POST /classify", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "classify")
		start := time.Now()
		ran := eng.RequestClassificationNow(r.Context())
		reqLog.WithField("ran", ran).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("classification requested")
		writeJSON(w, map[string]bool{"ran": ran})
	})

	// control: final pass + assembled session result
	mux.HandleFunc("POST /finalize", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "finalize")
		reqLog.Info("finalizing session")
		writeJSON(w, eng.Finalize(r.Context()))
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
