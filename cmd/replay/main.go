package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"meeting-roles-go/internal/engine"
	"meeting-roles-go/internal/logger"
	"meeting-roles-go/internal/oracle"
	"meeting-roles-go/internal/replay"
	"meeting-roles-go/internal/summarizer"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dataset       string
		minUtterances int
		pollInterval  time.Duration
		speed         float64
		mock          bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded utterance dataset through the role attribution engine",
		Long: "Reads diarized utterances from an xlsx dataset and feeds them through the " +
			"incremental role attribution engine, honoring inter-utterance timing, then " +
			"prints the finalized session result as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), dataset, minUtterances, pollInterval, speed, mock)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "path to the xlsx utterance dataset (required)")
	cmd.Flags().IntVar(&minUtterances, "min-utterances", 2, "evidence threshold per speaker before analysis triggers")
	cmd.Flags().DurationVar(&pollInterval, "interval", time.Second, "background analysis poll interval")
	cmd.Flags().Float64Var(&speed, "speed", 10, "replay speed factor (10 = ten times faster than recorded)")
	cmd.Flags().BoolVar(&mock, "mock", false, "use the deterministic offline oracle instead of the LLM")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func run(ctx context.Context, dataset string, minUtterances int, pollInterval time.Duration, speed float64, mock bool) error {
	log := logger.Component("replay").WithField("dataset", dataset)

	var complete oracle.CompletionFunc
	if mock {
		complete = oracle.MockCompletion()
	} else {
		var err error
		complete, err = oracle.NewCompletion(oracle.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("configure oracle: %w", err)
		}
	}

	utterances, err := replay.Load(dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	sum := summarizer.New(complete)
	eng := engine.New(complete,
		engine.WithSummarizer(sum),
		engine.WithPollInterval(pollInterval))
	if err := eng.StartBackgroundAnalysis(minUtterances); err != nil {
		return err
	}
	log.WithField("session_id", eng.SessionID()).
		WithField("utterances", len(utterances)).Info("replay starting")

	if speed <= 0 {
		speed = 1
	}
	var prev time.Time
	for i, u := range utterances {
		if i > 0 {
			if gap := u.Timestamp.Sub(prev); gap > 0 {
				time.Sleep(time.Duration(float64(gap) / speed))
			}
		}
		prev = u.Timestamp
		if err := eng.RecordUtterance(u.SpeakerID, u.Text); err != nil {
			log.WithError(err).WithField("row", u.Sequence).Warn("utterance rejected")
		}
	}

	eng.StopBackgroundAnalysis()
	result := eng.Finalize(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
