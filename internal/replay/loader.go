package replay

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"meeting-roles-go/internal/logger"
	"meeting-roles-go/internal/types"
)

// Load reads a recorded utterance dataset from an xlsx workbook. Columns
// are auto-detected by header heuristics: a speaker column, a text column,
// and an optional offset column with seconds from session start. Rows with
// no speaker or no text are skipped quietly.
func Load(path string) ([]types.Utterance, error) {
	log := logger.Component("replay.loader").WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	speakerIdx, textIdx, offsetIdx := -1, -1, -1
	for i, h := range rows[0] {
		n := strings.ToLower(strings.TrimSpace(h))
		switch {
		case speakerIdx == -1 && strings.Contains(n, "speaker"):
			speakerIdx = i
		case textIdx == -1 && (strings.Contains(n, "text") || strings.Contains(n, "utterance") || strings.Contains(n, "transcript")):
			textIdx = i
		case offsetIdx == -1 && (strings.Contains(n, "offset") || strings.Contains(n, "time")):
			offsetIdx = i
		}
	}
	if speakerIdx == -1 || textIdx == -1 {
		return nil, fmt.Errorf("could not detect speaker/text columns in header %v", rows[0])
	}
	log.WithField("speaker_idx", speakerIdx).WithField("text_idx", textIdx).
		WithField("offset_idx", offsetIdx).Info("detected dataset columns")

	base := time.Now()
	var out []types.Utterance
	for i, r := range rows {
		if i == 0 {
			continue
		}
		u := types.Utterance{Sequence: len(out) + 1, Timestamp: base}
		if speakerIdx < len(r) {
			u.SpeakerID = strings.TrimSpace(r[speakerIdx])
		}
		if textIdx < len(r) {
			u.Text = strings.TrimSpace(r[textIdx])
		}
		if offsetIdx >= 0 && offsetIdx < len(r) {
			if secs, err := strconv.ParseFloat(strings.TrimSpace(r[offsetIdx]), 64); err == nil {
				u.Timestamp = base.Add(time.Duration(secs * float64(time.Second)))
			}
		}
		if u.SpeakerID == "" || u.Text == "" {
			continue
		}
		out = append(out, u)
	}
	log.WithField("utterances", len(out)).Info("dataset loaded")
	return out, nil
}
