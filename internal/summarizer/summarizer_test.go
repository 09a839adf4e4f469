package summarizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transcript = []string{
	"[10:01:02] Speaker A: Good morning, this is Anna from Northwind Advisory.",
	"[10:01:10] Speaker B: Hi Anna, I'd like to go over my pension options.",
	"[10:02:30] Speaker A: Sure. Let's schedule a follow-up to review the fund choices.",
}

const summaryResponse = `{
	"client_name": "Northwind Advisory",
	"meeting_date": "2026-08-24",
	"key_points": "Reviewed pension options and fund choices",
	"action_items": ["Schedule follow-up meeting"],
	"participants": ["Anna"]
}`

func TestRefreshReplacesSummary(t *testing.T) {
	s := New(func(context.Context, string, string) (string, error) {
		return summaryResponse, nil
	})

	require.NoError(t, s.Refresh(context.Background(), transcript))

	sum := s.Current()
	assert.Equal(t, "Northwind Advisory", sum.ClientName)
	assert.Equal(t, "2026-08-24", sum.MeetingDate)
	assert.Equal(t, []string{"Schedule follow-up meeting"}, sum.ActionItems)
	assert.Equal(t, []string{"Anna"}, sum.Participants)
}

func TestRefreshToleratesFencedResponse(t *testing.T) {
	s := New(func(context.Context, string, string) (string, error) {
		return "Here you go:\n```json\n" + summaryResponse + "\n```", nil
	})

	require.NoError(t, s.Refresh(context.Background(), transcript))
	assert.Equal(t, "Reviewed pension options and fund choices", s.Current().KeyPoints)
}

func TestFailedRefreshKeepsPreviousSummary(t *testing.T) {
	var fail bool
	s := New(func(context.Context, string, string) (string, error) {
		if fail {
			return "", errors.New("oracle unavailable")
		}
		return summaryResponse, nil
	})

	require.NoError(t, s.Refresh(context.Background(), transcript))
	before := s.Current()

	fail = true
	assert.Error(t, s.Refresh(context.Background(), transcript))
	assert.Equal(t, before, s.Current())
}

func TestUnparsableRefreshKeepsPreviousSummary(t *testing.T) {
	responses := []string{summaryResponse, "no structured data here"}
	i := 0
	s := New(func(context.Context, string, string) (string, error) {
		r := responses[i]
		i++
		return r, nil
	})

	require.NoError(t, s.Refresh(context.Background(), transcript))
	before := s.Current()

	assert.Error(t, s.Refresh(context.Background(), transcript))
	assert.Equal(t, before, s.Current())
}

func TestRefreshEmptyTranscriptIsNoOp(t *testing.T) {
	called := false
	s := New(func(context.Context, string, string) (string, error) {
		called = true
		return summaryResponse, nil
	})

	require.NoError(t, s.Refresh(context.Background(), nil))
	assert.False(t, called)
	assert.Empty(t, s.Current().KeyPoints)
}
