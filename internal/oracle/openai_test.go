package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meeting-roles-go/internal/types"
)

func TestMockCompletionIsDeterministicAndParsable(t *testing.T) {
	evidence := map[string][]string{
		"Guest-1": {"Let's review your portfolio allocation"},
		"Guest-2": {"What's our current risk level?"},
	}
	system, user := BuildClassificationPrompt(evidence)

	mock := MockCompletion()
	first, err := mock(context.Background(), system, user)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := mock(context.Background(), system, user)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	got, err := ParseClassification(first)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.RoleAdvisor, got["Guest-1"].Role)
	assert.Equal(t, 0.9, got["Guest-1"].Confidence)
	assert.Equal(t, types.RoleClient, got["Guest-2"].Role)
}

func TestNewCompletionRequiresAPIKey(t *testing.T) {
	t.Setenv("USE_MOCK_LLM", "false")

	_, err := NewCompletion(Config{})
	assert.Error(t, err)
}

func TestNewCompletionMockMode(t *testing.T) {
	t.Setenv("USE_MOCK_LLM", "true")

	complete, err := NewCompletion(Config{})
	require.NoError(t, err)
	require.NotNil(t, complete)
}
