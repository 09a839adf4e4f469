package evidence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendReportsFirstUtterance(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Append("A", "hello"))
	assert.False(t, s.Append("A", "again"))
	assert.True(t, s.Append("B", "hi"))
}

func TestAppendEmptyTextIsNoOp(t *testing.T) {
	s := NewStore()

	assert.False(t, s.Append("A", ""))
	assert.Equal(t, 0, s.UtteranceCount("A"))
	assert.Empty(t, s.SpeakerIDs())
}

func TestUtteranceCountMonotonic(t *testing.T) {
	s := NewStore()

	prev := 0
	for i := 0; i < 20; i++ {
		s.Append("A", fmt.Sprintf("utterance %d", i))
		count := s.UtteranceCount("A")
		require.Greater(t, count, prev)
		prev = count
	}
	assert.Equal(t, 20, s.UtteranceCount("A"))
	assert.Equal(t, 0, s.UtteranceCount("nobody"))
}

func TestSnapshotPreservesOrderAndIsACopy(t *testing.T) {
	s := NewStore()
	s.Append("A", "first")
	s.Append("A", "second")
	s.Append("A", "third")

	snap := s.Snapshot("A")
	require.Equal(t, []string{"first", "second", "third"}, snap)

	// Mutating the snapshot must not reach the store.
	snap[0] = "tampered"
	assert.Equal(t, []string{"first", "second", "third"}, s.Snapshot("A"))

	assert.Nil(t, s.Snapshot("nobody"))
}

func TestSnapshotAllCopies(t *testing.T) {
	s := NewStore()
	s.Append("A", "one")
	s.Append("B", "two")

	all := s.SnapshotAll()
	require.Len(t, all, 2)
	all["A"][0] = "tampered"
	assert.Equal(t, []string{"one"}, s.Snapshot("A"))
}

func TestConcurrentAppends(t *testing.T) {
	s := NewStore()

	const goroutines = 8
	const perGoroutine = 50
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			speaker := fmt.Sprintf("speaker-%d", g%2)
			for i := 0; i < perGoroutine; i++ {
				s.Append(speaker, fmt.Sprintf("g%d-%d", g, i))
			}
		}(g)
	}
	wg.Wait()

	total := s.UtteranceCount("speaker-0") + s.UtteranceCount("speaker-1")
	assert.Equal(t, goroutines*perGoroutine, total)
	assert.ElementsMatch(t, []string{"speaker-0", "speaker-1"}, s.SpeakerIDs())
}
