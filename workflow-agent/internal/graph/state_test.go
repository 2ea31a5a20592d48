package graph

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestState_MergeNeverRemovesKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	keys := []string{KeyQuery, KeyKnowledgeContext, KeySources, KeyLLMResponse, KeyError, "custom"}

	s := NewState("seed")
	seen := map[string]bool{KeyUserQuery: true}
	for round := 0; round < 200; round++ {
		c := Contributions{}
		for i := 0; i < rng.Intn(3); i++ {
			k := keys[rng.Intn(len(keys))]
			c[k] = fmt.Sprintf("v%d", round)
			seen[k] = true
		}
		s.Merge(c)

		for k := range seen {
			_, ok := s.Get(k)
			require.True(t, ok, "key %q vanished after round %d", k, round)
		}
	}
	assert.Equal(t, "seed", s.UserQuery())
}

func TestState_LastWriterWins(t *testing.T) {
	s := NewState("q")
	s.Merge(Contributions{KeyLLMResponse: "first", KeyWebSearchUsed: true})
	s.Merge(Contributions{KeyLLMResponse: "second"})

	assert.Equal(t, "second", s.String(KeyLLMResponse))
	assert.True(t, s.Bool(KeyWebSearchUsed))
	assert.Equal(t, []string{KeyLLMResponse, KeyUserQuery, KeyWebSearchUsed}, s.Keys())

	snap := s.Snapshot()
	snap[KeyLLMResponse] = "mutated"
	assert.Equal(t, "second", s.String(KeyLLMResponse))
}

func TestState_TypedAccessorsTolerateWrongTypes(t *testing.T) {
	s := NewState("q")
	s.Merge(Contributions{KeySources: "not a slice", KeyMetadata: 3, KeyWebSearchUsed: "yes"})

	assert.Nil(t, s.Sources())
	assert.Nil(t, s.Metadata())
	assert.False(t, s.Bool(KeyWebSearchUsed))
	assert.Empty(t, s.String(KeyMetadata))
}

func TestRunRecord_Transitions(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := newRunRecord("g", "q")
	assert.Equal(t, RunPending, rec.Status)
	assert.False(t, rec.Status.Terminal())

	require.ErrorIs(t, rec.complete(&ExecutionResult{}, now), ErrInternal)

	require.NoError(t, rec.start(now))
	assert.Equal(t, RunRunning, rec.Status)
	require.ErrorIs(t, rec.start(now), ErrInternal)

	require.NoError(t, rec.complete(&ExecutionResult{Response: "r"}, now.Add(time.Second)))
	assert.True(t, rec.Status.Terminal())
	assert.Equal(t, "r", rec.Result.Response)

	// Terminal records cannot move again.
	assert.ErrorIs(t, rec.fail(fmt.Errorf("late"), now), ErrInternal)
	assert.ErrorIs(t, rec.complete(&ExecutionResult{}, now), ErrInternal)
	assert.Equal(t, RunCompleted, rec.Status)
	assert.Nil(t, rec.Logs)
}

func TestRunRecord_FailSetsLogs(t *testing.T) {
	now := time.Now()
	rec := newRunRecord("g", "q")
	require.NoError(t, rec.start(now))
	require.NoError(t, rec.fail(fmt.Errorf("exploded"), now))

	assert.Equal(t, RunFailed, rec.Status)
	assert.Equal(t, map[string]any{"error": "exploded"}, rec.Logs)
	assert.Nil(t, rec.Result)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 200))
	assert.Equal(t, "héllo...", preview("héllo world", 5))
}

func TestOutput_Metadata(t *testing.T) {
	s := NewState("q")
	s.Merge(Contributions{
		KeyLLMResponse:   "answer",
		KeyModelUsed:     "gpt-4o",
		KeyWebSearchUsed: true,
		KeySources:       []SourceRef{{DocumentID: 2}},
		KeyError:         "kb: failed",
	})

	res := runOutput(zap.NewNop(), s)
	assert.False(t, res.Degraded)
	assert.Equal(t, "answer", res.Contributions[KeyResponse])
	assert.Equal(t, []SourceRef{{DocumentID: 2}}, res.Contributions[KeySources])
	assert.Equal(t, map[string]any{
		KeyModelUsed:     "gpt-4o",
		KeyWebSearchUsed: true,
		KeyError:         "kb: failed",
	}, res.Contributions[KeyMetadata])
}
