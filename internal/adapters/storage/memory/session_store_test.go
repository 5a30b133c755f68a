package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/loan-agent/internal/adapters/storage/memory"
	"github.com/PabloGalante/loan-agent/internal/domain"
	"github.com/PabloGalante/loan-agent/internal/observability"
)

var system = domain.SystemMessage("you are a loan officer", time.Time{})

func TestGetOrCreateSeedsSystemMessage(t *testing.T) {
	store := memory.NewSessionStore(0, time.Hour)

	msgs, err := store.GetOrCreate(context.Background(), "u1", system)
	require.NoError(t, err)
	assert.Equal(t, []domain.Message{system}, msgs)
}

func TestTrimmingKeepsSystemMessage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(0, time.Hour)

	for turn := 0; turn < 40; turn++ {
		msgs, err := store.GetOrCreate(ctx, "u1", system)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(msgs), 1+domain.HistoryKeepRecent)
		assert.Equal(t, system, msgs[0])

		require.NoError(t, store.Append(ctx, "u1",
			domain.UserMessage(fmt.Sprintf("q%d", turn), time.Time{}),
			domain.AssistantMessage(fmt.Sprintf("a%d", turn), time.Time{}),
		))
	}

	msgs, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	assert.Equal(t, "a39", msgs[len(msgs)-1].Text)
}

func TestTrimOnlyAboveThreshold(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(0, time.Hour)
	_, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)

	for i := 1; i < domain.HistoryTrimThreshold; i++ {
		require.NoError(t, store.Append(ctx, "u1", domain.UserMessage(fmt.Sprint(i), time.Time{})))
	}
	msgs, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	assert.Len(t, msgs, domain.HistoryTrimThreshold)

	require.NoError(t, store.Append(ctx, "u1", domain.UserMessage("13th", time.Time{})))
	msgs, err = store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	require.Len(t, msgs, 1+domain.HistoryKeepRecent)
	assert.Equal(t, system, msgs[0])
	assert.Equal(t, "3", msgs[1].Text)
	assert.Equal(t, "13th", msgs[len(msgs)-1].Text)
}

func TestAppendToMissingSession(t *testing.T) {
	store := memory.NewSessionStore(0, time.Hour)

	err := store.Append(context.Background(), "nobody", domain.UserMessage("hi", time.Time{}))
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(0, time.Hour)
	_, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Append(ctx, "u1", domain.UserMessage(fmt.Sprint(i), time.Time{}))
		}(i)
	}
	wg.Wait()

	// 11 messages: below the trim threshold, so nothing is dropped.
	msgs, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	assert.Len(t, msgs, 11)
}

func TestIdleSessionsExpire(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(0, 50*time.Millisecond)

	_, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "u1", domain.UserMessage("hi", time.Time{})))

	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, 2*time.Second, 20*time.Millisecond)

	msgs, err := store.GetOrCreate(ctx, "u1", system)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestSessionLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore(2, time.Hour)

	for _, u := range []domain.UserID{"a", "b", "c"} {
		_, err := store.GetOrCreate(ctx, u, system)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.Len())
}

func TestActiveSessionsGaugeSurvivesRecreation(t *testing.T) {
	ctx := context.Background()
	before := testutil.ToFloat64(observability.ActiveSessions)
	store := memory.NewSessionStore(0, 30*time.Millisecond)

	// Each call lands after the previous session expired, often before
	// the background purge removed it.
	for i := 0; i < 10; i++ {
		_, err := store.GetOrCreate(ctx, "u1", system)
		require.NoError(t, err)
		time.Sleep(35 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return store.Len() == 0 && testutil.ToFloat64(observability.ActiveSessions) == before
	}, 2*time.Second, 20*time.Millisecond)
}
