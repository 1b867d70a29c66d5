package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

func TestCreatedAtIsStrictlyIncreasing(t *testing.T) {
	store := NewStore()
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	msgs := store.Messages()
	ctx := context.Background()

	first, err := msgs.CreateMessage(ctx, 1, 2, "a")
	require.NoError(t, err)
	second, err := msgs.CreateMessage(ctx, 2, 1, "b")
	require.NoError(t, err)

	assert.True(t, second.CreatedAt.After(first.CreatedAt))
}

func TestFindOrCreateIsPairSymmetric(t *testing.T) {
	convs := NewStore().Conversations()
	ctx := context.Background()

	ab, err := convs.FindOrCreate(ctx, 3, 8)
	require.NoError(t, err)
	ba, err := convs.FindOrCreate(ctx, 8, 3)
	require.NoError(t, err)

	assert.Equal(t, ab.ID, ba.ID)
	assert.Equal(t, int64(3), ab.User1ID)
}

func TestConcurrentFindOrCreateKeepsOneRow(t *testing.T) {
	store := NewStore()
	convs := store.Conversations()

	var wg sync.WaitGroup
	ids := make([]int64, 20)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := int64(5), int64(7)
			if i%2 == 0 {
				a, b = b, a
			}
			conv, err := convs.FindOrCreate(context.Background(), a, b)
			assert.NoError(t, err)
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.ConversationCount())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestRecordNewMessageIgnoresOlderMessages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	conv, err := store.Conversations().FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	newer := models.Message{ID: 10, CreatedAt: time.Now()}
	older := models.Message{ID: 9, CreatedAt: newer.CreatedAt.Add(-time.Second)}
	require.NoError(t, store.Conversations().RecordNewMessage(ctx, conv, newer))
	require.NoError(t, store.Conversations().RecordNewMessage(ctx, conv, older))

	got, err := store.Conversations().Find(ctx, 2, 1)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageID)
	assert.Equal(t, int64(10), *got.LastMessageID)
	assert.Equal(t, newer.CreatedAt, got.UpdatedAt)
}

func TestUsersLookup(t *testing.T) {
	store := NewStore()
	store.AddUser(models.UserProfile{ID: 1, Nickname: "ann", Email: "ann@example.com"})

	user, err := store.Users().GetUserByEmail(context.Background(), "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	_, err = store.Users().GetUser(context.Background(), 2)
	assert.ErrorIs(t, err, repositories.ErrUserNotFound)
}
