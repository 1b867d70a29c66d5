package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/apperrors"
	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
)

func TestAppendLandsAtTail(t *testing.T) {
	f := newFixture(1, 2)
	ctx := context.Background()

	_, err := f.log.Append(ctx, 2, 1, "earlier")
	require.NoError(t, err)
	msg, err := f.log.Append(ctx, 1, 2, "hello")
	require.NoError(t, err)

	history, err := f.log.ListConversation(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, msg, history[len(history)-1])
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestAppendValidation(t *testing.T) {
	f := newFixture(1, 2)
	ctx := context.Background()

	cases := []struct {
		name     string
		sender   int64
		receiver int64
		content  string
	}{
		{name: "blank content", sender: 1, receiver: 2, content: "   "},
		{name: "self send", sender: 1, receiver: 1, content: "hi"},
		{name: "unknown receiver", sender: 1, receiver: 9, content: "hi"},
		{name: "unknown sender", sender: 9, receiver: 2, content: "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.log.Append(ctx, tc.sender, tc.receiver, tc.content)
			assert.True(t, apperrors.Is(err, apperrors.CodeValidation), "got %v", err)
		})
	}

	history, err := f.log.ListConversation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestListConversationOrderIsDirectionIndependent(t *testing.T) {
	f := newFixture(1, 2)
	ctx := context.Background()

	first, err := f.log.Append(ctx, 1, 2, "t1")
	require.NoError(t, err)
	second, err := f.log.Append(ctx, 2, 1, "t2")
	require.NoError(t, err)
	third, err := f.log.Append(ctx, 1, 2, "t3")
	require.NoError(t, err)

	forward, err := f.log.ListConversation(ctx, 1, 2)
	require.NoError(t, err)
	backward, err := f.log.ListConversation(ctx, 2, 1)
	require.NoError(t, err)

	want := []int64{first.ID, second.ID, third.ID}
	assert.Equal(t, want, ids(forward))
	assert.Equal(t, want, ids(backward))
}

func TestListConversationUnknownUser(t *testing.T) {
	f := newFixture(1)

	_, err := f.log.ListConversation(context.Background(), 1, 42)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestUnreadInvariant(t *testing.T) {
	f := newFixture(1, 2)
	ctx := context.Background()

	for _, content := range []string{"a", "b"} {
		_, err := f.log.Append(ctx, 1, 2, content)
		require.NoError(t, err)
	}
	count, err := f.log.CountUnread(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	flipped, err := f.log.MarkRead(ctx, 2, 1)
	require.NoError(t, err)
	assert.Len(t, flipped, 2)
	count, err = f.log.CountUnread(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	again, err := f.log.MarkRead(ctx, 2, 1)
	require.NoError(t, err)
	assert.Empty(t, again)
	count, err = f.log.CountUnread(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = f.log.Append(ctx, 1, 2, "c")
	require.NoError(t, err)
	count, err = f.log.CountUnread(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnreadCountRequiresKnownUsers(t *testing.T) {
	f := newFixture(1, 2)
	ctx := context.Background()

	_, err := f.log.Append(ctx, 1, 2, "ping")
	require.NoError(t, err)

	count, err := f.log.UnreadCount(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = f.log.UnreadCount(ctx, 2, 42)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	_, err = f.log.UnreadCount(ctx, 42, 1)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestLastMessageAbsent(t *testing.T) {
	f := newFixture(1, 2)

	_, ok, err := f.log.LastMessage(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendStorageFailureIsInternal(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	log := NewMessageLog(messages, users)

	users.On("GetUser", mock.Anything, int64(1)).Return(models.UserProfile{ID: 1}, nil)
	users.On("GetUser", mock.Anything, int64(2)).Return(models.UserProfile{ID: 2}, nil)
	messages.On("CreateMessage", mock.Anything, int64(1), int64(2), "hi").Return(nil, assert.AnError)

	_, err := log.Append(context.Background(), 1, 2, "hi")
	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))
	assert.ErrorIs(t, err, assert.AnError)
	messages.AssertExpectations(t)
}

func ids(msgs []models.Message) []int64 {
	out := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
