package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "first_name", "last_name", "nickname", "avatar", "tick", "email"}

func TestGetUserByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "Bob", "B", "bob", "", true, "bob@example.com"))

	user, err := NewUserRepo(db).GetUserByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.ID)
	assert.True(t, user.Tick)
}

func TestGetUserNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := NewUserRepo(db).GetUser(context.Background(), 5)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
