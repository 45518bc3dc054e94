package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bullhorn/internal/types"
)

func TestReplyRepository_Upsert_Args(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewReplyRepository(dbx)

	reply := &types.ReplyRecord{
		NotificationID:    "sent-1",
		AuthorID:          "user-1",
		AuthorDisplayName: "Sam Doe",
		Comment:           "great news",
	}

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"),
		mock.MatchedBy(func(args []any) bool {
			return args[0] == "sent-1" && args[1] == "user-1" &&
				args[2] == "Sam Doe" && args[3] == "great news"
		}),
	).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.Upsert(context.Background(), reply))
	dbx.AssertExpectations(t)
}

func TestReplyRepository_Upsert_NilRecord(t *testing.T) {
	repo := NewReplyRepository(new(mockDBTX))

	err := repo.Upsert(context.Background(), nil)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationMissingField, appErr.Code)
}

func TestReplyRepository_Upsert_DBError(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewReplyRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Upsert(context.Background(), &types.ReplyRecord{NotificationID: "n", AuthorID: "a"})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestReplyRepository_ListByNotification(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewReplyRepository(dbx)

	rows := &notifMockRows{scans: []func(dest ...any) error{
		func(dest ...any) error {
			*dest[0].(*string) = "sent-1"
			*dest[1].(*string) = "user-1"
			*dest[2].(*string) = "Sam Doe"
			*dest[3].(*string) = "first"
			return nil
		},
		func(dest ...any) error {
			*dest[0].(*string) = "sent-1"
			*dest[1].(*string) = "user-2"
			*dest[2].(*string) = "Kim Lee"
			*dest[3].(*string) = "second"
			return nil
		},
	}}

	dbx.On("Query", mock.Anything, mock.AnythingOfType("string"),
		mock.MatchedBy(func(args []any) bool { return args[0] == "sent-1" }),
	).Return(rows, nil)

	got, err := repo.ListByNotification(context.Background(), "sent-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "user-1", got[0].AuthorID)
	assert.Equal(t, "Kim Lee", got[1].AuthorDisplayName)
}
