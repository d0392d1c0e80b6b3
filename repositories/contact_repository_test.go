package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

func TestContactRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "ladli_lakshmi.contact_messages"

	mt.Run("save", func(mt *mtest.T) {
		repo := &ContactRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Save(context.Background(), &models.ContactMessage{
			ID:        "c1",
			Email:     "asha@example.com",
			FullName:  "Asha",
			Message:   "Hello",
			CreatedAt: time.Now(),
		})
		require.NoError(t, err)

		inserted := mt.GetStartedEvent()
		require.NotNil(t, inserted)
		assert.Equal(t, "insert", inserted.CommandName)
	})

	mt.Run("save duplicate", func(mt *mtest.T) {
		repo := &ContactRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Save(context.Background(), &models.ContactMessage{ID: "c1"})
		assert.ErrorContains(t, err, "failed to save contact message")
	})

	mt.Run("recent newest first", func(mt *mtest.T) {
		repo := &ContactRepository{collection: mt.Coll}
		newer := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		older := newer.Add(-24 * time.Hour)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "c2"},
				{Key: "fullName", Value: "Bina"},
				{Key: "email", Value: "bina@example.com"},
				{Key: "createdAt", Value: newer},
			},
			bson.D{
				{Key: "_id", Value: "c1"},
				{Key: "fullName", Value: "Asha"},
				{Key: "email", Value: "asha@example.com"},
				{Key: "createdAt", Value: older},
			},
		))

		messages, err := repo.Recent(context.Background(), 50)
		require.NoError(t, err)
		require.Len(t, messages, 2)
		assert.Equal(t, "c2", messages[0].ID)
		assert.Equal(t, "Bina", messages[0].FullName)
		assert.Equal(t, "c1", messages[1].ID)

		find := mt.GetStartedEvent()
		require.NotNil(t, find)
		assert.Equal(t, "find", find.CommandName)
		assert.Equal(t, int64(50), find.Command.Lookup("limit").Int64())
		assert.Equal(t, int32(-1), find.Command.Lookup("sort", "createdAt").Int32())
	})

	mt.Run("recent empty", func(mt *mtest.T) {
		repo := &ContactRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		messages, err := repo.Recent(context.Background(), 50)
		require.NoError(t, err)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})

	mt.Run("recent failure", func(mt *mtest.T) {
		repo := &ContactRepository{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		_, err := repo.Recent(context.Background(), 50)
		assert.ErrorContains(t, err, "failed to list contact messages")
	})
}
