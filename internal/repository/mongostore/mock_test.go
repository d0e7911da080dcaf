package mongostore

import (
	"context"
	"testing"

	"thoughtnet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// updated is the reply to an update command that matched n documents.
func updated(n int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

// counted is the reply to the aggregate behind CountDocuments.
func counted(mt *mtest.T, n int64) bson.D {
	ns := mt.DB.Name() + "." + UsersCollection
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

// updateFilter returns the q document of the last update command sent.
func updateFilter(mt *mtest.T) bson.Raw {
	evt := mt.GetStartedEvent()
	require.NotNil(mt, evt)
	require.Equal(mt, "update", evt.CommandName)
	return evt.Command.Lookup("updates", "0", "q").Document()
}

func TestUserStore_AddFriend_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	userID, friendID := models.NewID(), models.NewID()

	mt.Run("pushes when absent", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))

		require.NoError(mt, NewUserStore(mt.DB).AddFriend(ctx, userID, friendID))

		q := updateFilter(mt)
		assert.Equal(mt, userID, q.Lookup("_id").StringValue())
		assert.Equal(mt, friendID, q.Lookup("friends", "$ne").StringValue())
	})

	mt.Run("conflict when already listed", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted(mt, 1))

		err := NewUserStore(mt.DB).AddFriend(ctx, userID, friendID)
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeConflict))
		assert.Equal(mt, "Friend is already in friend list", err.Error())
	})

	mt.Run("not found when user absent", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted(mt, 0))

		err := NewUserStore(mt.DB).AddFriend(ctx, userID, friendID)
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeNotFound))
	})

	mt.Run("driver failure is internal", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "bad update",
		}))

		err := NewUserStore(mt.DB).AddFriend(ctx, userID, friendID)
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeInternal))
	})
}

func TestUserStore_RemoveFriend_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	userID, friendID := models.NewID(), models.NewID()

	mt.Run("pulls when listed", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1))

		require.NoError(mt, NewUserStore(mt.DB).RemoveFriend(ctx, userID, friendID))

		q := updateFilter(mt)
		assert.Equal(mt, friendID, q.Lookup("friends").StringValue())
	})

	mt.Run("conflict when not listed", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted(mt, 1))

		err := NewUserStore(mt.DB).RemoveFriend(ctx, userID, friendID)
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeConflict))
		assert.Equal(mt, "Friend is not in friend list", err.Error())
	})

	mt.Run("not found when user absent", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0), counted(mt, 0))

		err := NewUserStore(mt.DB).RemoveFriend(ctx, userID, friendID)
		assert.True(mt, models.IsCode(err, models.CodeNotFound))
	})
}

func TestUserStore_Create_DuplicateKey_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unique index violation", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		err := NewUserStore(mt.DB).Create(context.Background(),
			&models.User{Username: "alice", Email: "alice@example.com"})
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeValidation))
		assert.Equal(mt, "Username or email already exists", err.Error())
	})
}

func TestThoughtStore_GetByID_Missing_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty cursor", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + ThoughtsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewThoughtStore(mt.DB).GetByID(context.Background(), models.NewID())
		require.Error(mt, err)
		assert.True(mt, models.IsCode(err, models.CodeNotFound))
	})
}
