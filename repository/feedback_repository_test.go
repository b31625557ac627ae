package repository_test

import (
	"context"
	"testing"
	"time"

	"storefront-service/models"
	"storefront-service/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func feedbackEntry(id, orderID string) models.FeedbackEntry {
	return models.FeedbackEntry{
		ID:        id,
		OrderID:   orderID,
		Rating:    5,
		Comment:   "Great fit",
		UserName:  "Ayesha Khan",
		CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func updateResponse(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func TestMongoFeedbackRepository_AppendEntry(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("first entry upserts the product document", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{
				bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}},
			}},
		))

		require.NoError(mt, repo.AppendEntry(context.Background(), 7, feedbackEntry("fb-1", "ORD00001")))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		stmt := evt.Command.Lookup("updates", "0").Document()
		assert.True(mt, stmt.Lookup("upsert").Boolean())
		assert.Equal(mt, int64(7), stmt.Lookup("q", "product_id").AsInt64())
		assert.Equal(mt, "ORD00001", stmt.Lookup("q", "feedbacks.order_id", "$ne").StringValue())
		assert.Equal(mt, "fb-1", stmt.Lookup("u", "$push", "feedbacks", "id").StringValue())
	})

	mt.Run("second entry for the same order is a duplicate", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: storefront.feedbacks index: product_id_1",
		}))

		err := repo.AppendEntry(context.Background(), 7, feedbackEntry("fb-2", "ORD00001"))
		assert.ErrorIs(mt, err, repository.ErrDuplicateFeedback)
	})

	mt.Run("other write errors pass through", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "invalid update",
		}))

		err := repo.AppendEntry(context.Background(), 7, feedbackEntry("fb-3", "ORD00002"))
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, repository.ErrDuplicateFeedback)
	})
}

func TestMongoFeedbackRepository_UpdateAndDeleteEntry(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update matches the entry", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(updateResponse(1, 1))

		entry := feedbackEntry("fb-1", "ORD00001")
		entry.Reply = "Thank you"
		require.NoError(mt, repo.UpdateEntry(context.Background(), 7, entry))

		stmt := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "fb-1", stmt.Lookup("q", "feedbacks.id").StringValue())
		assert.Equal(mt, "Thank you", stmt.Lookup("u", "$set", "feedbacks.$", "reply").StringValue())
	})

	mt.Run("update of a missing entry", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(updateResponse(0, 0))

		err := repo.UpdateEntry(context.Background(), 7, feedbackEntry("nope", "ORD00001"))
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete pulls the entry", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(updateResponse(1, 1))

		require.NoError(mt, repo.DeleteEntry(context.Background(), 7, "fb-1"))

		stmt := mt.GetStartedEvent().Command.Lookup("updates", "0").Document()
		assert.Equal(mt, "fb-1", stmt.Lookup("u", "$pull", "feedbacks", "id").StringValue())
	})

	mt.Run("delete of a missing entry", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(updateResponse(0, 0))

		err := repo.DeleteEntry(context.Background(), 7, "nope")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}

func TestMongoFeedbackRepository_Reads(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "storefront.feedbacks"

	mt.Run("missing product document", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByProduct(context.Background(), 7)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("entries for one order across products", func(mt *mtest.T) {
		repo := repository.NewMongoFeedbackRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "product_id", Value: 7},
				{Key: "feedbacks", Value: bson.A{
					bson.D{{Key: "id", Value: "fb-1"}, {Key: "order_id", Value: "ORD00001"}, {Key: "rating", Value: 5}},
					bson.D{{Key: "id", Value: "fb-2"}, {Key: "order_id", Value: "ORD00002"}, {Key: "rating", Value: 3}},
				}},
			},
			bson.D{
				{Key: "product_id", Value: 8},
				{Key: "feedbacks", Value: bson.A{
					bson.D{{Key: "id", Value: "fb-3"}, {Key: "order_id", Value: "ORD00001"}, {Key: "rating", Value: 4}},
				}},
			},
		))

		views, err := repo.FindByOrder(context.Background(), "ORD00001")
		require.NoError(mt, err)
		require.Len(mt, views, 2)
		assert.Equal(mt, 7, views[0].ProductID)
		assert.Equal(mt, "fb-1", views[0].ID)
		assert.Equal(mt, 8, views[1].ProductID)
		assert.Equal(mt, "fb-3", views[1].ID)
	})
}
