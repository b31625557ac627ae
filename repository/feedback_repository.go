package repository

import (
	"context"
	"errors"

	"storefront-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackRepository stores one document per product holding all of its feedback entries.
type FeedbackRepository interface {
	AppendEntry(ctx context.Context, productID int, entry models.FeedbackEntry) error
	FindByProduct(ctx context.Context, productID int) (*models.ProductFeedback, error)
	FindByOrder(ctx context.Context, orderID string) ([]models.FeedbackView, error)
	FindAll(ctx context.Context, page, limit int) ([]models.FeedbackView, int64, error)
	UpdateEntry(ctx context.Context, productID int, entry models.FeedbackEntry) error
	DeleteEntry(ctx context.Context, productID int, feedbackID string) error
}

type MongoFeedbackRepository struct {
	collection *mongo.Collection
}

func NewMongoFeedbackRepository(db *mongo.Database) *MongoFeedbackRepository {
	return &MongoFeedbackRepository{
		collection: db.Collection("feedbacks"),
	}
}

// EnsureIndexes creates the unique product_id index AppendEntry relies on.
func (r *MongoFeedbackRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "feedbacks.order_id", Value: 1}}},
	})
	return err
}

// AppendEntry pushes entry onto the product's document, creating it if needed.
// The filter only matches when no entry for the same order exists; otherwise the
// upsert collides with the unique product_id index and ErrDuplicateFeedback is returned.
func (r *MongoFeedbackRepository) AppendEntry(ctx context.Context, productID int, entry models.FeedbackEntry) error {
	filter := bson.M{
		"product_id":         productID,
		"feedbacks.order_id": bson.M{"$ne": entry.OrderID},
	}
	update := bson.M{
		"$push":        bson.M{"feedbacks": entry},
		"$setOnInsert": bson.M{"product_id": productID},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateFeedback
	}
	return err
}

func (r *MongoFeedbackRepository) FindByProduct(ctx context.Context, productID int) (*models.ProductFeedback, error) {
	var doc models.ProductFeedback
	err := r.collection.FindOne(ctx, bson.M{"product_id": productID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByOrder returns every entry written against orderID, across products.
func (r *MongoFeedbackRepository) FindByOrder(ctx context.Context, orderID string) ([]models.FeedbackView, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"feedbacks.order_id": orderID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.ProductFeedback
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	views := make([]models.FeedbackView, 0)
	for _, doc := range docs {
		for _, e := range doc.Feedbacks {
			if e.OrderID == orderID {
				views = append(views, models.FeedbackView{ProductID: doc.ProductID, FeedbackEntry: e})
			}
		}
	}
	return views, nil
}

// FindAll flattens entries across products, newest first.
func (r *MongoFeedbackRepository) FindAll(ctx context.Context, page, limit int) ([]models.FeedbackView, int64, error) {
	unwind := mongo.Pipeline{
		{{Key: "$unwind", Value: "$feedbacks"}},
	}

	countCursor, err := r.collection.Aggregate(ctx, append(unwind, bson.D{{Key: "$count", Value: "total"}}))
	if err != nil {
		return nil, 0, err
	}
	var counts []struct {
		Total int64 `bson:"total"`
	}
	if err = countCursor.All(ctx, &counts); err != nil {
		return nil, 0, err
	}
	var total int64
	if len(counts) > 0 {
		total = counts[0].Total
	}

	pipeline := append(mongo.Pipeline{}, unwind...)
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "feedbacks.created_at", Value: -1}}}},
		bson.D{{Key: "$skip", Value: int64((page - 1) * limit)}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
	)
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ProductID int                  `bson:"product_id"`
		Feedback  models.FeedbackEntry `bson:"feedbacks"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, 0, err
	}

	views := make([]models.FeedbackView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.FeedbackView{ProductID: row.ProductID, FeedbackEntry: row.Feedback})
	}
	return views, total, nil
}

// UpdateEntry replaces the stored entry with the same id.
func (r *MongoFeedbackRepository) UpdateEntry(ctx context.Context, productID int, entry models.FeedbackEntry) error {
	filter := bson.M{"product_id": productID, "feedbacks.id": entry.ID}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"feedbacks.$": entry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoFeedbackRepository) DeleteEntry(ctx context.Context, productID int, feedbackID string) error {
	filter := bson.M{"product_id": productID, "feedbacks.id": feedbackID}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{"feedbacks": bson.M{"id": feedbackID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
