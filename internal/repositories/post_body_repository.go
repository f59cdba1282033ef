package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/community/internal/models"
	"github.com/anonto42/nano-midea/community/internal/richtext"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrBodyNotFound is returned when a post has no stored document
var ErrBodyNotFound = errors.New("post body not found")

// PostBodyRepository stores the rich document of each post
type PostBodyRepository interface {
	SaveBody(ctx context.Context, postID uint, body richtext.Node) error
	GetBody(ctx context.Context, postID uint) (*models.PostBody, error)
	DeleteBody(ctx context.Context, postID uint) error
}

// MongoPostBodyRepository implements PostBodyRepository for MongoDB
type MongoPostBodyRepository struct {
	collection *mongo.Collection
}

// NewMongoPostBodyRepository creates a new MongoPostBodyRepository
func NewMongoPostBodyRepository(db *mongo.Database) *MongoPostBodyRepository {
	return &MongoPostBodyRepository{collection: db.Collection("post_bodies")}
}

// EnsureIndexes creates the unique post_id index
func (r *MongoPostBodyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "post_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// SaveBody upserts the document for a post
func (r *MongoPostBodyRepository) SaveBody(ctx context.Context, postID uint, body richtext.Node) error {
	update := bson.M{
		"$set": bson.M{
			"body":       body,
			"updated_at": time.Now().UTC(),
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"post_id": postID}, update, options.Update().SetUpsert(true))
	return err
}

// GetBody retrieves the document of a post
func (r *MongoPostBodyRepository) GetBody(ctx context.Context, postID uint) (*models.PostBody, error) {
	var body models.PostBody
	err := r.collection.FindOne(ctx, bson.M{"post_id": postID}).Decode(&body)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBodyNotFound
		}
		return nil, err
	}
	return &body, nil
}

// DeleteBody removes the document of a post; a missing document is not an error
func (r *MongoPostBodyRepository) DeleteBody(ctx context.Context, postID uint) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"post_id": postID})
	return err
}
