package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cristianszwarc/ludmin/internal/models"
)

// maxResetFailures is the number of wrong-code submissions after which a
// reset record stops being selectable.
const maxResetFailures = 4

// MongoResetRepository implements reset-request persistence on the
// reset_requests collection.
type MongoResetRepository struct {
	col *mongo.Collection
}

// NewMongoResetRepository creates a repository bound to the reset_requests
// collection.
func NewMongoResetRepository(col *mongo.Collection) *MongoResetRepository {
	return &MongoResetRepository{col: col}
}

func usableResetFilter(email string) bson.M {
	return bson.M{
		"email":    email,
		"enabled":  true,
		"failures": bson.M{"$lt": maxResetFailures},
	}
}

// Insert stores a new reset record and backfills its assigned id.
func (r *MongoResetRepository) Insert(ctx context.Context, reset *models.ResetRequest) error {
	res, err := r.col.InsertOne(ctx, reset)
	if err != nil {
		return fmt.Errorf("insert reset request: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		reset.ID = oid
	}
	return nil
}

// FindUsable returns a reset record for the email that is still enabled and
// below the failure limit, or nil when none qualifies.
func (r *MongoResetRepository) FindUsable(ctx context.Context, email string) (*models.ResetRequest, error) {
	var reset models.ResetRequest
	err := r.col.FindOne(ctx, usableResetFilter(email)).Decode(&reset)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reset request: %w", err)
	}
	return &reset, nil
}

// IncrementFailures counts one wrong-code submission against the record.
func (r *MongoResetRepository) IncrementFailures(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	update := bson.M{
		"$inc": bson.M{"failures": 1},
		"$set": bson.M{"updatedAt": now},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("increment reset failures: %w", err)
	}
	return nil
}

// Disable consumes the record in place so the code cannot be used twice.
func (r *MongoResetRepository) Disable(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	update := bson.M{
		"$set": bson.M{"enabled": false, "updatedAt": now},
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("disable reset request: %w", err)
	}
	return nil
}

// FindAll returns every reset record.
func (r *MongoResetRepository) FindAll(ctx context.Context) ([]models.ResetRequest, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list reset requests: %w", err)
	}
	defer cursor.Close(ctx)

	var resets []models.ResetRequest
	if err := cursor.All(ctx, &resets); err != nil {
		return nil, fmt.Errorf("decode reset requests: %w", err)
	}
	return resets, nil
}
