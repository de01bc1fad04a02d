// Package repository provides MongoDB persistence for the credential store.
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

// MongoUserRepository implements user persistence on a users collection.
// Lookup methods return (nil, nil) when no document matches, including when
// the given id is not a valid ObjectID.
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a repository bound to the users collection.
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

func currentEmailFilter(email string) bson.M {
	return bson.M{
		"emails": bson.M{
			"$elemMatch": bson.M{"email": email, "current": true},
		},
	}
}

func anyEmailFilter(email string) bson.M {
	return bson.M{
		"emails": bson.M{
			"$elemMatch": bson.M{"email": email},
		},
	}
}

func deviceFilter(id primitive.ObjectID, deviceID string) bson.M {
	return bson.M{
		"_id": id,
		"devices": bson.M{
			"$elemMatch": bson.M{"device_id": deviceID},
		},
	}
}

func deviceRevFilter(id primitive.ObjectID, deviceID string, rev int) bson.M {
	return bson.M{
		"_id": id,
		"devices": bson.M{
			"$elemMatch": bson.M{"device_id": deviceID, "rev": rev},
		},
	}
}

func deviceUpdate(rev int, lastUsed time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"devices.$.rev":      rev,
			"devices.$.lastUsed": lastUsed,
		},
	}
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// FindByID loads a user by its hex id.
func (r *MongoUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByCurrentEmail loads the user whose current email matches.
func (r *MongoUserRepository) FindByCurrentEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, currentEmailFilter(email))
}

// FindByAnyEmail loads a user carrying the email anywhere in its history.
func (r *MongoUserRepository) FindByAnyEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, anyEmailFilter(email))
}

// FindByDevice loads the user only when the device is attached to it.
func (r *MongoUserRepository) FindByDevice(ctx context.Context, userID, deviceID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, deviceFilter(oid, deviceID))
}

// FindByDeviceRev loads the user only when the device is attached with the
// exact revision; a superseded revision matches nothing.
func (r *MongoUserRepository) FindByDeviceRev(ctx context.Context, userID, deviceID string, rev int) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, nil
	}
	return r.findOne(ctx, deviceRevFilter(oid, deviceID, rev))
}

// FindAll returns every user document.
func (r *MongoUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Insert stores a new user and backfills its assigned id.
func (r *MongoUserRepository) Insert(ctx context.Context, user *models.User) error {
	res, err := r.col.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// UpdateDevice rotates a device's revision and lastUsed with a positional
// field-scoped update, keyed by user id and embedded device id.
func (r *MongoUserRepository) UpdateDevice(ctx context.Context, userID, deviceID string, rev int, lastUsed time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	filter := bson.M{"_id": oid, "devices.device_id": deviceID}
	if _, err := r.col.UpdateOne(ctx, filter, deviceUpdate(rev, lastUsed)); err != nil {
		return fmt.Errorf("update device: %w", err)
	}
	return nil
}

// PushDevice appends a device to the user's device list.
func (r *MongoUserRepository) PushDevice(ctx context.Context, userID string, device models.Device) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("push device: %w", err)
	}
	update := bson.M{"$push": bson.M{"devices": device}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("push device: %w", err)
	}
	return nil
}

// PullDevice detaches a device from the user's device list.
func (r *MongoUserRepository) PullDevice(ctx context.Context, userID, deviceID string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("pull device: %w", err)
	}
	update := bson.M{"$pull": bson.M{"devices": bson.M{"device_id": deviceID}}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return fmt.Errorf("pull device: %w", err)
	}
	return nil
}

// Replace saves a whole user document back, keyed by its id.
func (r *MongoUserRepository) Replace(ctx context.Context, user *models.User) error {
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user); err != nil {
		return fmt.Errorf("replace user: %w", err)
	}
	return nil
}
