package repository

import (
	"context"
	"time"

	"paircode/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackRepo handles MongoDB operations for reflections and private notes.
// Both are keyed by (roomId, userId).
type FeedbackRepo interface {
	SaveReflection(ctx context.Context, roomID, userID string, responses []model.ReflectionResponse) error
	GetReflection(ctx context.Context, roomID, userID string) (*model.Reflection, error)
	SavePrivateNotes(ctx context.Context, roomID, userID, content string) error
	GetPrivateNotes(ctx context.Context, roomID, userID string) (*model.PrivateNotes, error)
	DeleteByRoom(ctx context.Context, roomID string) error
}

type feedbackRepo struct {
	reflections *mongo.Collection
	notes       *mongo.Collection
}

// NewFeedbackRepo creates a new feedback repository
func NewFeedbackRepo(db *mongo.Database) FeedbackRepo {
	return &feedbackRepo{
		reflections: db.Collection("reflections"),
		notes:       db.Collection("private_notes"),
	}
}

func upsertByUser(ctx context.Context, coll *mongo.Collection, roomID, userID string, fields bson.M) error {
	filter := bson.M{"roomId": roomID, "userId": userID}
	update := bson.M{
		"$set":         fields,
		"$currentDate": bson.M{"updatedAt": true},
		"$setOnInsert": bson.M{"createdAt": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	_, err := coll.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *feedbackRepo) SaveReflection(ctx context.Context, roomID, userID string, responses []model.ReflectionResponse) error {
	if err := upsertByUser(ctx, r.reflections, roomID, userID, bson.M{"responses": responses}); err != nil {
		return storeErr("save reflection", err)
	}
	return nil
}

func (r *feedbackRepo) GetReflection(ctx context.Context, roomID, userID string) (*model.Reflection, error) {
	var reflection model.Reflection
	err := r.reflections.FindOne(ctx, bson.M{"roomId": roomID, "userId": userID}).Decode(&reflection)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find reflection", err)
	}
	return &reflection, nil
}

func (r *feedbackRepo) SavePrivateNotes(ctx context.Context, roomID, userID, content string) error {
	if err := upsertByUser(ctx, r.notes, roomID, userID, bson.M{"content": content}); err != nil {
		return storeErr("save private notes", err)
	}
	return nil
}

func (r *feedbackRepo) GetPrivateNotes(ctx context.Context, roomID, userID string) (*model.PrivateNotes, error) {
	var notes model.PrivateNotes
	err := r.notes.FindOne(ctx, bson.M{"roomId": roomID, "userId": userID}).Decode(&notes)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find private notes", err)
	}
	return &notes, nil
}

func (r *feedbackRepo) DeleteByRoom(ctx context.Context, roomID string) error {
	if _, err := r.reflections.DeleteMany(ctx, bson.M{"roomId": roomID}); err != nil {
		return storeErr("delete reflections", err)
	}
	if _, err := r.notes.DeleteMany(ctx, bson.M{"roomId": roomID}); err != nil {
		return storeErr("delete private notes", err)
	}
	return nil
}
