package repository

import (
	"context"
	"time"

	"paircode/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RoomRepo handles MongoDB operations for room records
type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	ListByCreator(ctx context.Context, userID string) ([]*model.Room, error)
	ListActiveInPhases(ctx context.Context, phases []model.Phase) ([]*model.Room, error)
	AddParticipant(ctx context.Context, id, userID string) (*model.Room, error)
	// UpdatePhase moves the room from one phase to another in a single
	// document write, stamping phaseStartedAt with server time. It returns
	// nil when the room is missing or no longer in from.
	UpdatePhase(ctx context.Context, id string, from, to model.Phase) (*model.Room, error)
	Delete(ctx context.Context, id string) error
}

// RoomWatcher streams changes to a single room record.
// A nil room on the stream means the record was deleted.
type RoomWatcher interface {
	Watch(ctx context.Context, id string) (<-chan *model.Room, error)
}

// RoomStore is a RoomRepo that can also push changes
type RoomStore interface {
	RoomRepo
	RoomWatcher
}

type roomRepo struct {
	collection *mongo.Collection
}

// NewRoomRepo creates a new room repository
func NewRoomRepo(db *mongo.Database) RoomStore {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	if room.Participants == nil {
		room.Participants = []string{}
	}
	room.Status = model.StatusFor(room.Phase)

	if _, err := r.collection.InsertOne(ctx, room); err != nil {
		return storeErr("insert room", err)
	}
	return nil
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find room", err)
	}
	return &room, nil
}

func (r *roomRepo) ListByCreator(ctx context.Context, userID string) ([]*model.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"createdBy": userID}, opts)
	if err != nil {
		return nil, storeErr("list rooms", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, storeErr("decode rooms", err)
	}
	return rooms, nil
}

func (r *roomRepo) ListActiveInPhases(ctx context.Context, phases []model.Phase) ([]*model.Room, error) {
	filter := bson.M{
		"status": model.RoomActive,
		"phase":  bson.M{"$in": phases},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, storeErr("list active rooms", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, storeErr("decode rooms", err)
	}
	return rooms, nil
}

func (r *roomRepo) AddParticipant(ctx context.Context, id, userID string) (*model.Room, error) {
	update := bson.M{
		"$addToSet":    bson.M{"participants": userID},
		"$currentDate": bson.M{"updatedAt": true},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("add participant", err)
	}
	return &room, nil
}

func (r *roomRepo) UpdatePhase(ctx context.Context, id string, from, to model.Phase) (*model.Room, error) {
	filter := bson.M{"_id": id, "phase": from}
	update := bson.M{
		"$set": bson.M{
			"phase":  to,
			"status": model.StatusFor(to),
		},
		"$currentDate": bson.M{
			"phaseStartedAt": true,
			"updatedAt":      true,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("update phase", err)
	}
	return &room, nil
}

func (r *roomRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr("delete room", err)
	}
	return nil
}

// Watch streams the full room document after every change.
// Change streams need a replica set; callers treat an error as "no push".
func (r *roomRepo) Watch(ctx context.Context, id string) (<-chan *model.Room, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": id}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, storeErr("watch room", err)
	}

	out := make(chan *model.Room, 4)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var change struct {
				OperationType string      `bson:"operationType"`
				FullDocument  *model.Room `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				continue
			}
			room := change.FullDocument
			if change.OperationType == "delete" {
				room = nil
			} else if room == nil {
				continue
			}
			select {
			case out <- room:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
