package repository

import (
	"context"
	"time"

	"paircode/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskRepo handles MongoDB operations for task templates
type TaskRepo interface {
	Create(ctx context.Context, task *model.Task) (string, error)
	GetByID(ctx context.Context, id string) (*model.Task, error)
	List(ctx context.Context) ([]*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
}

type taskRepo struct {
	collection *mongo.Collection
}

// NewTaskRepo creates a new task repository
func NewTaskRepo(db *mongo.Database) TaskRepo {
	return &taskRepo{
		collection: db.Collection("tasks"),
	}
}

func (r *taskRepo) Create(ctx context.Context, task *model.Task) (string, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt

	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return "", storeErr("insert task", err)
	}
	return task.ID, nil
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find task", err)
	}
	return &task, nil
}

func (r *taskRepo) List(ctx context.Context) ([]*model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	defer cursor.Close(ctx)

	var tasks []*model.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, storeErr("decode tasks", err)
	}
	return tasks, nil
}

func (r *taskRepo) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return storeErr("update task", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr("delete task", err)
	}
	return nil
}
