package storeserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/LevdanskyVitaliy/todo-sync/internal/remote"
	"github.com/LevdanskyVitaliy/todo-sync/internal/task"
)

const collectionName = "todos"

// MongoBackend stores tasks in a MongoDB collection
type MongoBackend struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and pings the server before returning
func OpenMongo(ctx context.Context, uri, database string) (*MongoBackend, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &MongoBackend{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}, nil
}

// Close disconnects the client
func (b *MongoBackend) Close() error {
	return b.client.Disconnect(context.Background())
}

func (b *MongoBackend) List(ctx context.Context, filter remote.Filter) ([]task.Task, error) {
	query, ok := mongoFilter(filter)
	if !ok {
		return []task.Task{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cursor, err := b.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []task.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return tasks, nil
}

func (b *MongoBackend) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if _, err := b.coll.InsertOne(ctx, t); err != nil {
		return task.Task{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (b *MongoBackend) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	var updated task.Task

	if patch.IsEmpty() {
		err := b.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return task.Task{}, ErrNotFound
		}
		return updated, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := b.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": mongoSet(patch)}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return task.Task{}, ErrNotFound
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return updated, nil
}

func (b *MongoBackend) Delete(ctx context.Context, id string) error {
	res, err := b.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// mongoFilter translates equality predicates. ok is false when a predicate
// can never match.
func mongoFilter(filter remote.Filter) (bson.M, bool) {
	query := bson.M{}
	for key, val := range filter {
		switch key {
		case "id":
			query["_id"] = val
		case "name", "description":
			query[key] = val
		case "done":
			done, err := strconv.ParseBool(val)
			if err != nil {
				return nil, false
			}
			query["done"] = done
		default:
			return nil, false
		}
	}
	return query, true
}

func mongoSet(patch task.Patch) bson.M {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Done != nil {
		set["done"] = *patch.Done
	}
	return set
}
