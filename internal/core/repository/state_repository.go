package repository

import (
	"context"
	"time"

	"telematics/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StateRepository keeps the latest DeviceState per device.
type StateRepository interface {
	Save(state *model.DeviceState) error
	FindByDeviceID(deviceID string) (*model.DeviceState, error)
	FindAll() ([]*model.DeviceState, error)
}

type MongoStateRepository struct {
	collection *mongo.Collection
}

func NewMongoStateRepository(db *mongo.Database) *MongoStateRepository {
	return &MongoStateRepository{
		collection: db.Collection("device_states"),
	}
}

// Save replaces the stored state of the device, inserting it on first report.
func (r *MongoStateRepository) Save(state *model.DeviceState) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"deviceid": state.DeviceID}, state, opts)
	return err
}

func (r *MongoStateRepository) FindByDeviceID(deviceID string) (*model.DeviceState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var state model.DeviceState
	err := r.collection.FindOne(ctx, bson.M{"deviceid": deviceID}).Decode(&state)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &state, err
}

func (r *MongoStateRepository) FindAll() ([]*model.DeviceState, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var states []*model.DeviceState
	if err = cursor.All(ctx, &states); err != nil {
		return nil, err
	}
	return states, nil
}
