package repository

import (
	"context"
	"time"

	"telematics/internal/core/model"
	"telematics/internal/core/util"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AlertRepository interface {
	// Create stores the alert, assigning an ID when it has none.
	Create(alert *model.Alert) error
	// FindByDeviceID returns at most limit alerts, newest first.
	FindByDeviceID(deviceID string, limit int) ([]*model.Alert, error)
}

type MongoAlertRepository struct {
	collection *mongo.Collection
}

func NewMongoAlertRepository(db *mongo.Database) *MongoAlertRepository {
	return &MongoAlertRepository{
		collection: db.Collection("alerts"),
	}
}

func (r *MongoAlertRepository) Create(alert *model.Alert) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if alert.ID == "" {
		alert.ID = util.GenerateID()
	}
	_, err := r.collection.InsertOne(ctx, alert)
	return err
}

func (r *MongoAlertRepository) FindByDeviceID(deviceID string, limit int) ([]*model.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"eventtime": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"deviceid": deviceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*model.Alert
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
