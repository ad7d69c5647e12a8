package repository

import (
	"context"
	"time"

	"telematics/internal/alarm"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAlarmCatalogRepository reads catalog entries stored one document per
// alarm code.
type MongoAlarmCatalogRepository struct {
	collection *mongo.Collection
}

func NewMongoAlarmCatalogRepository(db *mongo.Database) *MongoAlarmCatalogRepository {
	return &MongoAlarmCatalogRepository{
		collection: db.Collection("alarm_catalog"),
	}
}

func (r *MongoAlarmCatalogRepository) FindAll() ([]alarm.Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"code": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []alarm.Entry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LoadCatalog builds a catalog from every stored entry.
func (r *MongoAlarmCatalogRepository) LoadCatalog() (*alarm.Catalog, error) {
	entries, err := r.FindAll()
	if err != nil {
		return nil, err
	}
	return alarm.NewCatalog(entries)
}
