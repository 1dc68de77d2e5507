package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/medshop/internal/domain/models"
)

const reportsCollection = "inventory_reports"

// ReportArchive stores inventory snapshots.
type ReportArchive interface {
	SaveInventoryReport(ctx context.Context, report models.InventoryReport) error
	LatestInventoryReport(ctx context.Context) (*models.InventoryReport, error)
}

// MongoDBRepository implements ReportArchive on MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// Verify interface compliance
var _ ReportArchive = (*MongoDBRepository)(nil)

// NewMongoDBRepository connects and pings the server.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: reportsCollection,
	}, nil
}

// SaveInventoryReport inserts one snapshot.
func (r *MongoDBRepository) SaveInventoryReport(ctx context.Context, report models.InventoryReport) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert inventory report: %w", err)
	}
	return nil
}

// LatestInventoryReport returns the most recent snapshot, or nil when none exists.
func (r *MongoDBRepository) LatestInventoryReport(ctx context.Context) (*models.InventoryReport, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var report models.InventoryReport
	err := collection.FindOne(ctx, bson.D{}, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest inventory report: %w", err)
	}
	return &report, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
