package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
)

// EventRepo stores events in the "events" collection.
type EventRepo struct{ col *mongo.Collection }

func NewEventRepo(ctx context.Context, c *Client) (*EventRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	col := db.Collection("events")
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "interviewId", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("create event index: %w", err)
	}
	return &EventRepo{col: col}, nil
}

func (r *EventRepo) Append(ctx context.Context, event *models.Event) error {
	if err := repositories.ValidateEvent(event); err != nil {
		return err
	}
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()
	if event.Timestamp.IsZero() {
		event.Timestamp = event.CreatedAt
	}
	event.Timestamp = event.Timestamp.UTC()
	if _, err := r.col.InsertOne(ctx, event); err != nil {
		return storageErr("append event", err)
	}
	return nil
}

func (r *EventRepo) ListByInterview(ctx context.Context, interviewID string, page, pageSize int) ([]models.Event, int64, error) {
	page, pageSize = repositories.NormalizePage(page, pageSize)
	filter := bson.M{"interviewId": interviewID}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storageErr("count events", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	events, err := r.find(ctx, filter, opts)
	return events, total, err
}

func (r *EventRepo) AllByInterview(ctx context.Context, interviewID string) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"interviewId": interviewID}, opts)
}

func (r *EventRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Event, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	defer cur.Close(ctx)
	events := []models.Event{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, storageErr("decode events", err)
	}
	return events, nil
}

var _ repositories.EventStore = (*EventRepo)(nil)
