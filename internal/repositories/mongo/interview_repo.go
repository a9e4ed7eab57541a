package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/repositories"
)

// InterviewRepo stores interviews in the "interviews" collection.
type InterviewRepo struct {
	client *Client
	col    *mongo.Collection
}

// NewInterviewRepo ensures the unique indexes the lifecycle relies on.
func NewInterviewRepo(ctx context.Context, c *Client) (*InterviewRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	col := db.Collection("interviews")
	_, err = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "interviewCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "candidateEmail", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "interviewerEmail", Value: 1}, {Key: "startTime", Value: -1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create interview indexes: %w", err)
	}
	return &InterviewRepo{client: c, col: col}, nil
}

func (r *InterviewRepo) Create(ctx context.Context, interview *models.Interview) error {
	now := time.Now().UTC()
	interview.CreatedAt, interview.UpdatedAt = now, now
	if _, err := r.col.InsertOne(ctx, interview); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: interview code or candidate email already in use", models.ErrConflict)
		}
		return storageErr("create interview", err)
	}
	return nil
}

func (r *InterviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *InterviewRepo) GetByCode(ctx context.Context, code string) (*models.Interview, error) {
	return r.findOne(ctx, bson.M{"interviewCode": code})
}

func (r *InterviewRepo) findOne(ctx context.Context, filter bson.M) (*models.Interview, error) {
	var interview models.Interview
	err := r.col.FindOne(ctx, filter).Decode(&interview)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: interview", models.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("load interview", err)
	}
	return &interview, nil
}

func (r *InterviewRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, bson.M{"interviewCode": code})
}

func (r *InterviewRepo) CandidateEmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"candidateEmail": email})
}

func (r *InterviewRepo) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, storageErr("count interviews", err)
	}
	return n > 0, nil
}

func (r *InterviewRepo) List(ctx context.Context, page, limit int) ([]models.Interview, int64, error) {
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, storageErr("count interviews", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "startTime", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	interviews, err := r.find(ctx, bson.M{}, opts)
	return interviews, total, err
}

func (r *InterviewRepo) ListByInterviewer(ctx context.Context, email string) ([]models.Interview, error) {
	return r.find(ctx, bson.M{"interviewerEmail": email}, options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}}))
}

func (r *InterviewRepo) ListByCandidate(ctx context.Context, email string) ([]models.Interview, error) {
	return r.find(ctx, bson.M{"candidateEmail": email}, options.Find().SetSort(bson.D{{Key: "startTime", Value: -1}}))
}

func (r *InterviewRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Interview, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storageErr("list interviews", err)
	}
	defer cur.Close(ctx)
	interviews := []models.Interview{}
	if err := cur.All(ctx, &interviews); err != nil {
		return nil, storageErr("decode interviews", err)
	}
	return interviews, nil
}

// Activate is a conditional update on {_id, status: scheduled}.
func (r *InterviewRepo) Activate(ctx context.Context, id string, startTime time.Time) (bool, error) {
	return r.casStatus(ctx, id, models.StatusScheduled, bson.M{
		"status":    models.StatusActive,
		"startTime": startTime,
	})
}

// Finalize is a conditional update on {_id, status: active}.
func (r *InterviewRepo) Finalize(ctx context.Context, id string, stats models.FinalStats) (bool, error) {
	return r.casStatus(ctx, id, models.StatusActive, bson.M{
		"status":                stats.Status,
		"endTime":               stats.EndTime,
		"duration":              stats.Duration,
		"totalEvents":           stats.TotalEvents,
		"focusLostCount":        stats.FocusLostCount,
		"suspiciousEventsCount": stats.SuspiciousEventsCount,
		"integrityScore":        stats.IntegrityScore,
	})
}

func (r *InterviewRepo) casStatus(ctx context.Context, id string, expect models.InterviewStatus, set bson.M) (bool, error) {
	set["updatedAt"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": expect}, bson.M{"$set": set})
	if err != nil {
		return false, storageErr("update interview status", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *InterviewRepo) UpdateRecording(ctx context.Context, id string, status models.RecordingStatus, videoURL *string) error {
	set := bson.M{"recordingStatus": status, "updatedAt": time.Now().UTC()}
	if videoURL != nil {
		set["videoUrl"] = *videoURL
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return storageErr("update recording", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: interview", models.ErrNotFound)
	}
	return nil
}

func (r *InterviewRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", models.ErrStorage, op, err)
}

var _ repositories.InterviewStore = (*InterviewRepo)(nil)
