package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
)

// ChannelInterviewFinalized carries models.InterviewFinalized payloads.
const ChannelInterviewFinalized = "interview_finalized"

// LifecyclePublisher fans terminal transitions out over redis so follow-up work
// (recording shutdown) happens off the request path.
type LifecyclePublisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewLifecyclePublisher(rdb *redis.Client, logger *zap.Logger) *LifecyclePublisher {
	return &LifecyclePublisher{rdb: rdb, logger: logger}
}

// InterviewFinalized publishes evt; failures are logged, the lifecycle write has already happened.
func (p *LifecyclePublisher) InterviewFinalized(ctx context.Context, evt models.InterviewFinalized) {
	payload, err := json.Marshal(evt)
	if err != nil {
		p.logger.Error("marshal interview_finalized", zap.Error(err))
		return
	}
	if err := p.rdb.Publish(ctx, ChannelInterviewFinalized, payload).Err(); err != nil {
		p.logger.Warn("publish interview_finalized failed",
			zap.String("interviewId", evt.InterviewID), zap.Error(err))
	}
}

var _ FinalizeNotifier = (*LifecyclePublisher)(nil)
