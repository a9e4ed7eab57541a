package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/models"
)

// RecordingSubscriber stops any still-running recording once its interview is finalized.
type RecordingSubscriber struct {
	rdb        *redis.Client
	recordings *RecordingService
	logger     *zap.Logger
}

func NewRecordingSubscriber(rdb *redis.Client, recordings *RecordingService, logger *zap.Logger) *RecordingSubscriber {
	return &RecordingSubscriber{rdb: rdb, recordings: recordings, logger: logger}
}

// Run blocks until ctx is cancelled. ready, if non-nil, is closed once the
// subscription is confirmed.
func (rs *RecordingSubscriber) Run(ctx context.Context, ready chan<- struct{}) {
	sub := rs.rdb.Subscribe(ctx, ChannelInterviewFinalized)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		rs.logger.Error("subscribe interview_finalized failed", zap.Error(err))
		return
	}
	if ready != nil {
		close(ready)
	}
	rs.logger.Info("recording subscriber listening", zap.String("channel", ChannelInterviewFinalized))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			rs.handle(ctx, msg.Payload)
		}
	}
}

func (rs *RecordingSubscriber) handle(ctx context.Context, payload string) {
	var evt models.InterviewFinalized
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		rs.logger.Warn("bad interview_finalized payload", zap.Error(err))
		return
	}
	url, stopped, err := rs.recordings.Cleanup(ctx, evt.InterviewID)
	switch {
	case err != nil && !errors.Is(err, context.Canceled):
		rs.logger.Warn("auto-stop recording failed", zap.String("interviewId", evt.InterviewID), zap.Error(err))
	case stopped:
		rs.logger.Info("recording auto-stopped",
			zap.String("interviewId", evt.InterviewID),
			zap.String("reason", string(evt.Reason)),
			zap.String("videoUrl", url))
	}
}
