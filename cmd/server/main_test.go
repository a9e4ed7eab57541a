package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/config"
	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/storage"
)

func TestOpenStoresSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{StoreDriver: config.StoreDriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "proctor.db")}

	st, err := openStores(ctx, cfg)
	require.NoError(t, err)
	defer st.close(ctx)

	require.NoError(t, st.interviews.Ping(ctx))
	iv := &models.Interview{
		ID: "iv-1", SessionID: "s-1", InterviewCode: "ABC123",
		CandidateName: "Alice", CandidateEmail: "a@x.com",
		InterviewerName: "Bob", InterviewerEmail: "b@x.com",
		Status: models.StatusScheduled, RecordingStatus: models.RecordingNotStarted,
	}
	require.NoError(t, st.interviews.Create(ctx, iv))
	got, err := st.interviews.GetByCode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "iv-1", got.ID)
}

func TestOpenVideoStoreLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "videos")
	store, served, err := openVideoStore(context.Background(), &config.Config{VideoStore: config.VideoStoreLocal, VideoDir: dir}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, dir, served)

	url, err := store.Put(context.Background(), "clip.webm", strings.NewReader("data"), 4, "video/webm")
	require.NoError(t, err)
	assert.Equal(t, "/videos/clip.webm", url)
	_, ok := store.(*storage.LocalStore)
	assert.True(t, ok)
}

func TestConnectRedis(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, connectRedis(ctx, "", zap.NewNop()))

	mr := miniredis.RunT(t)
	rdb := connectRedis(ctx, mr.Addr(), zap.NewNop())
	require.NotNil(t, rdb)
	defer rdb.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, connectRedis(ctx, addr, zap.NewNop()))
}
