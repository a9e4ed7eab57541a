package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/metrics"
	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/storage"
)

const (
	minRecordingBytes  = 1024
	recordingMediaType = "video/webm"
)

var (
	ErrChunkTooLarge = errors.New("video chunk too large")
	webmMagic        = []byte{0x1A, 0x45, 0xDF, 0xA3}
)

type recording struct {
	mu   sync.Mutex
	info models.RecordingInfo
	path string
	file *os.File

	// ready closes once Start has opened the file or given up; err is
	// set before that on failure.
	ready chan struct{}
	err   error
}

// RecordingService buffers an interview's webm chunks into a temp file and
// uploads the result to the configured VideoStore on stop.
type RecordingService struct {
	mu         sync.Mutex
	recordings map[string]*recording

	interviews *InterviewService
	store      storage.VideoStore
	tempDir    string
	maxChunk   int64
	logger     *zap.Logger
	now        func() time.Time
}

func NewRecordingService(interviews *InterviewService, store storage.VideoStore, tempDir string, maxChunk int64, logger *zap.Logger) (*RecordingService, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording temp dir: %w", err)
	}
	return &RecordingService{
		recordings: make(map[string]*recording),
		interviews: interviews,
		store:      store,
		tempDir:    tempDir,
		maxChunk:   maxChunk,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start opens a recording for the interview. Starting twice returns the running one.
func (s *RecordingService) Start(ctx context.Context, interviewID, candidateName string) (*models.RecordingInfo, error) {
	interview, err := s.interviews.Get(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(candidateName) == "" {
		candidateName = interview.CandidateName
	}

	s.mu.Lock()
	if rec, ok := s.recordings[interviewID]; ok {
		s.mu.Unlock()
		<-rec.ready
		if rec.err != nil {
			return nil, rec.err
		}
		info := rec.snapshot()
		return &info, nil
	}
	now := s.now()
	rec := &recording{
		path:  filepath.Join(s.tempDir, fmt.Sprintf("%s_recording.webm", interviewID)),
		ready: make(chan struct{}),
		info: models.RecordingInfo{
			ID:            uuid.New().String(),
			InterviewID:   interviewID,
			CandidateName: candidateName,
			StartTime:     now,
			LastChunkAt:   now,
			IsRecording:   true,
		},
	}
	s.recordings[interviewID] = rec
	s.mu.Unlock()

	if err := s.open(ctx, rec); err != nil {
		s.mu.Lock()
		if s.recordings[interviewID] == rec {
			delete(s.recordings, interviewID)
		}
		s.mu.Unlock()
		rec.mu.Lock()
		rec.info.IsRecording = false
		rec.mu.Unlock()
		rec.err = err
		close(rec.ready)
		return nil, err
	}
	close(rec.ready)
	s.logger.Info("recording started", zap.String("interviewId", interviewID), zap.String("recordingId", rec.info.ID))
	info := rec.snapshot()
	return &info, nil
}

// open creates the spool file and flags the interview as recording. It runs
// outside s.mu; the reserved entry keeps other starts for the interview waiting.
func (s *RecordingService) open(ctx context.Context, rec *recording) error {
	f, err := os.Create(rec.path)
	if err != nil {
		return fmt.Errorf("create recording file: %w", err)
	}
	if err := s.interviews.SetRecording(ctx, rec.info.InterviewID, models.RecordingActive, nil); err != nil {
		f.Close()
		os.Remove(rec.path)
		return err
	}
	rec.mu.Lock()
	rec.file = f
	rec.mu.Unlock()
	return nil
}

// AddChunk appends one base64 chunk (a data URL or bare base64) to the recording.
func (s *RecordingService) AddChunk(_ context.Context, interviewID, videoBlob string) error {
	if videoBlob == "" {
		return fmt.Errorf("%w: videoBlob is required", models.ErrValidation)
	}
	if int64(len(videoBlob)) > s.maxChunk {
		return ErrChunkTooLarge
	}
	rec := s.lookup(interviewID)
	if rec == nil {
		return fmt.Errorf("%w: no active recording", models.ErrInvalidState)
	}
	<-rec.ready

	if i := strings.IndexByte(videoBlob, ','); i >= 0 {
		videoBlob = videoBlob[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(videoBlob)
	if err != nil {
		return fmt.Errorf("%w: videoBlob is not valid base64", models.ErrValidation)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.info.IsRecording || rec.file == nil {
		return fmt.Errorf("%w: no active recording", models.ErrInvalidState)
	}
	n, err := rec.file.Write(data)
	if err != nil {
		return fmt.Errorf("write recording chunk: %w", err)
	}
	rec.info.ChunksCount++
	rec.info.Bytes += int64(n)
	rec.info.LastChunkAt = s.now()
	return nil
}

// Stop closes the recording, validates the webm file and uploads it.
// The interview's recordingStatus ends as completed or failed.
func (s *RecordingService) Stop(ctx context.Context, interviewID string) (string, error) {
	rec := s.remove(interviewID)
	if rec == nil {
		return "", fmt.Errorf("%w: no recording for interview", models.ErrNotFound)
	}
	<-rec.ready
	if rec.err != nil {
		return "", fmt.Errorf("%w: no recording for interview", models.ErrNotFound)
	}

	rec.mu.Lock()
	rec.info.IsRecording = false
	closeErr := rec.file.Close()
	info := rec.info
	rec.mu.Unlock()
	defer os.Remove(rec.path)

	url, err := s.upload(ctx, rec.path, info)
	if err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Warn("recording failed", zap.String("interviewId", interviewID), zap.Error(err))
		metrics.RecordingFinished(string(models.RecordingFailed))
		if uerr := s.interviews.SetRecording(ctx, interviewID, models.RecordingFailed, nil); uerr != nil {
			s.logger.Error("mark recording failed", zap.String("interviewId", interviewID), zap.Error(uerr))
		}
		return "", err
	}

	if err := s.interviews.SetRecording(ctx, interviewID, models.RecordingCompleted, &url); err != nil {
		return "", err
	}
	metrics.RecordingFinished(string(models.RecordingCompleted))
	s.logger.Info("recording completed",
		zap.String("interviewId", interviewID),
		zap.Int("chunks", info.ChunksCount),
		zap.Int64("bytes", info.Bytes),
		zap.String("videoUrl", url))
	return url, nil
}

func (s *RecordingService) upload(ctx context.Context, path string, info models.RecordingInfo) (string, error) {
	if err := validateWebM(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	key := fmt.Sprintf("interview_%s_%s.webm", info.InterviewID, strings.Join(strings.Fields(info.CandidateName), "_"))
	return s.store.Put(ctx, key, f, info.Bytes, recordingMediaType)
}

func validateWebM(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.Size() < minRecordingBytes {
		return fmt.Errorf("%w: recording is too small (%d bytes)", models.ErrValidation, st.Size())
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	head := make([]byte, len(webmMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return err
	}
	if !bytes.Equal(head, webmMagic) {
		return fmt.Errorf("%w: recording is not a webm stream", models.ErrValidation)
	}
	return nil
}

// Cleanup stops the recording if one is still running. It reports whether it did.
func (s *RecordingService) Cleanup(ctx context.Context, interviewID string) (string, bool, error) {
	if s.lookup(interviewID) == nil {
		return "", false, nil
	}
	url, err := s.Stop(ctx, interviewID)
	if errors.Is(err, models.ErrNotFound) {
		return "", false, nil
	}
	return url, err == nil, err
}

// Status returns a copy of the running recording, or nil.
func (s *RecordingService) Status(interviewID string) *models.RecordingInfo {
	rec := s.lookup(interviewID)
	if rec == nil {
		return nil
	}
	info := rec.snapshot()
	return &info
}

// Active lists running recordings, oldest first.
func (s *RecordingService) Active() []models.RecordingInfo {
	s.mu.Lock()
	out := make([]models.RecordingInfo, 0, len(s.recordings))
	for _, rec := range s.recordings {
		out = append(out, rec.snapshot())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

// SweepIdle abandons recordings that have received no chunk within maxIdle:
// the temp file is removed and the interview's recording is marked failed.
func (s *RecordingService) SweepIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	var stale []*recording
	s.mu.Lock()
	for id, rec := range s.recordings {
		select {
		case <-rec.ready:
		default:
			continue // still starting
		}
		rec.mu.Lock()
		idle := rec.info.LastChunkAt.Before(cutoff)
		rec.mu.Unlock()
		if idle {
			stale = append(stale, rec)
			delete(s.recordings, id)
		}
	}
	s.mu.Unlock()

	for _, rec := range stale {
		rec.mu.Lock()
		rec.info.IsRecording = false
		rec.file.Close()
		rec.mu.Unlock()
		os.Remove(rec.path)
		metrics.RecordingFinished(string(models.RecordingFailed))
		if err := s.interviews.SetRecording(ctx, rec.info.InterviewID, models.RecordingFailed, nil); err != nil {
			s.logger.Warn("mark abandoned recording failed", zap.String("interviewId", rec.info.InterviewID), zap.Error(err))
		}
		s.logger.Info("abandoned recording swept", zap.String("interviewId", rec.info.InterviewID))
	}
	return len(stale)
}

func (s *RecordingService) lookup(interviewID string) *recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordings[interviewID]
}

func (s *RecordingService) remove(interviewID string) *recording {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordings[interviewID]
	delete(s.recordings, interviewID)
	return rec
}

func (r *recording) snapshot() models.RecordingInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.info
}
