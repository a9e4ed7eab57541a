package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/avinasha18/interview-proctor/internal/metrics"
	"github.com/avinasha18/interview-proctor/internal/models"
	"github.com/avinasha18/interview-proctor/internal/services"
	"github.com/avinasha18/interview-proctor/internal/utils"
)

// Coordinator owns the per-interview room table and drives the interview
// lifecycle from real-time signals. Finalize in the store is the only
// serialization point between competing end triggers.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[string]*Room

	interviews *services.InterviewService
	secret     []byte
	logger     *zap.Logger
	now        func() time.Time
}

func NewCoordinator(interviews *services.InterviewService, jwtSecret []byte, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		rooms:      make(map[string]*Room),
		interviews: interviews,
		secret:     jwtSecret,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Activate is the candidate's join-by-code step.
func (c *Coordinator) Activate(ctx context.Context, code string) (*models.Interview, error) {
	return c.interviews.Activate(ctx, code)
}

// Join validates the participant token and registers client in the room of
// roomID. The role comes from the token, never from client behaviour.
func (c *Coordinator) Join(ctx context.Context, roomID string, client *Client, token string) (*models.JoinAck, error) {
	if client.Room() != nil {
		return nil, fmt.Errorf("%w: connection already joined a room", models.ErrInvalidState)
	}
	claims, err := utils.ParseParticipantToken(c.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if claims.InterviewID != roomID {
		return nil, fmt.Errorf("%w: token is for a different interview", models.ErrValidation)
	}
	interview, err := c.interviews.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if interview.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: interview already %s", models.ErrInvalidState, interview.Status)
	}

	room := c.getOrCreate(roomID)
	for !room.Join(client) {
		if room.isEnded() {
			return nil, fmt.Errorf("%w: interview has ended", models.ErrInvalidState)
		}
		// lost a race with teardown; the next lookup creates a fresh room
		room = c.getOrCreate(roomID)
	}
	client.bind(room, claims.Role, claims.Email)
	metrics.ClientJoined(string(claims.Role))
	if claims.Role == models.RoleInterviewer {
		go client.runFrameWriter(func(err error) {
			metrics.SendFailed(models.SignalVideoFrame)
			c.logger.Debug("frame send failed", zap.String("clientId", client.ID), zap.Error(err))
		})
	}
	c.logger.Info("participant joined",
		zap.String("interviewId", roomID),
		zap.String("role", string(claims.Role)),
		zap.String("clientId", client.ID))
	return &models.JoinAck{InterviewID: roomID, Role: claims.Role, ClientID: client.ID}, nil
}

// Leave handles a closed connection. A candidate that drops without having
// announced candidate-leaving ends the interview with connection_lost; an
// interviewer drop only removes membership.
func (c *Coordinator) Leave(ctx context.Context, client *Client) {
	room := client.Room()
	if room == nil {
		return
	}
	role := client.Role()
	remaining := room.Leave(client)
	metrics.ClientLeft(string(role))
	c.logger.Info("participant left",
		zap.String("interviewId", room.ID),
		zap.String("role", string(role)),
		zap.Int("remaining", remaining))

	if role == models.RoleCandidate && !client.isLeaving() {
		if _, err := c.candidateGone(ctx, room.ID, room, models.EndConnectionLost, "Candidate connection lost"); err != nil {
			c.logger.Info("connection loss not recorded", zap.String("interviewId", room.ID), zap.Error(err))
		}
	}
	if remaining == 0 {
		c.closeRoom(room)
	}
}

// CandidateStarted tells the interviewers that the candidate is live.
func (c *Coordinator) CandidateStarted(ctx context.Context, client *Client) error {
	room, err := c.requireRole(client, models.RoleCandidate)
	if err != nil {
		return err
	}
	interview, err := c.interviews.Get(ctx, room.ID)
	if err != nil {
		return err
	}
	if interview.Status != models.StatusActive {
		return fmt.Errorf("%w: interview is %s", models.ErrInvalidState, interview.Status)
	}
	c.broadcast(room, models.RoleInterviewer, models.WSFrame{
		Type: models.SignalCandidateStarted,
		Data: models.CandidateStarted{InterviewID: room.ID, Message: interview.CandidateName + " has started the interview"},
	})
	return nil
}

// EndInterviewSignal is the interviewer's end-interview over the socket.
func (c *Coordinator) EndInterviewSignal(ctx context.Context, client *Client) (*models.Interview, bool, error) {
	room, err := c.requireRole(client, models.RoleInterviewer)
	if err != nil {
		return nil, false, err
	}
	return c.endInterview(ctx, room.ID, room, "interviewer")
}

// CandidateEnded is the candidate finishing the interview. It completes like
// an interviewer's end, not like candidate-leaving.
func (c *Coordinator) CandidateEnded(ctx context.Context, client *Client) (*models.Interview, bool, error) {
	room, err := c.requireRole(client, models.RoleCandidate)
	if err != nil {
		return nil, false, err
	}
	interview, transitioned, err := c.endInterview(ctx, room.ID, room, "candidate")
	if err != nil {
		return nil, false, err
	}
	client.markLeaving()
	return interview, transitioned, nil
}

// EndInterview finalizes with explicit_end and broadcasts interview-ended to the room.
func (c *Coordinator) EndInterview(ctx context.Context, interviewID, endedBy string) (*models.Interview, bool, error) {
	return c.endInterview(ctx, interviewID, c.lookup(interviewID), endedBy)
}

func (c *Coordinator) endInterview(ctx context.Context, interviewID string, room *Room, endedBy string) (*models.Interview, bool, error) {
	unlock := lockOrder(room)
	defer unlock()

	interview, transitioned, err := c.interviews.Finalize(ctx, interviewID, models.EndExplicit)
	if err != nil {
		return nil, false, err
	}
	if room != nil {
		c.broadcast(room, "", models.WSFrame{
			Type: models.SignalInterviewEnded,
			Data: models.InterviewEnded{
				InterviewID:    interviewID,
				Status:         interview.Status,
				IntegrityScore: interview.IntegrityScore,
				EndedBy:        endedBy,
				Transitioned:   transitioned,
			},
		})
		if interview.Status.IsTerminal() {
			room.end()
		}
	}
	return interview, transitioned, nil
}

// CandidateLeaving is the candidate's explicit exit.
func (c *Coordinator) CandidateLeaving(ctx context.Context, client *Client) (*models.Interview, error) {
	room, err := c.requireRole(client, models.RoleCandidate)
	if err != nil {
		return nil, err
	}
	client.markLeaving()
	return c.candidateGone(ctx, room.ID, room, models.EndCandidateLeft, "Candidate left the interview")
}

// Disconnect records a connection loss reported over HTTP.
func (c *Coordinator) Disconnect(ctx context.Context, interviewID string) (*models.Interview, error) {
	return c.candidateGone(ctx, interviewID, c.lookup(interviewID), models.EndConnectionLost, "Candidate connection lost")
}

func (c *Coordinator) candidateGone(ctx context.Context, interviewID string, room *Room, reason models.EndReason, msg string) (*models.Interview, error) {
	unlock := lockOrder(room)
	defer unlock()

	interview, transitioned, err := c.interviews.Finalize(ctx, interviewID, reason)
	if err != nil {
		return nil, err
	}
	if room != nil {
		c.broadcast(room, "", models.WSFrame{
			Type: models.SignalCandidateDisconnected,
			Data: models.CandidateDisconnected{
				InterviewID:  interviewID,
				Status:       interview.Status,
				Reason:       reason,
				Message:      msg,
				Timestamp:    c.now(),
				Transitioned: transitioned,
			},
		})
		if interview.Status.IsTerminal() {
			room.end()
		}
	}
	return interview, nil
}

// RelayFrame hands a candidate frame to every interviewer's mailbox. A frame
// still waiting to be written is replaced.
func (c *Coordinator) RelayFrame(client *Client, frame models.VideoFrame) error {
	room, err := c.requireRole(client, models.RoleCandidate)
	if err != nil {
		return err
	}
	c.relay(room, frame)
	return nil
}

// RelayFrameHTTP is the fallback for candidates streaming over HTTP.
func (c *Coordinator) RelayFrameHTTP(interviewID string, frame models.VideoFrame) bool {
	room := c.lookup(interviewID)
	if room == nil {
		return false
	}
	c.relay(room, frame)
	return true
}

func (c *Coordinator) relay(room *Room, frame models.VideoFrame) {
	frame.InterviewID = room.ID
	if frame.Timestamp == 0 {
		frame.Timestamp = c.now().UnixMilli()
	}
	for _, viewer := range room.members(models.RoleInterviewer) {
		if viewer.offerFrame(frame) {
			metrics.FrameDropped()
		}
	}
}

// IngestEvent persists a detector event, then broadcasts it to the room.
func (c *Coordinator) IngestEvent(ctx context.Context, event *models.Event) error {
	room := c.lookup(event.InterviewID)
	unlock := lockOrder(room)
	defer unlock()

	if err := c.interviews.RecordEvent(ctx, event); err != nil {
		return err
	}
	if room != nil {
		c.broadcast(room, "", models.WSFrame{Type: models.SignalProctoringEvent, Data: event})
	}
	return nil
}

// RoomCount reports the room table size. Ended rooms count until their
// last member leaves.
func (c *Coordinator) RoomCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rooms)
}

func (c *Coordinator) broadcast(room *Room, role models.Role, frame models.WSFrame) {
	for client, err := range room.Broadcast(role, frame) {
		metrics.SendFailed(frame.Type)
		c.logger.Warn("broadcast send failed",
			zap.String("interviewId", room.ID),
			zap.String("signal", frame.Type),
			zap.String("clientId", client.ID),
			zap.Error(err))
	}
}

func (c *Coordinator) requireRole(client *Client, role models.Role) (*Room, error) {
	room := client.Room()
	if room == nil {
		return nil, fmt.Errorf("%w: join-interview first", models.ErrInvalidState)
	}
	if client.Role() != role {
		return nil, fmt.Errorf("%w: only the %s may send this signal", models.ErrValidation, role)
	}
	return room, nil
}

func (c *Coordinator) lookup(id string) *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[id]
}

func (c *Coordinator) getOrCreate(id string) *Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rooms[id]; ok {
		return r
	}
	r := NewRoom(id)
	c.rooms[id] = r
	metrics.RoomOpened()
	return r
}

// closeRoom drops an empty room from the table.
func (c *Coordinator) closeRoom(room *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rooms[room.ID] != room {
		return
	}
	delete(c.rooms, room.ID)
	room.close()
	metrics.RoomClosed()
}

func lockOrder(room *Room) func() {
	if room == nil {
		return func() {}
	}
	room.order.Lock()
	return room.order.Unlock
}
