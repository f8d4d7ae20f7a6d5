// Package topics is the mutation engine for the shared feed: create, vote,
// comment, delete and report, each validated and applied as one atomic store
// operation on a single topic.
package topics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ventspace/models"
	"ventspace/store"
	"ventspace/validation"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

// Generic messages shown to the requester when the store fails.
const (
	msgCreateFailed  = "Failed to create topic"
	msgVoteFailed    = "Failed to vote on topic"
	msgCommentFailed = "Failed to add comment"
	msgDeleteFailed  = "Failed to delete topic"
	msgReportFailed  = "Failed to report topic"
	msgLoadFailed    = "Failed to load topics"
)

type CreateInput struct {
	Content string
	Mood    string
	Mode    string
	UserID  string
}

type VoteInput struct {
	TopicID string
	UserID  string
	Type    string
}

type CommentInput struct {
	TopicID string
	Text    string
	UserID  string
}

type DeleteInput struct {
	TopicID string
	UserID  string
}

type ReportInput struct {
	TopicID string
	UserID  string
}

// DeleteResult is the outcome of Delete. Error is the requester-facing
// message when Success is false.
type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type Service struct {
	store  store.TopicStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds the engine. A nil clock means time.Now.
func NewService(s store.TopicStore, logger *slog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  s,
		logger: logger.With(slog.String("service", "topics")),
		now:    now,
	}
}

// timestamp is the current time in UTC at millisecond precision, the
// resolution every store and the wire format agree on.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Topic, error) {
	if err := validation.Content(in.Content); err != nil {
		return nil, err
	}
	if err := validation.UserID(in.UserID); err != nil {
		return nil, err
	}

	topic, err := s.store.Insert(ctx, &models.Topic{
		Content:   strings.TrimSpace(in.Content),
		Mood:      validation.Mood(in.Mood),
		Mode:      validation.Mode(in.Mode),
		UserID:    in.UserID,
		Votes:     []models.Vote{},
		Comments:  []models.Comment{},
		CreatedAt: s.timestamp(),
	})
	if err != nil {
		return nil, models.StoreFailure(msgCreateFailed, err)
	}

	s.logger.DebugContext(ctx, "topic created", slog.String("topic_id", topic.ID), slog.String("mood", string(topic.Mood)))
	return topic, nil
}

// Vote toggles the requester's vote: a first vote is added, repeating the
// same type removes it and the other type switches it. A missing topic
// yields models.ErrNotFound, which callers are expected to drop silently.
func (s *Service) Vote(ctx context.Context, in VoteInput) (*models.Topic, error) {
	if err := validation.UserID(in.UserID); err != nil {
		return nil, err
	}
	voteType, err := validation.VoteType(in.Type)
	if err != nil {
		return nil, err
	}

	voter := strings.TrimSpace(in.UserID)
	topic, err := s.store.ToggleVote(ctx, in.TopicID, voter, voteType)
	if err != nil {
		return nil, models.StoreFailure(msgVoteFailed, err)
	}

	active := "none"
	if v, ok := topic.VoteOf(voter); ok {
		active = string(v.Type)
	}
	s.logger.DebugContext(ctx, "vote toggled",
		slog.String("topic_id", topic.ID),
		slog.String("vote", active),
		slog.Int("agree", topic.AgreeCount()),
		slog.Int("disagree", topic.DisagreeCount()),
	)
	return topic, nil
}

func (s *Service) Comment(ctx context.Context, in CommentInput) (*models.Topic, error) {
	if err := validation.Comment(in.Text); err != nil {
		return nil, err
	}
	if err := validation.UserID(in.UserID); err != nil {
		return nil, err
	}

	topic, err := s.store.AppendComment(ctx, in.TopicID, models.Comment{
		Text:      strings.TrimSpace(in.Text),
		UserID:    in.UserID,
		Timestamp: s.timestamp(),
	})
	if err != nil {
		return nil, models.StoreFailure(msgCommentFailed, err)
	}
	return topic, nil
}

// Delete removes the topic when the requester created it. The returned
// DeleteResult always reflects the outcome; err is non-nil whenever
// Success is false.
func (s *Service) Delete(ctx context.Context, in DeleteInput) (DeleteResult, error) {
	if err := validation.UserID(in.UserID); err != nil {
		return failed(err)
	}
	if err := validation.TopicID(in.TopicID); err != nil {
		return failed(err)
	}

	topic, err := s.store.FindByID(ctx, in.TopicID)
	if err != nil {
		return failed(models.StoreFailure(msgDeleteFailed, err))
	}
	if !topic.OwnedBy(in.UserID) {
		return failed(models.ErrNotOwner)
	}

	if err := s.store.Delete(ctx, in.TopicID); err != nil {
		return failed(models.StoreFailure(msgDeleteFailed, err))
	}

	s.logger.DebugContext(ctx, "topic deleted", slog.String("topic_id", in.TopicID))
	return DeleteResult{Success: true}, nil
}

func failed(err error) (DeleteResult, error) {
	return DeleteResult{Success: false, Error: models.MessageOf(err)}, err
}

// Report bumps the report counter. Repeated reports from one requester all count.
func (s *Service) Report(ctx context.Context, in ReportInput) (*models.Topic, error) {
	if err := validation.UserID(in.UserID); err != nil {
		return nil, err
	}

	topic, err := s.store.IncrementReports(ctx, in.TopicID)
	if err != nil {
		return nil, models.StoreFailure(msgReportFailed, err)
	}
	return topic, nil
}

// Recent returns the newest topics. limit <= 0 means DefaultRecentLimit and
// values above MaxRecentLimit are clamped.
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.Topic, error) {
	switch {
	case limit <= 0:
		limit = DefaultRecentLimit
	case limit > MaxRecentLimit:
		limit = MaxRecentLimit
	}

	topics, err := s.store.FindRecent(ctx, limit)
	if err != nil {
		return nil, models.StoreFailure(msgLoadFailed, err)
	}
	return topics, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Topic, error) {
	if err := validation.TopicID(id); err != nil {
		return nil, err
	}
	topic, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, models.StoreFailure(msgLoadFailed, err)
	}
	return topic, nil
}
