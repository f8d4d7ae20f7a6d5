// Package store persists topics. Every mutating method is one atomic
// per-document operation that returns the snapshot after the change, so
// concurrent callers never overwrite each other's votes, comments or reports.
package store

import (
	"context"
	"time"

	"ventspace/models"
)

// defaultOpTimeout bounds each database call when no timeout is configured.
const defaultOpTimeout = 10 * time.Second

// TopicStore is the persistence contract used by the topic service.
// Methods return models.ErrNotFound (possibly wrapped) for unknown ids.
type TopicStore interface {
	// Insert assigns an id and stores t.
	Insert(ctx context.Context, t *models.Topic) (*models.Topic, error)
	FindByID(ctx context.Context, id string) (*models.Topic, error)
	// FindRecent returns up to limit topics, newest first.
	FindRecent(ctx context.Context, limit int) ([]*models.Topic, error)
	// ToggleVote adds voterID's vote, removes it when the same type is
	// already active, or switches it to voteType.
	ToggleVote(ctx context.Context, id, voterID string, voteType models.VoteType) (*models.Topic, error)
	AppendComment(ctx context.Context, id string, c models.Comment) (*models.Topic, error)
	IncrementReports(ctx context.Context, id string) (*models.Topic, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

// toggle applies the vote toggle to an in-memory vote list. Stores that
// cannot express the toggle as a single server-side update call it while
// holding the document lock.
func toggle(votes []models.Vote, voterID string, voteType models.VoteType) []models.Vote {
	for i, v := range votes {
		if v.UserID != voterID {
			continue
		}
		if v.Type == voteType {
			return append(votes[:i:i], votes[i+1:]...)
		}
		out := append([]models.Vote(nil), votes...)
		out[i].Type = voteType
		return out
	}
	return append(append([]models.Vote(nil), votes...), models.Vote{UserID: voterID, Type: voteType})
}
