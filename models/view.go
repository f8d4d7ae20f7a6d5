package models

import "time"

// WireTimeLayout is the ISO-8601 form used for every timestamp sent to clients.
const WireTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatWireTime renders t in UTC using WireTimeLayout.
func FormatWireTime(t time.Time) string {
	return t.UTC().Format(WireTimeLayout)
}

type VoteView struct {
	UserID string   `json:"userId"`
	Type   VoteType `json:"type"`
}

type CommentView struct {
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
}

// TopicView is the wire representation of a Topic, including the derived
// vote counts.
type TopicView struct {
	ID            string        `json:"_id"`
	Content       string        `json:"content"`
	Mood          Mood          `json:"mood"`
	Mode          PostMode      `json:"mode"`
	UserID        string        `json:"userId"`
	Votes         []VoteView    `json:"votes"`
	Comments      []CommentView `json:"comments"`
	CreatedAt     string        `json:"createdAt"`
	ReportCount   int           `json:"reportCount"`
	AgreeCount    int           `json:"agreeCount"`
	DisagreeCount int           `json:"disagreeCount"`
}

func NewTopicView(t *Topic) TopicView {
	view := TopicView{
		ID:            t.ID,
		Content:       t.Content,
		Mood:          t.Mood,
		Mode:          t.Mode,
		UserID:        t.UserID,
		Votes:         make([]VoteView, 0, len(t.Votes)),
		Comments:      make([]CommentView, 0, len(t.Comments)),
		CreatedAt:     FormatWireTime(t.CreatedAt),
		ReportCount:   t.ReportCount,
		AgreeCount:    t.AgreeCount(),
		DisagreeCount: t.DisagreeCount(),
	}
	for _, v := range t.Votes {
		view.Votes = append(view.Votes, VoteView{UserID: v.UserID, Type: v.Type})
	}
	for _, c := range t.Comments {
		view.Comments = append(view.Comments, CommentView{
			Text:      c.Text,
			UserID:    c.UserID,
			Timestamp: FormatWireTime(c.Timestamp),
		})
	}
	return view
}

func NewTopicViews(topics []*Topic) []TopicView {
	views := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		views = append(views, NewTopicView(t))
	}
	return views
}

// Tombstone replaces a full topic in the update sent after a delete. It is
// never persisted.
type Tombstone struct {
	ID      string `json:"_id"`
	Deleted bool   `json:"deleted"`
}

func NewTombstone(id string) Tombstone {
	return Tombstone{ID: id, Deleted: true}
}
