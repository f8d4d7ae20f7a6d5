package models

import (
	"slices"
	"strings"
	"time"
)

type Mood string

const (
	MoodSad      Mood = "sad"
	MoodAngry    Mood = "angry"
	MoodStressed Mood = "stressed"
	MoodHappy    Mood = "happy"
	MoodConfused Mood = "confused"
	MoodNeutral  Mood = "neutral"
)

// Moods lists every valid mood in display order.
var Moods = []Mood{MoodSad, MoodAngry, MoodStressed, MoodHappy, MoodConfused, MoodNeutral}

func (m Mood) IsValid() bool {
	return slices.Contains(Moods, m)
}

// PostMode says whether a topic is just venting or asking for advice.
type PostMode string

const (
	ModeVent   PostMode = "vent"
	ModeAdvice PostMode = "advice"
)

func (m PostMode) IsValid() bool {
	return m == ModeVent || m == ModeAdvice
}

type VoteType string

const (
	VoteAgree    VoteType = "agree"
	VoteDisagree VoteType = "disagree"
)

func (v VoteType) IsValid() bool {
	return v == VoteAgree || v == VoteDisagree
}

type Vote struct {
	UserID string   `bson:"userId" json:"userId"`
	Type   VoteType `bson:"type" json:"type"`
}

type Comment struct {
	Text      string    `bson:"text" json:"text"`
	UserID    string    `bson:"userId" json:"userId"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Topic is one anonymous post. Content, Mood, Mode, UserID and CreatedAt are
// set once at creation; Votes, Comments and ReportCount change through the
// store's atomic operations only.
type Topic struct {
	ID          string    `json:"_id"`
	Content     string    `json:"content"`
	Mood        Mood      `json:"mood"`
	Mode        PostMode  `json:"mode"`
	UserID      string    `json:"userId"`
	Votes       []Vote    `json:"votes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
	ReportCount int       `json:"reportCount"`
}

func (t *Topic) AgreeCount() int {
	return t.countVotes(VoteAgree)
}

func (t *Topic) DisagreeCount() int {
	return t.countVotes(VoteDisagree)
}

func (t *Topic) countVotes(kind VoteType) int {
	n := 0
	for _, v := range t.Votes {
		if v.Type == kind {
			n++
		}
	}
	return n
}

// VoteOf returns the active vote of userID, compared after trimming.
func (t *Topic) VoteOf(userID string) (Vote, bool) {
	userID = strings.TrimSpace(userID)
	for _, v := range t.Votes {
		if strings.TrimSpace(v.UserID) == userID {
			return v, true
		}
	}
	return Vote{}, false
}

// OwnedBy reports whether requesterID created the topic. Both ids are trimmed;
// the comparison is exact, with no case folding.
func (t *Topic) OwnedBy(requesterID string) bool {
	return strings.TrimSpace(t.UserID) == strings.TrimSpace(requesterID)
}

// Clone returns a deep copy so stores can hand out snapshots safely.
func (t *Topic) Clone() *Topic {
	if t == nil {
		return nil
	}
	c := *t
	if t.Votes != nil {
		c.Votes = make([]Vote, len(t.Votes))
		copy(c.Votes, t.Votes)
	}
	if t.Comments != nil {
		c.Comments = make([]Comment, len(t.Comments))
		copy(c.Comments, t.Comments)
	}
	return &c
}
