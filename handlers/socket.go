package handlers

import (
	"context"
	"encoding/json"
	"log/slog"

	"ventspace/broadcast"
	"ventspace/models"
	"ventspace/topics"
	"ventspace/websocket"
)

const (
	msgInvalidPayload = "Invalid payload"
	msgUnknownEvent   = "Unknown event"
)

type createTopicPayload struct {
	Content string `json:"content"`
	Mood    string `json:"mood"`
	Mode    string `json:"mode"`
	UserID  string `json:"userId"`
}

type voteTopicPayload struct {
	TopicID string `json:"topicId"`
	Type    string `json:"type"`
	UserID  string `json:"userId"`
}

type commentTopicPayload struct {
	TopicID string `json:"topicId"`
	Text    string `json:"text"`
	UserID  string `json:"userId"`
}

// topicRefPayload is the body of delete_topic and report_topic.
type topicRefPayload struct {
	TopicID string `json:"topicId"`
	UserID  string `json:"userId"`
}

// Socket serves the websocket events of the feed.
type Socket struct {
	topics    *topics.Service
	feedLimit int
	logger    *slog.Logger
}

func NewSocket(svc *topics.Service, feedLimit int, logger *slog.Logger) *Socket {
	return &Socket{
		topics:    svc,
		feedLimit: feedLimit,
		logger:    logger.With(slog.String("component", "socket")),
	}
}

// Connected loads the recent feed for a new connection.
func (h *Socket) Connected(ctx context.Context) broadcast.Delivery {
	list, err := h.topics.Recent(ctx, h.feedLimit)
	if err != nil {
		logOutcome(ctx, h.logger, broadcast.EventLoadTopics, "", err)
	}
	return broadcast.Loaded(list, err)
}

func (h *Socket) Handle(ctx context.Context, msg websocket.Message) broadcast.Delivery {
	switch msg.Type {
	case broadcast.EventCreateTopic:
		var p createTopicPayload
		if !decode(msg.Payload, &p) {
			return invalidPayload()
		}
		topic, err := h.topics.Create(ctx, topics.CreateInput{Content: p.Content, Mood: p.Mood, Mode: p.Mode, UserID: p.UserID})
		logOutcome(ctx, h.logger, msg.Type, "", err)
		return broadcast.Created(topic, err)

	case broadcast.EventVoteTopic:
		var p voteTopicPayload
		if !decode(msg.Payload, &p) {
			return invalidPayload()
		}
		topic, err := h.topics.Vote(ctx, topics.VoteInput{TopicID: p.TopicID, UserID: p.UserID, Type: p.Type})
		logOutcome(ctx, h.logger, msg.Type, p.TopicID, err)
		return broadcast.Voted(topic, err)

	case broadcast.EventCommentTopic:
		var p commentTopicPayload
		if !decode(msg.Payload, &p) {
			return invalidPayload()
		}
		topic, err := h.topics.Comment(ctx, topics.CommentInput{TopicID: p.TopicID, Text: p.Text, UserID: p.UserID})
		logOutcome(ctx, h.logger, msg.Type, p.TopicID, err)
		return broadcast.Commented(topic, err)

	case broadcast.EventDeleteTopic:
		var p topicRefPayload
		if !decode(msg.Payload, &p) {
			return invalidPayload()
		}
		_, err := h.topics.Delete(ctx, topics.DeleteInput{TopicID: p.TopicID, UserID: p.UserID})
		logOutcome(ctx, h.logger, msg.Type, p.TopicID, err)
		return broadcast.Deleted(p.TopicID, err)

	case broadcast.EventReportTopic:
		var p topicRefPayload
		if !decode(msg.Payload, &p) {
			return invalidPayload()
		}
		topic, err := h.topics.Report(ctx, topics.ReportInput{TopicID: p.TopicID, UserID: p.UserID})
		logOutcome(ctx, h.logger, msg.Type, p.TopicID, err)
		return broadcast.Reported(topic, err)

	default:
		h.logger.DebugContext(ctx, "unknown event", slog.String("event", msg.Type))
		return broadcast.Reply(broadcast.EventError, broadcast.ErrorPayload{Message: msgUnknownEvent})
	}
}

// logOutcome logs store failures at error level. Domain failures are the
// requester's problem and only logged at debug.
func logOutcome(ctx context.Context, logger *slog.Logger, op, topicID string, err error) {
	if err == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("op", op),
		slog.String("error", err.Error()),
	}
	if topicID != "" {
		attrs = append(attrs, slog.String("topic_id", topicID))
	}

	level := slog.LevelDebug
	if models.KindOf(err) == models.KindStoreFailure {
		level = slog.LevelError
	}
	logger.LogAttrs(ctx, level, "topic operation failed", attrs...)
}

func decode(raw json.RawMessage, v any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func invalidPayload() broadcast.Delivery {
	return broadcast.Reply(broadcast.EventError, broadcast.ErrorPayload{Message: msgInvalidPayload})
}
