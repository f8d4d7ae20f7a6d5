package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventspace/broadcast"
	"ventspace/logger"
	"ventspace/models"
	"ventspace/websocket"
)

func errorText(t *testing.T, d broadcast.Delivery) string {
	t.Helper()
	require.Equal(t, broadcast.Requester, d.Scope)
	require.Equal(t, broadcast.EventError, d.Event)
	return d.Payload.(broadcast.ErrorPayload).Message
}

func TestSocket_Connected(t *testing.T) {
	svc := newService(t)
	seed(t, svc, "u1")
	seed(t, svc, "u2")
	h := NewSocket(svc, 20, logger.Discard())

	d := h.Connected(context.Background())
	assert.Equal(t, broadcast.Requester, d.Scope)
	assert.Equal(t, broadcast.EventLoadTopics, d.Event)
	assert.Len(t, d.Payload, 2)
}

func TestSocket_Create(t *testing.T) {
	h := NewSocket(newService(t), 20, logger.Discard())

	d := h.Handle(context.Background(), websocket.Message{
		Type:    broadcast.EventCreateTopic,
		Payload: raw(t, map[string]string{"content": "hello", "mood": "neutral", "mode": "vent", "userId": "u1"}),
	})
	require.Equal(t, broadcast.Everyone, d.Scope)
	assert.Equal(t, broadcast.EventNewTopic, d.Event)
	view := d.Payload.(models.TopicView)
	assert.Equal(t, "hello", view.Content)
	assert.Zero(t, view.AgreeCount)
	assert.Equal(t, "2025-03-14T09:26:53.589Z", view.CreatedAt)

	d = h.Handle(context.Background(), websocket.Message{
		Type:    broadcast.EventCreateTopic,
		Payload: raw(t, map[string]string{"content": strings.Repeat("x", 501), "userId": "u1"}),
	})
	assert.Equal(t, "Content must be 500 characters or less", errorText(t, d))
}

func TestSocket_Vote(t *testing.T) {
	svc := newService(t)
	topic := seed(t, svc, "owner")
	h := NewSocket(svc, 20, logger.Discard())

	vote := func(topicID, kind, user string) broadcast.Delivery {
		return h.Handle(context.Background(), websocket.Message{
			Type:    broadcast.EventVoteTopic,
			Payload: raw(t, map[string]string{"topicId": topicID, "type": kind, "userId": user}),
		})
	}

	d := vote(topic.ID, "agree", "u1")
	require.Equal(t, broadcast.Everyone, d.Scope)
	assert.Equal(t, broadcast.EventUpdateTopic, d.Event)
	assert.Equal(t, 1, d.Payload.(models.TopicView).AgreeCount)

	assert.Equal(t, broadcast.Delivery{Scope: broadcast.Nobody}, vote("missing", "agree", "u1"))
	assert.Equal(t, "Invalid vote type", errorText(t, vote(topic.ID, "meh", "u1")))
	assert.Equal(t, "User ID is required", errorText(t, vote(topic.ID, "agree", " ")))
}

func TestSocket_Comment(t *testing.T) {
	svc := newService(t)
	topic := seed(t, svc, "owner")
	h := NewSocket(svc, 20, logger.Discard())

	d := h.Handle(context.Background(), websocket.Message{
		Type:    broadcast.EventCommentTopic,
		Payload: raw(t, map[string]string{"topicId": topic.ID, "text": " hang in there ", "userId": "u2"}),
	})
	require.Equal(t, broadcast.Everyone, d.Scope)
	view := d.Payload.(models.TopicView)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "hang in there", view.Comments[0].Text)

	d = h.Handle(context.Background(), websocket.Message{
		Type:    broadcast.EventCommentTopic,
		Payload: raw(t, map[string]string{"topicId": "missing", "text": "hi", "userId": "u2"}),
	})
	assert.Equal(t, "Topic not found", errorText(t, d))
}

func TestSocket_Delete(t *testing.T) {
	svc := newService(t)
	topic := seed(t, svc, "owner")
	h := NewSocket(svc, 20, logger.Discard())

	del := func(user string) broadcast.Delivery {
		return h.Handle(context.Background(), websocket.Message{
			Type:    broadcast.EventDeleteTopic,
			Payload: raw(t, map[string]string{"topicId": topic.ID, "userId": user}),
		})
	}

	assert.Equal(t, "You can only delete your own posts", errorText(t, del("intruder")))
	_, err := svc.Get(context.Background(), topic.ID)
	require.NoError(t, err)

	d := del(" owner ")
	require.Equal(t, broadcast.Everyone, d.Scope)
	assert.Equal(t, broadcast.EventUpdateTopic, d.Event)
	assert.Equal(t, models.Tombstone{ID: topic.ID, Deleted: true}, d.Payload)

	assert.Equal(t, "Topic not found", errorText(t, del("owner")))
}

func TestSocket_Report(t *testing.T) {
	svc := newService(t)
	topic := seed(t, svc, "owner")
	h := NewSocket(svc, 20, logger.Discard())

	d := h.Handle(context.Background(), websocket.Message{
		Type:    broadcast.EventReportTopic,
		Payload: raw(t, map[string]string{"topicId": topic.ID, "userId": "u3"}),
	})
	require.Equal(t, broadcast.Everyone, d.Scope)
	assert.Equal(t, 1, d.Payload.(models.TopicView).ReportCount)
}

func TestSocket_BadInput(t *testing.T) {
	h := NewSocket(newService(t), 20, logger.Discard())

	tests := []struct {
		name string
		msg  websocket.Message
		want string
	}{
		{"missing payload", websocket.Message{Type: broadcast.EventCreateTopic}, "Invalid payload"},
		{"wrong field type", websocket.Message{Type: broadcast.EventVoteTopic, Payload: []byte(`{"topicId":42}`)}, "Invalid payload"},
		{"array payload", websocket.Message{Type: broadcast.EventReportTopic, Payload: []byte(`[]`)}, "Invalid payload"},
		{"unknown event", websocket.Message{Type: "hug_topic", Payload: []byte(`{}`)}, "Unknown event"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorText(t, h.Handle(context.Background(), tt.msg)))
		})
	}
}
