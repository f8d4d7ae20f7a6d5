package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ventspace/broadcast"
)

func TestBuildMessage(t *testing.T) {
	opts := options{userID: "u1", mood: "sad", mode: "advice"}

	tests := []struct {
		name    string
		command string
		args    []string
		event   string
		payload map[string]string
	}{
		{"post joins words", "post", []string{"long", "day"}, broadcast.EventCreateTopic,
			map[string]string{"content": "long day", "mood": "sad", "mode": "advice", "userId": "u1"}},
		{"vote", "vote", []string{"t1", "agree"}, broadcast.EventVoteTopic,
			map[string]string{"topicId": "t1", "type": "agree", "userId": "u1"}},
		{"comment", "comment", []string{"t1", "same", "here"}, broadcast.EventCommentTopic,
			map[string]string{"topicId": "t1", "text": "same here", "userId": "u1"}},
		{"delete", "delete", []string{"t1"}, broadcast.EventDeleteTopic,
			map[string]string{"topicId": "t1", "userId": "u1"}},
		{"report", "report", []string{"t1"}, broadcast.EventReportTopic,
			map[string]string{"topicId": "t1", "userId": "u1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := buildMessage(tt.command, tt.args, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.event, env.Type)
			assert.Equal(t, tt.payload, env.Payload)
		})
	}
}

func TestBuildMessage_Errors(t *testing.T) {
	_, err := buildMessage("vote", []string{"t1"}, options{})
	assert.ErrorContains(t, err, "usage: ventctl vote")

	_, err = buildMessage("post", nil, options{})
	assert.ErrorContains(t, err, "usage: ventctl post")

	_, err = buildMessage("hug", []string{"t1"}, options{})
	assert.ErrorContains(t, err, "unknown command")
}

func TestIsReply(t *testing.T) {
	assert.True(t, isReply(broadcast.EventNewTopic))
	assert.True(t, isReply(broadcast.EventUpdateTopic))
	assert.True(t, isReply(broadcast.EventError))
	assert.False(t, isReply(broadcast.EventLoadTopics))
	assert.False(t, isReply("pong"))
}
