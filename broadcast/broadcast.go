// Package broadcast decides who hears about the result of a topic operation
// and what they receive.
package broadcast

import (
	"errors"

	"ventspace/models"
)

// Inbound events.
const (
	EventCreateTopic  = "create_topic"
	EventVoteTopic    = "vote_topic"
	EventCommentTopic = "comment_topic"
	EventDeleteTopic  = "delete_topic"
	EventReportTopic  = "report_topic"
)

// Outbound events.
const (
	EventLoadTopics  = "load_topics"
	EventNewTopic    = "new_topic"
	EventUpdateTopic = "update_topic"
	EventError       = "error"
)

type Scope int

const (
	Nobody Scope = iota
	Requester
	Everyone
)

func (s Scope) String() string {
	switch s {
	case Requester:
		return "requester"
	case Everyone:
		return "everyone"
	default:
		return "nobody"
	}
}

// Delivery is the plan for one outbound message.
type Delivery struct {
	Scope   Scope
	Event   string
	Payload any
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// none is the empty plan: nothing is sent.
var none = Delivery{Scope: Nobody}

func Created(topic *models.Topic, err error) Delivery {
	if err != nil {
		return Failure(err, "Failed to create topic")
	}
	return everyone(EventNewTopic, models.NewTopicView(topic))
}

// Voted never reports a missing topic: the vote most likely raced a delete
// whose tombstone the requester is about to receive.
func Voted(topic *models.Topic, err error) Delivery {
	if errors.Is(err, models.ErrNotFound) {
		return none
	}
	if err != nil {
		return Failure(err, "Failed to vote on topic")
	}
	return everyone(EventUpdateTopic, models.NewTopicView(topic))
}

func Commented(topic *models.Topic, err error) Delivery {
	if err != nil {
		return Failure(err, "Failed to add comment")
	}
	return everyone(EventUpdateTopic, models.NewTopicView(topic))
}

// Deleted broadcasts a tombstone for topicID; the store keeps nothing.
func Deleted(topicID string, err error) Delivery {
	if err != nil {
		return Failure(err, "Failed to delete topic")
	}
	return everyone(EventUpdateTopic, models.NewTombstone(topicID))
}

func Reported(topic *models.Topic, err error) Delivery {
	if err != nil {
		return Failure(err, "Failed to report topic")
	}
	return everyone(EventUpdateTopic, models.NewTopicView(topic))
}

// Loaded is the greeting sent to a freshly connected client. A failed load
// sends nothing.
func Loaded(topics []*models.Topic, err error) Delivery {
	if err != nil {
		return none
	}
	return Delivery{Scope: Requester, Event: EventLoadTopics, Payload: models.NewTopicViews(topics)}
}

// Failure builds the error reply for the requester. Domain errors keep their
// own message; anything else is reported as fallback.
func Failure(err error, fallback string) Delivery {
	msg := fallback
	var e *models.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	return Reply(EventError, ErrorPayload{Message: msg})
}

// Reply sends payload back to the requester only.
func Reply(event string, payload any) Delivery {
	return Delivery{Scope: Requester, Event: event, Payload: payload}
}

func everyone(event string, payload any) Delivery {
	return Delivery{Scope: Everyone, Event: event, Payload: payload}
}
