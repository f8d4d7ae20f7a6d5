package main

import (
	"fmt"
	"strings"

	"ventspace/broadcast"
	"ventspace/websocket"
)

type options struct {
	userID string
	mood   string
	mode   string
}

// buildMessage turns a CLI command into the inbound frame the server expects.
func buildMessage(command string, args []string, opts options) (websocket.Envelope, error) {
	need := func(n int, usage string) error {
		if len(args) < n {
			return fmt.Errorf("usage: ventctl %s", usage)
		}
		return nil
	}

	switch command {
	case "post":
		if err := need(1, "post <content>"); err != nil {
			return websocket.Envelope{}, err
		}
		return websocket.Envelope{Type: broadcast.EventCreateTopic, Payload: map[string]string{
			"content": strings.Join(args, " "),
			"mood":    opts.mood,
			"mode":    opts.mode,
			"userId":  opts.userID,
		}}, nil

	case "vote":
		if err := need(2, "vote <topic-id> agree|disagree"); err != nil {
			return websocket.Envelope{}, err
		}
		return websocket.Envelope{Type: broadcast.EventVoteTopic, Payload: map[string]string{
			"topicId": args[0],
			"type":    args[1],
			"userId":  opts.userID,
		}}, nil

	case "comment":
		if err := need(2, "comment <topic-id> <text>"); err != nil {
			return websocket.Envelope{}, err
		}
		return websocket.Envelope{Type: broadcast.EventCommentTopic, Payload: map[string]string{
			"topicId": args[0],
			"text":    strings.Join(args[1:], " "),
			"userId":  opts.userID,
		}}, nil

	case "delete", "report":
		if err := need(1, command+" <topic-id>"); err != nil {
			return websocket.Envelope{}, err
		}
		event := broadcast.EventDeleteTopic
		if command == "report" {
			event = broadcast.EventReportTopic
		}
		return websocket.Envelope{Type: event, Payload: map[string]string{
			"topicId": args[0],
			"userId":  opts.userID,
		}}, nil

	default:
		return websocket.Envelope{}, fmt.Errorf("unknown command %q", command)
	}
}

// isReply reports whether an outbound event answers a command we sent.
func isReply(event string) bool {
	switch event {
	case broadcast.EventNewTopic, broadcast.EventUpdateTopic, broadcast.EventError:
		return true
	}
	return false
}
