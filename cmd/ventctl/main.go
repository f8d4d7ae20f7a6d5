// ventctl is a small client for the ventspace websocket feed. It either
// watches the feed and prints every event, or sends one command and prints
// the reply.
//
//	ventctl watch
//	ventctl --user u1 post "long day"
//	ventctl --user u1 vote <topic-id> agree
//	ventctl --user u1 comment <topic-id> "same here"
//	ventctl --user u1 delete <topic-id>
//	ventctl --user u1 report <topic-id>
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/spf13/pflag"
)

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var (
		url     string
		origin  string
		timeout time.Duration
		opts    options
	)

	flagSet := pflag.NewFlagSet("ventctl", pflag.ContinueOnError)
	flagSet.StringVar(&url, "url", "ws://localhost:3001/ws", "websocket endpoint")
	flagSet.StringVar(&origin, "origin", "", "Origin header to send (empty sends none)")
	flagSet.StringVarP(&opts.userID, "user", "u", "", "anonymous user id (random when empty)")
	flagSet.StringVar(&opts.mood, "mood", "neutral", "mood for post")
	flagSet.StringVar(&opts.mode, "mode", "vent", "mode for post: vent or advice")
	flagSet.DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for a reply")

	if err := flagSet.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	args := flagSet.Args()
	if len(args) == 0 {
		flagSet.Usage()
		return fmt.Errorf("missing command")
	}
	if opts.userID == "" {
		opts.userID = uuid.NewString()
	}

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	if args[0] == "watch" {
		return watch(conn)
	}

	msg, err := buildMessage(args[0], args[1:], opts)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return err
		}
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			var netErr interface{ Timeout() bool }
			if errors.As(err, &netErr) && netErr.Timeout() {
				fmt.Println("no reply (the topic may no longer exist)")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if !isReply(f.Type) {
			continue
		}
		printFrame(f)
		return nil
	}
}

func watch(conn *websocket.Conn) error {
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}
		printFrame(f)
	}
}

func printFrame(f frame) {
	fmt.Printf("%s %s %s\n", time.Now().Format(time.TimeOnly), f.Type, f.Payload)
}
