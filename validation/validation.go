// Package validation holds the input rules for topic operations. Every
// function is pure and usable on its own.
package validation

import (
	"strings"
	"unicode/utf8"

	"ventspace/models"
)

const (
	MaxContentLength = 500
	MaxCommentLength = 300
)

// Content checks a post body. Length is counted in characters after trimming.
func Content(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return models.ErrEmptyContent
	case n > MaxContentLength:
		return models.ErrContentTooLong
	}
	return nil
}

func Comment(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return models.ErrEmptyComment
	case n > MaxCommentLength:
		return models.ErrCommentTooLong
	}
	return nil
}

func UserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return models.ErrMissingUserID
	}
	return nil
}

func TopicID(id string) error {
	if strings.TrimSpace(id) == "" {
		return models.ErrMissingTopicID
	}
	return nil
}

// Mood returns value when it is a known mood and neutral otherwise.
func Mood(value string) models.Mood {
	if m := models.Mood(value); m.IsValid() {
		return m
	}
	return models.MoodNeutral
}

// Mode returns value when it is a known post mode and vent otherwise.
func Mode(value string) models.PostMode {
	if m := models.PostMode(value); m.IsValid() {
		return m
	}
	return models.ModeVent
}

func VoteType(value string) (models.VoteType, error) {
	if v := models.VoteType(value); v.IsValid() {
		return v, nil
	}
	return "", models.ErrInvalidVoteType
}
