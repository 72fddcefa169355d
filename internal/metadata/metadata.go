// Package metadata reads and writes the tagged JSON fragment that rides
// inside a task's notes, e.g. [TFCAL]{"_st":"2026-03-01T09:30:00Z"}[/TFCAL].
//
// The fragment carries a precise start time that a date-only due field
// cannot express. Callers treat the fragment as opaque unless they edit it.
package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	OpenTag  = "[TFCAL]"
	CloseTag = "[/TFCAL]"

	startKey = "_st"
	eventKey = "_ev"
)

// Split separates notes into user text and the tagged fragment.
// The fragment, if present, is returned with its tags. A single newline
// joining text and fragment is dropped.
func Split(notes string) (text, fragment string) {
	start := strings.Index(notes, OpenTag)
	if start < 0 {
		return notes, ""
	}
	end := strings.Index(notes[start:], CloseTag)
	if end < 0 {
		return notes, ""
	}
	end += start + len(CloseTag)

	fragment = notes[start:end]
	before := strings.TrimSuffix(notes[:start], "\n")
	return before + notes[end:], fragment
}

// Join is the inverse of Split for notes whose fragment trails the text.
func Join(text, fragment string) string {
	if fragment == "" {
		return text
	}
	if text == "" {
		return fragment
	}
	return text + "\n" + fragment
}

// Inner returns the JSON between the tags.
func Inner(fragment string) (string, bool) {
	if !strings.HasPrefix(fragment, OpenTag) || !strings.HasSuffix(fragment, CloseTag) {
		return "", false
	}
	inner := fragment[len(OpenTag) : len(fragment)-len(CloseTag)]
	if !gjson.Valid(inner) {
		return "", false
	}
	return inner, true
}

// Wrap encloses a JSON object in the tags.
func Wrap(inner string) string {
	return OpenTag + inner + CloseTag
}

// StartTime returns the start time carried by the fragment.
func StartTime(fragment string) (time.Time, bool) {
	inner, ok := Inner(fragment)
	if !ok {
		return time.Time{}, false
	}
	v := gjson.Get(inner, startKey)
	if !v.Exists() {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v.String())
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// WithStartTime returns fragment with its start time replaced.
// Other keys in the fragment are kept. An empty or malformed fragment starts fresh.
func WithStartTime(fragment string, start time.Time) (string, error) {
	return set(fragment, startKey, start.UTC().Format(time.RFC3339))
}

// EventID returns the calendar event id linked to the task, if any.
func EventID(fragment string) string {
	inner, ok := Inner(fragment)
	if !ok {
		return ""
	}
	return gjson.Get(inner, eventKey).String()
}

// WithEventID returns fragment with the linked calendar event id set.
func WithEventID(fragment, eventID string) (string, error) {
	return set(fragment, eventKey, eventID)
}

func set(fragment, key, value string) (string, error) {
	inner, ok := Inner(fragment)
	if !ok {
		inner = "{}"
	}
	out, err := sjson.Set(inner, key, value)
	if err != nil {
		return "", fmt.Errorf("set %s: %w", key, err)
	}
	return Wrap(out), nil
}

// WithoutStartTime removes the start time. A fragment left empty becomes "".
func WithoutStartTime(fragment string) (string, error) {
	return del(fragment, startKey)
}

// WithoutEventID removes the linked event id. A fragment left empty becomes "".
func WithoutEventID(fragment string) (string, error) {
	return del(fragment, eventKey)
}

func del(fragment, key string) (string, error) {
	inner, ok := Inner(fragment)
	if !ok {
		return fragment, nil
	}
	out, err := sjson.Delete(inner, key)
	if err != nil {
		return "", fmt.Errorf("delete %s: %w", key, err)
	}
	if len(gjson.Parse(out).Map()) == 0 {
		return "", nil
	}
	return Wrap(out), nil
}
