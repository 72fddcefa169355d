// Package starred encodes the starred flag into a task title for backends
// that have no native field for it.
package starred

import "strings"

// Version identifies the wire encoding. Bump it if Marker or placement changes.
const Version = 1

// Marker is the literal appended to a starred task's title.
const Marker = "[STARRED]"

// Suffix is what Encode appends.
const Suffix = " " + Marker

// Encode returns the wire title for a display title.
// A title that already carries the marker is normalized first, so encoding is idempotent.
func Encode(title string, starred bool) string {
	title, _ = Decode(title)
	if !starred {
		return title
	}
	return title + Suffix
}

// Decode strips the marker from a wire title and reports whether it was present.
func Decode(title string) (string, bool) {
	if !strings.Contains(title, Marker) {
		return title, false
	}
	title = strings.Replace(title, Suffix, "", 1)
	title = strings.Replace(title, Marker, "", 1)
	return title, true
}
