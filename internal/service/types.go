// Package service defines the backend-agnostic contract for task operations.
package service

// Status is the completion state of a task.
type Status string

const (
	StatusNeedsAction Status = "needsAction"
	StatusCompleted   Status = "completed"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusNeedsAction
	}
	return StatusCompleted
}

// Task represents a single task item.
// Title never carries the starred marker; providers own that encoding.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Notes    string `json:"notes,omitempty"`
	Status   Status `json:"status"`
	Due      string `json:"due,omitempty"` // RFC 3339
	Starred  bool   `json:"starred"`
	Parent   string `json:"parent,omitempty"`
	Position string `json:"position,omitempty"`
	Metadata string `json:"_metadata,omitempty"`
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// TaskList represents a task list.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title    string
	Notes    string
	Due      string
	Parent   string
	Metadata string
}

// Due describes an edit to a task's due date.
// The zero value leaves the due date unchanged.
type Due struct {
	set   bool
	value string
}

// SetDue returns a Due edit that assigns value.
func SetDue(value string) Due {
	return Due{set: true, value: value}
}

// ClearDue returns a Due edit that removes the due date.
func ClearDue() Due {
	return Due{set: true}
}

// IsSet reports whether the edit changes the due date at all.
func (d Due) IsSet() bool { return d.set }

// IsClear reports whether the edit removes the due date.
func (d Due) IsClear() bool { return d.set && d.value == "" }

// Value returns the new due date; empty when clearing.
func (d Due) Value() string { return d.value }

// TaskUpdate is a partial update. Nil fields keep their prior value.
type TaskUpdate struct {
	Status   *Status
	Title    *string
	Notes    *string
	Due      Due
	Metadata *string
}

// Apply returns t with the update applied.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.Due.IsSet() {
		t.Due = u.Due.Value()
	}
	if u.Metadata != nil {
		t.Metadata = *u.Metadata
	}
	return t
}

// Snapshot is a full export of a provider's state.
// Tasks within each list are ordered top to bottom as displayed.
type Snapshot struct {
	Lists []TaskList        `json:"lists"`
	Tasks map[string][]Task `json:"tasks"`
}

// DedupeLists drops lists whose id was already seen, keeping the first.
func DedupeLists(lists []TaskList) []TaskList {
	seen := make(map[string]bool, len(lists))
	out := make([]TaskList, 0, len(lists))
	for _, l := range lists {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

// DedupeTasks drops tasks whose id was already seen, keeping the first.
func DedupeTasks(tasks []Task) []Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
