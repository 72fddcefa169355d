// Package googlecalendar mirrors tasks that carry a start time into a
// dedicated Google Calendar.
package googlecalendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"taskflow/internal/backend/googleauth"
	"taskflow/internal/config"
	"taskflow/internal/metadata"
	"taskflow/internal/service"
)

const (
	// CalendarName is the summary of the calendar events are written to.
	CalendarName = "TaskFlow Tasks"

	// EventDuration is the length of a mirrored event.
	EventDuration = time.Hour

	// Private extended properties linking an event to its task.
	propTaskID = "taskId"
	propMarker = "isTaskFlowEvent"

	defaultTimeout = 10 * time.Second
)

// Mirror writes calendar events for tasks with a start time.
type Mirror struct {
	svc      *calendar.Service
	logger   *slog.Logger
	timeout  time.Duration
	endpoint string

	// onUnauthenticated runs when the API rejects the credential.
	onUnauthenticated func()

	mu         sync.Mutex
	calendarID string
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Mirror) { m.timeout = d }
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(url string) Option {
	return func(m *Mirror) { m.endpoint = url }
}

// WithUnauthenticatedHook sets a function run on every 401 response.
func WithUnauthenticatedHook(fn func()) Option {
	return func(m *Mirror) { m.onUnauthenticated = fn }
}

// New creates a Mirror from the stored credential.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Mirror, error) {
	httpClient, err := googleauth.HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithTimeout(cfg.Settings.APITimeout),
		WithUnauthenticatedHook(func() { _ = cfg.RemoveToken() }),
	}, opts...)
	return NewWithHTTPClient(ctx, httpClient, opts...)
}

// NewWithHTTPClient creates a Mirror with a custom HTTP client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Mirror, error) {
	m := &Mirror{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if m.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(m.endpoint))
	}
	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, service.NewNotConfigured("failed to create calendar service", err)
	}
	m.svc = svc
	return m, nil
}

// EnsureCalendar returns the id of the TaskFlow calendar, creating it on first use.
func (m *Mirror) EnsureCalendar(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calendarID != "" {
		return m.calendarID, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var found string
	err := m.svc.CalendarList.List().Pages(ctx, func(resp *calendar.CalendarList) error {
		for _, entry := range resp.Items {
			if entry.Summary == CalendarName && found == "" {
				found = entry.Id
			}
		}
		return nil
	})
	if err != nil {
		return "", m.wrapError(err)
	}

	if found == "" {
		created, err := m.svc.Calendars.Insert(&calendar.Calendar{
			Summary:     CalendarName,
			Description: "Calendar for TaskFlow tasks with specific times",
		}).Context(ctx).Do()
		if err != nil {
			return "", m.wrapError(err)
		}
		found = created.Id
		m.logger.Info("created calendar", "id", found)
	}

	m.calendarID = found
	return found, nil
}

// CreateEvent creates an event for task starting at start and returns its id.
func (m *Mirror) CreateEvent(ctx context.Context, task service.Task, start time.Time) (string, error) {
	calID, err := m.EnsureCalendar(ctx)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ev := eventFor(task, start)
	ev.ExtendedProperties = &calendar.EventExtendedProperties{
		Private: map[string]string{propTaskID: task.ID, propMarker: "true"},
	}
	created, err := m.svc.Events.Insert(calID, ev).Context(ctx).Do()
	if err != nil {
		return "", m.wrapError(err)
	}
	return created.Id, nil
}

// UpdateEvent rewrites an event's summary, description and time.
func (m *Mirror) UpdateEvent(ctx context.Context, eventID string, task service.Task, start time.Time) error {
	calID, err := m.EnsureCalendar(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err = m.svc.Events.Patch(calID, eventID, eventFor(task, start)).Context(ctx).Do()
	return m.wrapError(err)
}

// DeleteEvent deletes an event. An event that is already gone is not an error.
func (m *Mirror) DeleteEvent(ctx context.Context, eventID string) error {
	calID, err := m.EnsureCalendar(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err = m.wrapError(m.svc.Events.Delete(calID, eventID).Context(ctx).Do())
	if service.Is(err, service.ErrNotFound) {
		return nil
	}
	return err
}

// Sync brings the event for task in line with its metadata and returns the
// metadata fragment to store on the task. A task without a start time loses
// its event.
func (m *Mirror) Sync(ctx context.Context, task service.Task) (string, error) {
	eventID := metadata.EventID(task.Metadata)
	hasEvent := eventID != ""
	start, hasStart := metadata.StartTime(task.Metadata)

	switch {
	case hasStart && hasEvent:
		err := m.UpdateEvent(ctx, eventID, task, start)
		if !service.Is(err, service.ErrNotFound) {
			return task.Metadata, err
		}
		// Deleted on the calendar side; recreate below.
		fallthrough
	case hasStart:
		id, err := m.CreateEvent(ctx, task, start)
		if err != nil {
			return task.Metadata, err
		}
		return metadata.WithEventID(task.Metadata, id)
	case hasEvent:
		if err := m.DeleteEvent(ctx, eventID); err != nil {
			return task.Metadata, err
		}
		return metadata.WithoutEventID(task.Metadata)
	default:
		return task.Metadata, nil
	}
}

// Remove deletes the event linked to task, if any.
func (m *Mirror) Remove(ctx context.Context, task service.Task) error {
	eventID := metadata.EventID(task.Metadata)
	if eventID == "" {
		return nil
	}
	return m.DeleteEvent(ctx, eventID)
}

func eventFor(task service.Task, start time.Time) *calendar.Event {
	summary := task.Title
	if summary == "" {
		summary = "Untitled Task"
	}
	return &calendar.Event{
		Summary:     summary,
		Description: task.Notes,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: start.Add(EventDuration).Format(time.RFC3339)},
	}
}

func (m *Mirror) wrapError(err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			m.logger.Warn("calendar credential rejected")
			if m.onUnauthenticated != nil {
				m.onUnauthenticated()
			}
			return service.NewUnauthenticated(err)
		case http.StatusNotFound, http.StatusGone:
			e := service.NewNotFound("calendar event")
			e.Err = err
			return e
		default:
			return service.NewRemoteRejected(gerr.Code, gerr.Message, "", err)
		}
	}
	return err
}
