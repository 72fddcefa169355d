// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskflow/internal/backend/googleauth"
	"taskflow/internal/cache"
	"taskflow/internal/config"
	"taskflow/internal/metadata"
	"taskflow/internal/service"
	"taskflow/internal/starred"
)

const (
	// DefaultPageSize is the number of tasks requested per page.
	DefaultPageSize = 100

	// DefaultTimeout bounds each API call.
	DefaultTimeout = 10 * time.Second

	// PermissionHint is appended to 403 errors.
	PermissionHint = "Permission denied. Check that:\n" +
		"  1. The Google Tasks API is enabled for your project\n" +
		"  2. The OAuth consent screen is configured\n" +
		"  3. The scope " + googleauth.TasksScope + " was granted"
)

// Client implements service.Service using Google Tasks API.
type Client struct {
	svc      *tasks.Service
	cache    service.Cache
	logger   *slog.Logger
	timeout  time.Duration
	pageSize int64
	endpoint string

	// onUnauthenticated runs when the API rejects the credential.
	onUnauthenticated func()
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables the read-through cache.
func WithCache(c service.Cache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.timeout = d }
}

// WithPageSize sets the page size used when listing tasks.
func WithPageSize(n int64) Option {
	return func(cl *Client) { cl.pageSize = n }
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(url string) Option {
	return func(cl *Client) { cl.endpoint = url }
}

// WithUnauthenticatedHook sets a function run on every 401 response,
// typically clearing the stored credential.
func WithUnauthenticatedHook(fn func()) Option {
	return func(cl *Client) { cl.onUnauthenticated = fn }
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	httpClient, err := googleauth.HTTPClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{
		WithTimeout(cfg.Settings.APITimeout),
		WithPageSize(cfg.Settings.PageSize),
		WithUnauthenticatedHook(func() { _ = cfg.RemoveToken() }),
	}, opts...)
	return NewWithHTTPClient(ctx, httpClient, opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client.
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	c := &Client{
		cache:    cache.Nop{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout:  DefaultTimeout,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(c.endpoint))
	}
	svc, err := tasks.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, service.NewNotConfigured("failed to create tasks service", err)
	}
	c.svc = svc
	return c, nil
}

// GetTaskLists returns all task lists in API order.
func (c *Client) GetTaskLists(ctx context.Context) ([]service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result []service.TaskList
	err := c.svc.Tasklists.List().MaxResults(100).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			result = append(result, service.TaskList{ID: list.Id, Title: list.Title})
		}
		return nil
	})
	if err != nil {
		return nil, c.wrapError(err)
	}
	result = service.DedupeLists(result)

	if err := c.cache.SaveTaskLists(ctx, result); err != nil {
		c.logger.Warn("cache write failed", "key", "task_lists", "err", err)
	}
	return result, nil
}

// GetTasks returns every task of a list, draining all pages.
// Completed and hidden tasks are included.
func (c *Client) GetTasks(ctx context.Context, listID string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.svc.Tasks.List(listID).
		MaxResults(c.pageSize).
		ShowCompleted(true).
		ShowHidden(true).
		Context(ctx)

	result := []service.Task{}
	var pageToken string
	for page := 1; ; page++ {
		resp, err := call.PageToken(pageToken).Do()
		if err != nil {
			return nil, c.wrapError(err)
		}
		for _, t := range resp.Items {
			result = append(result, fromAPI(t))
		}
		c.logger.Debug("fetched tasks page", "list", listID, "page", page, "items", len(resp.Items))
		if resp.NextPageToken == "" || resp.NextPageToken == pageToken {
			break
		}
		pageToken = resp.NextPageToken
	}
	result = service.DedupeTasks(result)

	if err := c.cache.SaveTasks(ctx, listID, result); err != nil {
		c.logger.Warn("cache write failed", "key", cache.TasksKey(listID), "err", err)
	}
	return result, nil
}

// FetchAllTasks fetches every list concurrently.
func (c *Client) FetchAllTasks(ctx context.Context, lists []service.TaskList) (map[string][]service.Task, error) {
	return service.FanOut(ctx, lists, c.GetTasks, c.logger), nil
}

// InsertTask creates a task at the top of a list, or under Parent when set.
func (c *Client) InsertTask(ctx context.Context, listID string, nt service.NewTask) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := &tasks.Task{
		Title: starred.Encode(nt.Title, false),
		Notes: metadata.Join(nt.Notes, nt.Metadata),
		Due:   nt.Due,
	}
	call := c.svc.Tasks.Insert(listID, body).Context(ctx)
	if nt.Parent != "" {
		call = call.Parent(nt.Parent)
	}
	created, err := call.Do()
	if err != nil {
		return service.Task{}, c.wrapError(err)
	}
	return fromAPI(created), nil
}

// UpdateTask patches a task. Title and notes edits read the current task
// first so the starred marker and metadata fragment survive.
func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, update service.TaskUpdate) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	patch := &tasks.Task{}
	if update.Status != nil {
		patch.Status = string(*update.Status)
	}
	if update.Due.IsSet() {
		if update.Due.IsClear() {
			patch.NullFields = append(patch.NullFields, "Due")
		} else {
			patch.Due = update.Due.Value()
		}
	}

	if update.Title != nil || update.Notes != nil || update.Metadata != nil {
		cur, err := c.svc.Tasks.Get(listID, taskID).Context(ctx).Do()
		if err != nil {
			return service.Task{}, c.wrapError(err)
		}
		if update.Title != nil {
			_, isStarred := starred.Decode(cur.Title)
			patch.Title = starred.Encode(*update.Title, isStarred)
		}
		if update.Notes != nil || update.Metadata != nil {
			text, fragment := metadata.Split(cur.Notes)
			if update.Notes != nil {
				text = *update.Notes
			}
			if update.Metadata != nil {
				fragment = *update.Metadata
			}
			patch.Notes = metadata.Join(text, fragment)
			if patch.Notes == "" {
				patch.NullFields = append(patch.NullFields, "Notes")
			}
		}
	}

	updated, err := c.svc.Tasks.Patch(listID, taskID, patch).Context(ctx).Do()
	if err != nil {
		return service.Task{}, c.wrapError(err)
	}
	return fromAPI(updated), nil
}

// UpdateTaskStarred rewrites the title marker. A task already in the
// requested state is returned without a write.
func (c *Client) UpdateTaskStarred(ctx context.Context, listID, taskID string, isStarred bool) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cur, err := c.svc.Tasks.Get(listID, taskID).Context(ctx).Do()
	if err != nil {
		return service.Task{}, c.wrapError(err)
	}
	title := starred.Encode(cur.Title, isStarred)
	if title == cur.Title {
		return fromAPI(cur), nil
	}

	updated, err := c.svc.Tasks.Patch(listID, taskID, &tasks.Task{Title: title}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, c.wrapError(err)
	}
	return fromAPI(updated), nil
}

// DeleteTask deletes a task. A task that no longer exists is not an error.
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.wrapError(c.svc.Tasks.Delete(listID, taskID).Context(ctx).Do())
	if service.Is(err, service.ErrNotFound) {
		return nil
	}
	return err
}

// InsertTaskList creates a new task list.
func (c *Client) InsertTaskList(ctx context.Context, title string) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, c.wrapError(err)
	}
	return service.TaskList{ID: list.Id, Title: list.Title}, nil
}

// UpdateTaskList renames a task list.
func (c *Client) UpdateTaskList(ctx context.Context, listID, title string) (service.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	list, err := c.svc.Tasklists.Patch(listID, &tasks.TaskList{Title: title}).Context(ctx).Do()
	if err != nil {
		return service.TaskList{}, c.wrapError(err)
	}
	return service.TaskList{ID: list.Id, Title: list.Title}, nil
}

// DeleteTaskList deletes a task list by ID. A missing list is not an error.
func (c *Client) DeleteTaskList(ctx context.Context, listID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.wrapError(c.svc.Tasklists.Delete(listID).Context(ctx).Do())
	if service.Is(err, service.ErrNotFound) {
		return nil
	}
	return err
}

// Cache returns the configured cache, or a null cache.
func (c *Client) Cache() service.Cache {
	return c.cache
}

func fromAPI(t *tasks.Task) service.Task {
	title, isStarred := starred.Decode(t.Title)
	notes, fragment := metadata.Split(t.Notes)
	return service.Task{
		ID:       t.Id,
		Title:    title,
		Notes:    notes,
		Status:   service.Status(t.Status),
		Due:      t.Due,
		Starred:  isStarred,
		Parent:   t.Parent,
		Position: t.Position,
		Metadata: fragment,
	}
}

// wrapError classifies API errors.
func (c *Client) wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			c.unauthenticated()
			return service.NewUnauthenticated(err)
		case http.StatusForbidden:
			return service.NewRemoteRejected(gerr.Code, apiMessage(gerr), PermissionHint, err)
		case http.StatusNotFound:
			what := gerr.Message
			if what == "" {
				what = "remote resource"
			}
			e := service.NewNotFound(what)
			e.Err = err
			return e
		default:
			return service.NewRemoteRejected(gerr.Code, apiMessage(gerr), "", err)
		}
	}

	// Token refresh failures surface before any API response.
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		c.unauthenticated()
		return service.NewUnauthenticated(err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.NewTransportUnavailable(fmt.Errorf("request timed out: %w", err))
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return service.NewTransportUnavailable(err)
	}
	return err
}

func (c *Client) unauthenticated() {
	c.logger.Warn("credential rejected, clearing token")
	if c.onUnauthenticated != nil {
		c.onUnauthenticated()
	}
}

func apiMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return fmt.Sprintf("API error %d: %s", gerr.Code, gerr.Message)
	}
	return ""
}

var _ service.Service = (*Client)(nil)
