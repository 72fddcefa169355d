package googletasks

import (
	"context"
	"fmt"

	"taskflow/internal/service"
)

// MigrationReport counts what a migration created.
type MigrationReport struct {
	Lists  int
	Tasks  int
	Failed int
}

// Migrate replays a local snapshot into the remote account.
//
// Tasks are inserted bottom-up because the API places new tasks at the top,
// so the remote order ends up matching the snapshot. Children wait until
// their parent exists; orphans are inserted at the root. Per-item failures
// are logged and counted. An Unauthenticated error stops the migration and
// is returned with the partial report.
func (c *Client) Migrate(ctx context.Context, snap service.Snapshot) (MigrationReport, error) {
	var report MigrationReport

	for _, list := range snap.Lists {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		created, err := c.InsertTaskList(ctx, list.Title)
		if err != nil {
			if service.Is(err, service.ErrUnauthenticated) {
				return report, err
			}
			c.logger.Error("migrate list failed", "list", list.Title, "err", err)
			report.Failed++
			continue
		}
		report.Lists++

		n, failed, err := c.migrateTasks(ctx, created.ID, snap.Tasks[list.ID])
		report.Tasks += n
		report.Failed += failed
		if err != nil {
			return report, err
		}
	}

	c.logger.Info("migration finished", "lists", report.Lists, "tasks", report.Tasks, "failed", report.Failed)
	return report, nil
}

func (c *Client) migrateTasks(ctx context.Context, listID string, local []service.Task) (created, failed int, err error) {
	ids := make(map[string]string, len(local))
	known := make(map[string]bool, len(local))
	for _, t := range local {
		known[t.ID] = true
	}

	pending := make([]service.Task, 0, len(local))
	for i := len(local) - 1; i >= 0; i-- {
		pending = append(pending, local[i])
	}

	for len(pending) > 0 {
		var deferred []service.Task
		for _, t := range pending {
			parent := ""
			if t.Parent != "" && known[t.Parent] {
				remoteParent, ok := ids[t.Parent]
				if !ok {
					deferred = append(deferred, t)
					continue
				}
				parent = remoteParent
			}

			remoteID, err := c.migrateTask(ctx, listID, t, parent)
			if service.Is(err, service.ErrUnauthenticated) {
				return created, failed, err
			}
			if err != nil {
				c.logger.Error("migrate task failed", "task", t.Title, "err", err)
				failed++
				if remoteID == "" {
					// Children of a task that was never created become roots.
					delete(known, t.ID)
				} else {
					ids[t.ID] = remoteID
				}
				continue
			}
			ids[t.ID] = remoteID
			created++
		}
		if len(deferred) == len(pending) {
			// Parent chain never resolves (a cycle); insert the rest at the root.
			for _, t := range deferred {
				delete(known, t.ID)
			}
			for i := range deferred {
				deferred[i].Parent = ""
			}
		}
		pending = deferred
	}
	return created, failed, nil
}

func (c *Client) migrateTask(ctx context.Context, listID string, t service.Task, parent string) (string, error) {
	created, err := c.InsertTask(ctx, listID, service.NewTask{
		Title:    t.Title,
		Notes:    t.Notes,
		Due:      t.Due,
		Parent:   parent,
		Metadata: t.Metadata,
	})
	if err != nil {
		return "", err
	}

	if t.Completed() {
		done := service.StatusCompleted
		if _, err := c.UpdateTask(ctx, listID, created.ID, service.TaskUpdate{Status: &done}); err != nil {
			return created.ID, fmt.Errorf("mark completed: %w", err)
		}
	}
	if t.Starred {
		if _, err := c.UpdateTaskStarred(ctx, listID, created.ID, true); err != nil {
			return created.ID, fmt.Errorf("star: %w", err)
		}
	}
	return created.ID, nil
}
