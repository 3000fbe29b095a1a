package fallback

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/task"
)

type taskRepository struct {
	primary task.Repository
	local   task.Repository
	log     core.Logger
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func (repo *taskRepository) fallBack(op string, err error) bool {
	if !shouldFallBack(err, task.ErrNotFound, task.ErrNoActiveTask) {
		return false
	}
	logFallBack(repo.log, "tasks", op, err)
	return true
}

func (repo *taskRepository) mirror(ctx context.Context, t task.Task) {
	_, err := repo.local.UpdateTask(ctx, t)
	if err == task.ErrNotFound {
		_, err = repo.local.CreateTask(ctx, t)
	}
	if err != nil {
		repo.log.Warn("tasks: mirroring to local store failed", err)
	}
}

// localOnly returns the local copy of a task the hosted backend does not know,
// e.g. one created while the hosted backend was down.
func (repo *taskRepository) localOnly(ctx context.Context, id string, err error) (task.Task, bool) {
	if errors.Cause(err) != task.ErrNotFound {
		return task.Task{}, false
	}
	t, lErr := repo.local.GetTask(ctx, id)
	return t, lErr == nil
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	created, err := repo.primary.CreateTask(ctx, t)
	if repo.fallBack("create", err) {
		return repo.local.CreateTask(ctx, t)
	}
	if err == nil {
		repo.mirror(ctx, created)
	}
	return created, err
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	tasks, err := repo.primary.QueryTasks(ctx, filter, ordering)
	if repo.fallBack("query", err) {
		return repo.local.QueryTasks(ctx, filter, ordering)
	}
	return tasks, err
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	t, err := repo.primary.GetTask(ctx, id)
	if repo.fallBack("get", err) {
		return repo.local.GetTask(ctx, id)
	}
	if lt, ok := repo.localOnly(ctx, id, err); ok {
		return lt, nil
	}
	return t, err
}

func (repo *taskRepository) GetActiveTask(ctx context.Context) (task.Task, error) {
	t, err := repo.primary.GetActiveTask(ctx)
	if repo.fallBack("get active", err) {
		return repo.local.GetActiveTask(ctx)
	}
	return t, err
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	updated, err := repo.primary.UpdateTask(ctx, t)
	if repo.fallBack("update", err) {
		return repo.local.UpdateTask(ctx, t)
	}
	if _, ok := repo.localOnly(ctx, t.ID, err); ok {
		// push the local-only task up now that the hosted backend answers
		updated, err = repo.primary.CreateTask(ctx, t)
		if repo.fallBack("push local task", err) {
			return repo.local.UpdateTask(ctx, t)
		}
	}
	if err == nil {
		repo.mirror(ctx, updated)
	}
	return updated, err
}

func (repo *taskRepository) DeleteTasksByID(ctx context.Context, ids []string) (int, error) {
	n, err := repo.primary.DeleteTasksByID(ctx, ids)
	if repo.fallBack("delete", err) {
		return repo.local.DeleteTasksByID(ctx, ids)
	}
	if err == nil {
		if _, lErr := repo.local.DeleteTasksByID(ctx, ids); lErr != nil {
			repo.log.Warn("tasks: mirroring delete to local store failed", lErr)
		}
	}
	return n, err
}
