package localstore

import (
	"context"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) *taskRepository {
	return &taskRepository{db: db}
}

func copyTask(t task.Task) task.Task {
	t.PlanSteps = plan.Clone(t.PlanSteps)
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.StartDate != nil {
		d := *t.StartDate
		t.StartDate = &d
	}
	if t.EstimatedTime != nil {
		e := *t.EstimatedTime
		t.EstimatedTime = &e
	}
	return t
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prev, existed := repo.db.tasks[t.ID]
	t = copyTask(t)
	repo.db.tasks[t.ID] = &t
	if err := repo.db.persist(); err != nil {
		if existed {
			repo.db.tasks[t.ID] = prev
		} else {
			delete(repo.db.tasks, t.ID)
		}
		return task.Task{}, err
	}
	return copyTask(t), nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]task.Task, 0, len(repo.db.tasks))
	for _, t := range repo.db.tasks {
		if filter.Matches(*t) {
			tasks = append(tasks, copyTask(*t))
		}
	}
	task.Sort(tasks, ordering)
	return tasks, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.tasks[id]; ok {
		return copyTask(*t), nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) GetActiveTask(_ context.Context) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var active *task.Task
	for _, t := range repo.db.tasks {
		if t.Status == task.StatusCompleted || !t.HasPlan() {
			continue
		}
		if active == nil || t.CreatedAt.After(active.CreatedAt) {
			active = t
		}
	}
	if active == nil {
		return task.Task{}, task.ErrNoActiveTask
	}
	return copyTask(*active), nil
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prev, ok := repo.db.tasks[t.ID]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	t = copyTask(t)
	repo.db.tasks[t.ID] = &t
	if err := repo.db.persist(); err != nil {
		repo.db.tasks[t.ID] = prev
		return task.Task{}, err
	}
	return copyTask(t), nil
}

func (repo *taskRepository) DeleteTasksByID(_ context.Context, ids []string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	removed := make(map[string]*task.Task)
	for _, id := range ids {
		if t, ok := repo.db.tasks[id]; ok {
			removed[id] = t
			delete(repo.db.tasks, id)
		}
	}
	if len(removed) == 0 {
		return 0, nil
	}
	if err := repo.db.persist(); err != nil {
		for id, t := range removed {
			repo.db.tasks[id] = t
		}
		return 0, err
	}
	return len(removed), nil
}
