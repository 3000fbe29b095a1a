package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/task"
)

const tasksTable = "tasks"

// taskRow sends an empty plan as null so that "has a plan" is "plan is not null".
type taskRow struct {
	task.Task
	Plan *string `json:"plan"`
}

func toRow(t task.Task) taskRow {
	row := taskRow{Task: t}
	if t.HasPlan() {
		row.Plan = &t.Plan
	}
	return row
}

func fromRows(rows []taskRow) []task.Task {
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		t := row.Task
		if row.Plan != nil {
			t.Plan = *row.Plan
		}
		t.CreatedAt = t.CreatedAt.UTC()
		t.UpdatedAt = t.UpdatedAt.UTC()
		tasks = append(tasks, t)
	}
	return tasks
}

type taskRepository struct {
	clients ClientSource
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

// NewTaskRepository resolves its client through clients on every call.
func NewTaskRepository(clients ClientSource) *taskRepository {
	return &taskRepository{clients: clients}
}

func (repo taskRepository) one(rows []taskRow, notFound error) (task.Task, error) {
	if len(rows) == 0 {
		return task.Task{}, notFound
	}
	return fromRows(rows[:1])[0], nil
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	var rows []taskRow
	if err := call(ctx, repo.clients, http.MethodPost, tasksTable, nil, toRow(t), &rows); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.one(rows, task.ErrNotFound)
}

// orderParam builds the PostgREST order parameter. Priority cannot be ranked server side,
// so the second return value tells whether the result must be sorted in memory.
func orderParam(ordering []core.DBOrdering) (string, bool) {
	if len(ordering) == 0 {
		return "created_at.desc", false
	}
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if ord.Field == "priority" {
			return "", true
		}
		dir := "desc"
		if ord.Ascending {
			dir = "asc"
		}
		parts = append(parts, ord.Field+"."+dir+".nullslast")
	}
	return strings.Join(parts, ","), false
}

func (repo taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	query := url.Values{"select": {"*"}}
	if !filter.IsEmpty() {
		if filter.KidID != "" {
			if _, err := uuid.Parse(filter.KidID); err != nil {
				return []task.Task{}, nil
			}
			query.Set("kid_id", eq(filter.KidID))
		}
		if len(filter.Statuses) > 0 {
			query.Set("status", in(filter.Statuses))
		}
		// tasks with Title, Description or Subject matching the search keyword
		if filter.Search != "" {
			pattern := quote("*" + filter.Search + "*")
			query.Set("or", "(title.ilike."+pattern+",description.ilike."+pattern+",subject.ilike."+pattern+")")
		}
		if !filter.DueFrom.IsZero() {
			query.Add("due_date", "gte."+filter.DueFrom.UTC().Format(time.RFC3339Nano))
		}
		if !filter.DueTo.IsZero() {
			query.Add("due_date", "lte."+filter.DueTo.UTC().Format(time.RFC3339Nano))
		}
	}
	order, sortInMemory := orderParam(ordering)
	if order != "" {
		query.Set("order", order)
	}

	var rows []taskRow
	if err := call(ctx, repo.clients, http.MethodGet, tasksTable, query, nil, &rows); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := fromRows(rows)
	if sortInMemory {
		task.Sort(tasks, ordering)
	}
	return tasks, nil
}

func (repo taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var rows []taskRow
	query := url.Values{"select": {"*"}, "id": {eq(id)}}
	if err := call(ctx, repo.clients, http.MethodGet, tasksTable, query, nil, &rows); err != nil {
		return task.Task{}, errors.Wrap(err, "finding task by ID")
	}
	return repo.one(rows, task.ErrNotFound)
}

// GetActiveTask returns the most recent non-completed task that already has a plan.
func (repo taskRepository) GetActiveTask(ctx context.Context) (task.Task, error) {
	query := url.Values{
		"select": {"*"},
		"status": {"neq." + task.StatusCompleted},
		"plan":   {"not.is.null"},
		"order":  {"created_at.desc"},
		"limit":  {"1"},
	}
	var rows []taskRow
	if err := call(ctx, repo.clients, http.MethodGet, tasksTable, query, nil, &rows); err != nil {
		return task.Task{}, errors.Wrap(err, "finding active task")
	}
	return repo.one(rows, task.ErrNoActiveTask)
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	var rows []taskRow
	if err := call(ctx, repo.clients, http.MethodPatch, tasksTable, url.Values{"id": {eq(t.ID)}}, toRow(t), &rows); err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	return repo.one(rows, task.ErrNotFound)
}

func (repo taskRepository) DeleteTasksByID(ctx context.Context, ids []string) (int, error) {
	return deleteByID(ctx, repo.clients, tasksTable, ids)
}
