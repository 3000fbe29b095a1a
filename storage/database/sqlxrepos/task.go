package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
)

const taskColumns = `id, title, description, kid_id, subject, due_date, start_date, priority, status,
	estimated_time, recurrence, resource_url, reward_points, plan, plan_steps, created_at, updated_at`

// orderExprs maps the task ordering fields to their SQL expression.
var orderExprs = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "CASE priority WHEN 'high' THEN 2 WHEN 'medium' THEN 1 ELSE 0 END",
	"title":      "title",
	"status":     "status",
}

type taskRow struct {
	ID            string      `db:"id"`
	Title         string      `db:"title"`
	Description   null.String `db:"description"`
	KidID         string      `db:"kid_id"`
	Subject       null.String `db:"subject"`
	DueDate       null.Time   `db:"due_date"`
	StartDate     null.Time   `db:"start_date"`
	Priority      string      `db:"priority"`
	Status        string      `db:"status"`
	EstimatedTime null.Int    `db:"estimated_time"`
	Recurrence    string      `db:"recurrence"`
	ResourceURL   null.String `db:"resource_url"`
	RewardPoints  int         `db:"reward_points"`
	Plan          null.String `db:"plan"`
	PlanSteps     null.JSON   `db:"plan_steps"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (repo taskRepository) toRow(t task.Task) (taskRow, error) {
	row := taskRow{
		ID:            t.ID,
		Title:         t.Title,
		Description:   null.NewString(t.Description, t.Description != ""),
		KidID:         t.KidID,
		Subject:       null.NewString(t.Subject, t.Subject != ""),
		DueDate:       null.TimeFromPtr(utcPtr(t.DueDate)),
		StartDate:     null.TimeFromPtr(utcPtr(t.StartDate)),
		Priority:      t.Priority,
		Status:        t.Status,
		EstimatedTime: null.IntFromPtr(t.EstimatedTime),
		Recurrence:    t.Recurrence,
		ResourceURL:   null.NewString(t.ResourceURL, t.ResourceURL != ""),
		RewardPoints:  t.RewardPoints,
		Plan:          null.NewString(t.Plan, t.HasPlan()),
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
	if t.PlanSteps != nil {
		steps, err := json.Marshal(t.PlanSteps)
		if err != nil {
			return taskRow{}, errors.Wrap(err, "encoding plan steps")
		}
		row.PlanSteps = null.JSONFrom(steps)
	}
	return row, nil
}

func (repo taskRepository) fromRow(row taskRow) (task.Task, error) {
	t := task.Task{
		ID:            row.ID,
		Title:         row.Title,
		Description:   row.Description.String,
		KidID:         row.KidID,
		Subject:       row.Subject.String,
		DueDate:       row.DueDate.Ptr(),
		StartDate:     row.StartDate.Ptr(),
		Priority:      row.Priority,
		Status:        row.Status,
		EstimatedTime: row.EstimatedTime.Ptr(),
		Recurrence:    row.Recurrence,
		ResourceURL:   row.ResourceURL.String,
		RewardPoints:  row.RewardPoints,
		Plan:          row.Plan.String,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
	if row.PlanSteps.Valid {
		var steps []plan.Step
		if err := row.PlanSteps.Unmarshal(&steps); err != nil {
			return task.Task{}, errors.Wrap(err, "decoding plan steps")
		}
		t.PlanSteps = steps
	}
	return t, nil
}

func (repo taskRepository) fromRows(rows []taskRow) ([]task.Task, error) {
	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		t, err := repo.fromRow(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (repo taskRepository) trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	row, err := repo.toRow(t)
	if err != nil {
		return task.Task{}, err
	}
	q := `INSERT INTO tasks (` + taskColumns + `) VALUES (:id, :title, :description, :kid_id, :subject,
		:due_date, :start_date, :priority, :status, :estimated_time, :recurrence, :resource_url, :reward_points,
		:plan, :plan_steps, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.GetTask(ctx, t.ID)
}

func (repo taskRepository) QueryTasks(ctx context.Context, filter *task.QueryFilter, ordering []core.DBOrdering) ([]task.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if !filter.IsEmpty() {
		if filter.KidID != "" {
			if !isUUID(filter.KidID) {
				return []task.Task{}, nil
			}
			where = append(where, "kid_id = "+arg(filter.KidID))
		}
		if len(filter.Statuses) > 0 {
			where = append(where, "status = ANY("+arg(pq.Array(filter.Statuses))+")")
		}
		// tasks with Title, Description or Subject matching the search keyword
		if filter.Search != "" {
			val := arg("%" + filter.Search + "%")
			where = append(where, "(title ILIKE "+val+" OR description ILIKE "+val+" OR subject ILIKE "+val+")")
		}
		if !filter.DueFrom.IsZero() {
			where = append(where, "due_date >= "+arg(filter.DueFrom.UTC()))
		}
		if !filter.DueTo.IsZero() {
			where = append(where, "due_date <= "+arg(filter.DueTo.UTC()))
		}
	}

	q := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return repo.fromRows(rows)
}

func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		expr, ok := orderExprs[ord.Field]
		if !ok {
			continue
		}
		orderList = append(orderList, core.DBOrdering{Field: expr, Ascending: ord.Ascending}.String())
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "created_at DESC")
	}
	return strings.Join(orderList, ", ")
}

func (repo taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if !isUUID(id) {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id); err != nil {
		return task.Task{}, repo.trapNoRowsErr(err, task.ErrNotFound, "finding task by ID")
	}
	return repo.fromRow(row)
}

func (repo taskRepository) GetActiveTask(ctx context.Context) (task.Task, error) {
	q := "SELECT " + taskColumns + ` FROM tasks
		WHERE status <> $1 AND plan IS NOT NULL
		ORDER BY created_at DESC LIMIT 1`
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, q, task.StatusCompleted); err != nil {
		return task.Task{}, repo.trapNoRowsErr(err, task.ErrNoActiveTask, "finding active task")
	}
	return repo.fromRow(row)
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	row, err := repo.toRow(t)
	if err != nil {
		return task.Task{}, err
	}
	q := `UPDATE tasks SET title = :title, description = :description, kid_id = :kid_id, subject = :subject,
		due_date = :due_date, start_date = :start_date, priority = :priority, status = :status,
		estimated_time = :estimated_time, recurrence = :recurrence, resource_url = :resource_url,
		reward_points = :reward_points, plan = :plan, plan_steps = :plan_steps, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return repo.GetTask(ctx, t.ID)
}

func (repo taskRepository) DeleteTasksByID(ctx context.Context, ids []string) (int, error) {
	return deleteByID(ctx, repo.db, "tasks", ids)
}
