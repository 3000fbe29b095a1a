package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/plan"
)

var (
	// errors
	ErrNotFound          = errors.New("task not found")
	ErrNoActiveTask      = errors.New("no active task")
	ErrInvalidTransition = errors.New("invalid status transition")
	errKidNotFound       = "kid not found"

	NowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks applies AND operation on available QueryFilter fields.
		// Tasks are ordered by creation date (newest first) when ordering is empty.
		QueryTasks(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		// GetActiveTask returns the most recently created non-completed task that has a plan.
		GetActiveTask(ctx context.Context) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTasksByID(ctx context.Context, ids []string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, nt NewTask) (Task, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error)
		GetByID(ctx context.Context, id string) (Task, error)
		GetActive(ctx context.Context) (Task, error)
		Update(ctx context.Context, id string, ut UpdateTask) (Task, error)
		UpdateStatus(ctx context.Context, id, status string) (Task, error)
		SetPlan(ctx context.Context, id, text string) (Task, error)
		SetSteps(ctx context.Context, id string, steps []plan.Step) (Task, error)
		ToggleStep(ctx context.Context, id, stepID string) (Task, plan.Progress, error)
		ToggleAllSteps(ctx context.Context, id string) (Task, plan.Progress, error)
		Progress(ctx context.Context, id string) (plan.Progress, error)
		MarkOverdue(ctx context.Context, tasks ...Task) ([]Task, error)
		Delete(ctx context.Context, ids ...string) (int, error)
	}

	service struct {
		repo    Repository
		kidRepo kid.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, kidRepo kid.Repository) Service {
	return &service{repo: repo, kidRepo: kidRepo}
}

func (svc *service) checkKid(ctx context.Context, kidID string) error {
	if _, err := svc.kidRepo.GetKid(ctx, kidID); err != nil {
		if errors.Cause(err) == kid.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "kid_id", Error: errKidNotFound})
		}
		return errors.Wrap(err, "finding kid")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nt NewTask) (Task, error) {
	if err := svc.checkKid(ctx, nt.KidID); err != nil {
		return Task{}, err
	}

	now := NowFunc().UTC()
	t := Task{
		ID:            uuid.New().String(),
		Title:         nt.Title,
		Description:   nt.Description,
		KidID:         nt.KidID,
		Subject:       nt.Subject,
		DueDate:       nt.DueDate,
		StartDate:     nt.StartDate,
		Priority:      nt.Priority,
		Status:        nt.Status,
		EstimatedTime: nt.EstimatedTime,
		Recurrence:    nt.Recurrence,
		ResourceURL:   nt.ResourceURL,
		RewardPoints:  nt.RewardPoints,
		Plan:          nt.Plan,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
	if t.HasPlan() {
		t.PlanSteps = plan.Parse(t.Plan)
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Task, error) {
	tasks, err := svc.repo.QueryTasks(ctx, filter, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	for i := range tasks {
		tasks[i] = tasks[i].WithSteps()
	}
	return svc.MarkOverdue(ctx, tasks...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Task{}, ErrNotFound
	}
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	return t.WithSteps(), nil
}

func (svc *service) GetActive(ctx context.Context) (Task, error) {
	t, err := svc.repo.GetActiveTask(ctx)
	if err != nil {
		return Task{}, err
	}
	return t.WithSteps(), nil
}

func (svc *service) Update(ctx context.Context, id string, ut UpdateTask) (Task, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if ut.KidID != "" && ut.KidID != t.KidID {
		if err = svc.checkKid(ctx, ut.KidID); err != nil {
			return Task{}, err
		}
	}
	t = ut.Apply(t)
	return svc.save(ctx, t)
}

func (svc *service) UpdateStatus(ctx context.Context, id, status string) (Task, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !CanTransition(t.Status, status) {
		return Task{}, core.NewValidationError(
			ErrInvalidTransition,
			core.FieldError{Field: "status", Error: "cannot go from " + t.Status + " to " + status},
		)
	}
	t.Status = status
	return svc.save(ctx, t)
}

func (svc *service) SetPlan(ctx context.Context, id, text string) (Task, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Plan = text
	t.PlanSteps = plan.Parse(text)
	return svc.save(ctx, t)
}

// SetSteps persists edited steps as-is; steps without an ID get one.
func (svc *service) SetSteps(ctx context.Context, id string, steps []plan.Step) (Task, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	persisted := make([]plan.Step, 0, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			s.ID = plan.NewStepIDFunc(i, s.Text)
		}
		persisted = append(persisted, s)
	}
	t.PlanSteps = persisted
	return svc.save(ctx, t)
}

func (svc *service) ToggleStep(ctx context.Context, id, stepID string) (Task, plan.Progress, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, plan.Progress{}, err
	}
	steps, prog, err := plan.Toggle(t.Steps(), stepID)
	if err != nil {
		return Task{}, plan.Progress{}, err
	}
	t.PlanSteps = steps
	t, err = svc.save(ctx, t)
	return t, prog, err
}

func (svc *service) ToggleAllSteps(ctx context.Context, id string) (Task, plan.Progress, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return Task{}, plan.Progress{}, err
	}
	steps, prog := plan.ToggleAll(t.Steps())
	t.PlanSteps = steps
	t, err = svc.save(ctx, t)
	return t, prog, err
}

func (svc *service) Progress(ctx context.Context, id string) (plan.Progress, error) {
	t, err := svc.GetByID(ctx, id)
	if err != nil {
		return plan.Progress{}, err
	}
	return plan.ComputeProgress(t.Steps()), nil
}

// MarkOverdue persists the overdue status of the given pending tasks that are past their due date.
// Tasks in progress are left alone, including the ones moved out of overdue.
func (svc *service) MarkOverdue(ctx context.Context, tasks ...Task) ([]Task, error) {
	now := NowFunc()
	for i, t := range tasks {
		if t.Status != StatusPending || !t.IsOverdueAt(now) {
			continue
		}
		t.Status = StatusOverdue
		updated, err := svc.save(ctx, t)
		if err != nil {
			return nil, errors.Wrap(err, "marking task overdue")
		}
		tasks[i] = updated
	}
	return tasks, nil
}

func (svc *service) Delete(ctx context.Context, ids ...string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return svc.repo.DeleteTasksByID(ctx, ids)
}

func (svc *service) save(ctx context.Context, t Task) (Task, error) {
	t.UpdatedAt = NowFunc().UTC()
	updated, err := svc.repo.UpdateTask(ctx, t)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Task{}, err
		}
		return Task{}, errors.Wrap(err, "updating task")
	}
	return updated, nil
}
