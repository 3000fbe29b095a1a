package task

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/plan"
)

// Statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusOverdue    = "overdue"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const RecurrenceNone = "none"

var (
	Statuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusOverdue}

	// OrderingFields are the fields tasks can be ordered by.
	OrderingFields = map[string]bool{
		"created_at": true,
		"updated_at": true,
		"due_date":   true,
		"priority":   true,
		"title":      true,
		"status":     true,
	}

	statusRanks = map[string]int{
		StatusPending:    0,
		StatusInProgress: 1,
		StatusCompleted:  2,
	}
)

func IsStatus(s string) bool {
	_, ok := statusRanks[s]
	return ok || s == StatusOverdue
}

// CanTransition reports whether a task may move from one status to another in the normal flow:
// pending -> in-progress -> completed, with overdue reachable from (and leavable towards) any
// non-completed state. Parents can still force any state through a direct edit.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	if from == StatusCompleted {
		return false
	}
	switch to {
	case StatusOverdue:
		return true
	case StatusPending:
		return false
	}
	if from == StatusOverdue {
		return true
	}
	return statusRanks[to] > statusRanks[from]
}

// Task is a unit of assigned work for a kid, optionally carrying an AI-generated plan.
type Task struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	KidID         string      `json:"kid_id"`
	Subject       string      `json:"subject"`
	DueDate       *time.Time  `json:"due_date"`
	StartDate     *time.Time  `json:"start_date"`
	Priority      string      `json:"priority"`
	Status        string      `json:"status"`
	EstimatedTime *int        `json:"estimated_time"` // minutes
	Recurrence    string      `json:"recurrence"`
	ResourceURL   string      `json:"resource_url"`
	RewardPoints  int         `json:"reward_points"`
	Plan          string      `json:"plan"`
	PlanSteps     []plan.Step `json:"plan_steps"`
	CreatedAt     time.Time   `json:"created_at"` // UTC
	UpdatedAt     time.Time   `json:"updated_at"` // UTC
}

// Steps returns the persisted plan steps, or the steps parsed from Plan when none were persisted
// (e.g. rows written by another client). Parsed steps get stable IDs so that they can be
// toggled before they are persisted.
func (t Task) Steps() []plan.Step {
	if t.PlanSteps != nil || !t.HasPlan() {
		return t.PlanSteps
	}
	return plan.Parser{NewID: plan.StableIDs}.Parse(t.Plan)
}

// WithSteps returns t with PlanSteps filled from Steps.
func (t Task) WithSteps() Task {
	t.PlanSteps = t.Steps()
	return t
}

func (t Task) HasPlan() bool {
	return strings.TrimSpace(t.Plan) != ""
}

// IsOverdueAt reports whether the task is past its due date without being completed.
func (t Task) IsOverdueAt(now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}

// Summary is the task description sent to the plan generator.
func (t Task) Summary() string {
	parts := []string{t.Title}
	if t.Subject != "" {
		parts = append(parts, "Subject: "+t.Subject)
	}
	if t.Description != "" {
		parts = append(parts, t.Description)
	}
	if t.EstimatedTime != nil {
		parts = append(parts, "Estimated time: "+strconv.Itoa(*t.EstimatedTime)+" minutes")
	}
	return strings.Join(parts, "\n")
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"max=2000"`
	KidID         string     `json:"kid_id" validate:"required,uuid"`
	Subject       string     `json:"subject" validate:"max=100"`
	DueDate       *time.Time `json:"due_date"`
	StartDate     *time.Time `json:"start_date"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        string     `json:"status" validate:"omitempty,taskstatus"`
	EstimatedTime *int       `json:"estimated_time" validate:"omitempty,min=1,max=1440"`
	Recurrence    string     `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly"`
	ResourceURL   string     `json:"resource_url" validate:"omitempty,url"`
	RewardPoints  int        `json:"reward_points" validate:"min=0,max=10000"`
	Plan          string     `json:"plan"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.KidID = core.CleanString(nt.KidID, true /* lower */)
	nt.Subject = core.CleanString(nt.Subject)
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	nt.Status = core.CleanString(nt.Status, true /* lower */)
	nt.Recurrence = core.CleanString(nt.Recurrence, true /* lower */)
	nt.ResourceURL = core.CleanString(nt.ResourceURL)
	return validate.Struct(nt)
}

// UpdateTask defines what a parent may change on an existing Task.
// Nil fields keep the current value; Status is forced, bypassing the normal flow.
type UpdateTask struct {
	Title         string     `json:"title" validate:"max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=2000"`
	KidID         string     `json:"kid_id" validate:"omitempty,uuid"`
	Subject       *string    `json:"subject" validate:"omitempty,max=100"`
	DueDate       *time.Time `json:"due_date"`
	StartDate     *time.Time `json:"start_date"`
	Priority      string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status        string     `json:"status" validate:"omitempty,taskstatus"`
	EstimatedTime *int       `json:"estimated_time" validate:"omitempty,min=1,max=1440"`
	Recurrence    string     `json:"recurrence" validate:"omitempty,oneof=none daily weekly monthly"`
	ResourceURL   *string    `json:"resource_url" validate:"omitempty,url"`
	RewardPoints  *int       `json:"reward_points" validate:"omitempty,min=0,max=10000"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	ut.Title = core.CleanString(ut.Title)
	ut.KidID = core.CleanString(ut.KidID, true /* lower */)
	ut.Priority = core.CleanString(ut.Priority, true /* lower */)
	ut.Status = core.CleanString(ut.Status, true /* lower */)
	ut.Recurrence = core.CleanString(ut.Recurrence, true /* lower */)
	for _, s := range []*string{ut.Description, ut.Subject, ut.ResourceURL} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ut)
}

// Apply returns t updated with the set fields of ut.
func (ut UpdateTask) Apply(t Task) Task {
	if ut.Title != "" {
		t.Title = ut.Title
	}
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.KidID != "" {
		t.KidID = ut.KidID
	}
	if ut.Subject != nil {
		t.Subject = *ut.Subject
	}
	if ut.DueDate != nil {
		t.DueDate = ut.DueDate
	}
	if ut.StartDate != nil {
		t.StartDate = ut.StartDate
	}
	if ut.Priority != "" {
		t.Priority = ut.Priority
	}
	if ut.Status != "" {
		t.Status = ut.Status
	}
	if ut.EstimatedTime != nil {
		t.EstimatedTime = ut.EstimatedTime
	}
	if ut.Recurrence != "" {
		t.Recurrence = ut.Recurrence
	}
	if ut.ResourceURL != nil {
		t.ResourceURL = *ut.ResourceURL
	}
	if ut.RewardPoints != nil {
		t.RewardPoints = *ut.RewardPoints
	}
	return t
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,taskstatus"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type SetPlan struct {
	Plan string `json:"plan" validate:"required"`
}

func (sp *SetPlan) Validate(validate *validator.Validate) error {
	sp.Plan = strings.TrimSpace(sp.Plan)
	return validate.Struct(sp)
}

type SetSteps struct {
	Steps []plan.Step `json:"steps" validate:"required,dive"`
}

func (ss *SetSteps) Validate(validate *validator.Validate) error {
	for i := range ss.Steps {
		ss.Steps[i].ID = core.CleanString(ss.Steps[i].ID)
		ss.Steps[i].Text = core.CleanString(ss.Steps[i].Text)
	}
	return validate.Struct(ss)
}

type QueryFilter struct {
	KidID    string         `query:"kid_id"`
	Statuses []string       `query:"status"`
	Search   string         `query:"search"`
	DueFrom  core.QueryTime `query:"due_from"`
	DueTo    core.QueryTime `query:"due_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf == nil ||
		(qf.KidID == "" && qf.Statuses == nil && qf.Search == "" && qf.DueFrom.IsZero() && qf.DueTo.IsZero())
}

func (qf *QueryFilter) Clean() {
	qf.KidID = core.CleanString(qf.KidID, true /* lower */)
	qf.Statuses = core.CleanStrings(qf.Statuses, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

// Matches reports whether t satisfies every set field of the filter.
// Stores that cannot express the filter natively use it to filter in memory.
func (qf *QueryFilter) Matches(t Task) bool {
	if qf == nil {
		return true
	}
	if qf.KidID != "" && t.KidID != qf.KidID {
		return false
	}
	if len(qf.Statuses) > 0 && !contains(qf.Statuses, t.Status) {
		return false
	}
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(t.Title), s) ||
			strings.Contains(strings.ToLower(t.Description), s) ||
			strings.Contains(strings.ToLower(t.Subject), s)) {
			return false
		}
	}
	if !qf.DueFrom.IsZero() && (t.DueDate == nil || t.DueDate.Before(qf.DueFrom.Time)) {
		return false
	}
	if !qf.DueTo.IsZero() && (t.DueDate == nil || t.DueDate.After(qf.DueTo.Time)) {
		return false
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
