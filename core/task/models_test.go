package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/plan"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusPending, true},
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusOverdue, true},
		{StatusInProgress, StatusPending, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusOverdue, StatusInProgress, true},
		{StatusOverdue, StatusCompleted, true},
		{StatusOverdue, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusOverdue, false},
		{StatusCompleted, StatusCompleted, true},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestTask_Steps(t *testing.T) {
	assert.Nil(t, Task{}.Steps())

	derived := Task{Plan: "- a\n- b"}.Steps()
	assert.Len(t, derived, 2, "steps are derived from the plan text when none are stored")
	assert.Equal(t, derived, Task{Plan: "- a\n- b"}.Steps(), "derived steps keep their IDs")
	assert.Equal(t, derived, Task{Plan: "- a\n- b"}.WithSteps().PlanSteps)
	assert.Nil(t, Task{Plan: "  "}.Steps())

	tsk := Task{Plan: "- a\n- b"}
	tsk.PlanSteps = []plan.Step{{ID: "x", Text: "edited"}}
	assert.Equal(t, tsk.PlanSteps, tsk.Steps())
}

func TestTask_IsOverdueAt(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	assert.False(t, Task{Status: StatusPending}.IsOverdueAt(now))
	assert.True(t, Task{Status: StatusPending, DueDate: &past}.IsOverdueAt(now))
	assert.False(t, Task{Status: StatusCompleted, DueDate: &past}.IsOverdueAt(now))
	assert.False(t, Task{Status: StatusPending, DueDate: &future}.IsOverdueAt(now))
}

func TestSort(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	a := Task{ID: "a", Title: "b-title", Priority: PriorityLow, CreatedAt: now, DueDate: &later}
	b := Task{ID: "b", Title: "A-title", Priority: PriorityHigh, CreatedAt: now.Add(time.Minute)}
	c := Task{ID: "c", Title: "c-title", Priority: PriorityMedium, CreatedAt: now.Add(-time.Minute), DueDate: &now}

	ids := func(tasks []Task) []string {
		out := make([]string, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default newest first", want: []string{"b", "a", "c"}},
		{name: "title ignores case", ordering: []core.DBOrdering{{Field: "title", Ascending: true}}, want: []string{"b", "a", "c"}},
		{name: "priority desc", ordering: []core.DBOrdering{{Field: "priority"}}, want: []string{"b", "c", "a"}},
		{name: "due date nulls last", ordering: []core.DBOrdering{{Field: "due_date", Ascending: true}}, want: []string{"c", "a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := []Task{a, b, c}
			Sort(tasks, tt.ordering)
			assert.Equal(t, tt.want, ids(tasks))
		})
	}
}
