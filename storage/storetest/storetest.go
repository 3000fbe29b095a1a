// Package storetest checks that a storage backend honors the kid and task repository contracts.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
	"github.com/trezcool/mwalimu/testutil"
)

// Repos returns fresh, empty repositories of the backend under test.
type Repos func(t *testing.T) (kid.Repository, task.Repository)

func Run(t *testing.T, newRepos Repos) {
	t.Run("kids", func(t *testing.T) { testKids(t, newRepos) })
	t.Run("tasks", func(t *testing.T) { testTasks(t, newRepos) })
	t.Run("active task", func(t *testing.T) { testActiveTask(t, newRepos) })
}

func testKids(t *testing.T, newRepos Repos) {
	ctx := context.Background()
	kidRepo, taskRepo := newRepos(t)
	now := time.Now().UTC()

	amani := testutil.CreateKid(t, kidRepo, "Amani", 8, now.Add(-time.Hour))
	baraka := testutil.CreateKid(t, kidRepo, "Baraka", 11, now)

	got, err := kidRepo.GetKid(ctx, amani.ID)
	require.NoError(t, err)
	assert.Equal(t, amani, got)

	_, err = kidRepo.GetKid(ctx, "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, kid.ErrNotFound, err)

	kids, err := kidRepo.QueryKids(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []kid.Kid{amani, baraka}, kids)

	kids, err = kidRepo.QueryKids(ctx, &kid.QueryFilter{Search: "bara"})
	require.NoError(t, err)
	assert.Equal(t, []kid.Kid{baraka}, kids)

	amani.Age = 9
	amani.Interests = []string{"music", "maths"}
	amani.Personality = "curious"
	updated, err := kidRepo.UpdateKid(ctx, amani)
	require.NoError(t, err)
	assert.Equal(t, amani, updated)

	ghost := amani
	ghost.ID = "00000000-0000-0000-0000-000000000000"
	_, err = kidRepo.UpdateKid(ctx, ghost)
	assert.Equal(t, kid.ErrNotFound, err)

	tsk := testutil.CreateTask(t, taskRepo, amani.ID, "Read", "")
	n, err := kidRepo.DeleteKidsByID(ctx, []string{amani.ID, "not-an-id"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = taskRepo.GetTask(ctx, tsk.ID)
	assert.Equal(t, task.ErrNotFound, err, "deleting a kid deletes its tasks")
}

func testTasks(t *testing.T, newRepos Repos) {
	ctx := context.Background()
	kidRepo, taskRepo := newRepos(t)
	now := time.Now().UTC().Truncate(time.Second)

	amani := testutil.CreateKid(t, kidRepo, "Amani", 8)
	baraka := testutil.CreateKid(t, kidRepo, "Baraka", 11)

	fractions := testutil.CreateTask(t, taskRepo, amani.ID, "Fractions", "Warm up:\n- count to 10\n- draw a pizza", now.Add(-3*time.Hour))
	water := testutil.CreateTask(t, taskRepo, amani.ID, "Water cycle", "", now.Add(-2*time.Hour))
	poem := testutil.CreateTask(t, taskRepo, baraka.ID, "Poem", "", now.Add(-time.Hour))

	t.Run("get", func(t *testing.T) {
		got, err := taskRepo.GetTask(ctx, fractions.ID)
		require.NoError(t, err)
		assert.Equal(t, fractions, got)
		assert.Len(t, got.PlanSteps, 2)

		_, err = taskRepo.GetTask(ctx, "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, task.ErrNotFound, err)
	})

	due := now.Add(48 * time.Hour)
	water.Status = task.StatusInProgress
	water.Description = "Evaporation and rain"
	water.DueDate = &due
	water.PlanSteps = []plan.Step{{ID: "s1", Text: "watch the kettle", Completed: true}}
	water.UpdatedAt = now
	water, err := taskRepo.UpdateTask(ctx, water)
	require.NoError(t, err)

	t.Run("update", func(t *testing.T) {
		got, err := taskRepo.GetTask(ctx, water.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusInProgress, got.Status)
		assert.Equal(t, []plan.Step{{ID: "s1", Text: "watch the kettle", Completed: true}}, got.PlanSteps)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))

		ghost := water
		ghost.ID = "00000000-0000-0000-0000-000000000000"
		_, err = taskRepo.UpdateTask(ctx, ghost)
		assert.Equal(t, task.ErrNotFound, err)
	})

	ids := func(tasks []task.Task) []string {
		out := make([]string, 0, len(tasks))
		for _, t := range tasks {
			out = append(out, t.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   *task.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all newest first", want: []string{poem.ID, water.ID, fractions.ID}},
		{
			name:     "ordered by title",
			ordering: []core.DBOrdering{{Field: "title", Ascending: true}},
			want:     []string{fractions.ID, poem.ID, water.ID},
		},
		{name: "by kid", filter: &task.QueryFilter{KidID: baraka.ID}, want: []string{poem.ID}},
		{
			name:   "by statuses",
			filter: &task.QueryFilter{Statuses: []string{task.StatusInProgress, task.StatusCompleted}},
			want:   []string{water.ID},
		},
		{name: "search description", filter: &task.QueryFilter{Search: "EVAPORATION"}, want: []string{water.ID}},
		{
			name:   "due range",
			filter: &task.QueryFilter{DueFrom: core.QueryTime{Time: now}, DueTo: core.QueryTime{Time: now.Add(72 * time.Hour)}},
			want:   []string{water.ID},
		},
		{name: "no match", filter: &task.QueryFilter{Search: "volcano"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := taskRepo.QueryTasks(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("delete", func(t *testing.T) {
		n, err := taskRepo.DeleteTasksByID(ctx, []string{fractions.ID, poem.ID, "00000000-0000-0000-0000-000000000000"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := taskRepo.QueryTasks(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{water.ID}, ids(got))
	})
}

func testActiveTask(t *testing.T, newRepos Repos) {
	ctx := context.Background()
	kidRepo, taskRepo := newRepos(t)
	now := time.Now().UTC()

	_, err := taskRepo.GetActiveTask(ctx)
	assert.Equal(t, task.ErrNoActiveTask, err)

	k := testutil.CreateKid(t, kidRepo, "Amani", 8)
	older := testutil.CreateTask(t, taskRepo, k.ID, "Older", "- one", now.Add(-3*time.Hour))
	done := testutil.CreateTask(t, taskRepo, k.ID, "Done", "- one", now.Add(-2*time.Hour))
	testutil.CreateTask(t, taskRepo, k.ID, "No plan", "", now.Add(-time.Hour))

	done.Status = task.StatusCompleted
	_, err = taskRepo.UpdateTask(ctx, done)
	require.NoError(t, err)

	got, err := taskRepo.GetActiveTask(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)
}
