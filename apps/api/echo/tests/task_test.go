package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	. "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
	"github.com/trezcool/mwalimu/testutil"
)

func decodeTask(t *testing.T, data []byte) task.Task {
	var tsk task.Task
	require.NoError(t, json.Unmarshal(data, &tsk), string(data))
	return tsk
}

func Test_taskApi_create(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)

	app.run(t, []httpTest{
		{
			name:     "parent required",
			method:   http.MethodPost,
			path:     "/v1/tasks",
			body:     []byte(`{"title":"Fractions","kid_id":"` + amani.ID + `"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "invalid",
			method:   http.MethodPost,
			path:     "/v1/tasks",
			body:     []byte(`{"title":"","kid_id":"lol","priority":"urgent","status":"lost"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"title": "this field is required",
				"kid_id": "kid_id must be a valid UUID",
				"priority": "priority must be one of [low medium high]",
				"status": "invalid task status"
			}`),
		},
		{
			name:   "start after due",
			method: http.MethodPost,
			path:   "/v1/tasks",
			body: []byte(`{"title":"Fractions","kid_id":"` + amani.ID + `",` +
				`"start_date":"2030-01-02T00:00:00Z","due_date":"2030-01-01T00:00:00Z"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_date":"start date must not be after the due date"}`),
		},
		{
			name:     "unknown kid",
			method:   http.MethodPost,
			path:     "/v1/tasks",
			body:     []byte(`{"title":"Fractions","kid_id":"` + uuid.New().String() + `"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"kid_id":"kid not found"}`),
		},
	})

	t.Run("created with plan", func(t *testing.T) {
		rec := app.do(t, httpTest{
			method: http.MethodPost,
			path:   "/v1/tasks",
			body: []byte(`{"title":" Fractions ","kid_id":"` + amani.ID + `","subject":"Math",` +
				`"plan":"Warm up:\n- halves\n- quarters"}`),
			token: token,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		got := decodeTask(t, rec.Body.Bytes())
		assert.Equal(t, "Fractions", got.Title)
		assert.Equal(t, task.PriorityMedium, got.Priority)
		assert.Equal(t, task.StatusPending, got.Status)
		assert.Equal(t, task.RecurrenceNone, got.Recurrence)
		require.Len(t, got.PlanSteps, 2)
		assert.Equal(t, "halves", got.PlanSteps[0].Text)
		assert.False(t, got.PlanSteps[0].Completed)
	})
}

func Test_taskApi_query(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	now := time.Now()
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	zawadi := testutil.CreateKid(t, app.kidRepo, "Zawadi", 6)

	fractions := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "- one", now.Add(-3*time.Hour))
	reading := testutil.CreateTask(t, app.taskRepo, zawadi.ID, "Reading", "", now.Add(-2*time.Hour))
	maps := testutil.CreateTask(t, app.taskRepo, amani.ID, "Maps", "", now.Add(-time.Hour))

	// a past due date makes the task overdue when listed
	past := now.Add(-24 * time.Hour).UTC().Truncate(time.Second)
	reading.DueDate = &past
	reading.Priority = task.PriorityHigh
	_, err := app.taskRepo.UpdateTask(ctx, reading)
	require.NoError(t, err)

	t.Run("overdue is marked", func(t *testing.T) {
		rec := app.do(t, httpTest{path: "/v1/tasks?kid_id=" + zawadi.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{task.StatusOverdue}, gjson.GetBytes(rec.Body.Bytes(), "#.status").Value())

		stored, err := app.taskRepo.GetTask(ctx, reading.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusOverdue, stored.Status)
	})

	ids := func(t *testing.T, path string) []interface{} {
		rec := app.do(t, httpTest{path: path})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return gjson.GetBytes(rec.Body.Bytes(), "#.id").Value().([]interface{})
	}
	tests := []struct {
		name string
		path string
		want []interface{}
	}{
		{name: "all (newest first)", path: "/v1/tasks", want: []interface{}{maps.ID, reading.ID, fractions.ID}},
		{name: "by kid", path: "/v1/tasks?kid_id=" + amani.ID, want: []interface{}{maps.ID, fractions.ID}},
		{name: "by status", path: "/v1/tasks?status=overdue", want: []interface{}{reading.ID}},
		{name: "search", path: "/v1/tasks?search=FRAC", want: []interface{}{fractions.ID}},
		{name: "search (unknown)", path: "/v1/tasks?search=lol", want: []interface{}{}},
		{name: "ordering", path: "/v1/tasks?ordering=title", want: []interface{}{fractions.ID, maps.ID, reading.ID}},
		{name: "ordering by priority", path: "/v1/tasks?ordering=-priority,title", want: []interface{}{reading.ID, fractions.ID, maps.ID}},
		{name: "ordering (unknown field)", path: "/v1/tasks?ordering=lol", want: []interface{}{maps.ID, reading.ID, fractions.ID}},
		{name: "due range", path: "/v1/tasks?due_to=" + now.UTC().Format("2006-01-02"), want: []interface{}{reading.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(t, tt.path))
		})
	}
}

func Test_taskApi_detail(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	tsk := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "")

	app.run(t, []httpTest{
		{name: "retrieve", path: "/v1/tasks/" + tsk.ID, wantData: marshalObj(t, tsk)},
		{
			name:     "retrieve (unknown)",
			path:     "/v1/tasks/" + uuid.New().String(),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "task not found"}),
		},
		{
			name:     "update requires parent",
			method:   http.MethodPut,
			path:     "/v1/tasks/" + tsk.ID,
			body:     []byte(`{"title":"Decimals"}`),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "delete requires parent",
			method:   http.MethodDelete,
			path:     "/v1/tasks/" + tsk.ID,
			wantCode: http.StatusUnauthorized,
		},
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, httpTest{
			method: http.MethodPut,
			path:   "/v1/tasks/" + tsk.ID,
			body:   []byte(`{"title":"Decimals","status":"completed","reward_points":5}`),
			token:  token,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decodeTask(t, rec.Body.Bytes())
		assert.Equal(t, "Decimals", got.Title)
		assert.Equal(t, task.StatusCompleted, got.Status, "parents may set any status")
		assert.Equal(t, 5, got.RewardPoints)
	})

	t.Run("delete", func(t *testing.T) {
		other := testutil.CreateTask(t, app.taskRepo, amani.ID, "Maps", "")

		rec := app.do(t, httpTest{method: http.MethodDelete, path: "/v1/tasks/" + tsk.ID, token: token})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(t, httpTest{method: http.MethodDelete, path: "/v1/tasks", body: []byte(`{"ids":["` + other.ID + `"]}`), token: token})
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(t, httpTest{path: "/v1/tasks"})
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marshalList(t)}, rec)
	})
}

func Test_taskApi_updateStatus(t *testing.T) {
	app := setup(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	tsk := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "")
	path := "/v1/tasks/" + tsk.ID + "/status"

	app.run(t, []httpTest{
		{
			name:     "invalid status",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status":"lost"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"invalid task status"}`),
		},
		{
			name:     "start",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status":"in-progress"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "cannot go back",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status":"pending"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"cannot go from in-progress to pending"}`),
		},
		{
			name:     "complete",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status":"completed"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "completed is final",
			method:   http.MethodPut,
			path:     path,
			body:     []byte(`{"status":"in-progress"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"status":"cannot go from completed to in-progress"}`),
		},
	})
}

func Test_taskApi_plan(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	tsk := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "")
	path := "/v1/tasks/" + tsk.ID

	t.Run("generate requires parent", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodPost, path: path + "/plan", body: []byte(`{"apiKey":"k"}`)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("generate requires api key", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodPost, path: path + "/plan", body: []byte(`{}`), token: token})
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "API key is required"}),
		}, rec)
		assert.Zero(t, app.gemini.calls())
	})

	t.Run("generate", func(t *testing.T) {
		app.gemini.respond(http.StatusOK, geminiReply("Day 1:\nRead the story\n- count to ten"))

		rec := app.do(t, httpTest{method: http.MethodPost, path: path + "/plan", body: []byte(`{"apiKey":"k"}`), token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		got := decodeTask(t, rec.Body.Bytes())
		assert.Equal(t, "Day 1:\nRead the story\n- count to ten", got.Plan)
		require.Len(t, got.PlanSteps, 2)
		assert.Equal(t, "Day 1:: Read the story", got.PlanSteps[0].Text)
		assert.Equal(t, "count to ten", got.PlanSteps[1].Text)
		assert.Contains(t, string(app.gemini.lastBody()), "Fractions")
		assert.Contains(t, string(app.gemini.lastBody()), "Amani")
	})

	t.Run("set manually", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodPut, path: path + "/plan", body: []byte(`{"plan":"- a\n- b\n- c"}`), token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int64(3), gjson.GetBytes(rec.Body.Bytes(), "plan_steps.#").Int())

		rec = app.do(t, httpTest{method: http.MethodPut, path: path + "/plan", body: []byte(`{"plan":"  "}`), token: token})
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"plan":"this field is required"}`)}, rec)
	})

	t.Run("set steps", func(t *testing.T) {
		steps := []plan.Step{{ID: "s1", Text: "first", Completed: true}, {Text: " second "}}
		body := marshalObj(t, map[string]interface{}{"steps": steps})

		rec := app.do(t, httpTest{method: http.MethodPut, path: path + "/steps", body: body, token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decodeTask(t, rec.Body.Bytes())
		require.Len(t, got.PlanSteps, 2)
		assert.Equal(t, plan.Step{ID: "s1", Text: "first", Completed: true}, got.PlanSteps[0])
		assert.Equal(t, "second", got.PlanSteps[1].Text)
		assert.NotEmpty(t, got.PlanSteps[1].ID)

		rec = app.do(t, httpTest{path: path + "/progress"})
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marshalObj(t, plan.Progress{Completed: 1, Total: 2, Percent: 50}),
		}, rec)
	})
}

func Test_taskApi_toggle(t *testing.T) {
	app := setup(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	tsk := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "- a\n- b")
	path := "/v1/tasks/" + tsk.ID
	stepA := tsk.PlanSteps[0].ID

	toggle := func(t *testing.T, p string) ToggleResponse {
		rec := app.do(t, httpTest{method: http.MethodPost, path: p})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res ToggleResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		return res
	}

	res := toggle(t, path+"/steps/"+stepA+"/toggle")
	assert.True(t, res.Task.PlanSteps[0].Completed)
	assert.Equal(t, plan.Progress{Completed: 1, Total: 2, Percent: 50}, res.Progress)

	res = toggle(t, path+"/steps/toggle-all")
	assert.Equal(t, plan.Progress{Completed: 2, Total: 2, Percent: 100, AllComplete: true}, res.Progress)

	res = toggle(t, path+"/steps/toggle-all")
	assert.Equal(t, plan.Progress{Total: 2}, res.Progress)

	rec := app.do(t, httpTest{method: http.MethodPost, path: path + "/steps/lol/toggle"})
	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "step not found"})}, rec)

	stored, err := app.taskRepo.GetTask(context.Background(), tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Task.PlanSteps, stored.PlanSteps)
}
