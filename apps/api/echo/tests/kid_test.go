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

	. "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/testutil"
)

func Test_kidApi_query(t *testing.T) {
	app := setup(t)
	now := time.Now()
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9, now.Add(-2*time.Hour))
	zawadi := testutil.CreateKid(t, app.kidRepo, "Zawadi", 6, now.Add(-time.Hour))

	app.run(t, []httpTest{
		{name: "all (oldest first)", path: "/v1/kids", wantData: marshalList(t, amani, zawadi)},
		{name: "search", path: "/v1/kids?search=ama", wantData: marshalList(t, amani)},
		{name: "search (unknown)", path: "/v1/kids?search=lol", wantData: marshalList(t)},
		{
			name:     "options",
			path:     "/v1/kids/options",
			wantData: marshalObj(t, KidOptions{Genders: kid.Genders, LearningStyles: kid.LearningStyles}),
		},
		{name: "retrieve", path: "/v1/kids/" + amani.ID, wantData: marshalObj(t, amani)},
		{
			name:     "retrieve (unknown)",
			path:     "/v1/kids/" + uuid.New().String(),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "kid not found"}),
		},
		{
			name:     "retrieve (invalid id)",
			path:     "/v1/kids/lol",
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "kid not found"}),
		},
	})
}

func Test_kidApi_create(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	app.run(t, []httpTest{
		{
			name:     "parent required",
			method:   http.MethodPost,
			path:     "/v1/kids",
			body:     []byte(`{"name":"Amani","age":9}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "invalid token",
			method:   http.MethodPost,
			path:     "/v1/kids",
			body:     []byte(`{"name":"Amani","age":9}`),
			token:    "lol",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "invalid data",
			method:   http.MethodPost,
			path:     "/v1/kids",
			body:     []byte(`{"name":"  ","age":30,"learning_style":"telepathic"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{
				"name": "this field is required",
				"age": "age must be 18 or less",
				"learning_style": "learning_style must be one of [visual auditory reading kinesthetic mixed]"
			}`),
		},
	})

	t.Run("created", func(t *testing.T) {
		rec := app.do(t, httpTest{
			method: http.MethodPost,
			path:   "/v1/kids",
			body:   []byte(`{"name":" Amani ","age":9,"gender":"Female","interests":["football"," ","maps"],"learning_style":"VISUAL"}`),
			token:  token,
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got kid.Kid
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "Amani", got.Name)
		assert.Equal(t, "female", got.Gender)
		assert.Equal(t, []string{"football", "maps"}, got.Interests)
		assert.Equal(t, "visual", got.LearningStyle)

		stored, err := app.kidRepo.GetKid(context.Background(), got.ID)
		require.NoError(t, err)
		assert.Equal(t, got.Name, stored.Name)
	})
}

func Test_kidApi_update(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)

	want := amani
	want.Age = 10
	want.Personality = "curious"

	app.run(t, []httpTest{
		{
			name:     "parent required",
			method:   http.MethodPut,
			path:     "/v1/kids/" + amani.ID,
			body:     []byte(`{"age":10}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "unknown",
			method:   http.MethodPut,
			path:     "/v1/kids/" + uuid.New().String(),
			body:     []byte(`{"age":10}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "invalid",
			method:   http.MethodPut,
			path:     "/v1/kids/" + amani.ID,
			body:     []byte(`{"gender":"robot"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"gender":"gender must be one of [male female other]"}`),
		},
		{
			name:     "updated",
			method:   http.MethodPut,
			path:     "/v1/kids/" + amani.ID,
			body:     []byte(`{"age":10,"personality":" curious "}`),
			token:    token,
			wantData: marshalObj(t, want),
		},
	})
}

func Test_kidApi_destroy(t *testing.T) {
	app := setup(t)
	token := app.login(t)
	amani := testutil.CreateKid(t, app.kidRepo, "Amani", 9)
	zawadi := testutil.CreateKid(t, app.kidRepo, "Zawadi", 6)
	baraka := testutil.CreateKid(t, app.kidRepo, "Baraka", 12)
	tsk := testutil.CreateTask(t, app.taskRepo, amani.ID, "Fractions", "- one")

	app.run(t, []httpTest{
		{
			name:     "parent required",
			method:   http.MethodDelete,
			path:     "/v1/kids/" + amani.ID,
			wantCode: http.StatusUnauthorized,
		},
		{name: "destroy", method: http.MethodDelete, path: "/v1/kids/" + amani.ID, token: token, wantCode: http.StatusNoContent},
		{
			name:     "destroy (gone)",
			method:   http.MethodDelete,
			path:     "/v1/kids/" + amani.ID,
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "destroy multiple",
			method:   http.MethodDelete,
			path:     "/v1/kids?id=" + zawadi.ID + "&id=" + baraka.ID,
			token:    token,
			wantCode: http.StatusNoContent,
		},
		{name: "nothing left", path: "/v1/kids", wantData: marshalList(t)},
	})

	_, err := app.taskRepo.GetTask(context.Background(), tsk.ID)
	assert.Error(t, err, "tasks are deleted with their kid")
}
