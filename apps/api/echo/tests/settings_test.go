package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_settingsApi_login(t *testing.T) {
	app := setup(t)

	app.run(t, []httpTest{
		{
			name:     "invalid pin format",
			method:   http.MethodPost,
			path:     "/v1/auth/pin",
			body:     []byte(`{"pin":"12a"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"pin":"PIN must be exactly 4 digits"}`),
		},
		{
			name:     "wrong pin",
			method:   http.MethodPost,
			path:     "/v1/auth/pin",
			body:     []byte(`{"pin":"0000"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid PIN"}),
		},
	})

	t.Run("cookie session", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/pin", []byte(`{"pin":"`+testPIN+`"}`))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "parent_token", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		// the cookie alone authenticates the parent
		req, rec = newRequest(http.MethodGet, "/v1/settings/backend")
		req.AddCookie(cookies[0])
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"url":"","has_key":false}`)}, rec)

		// logging out clears it
		req, rec = newRequest(http.MethodPost, "/v1/auth/logout")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		cookies = rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.True(t, cookies[0].MaxAge < 0)
	})
}

func Test_settingsApi_changePIN(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	app.run(t, []httpTest{
		{
			name:     "parent required",
			method:   http.MethodPut,
			path:     "/v1/auth/pin",
			body:     []byte(`{"old_pin":"1234","new_pin":"4321","new_pin_confirm":"4321"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "confirmation mismatch",
			method:   http.MethodPut,
			path:     "/v1/auth/pin",
			body:     []byte(`{"old_pin":"1234","new_pin":"4321","new_pin_confirm":"4322"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"new_pin_confirm":"new_pin_confirm must be equal to NewPIN"}`),
		},
		{
			name:     "wrong old pin",
			method:   http.MethodPut,
			path:     "/v1/auth/pin",
			body:     []byte(`{"old_pin":"0000","new_pin":"4321","new_pin_confirm":"4321"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"old_pin":"invalid PIN"}`),
		},
		{
			name:     "changed",
			method:   http.MethodPut,
			path:     "/v1/auth/pin",
			body:     []byte(`{"old_pin":"1234","new_pin":"4321","new_pin_confirm":"4321"}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":"PIN has been changed."}`),
		},
		{
			name:     "old pin no longer works",
			method:   http.MethodPost,
			path:     "/v1/auth/pin",
			body:     []byte(`{"pin":"1234"}`),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "new pin works",
			method:   http.MethodPost,
			path:     "/v1/auth/pin",
			body:     []byte(`{"pin":"4321"}`),
			wantCode: http.StatusOK,
		},
	})
}

func Test_settingsApi_backend(t *testing.T) {
	app := setup(t)
	token := app.login(t)

	app.run(t, []httpTest{
		{name: "parent required", path: "/v1/settings/backend", wantCode: http.StatusUnauthorized},
		{name: "empty", path: "/v1/settings/backend", token: token, wantData: []byte(`{"url":"","has_key":false}`)},
		{
			name:     "invalid",
			method:   http.MethodPut,
			path:     "/v1/settings/backend",
			body:     []byte(`{"url":"not a url","key":""}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"url":"url must be a valid URL","key":"this field is required"}`),
		},
		{
			name:     "set",
			method:   http.MethodPut,
			path:     "/v1/settings/backend",
			body:     []byte(`{"url":"https://demo.supabase.co","key":"anon"}`),
			token:    token,
			wantData: []byte(`{"url":"https://demo.supabase.co","has_key":true}`),
		},
		{
			name:     "key is never returned",
			path:     "/v1/settings/backend",
			token:    token,
			wantData: []byte(`{"url":"https://demo.supabase.co","has_key":true}`),
		},
	})

	t.Run("replacing credentials drops the cached client", func(t *testing.T) {
		_, err := app.backends.Get("https://demo.supabase.co", "anon")
		require.NoError(t, err)
		require.Equal(t, 1, app.backends.Len())

		rec := app.do(t, httpTest{
			method: http.MethodPut,
			path:   "/v1/settings/backend",
			body:   []byte(`{"url":"https://demo.supabase.co","key":"rotated"}`),
			token:  token,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Zero(t, app.backends.Len())
	})
}

func TestHome(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Mwalimu API!", rec.Body.String())
}
