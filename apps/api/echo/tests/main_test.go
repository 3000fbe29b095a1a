package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/mwalimu/apps/api/echo"
	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/core/task"
	geminisvc "github.com/trezcool/mwalimu/services/gemini"
	"github.com/trezcool/mwalimu/storage/localstore"
	"github.com/trezcool/mwalimu/storage/supabase"
	"github.com/trezcool/mwalimu/testutil"
)

const (
	testPIN   = "1234"
	testModel = "gemini-test"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type (
	httpErr struct {
		Error string `json:"error"`
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
	}

	// upstream is a fake HTTP service answering every request with status and body.
	upstream struct {
		mu     sync.Mutex
		srv    *httptest.Server
		status int
		body   string
		reqs   []*http.Request
		bodies [][]byte
	}

	testApp struct {
		server   Server
		gemini   *upstream
		logger   *testutil.Logger
		kidRepo  kid.Repository
		taskRepo task.Repository
		backends *supabase.ClientCache
	}
)

func newUpstream(t *testing.T, status int, body string) *upstream {
	up := &upstream{status: status, body: body}
	up.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := ioutil.ReadAll(r.Body)
		up.mu.Lock()
		defer up.mu.Unlock()
		up.reqs = append(up.reqs, r)
		up.bodies = append(up.bodies, data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(up.status)
		_, _ = w.Write([]byte(up.body))
	}))
	t.Cleanup(up.srv.Close)
	return up
}

func (up *upstream) respond(status int, body string) {
	up.mu.Lock()
	defer up.mu.Unlock()
	up.status, up.body = status, body
}

func (up *upstream) calls() int {
	up.mu.Lock()
	defer up.mu.Unlock()
	return len(up.reqs)
}

func (up *upstream) lastBody() []byte {
	up.mu.Lock()
	defer up.mu.Unlock()
	if len(up.bodies) == 0 {
		return nil
	}
	return up.bodies[len(up.bodies)-1]
}

func (up *upstream) lastRequest() *http.Request {
	up.mu.Lock()
	defer up.mu.Unlock()
	if len(up.reqs) == 0 {
		return nil
	}
	return up.reqs[len(up.reqs)-1]
}

func setup(t *testing.T) *testApp {
	gemini := newUpstream(t, http.StatusOK, geminiReply("ok"))
	conf := &core.Config{
		AppName:    "Mwalimu",
		Env:        "TEST",
		TestMode:   true,
		SecretKey:  "test-secret",
		DefaultPIN: testPIN,
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
			DisableReqLogs:     true,
		},
		Gemini: core.GeminiConfig{BaseURL: gemini.srv.URL, Model: testModel, Timeout: 5 * time.Second},
	}

	// set up store & repos
	db, err := localstore.Open("")
	require.NoError(t, err)
	kidRepo := localstore.NewKidRepository(db)
	taskRepo := localstore.NewTaskRepository(db)

	// set up services
	backends := supabase.NewClientCache(5 * time.Second)
	logger := testutil.NewLogger()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	// set up server
	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		KidSvc:      kid.NewService(kidRepo),
		TaskSvc:     task.NewService(taskRepo, kidRepo),
		SettingsSvc: settings.NewService(localstore.NewSettingsRepository(db), conf.DefaultPIN, backends.Invalidate),
		ChatSvc:     chat.NewService(geminisvc.NewClient(conf.Gemini), conf.Gemini.Model),
		Backends:    backends,
	})
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
	})

	return &testApp{
		server:   server,
		gemini:   gemini,
		logger:   logger,
		kidRepo:  kidRepo,
		taskRepo: taskRepo,
		backends: backends,
	}
}

func geminiReply(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + marshalString(text) + `}]},"finishReason":"STOP"}],` +
		`"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":5,"totalTokenCount":8}}`
}

func marshalString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// login exchanges the PIN for a parent token.
func (app *testApp) login(t *testing.T) string {
	req, rec := newRequest(http.MethodPost, "/v1/auth/pin", []byte(`{"pin":"`+testPIN+`"}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func (app *testApp) do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt)
			wantCode := tt.wantCode
			if wantCode == 0 {
				wantCode = http.StatusOK
			}
			tt.wantCode = wantCode
			checkCodeAndData(t, tt, rec)
		})
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
