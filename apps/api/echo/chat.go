package echoapi

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
	"github.com/trezcool/mwalimu/core/task"
	"github.com/trezcool/mwalimu/storage/supabase"
)

const (
	apiKeyField  = "apiKey"
	maxChatBody  = 1 << 20 // 1 MiB
	activeTaskOp = "getting active task"
)

type chatApi struct {
	svc      chat.Service
	backends *supabase.ClientCache
	logger   core.Logger
	validate *validator.Validate
}

func registerChatAPI(
	g *echo.Group,
	svc chat.Service,
	backends *supabase.ClientCache,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := chatApi{
		svc:      svc,
		backends: backends,
		logger:   logger,
		validate: validate,
	}

	g.POST("/chat", api.complete)
	g.POST("/generate-plan", api.generatePlan)
	g.GET("/active-task", api.activeTask)
}

// Handlers

func (api *chatApi) complete(ctx echo.Context) error {
	body, err := ioutil.ReadAll(io.LimitReader(ctx.Request().Body, maxChatBody))
	if err != nil {
		return errors.Wrap(err, "reading request body")
	}
	if !gjson.ValidBytes(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}

	// the key must never travel further than the upstream call
	apiKey := gjson.GetBytes(body, apiKeyField).String()
	if body, err = sjson.DeleteBytes(body, apiKeyField); err != nil {
		return errors.Wrap(err, "stripping API key")
	}

	var data chat.Request
	if err = json.Unmarshal(body, &data); err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid chat request"))
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	completion, err := api.svc.Complete(ctx.Request().Context(), apiKey, data)
	if err != nil {
		return errors.Wrap(err, "completing chat")
	}
	return ctx.JSON(http.StatusOK, completion)
}

func (api *chatApi) generatePlan(ctx echo.Context) error {
	var data chat.GeneratePlanRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GeneratePlanRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	text, err := api.svc.GeneratePlan(ctx.Request().Context(), data.APIKey, data.Description, data.Kid)
	if err != nil {
		return errors.Wrap(err, "generating plan")
	}
	return ctx.JSON(http.StatusOK, PlanResponse{Plan: text})
}

// activeTask serves the kid view from the hosted backend given by the caller.
// Any backend failure answers 404 so that the client falls back to its local data.
func (api *chatApi) activeTask(ctx echo.Context) error {
	var data ActiveTaskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActiveTaskRequest")
	}
	data.Clean()

	client, err := api.backends.Get(data.URL, data.Key)
	if err != nil {
		return err // missing credentials
	}

	t, err := supabase.NewTaskRepository(client).GetActiveTask(ctx.Request().Context())
	if err != nil {
		if errors.Cause(err) != task.ErrNoActiveTask {
			api.logger.Warn(activeTaskOp, errors.Wrap(err, activeTaskOp))
		}
		return task.ErrNoActiveTask
	}
	return ctx.JSON(http.StatusOK, t.WithSteps())
}

type (
	PlanResponse struct {
		Plan string `json:"plan"`
	}

	ActiveTaskRequest struct {
		URL string `query:"supabaseUrl"`
		Key string `query:"supabaseKey"`
	}
)

func (atr *ActiveTaskRequest) Clean() {
	atr.URL = core.CleanString(atr.URL)
	atr.Key = core.CleanString(atr.Key)
}
