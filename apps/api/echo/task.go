package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/chat"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/task"
)

var errTaskNotFoundInCtx = errors.New("task object not found in echo.Context")

type taskApi struct {
	svc      task.Service
	kidSvc   kid.Service
	chatSvc  chat.Service
	validate *validator.Validate
}

func registerTaskAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc task.Service,
	kidSvc kid.Service,
	chatSvc chat.Service,
	validate *validator.Validate,
) {
	api := taskApi{
		svc:      svc,
		kidSvc:   kidSvc,
		chatSvc:  chatSvc,
		validate: validate,
	}

	tg := g.Group("/tasks")
	tg.GET("", api.query)
	tg.POST("", api.create, jwt)
	tg.DELETE("", api.destroyMultiple, jwt)

	// detail endpoints
	obj := taskObjectMiddleware(api.svc)
	dg := tg.Group("/:id")
	dg.GET("", api.retrieve, obj)
	dg.PUT("", api.update, jwt, obj)
	dg.DELETE("", api.destroy, jwt, obj)
	dg.PUT("/status", api.updateStatus, obj)
	dg.GET("/progress", api.progress, obj)

	// plan endpoints
	dg.POST("/plan", api.generatePlan, jwt, obj)
	dg.PUT("/plan", api.setPlan, jwt, obj)
	dg.PUT("/steps", api.setSteps, jwt, obj)
	dg.POST("/steps/toggle-all", api.toggleAllSteps, obj)
	dg.POST("/steps/:stepID/toggle", api.toggleStep, obj)
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) query(ctx echo.Context) error {
	filter := new(task.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []task.Task{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, task.OrderingFields)

	tasks, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) update(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateTask
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) updateStatus(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	var data task.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.UpdateStatus(ctx.Request().Context(), t.ID, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}
	if _, err = api.svc.Delete(ctx.Request().Context(), t.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := query.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting tasks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *taskApi) progress(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan.ComputeProgress(t.Steps()))
}

func (api *taskApi) generatePlan(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	var data GenerateTaskPlanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateTaskPlanRequest")
	}
	data.APIKey = core.CleanString(data.APIKey)
	if data.APIKey == "" {
		return core.ErrMissingAPIKey
	}

	k, err := api.kidSvc.GetByID(ctx.Request().Context(), t.KidID)
	if err != nil {
		return errors.Wrap(err, "finding task kid")
	}
	text, err := api.chatSvc.GeneratePlan(ctx.Request().Context(), data.APIKey, t.Summary(), k)
	if err != nil {
		return errors.Wrap(err, "generating plan")
	}

	t, err = api.svc.SetPlan(ctx.Request().Context(), t.ID, text)
	if err != nil {
		return errors.Wrap(err, "setting plan")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) setPlan(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	var data task.SetPlan
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetPlan")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.SetPlan(ctx.Request().Context(), t.ID, data.Plan)
	if err != nil {
		return errors.Wrap(err, "setting plan")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) setSteps(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	var data task.SetSteps
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetSteps")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err = api.svc.SetSteps(ctx.Request().Context(), t.ID, data.Steps)
	if err != nil {
		return errors.Wrap(err, "setting steps")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) toggleStep(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	t, prog, err := api.svc.ToggleStep(ctx.Request().Context(), t.ID, ctx.Param("stepID"))
	if err != nil {
		return errors.Wrap(err, "toggling step")
	}
	return ctx.JSON(http.StatusOK, ToggleResponse{Task: t, Progress: prog})
}

func (api *taskApi) toggleAllSteps(ctx echo.Context) error {
	t, err := contextTask(ctx)
	if err != nil {
		return err
	}

	t, prog, err := api.svc.ToggleAllSteps(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "toggling all steps")
	}
	return ctx.JSON(http.StatusOK, ToggleResponse{Task: t, Progress: prog})
}

func contextTask(ctx echo.Context) (task.Task, error) {
	t, ok := ctx.Get("object").(task.Task)
	if !ok {
		return task.Task{}, errors.Wrap(errTaskNotFoundInCtx, "retrieving object from context")
	}
	return t, nil
}

func taskObjectMiddleware(svc task.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			t, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding task by ID")
			}
			ctx.Set("object", t)
			return next(ctx)
		}
	}
}

type (
	GenerateTaskPlanRequest struct {
		APIKey string `json:"apiKey"`
	}

	ToggleResponse struct {
		Task     task.Task     `json:"task"`
		Progress plan.Progress `json:"progress"`
	}
)
