package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/kid"
)

var errKidNotFoundInCtx = errors.New("kid object not found in echo.Context")

type kidApi struct {
	svc      kid.Service
	validate *validator.Validate
}

func registerKidAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc kid.Service, validate *validator.Validate) {
	api := kidApi{
		svc:      svc,
		validate: validate,
	}

	kg := g.Group("/kids")
	kg.GET("", api.query)
	kg.GET("/options", api.options)
	kg.POST("", api.create, jwt)
	kg.DELETE("", api.destroyMultiple, jwt)

	// detail endpoints
	obj := kidObjectMiddleware(api.svc)
	dg := kg.Group("/:id")
	dg.GET("", api.retrieve, obj)
	dg.PUT("", api.update, jwt, obj)
	dg.DELETE("", api.destroy, jwt, obj)
}

// Handlers

func (api *kidApi) create(ctx echo.Context) error {
	var data kid.NewKid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewKid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	k, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kid")
	}
	return ctx.JSON(http.StatusCreated, k)
}

func (api *kidApi) query(ctx echo.Context) error {
	filter := new(kid.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []kid.Kid{})
	}
	filter.Clean()

	kids, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying kids")
	}
	if kids == nil {
		kids = []kid.Kid{}
	}
	return ctx.JSON(http.StatusOK, kids)
}

func (api *kidApi) options(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, KidOptions{Genders: kid.Genders, LearningStyles: kid.LearningStyles})
}

func (api *kidApi) retrieve(ctx echo.Context) error {
	k, ok := ctx.Get("object").(kid.Kid)
	if !ok {
		return errors.Wrap(errKidNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *kidApi) update(ctx echo.Context) error {
	k, ok := ctx.Get("object").(kid.Kid)
	if !ok {
		return errors.Wrap(errKidNotFoundInCtx, "retrieving object from context")
	}

	var data kid.UpdateKid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateKid")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	k, err := api.svc.Update(ctx.Request().Context(), k.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating kid")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *kidApi) destroy(ctx echo.Context) error {
	k, ok := ctx.Get("object").(kid.Kid)
	if !ok {
		return errors.Wrap(errKidNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), k.ID); err != nil {
		return errors.Wrap(err, "deleting kid")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *kidApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := query.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if _, err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting kids")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func kidObjectMiddleware(svc kid.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			k, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding kid by ID")
			}
			ctx.Set("object", k)
			return next(ctx)
		}
	}
}

type KidOptions struct {
	Genders        []string `json:"genders"`
	LearningStyles []string `json:"learning_styles"`
}
