package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core/settings"
)

type settingsApi struct {
	auth     *authenticator
	svc      settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc settings.Service,
	validate *validator.Validate,
) {
	api := settingsApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	// TODO: rate limit PIN attempts
	ag := g.Group("/auth")
	ag.POST("/pin", api.login)
	ag.PUT("/pin", api.changePIN, jwt)
	ag.POST("/logout", api.logout)

	sg := g.Group("/settings", jwt)
	sg.GET("/backend", api.backend)
	sg.PUT("/backend", api.setBackend)
}

// Handlers

func (api *settingsApi) login(ctx echo.Context) error {
	var data settings.VerifyPIN
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyPIN")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.VerifyPIN(ctx.Request().Context(), data.PIN); err != nil {
		return errors.Wrap(err, "verifying PIN")
	}
	token, err := api.auth.GenerateToken(api.auth.parentClaims())
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	ctx.SetCookie(api.auth.sessionCookie(token))
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *settingsApi) logout(ctx echo.Context) error {
	ctx.SetCookie(api.auth.sessionCookie(""))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *settingsApi) changePIN(ctx echo.Context) error {
	var data settings.ChangePIN
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePIN")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ChangePIN(ctx.Request().Context(), data.OldPIN, data.NewPIN); err != nil {
		return errors.Wrap(err, "changing PIN")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "PIN has been changed."})
}

func (api *settingsApi) backend(ctx echo.Context) error {
	b, err := api.svc.Backend(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting backend")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *settingsApi) setBackend(ctx echo.Context) error {
	var data settings.SetBackend
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetBackend")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.SetBackend(ctx.Request().Context(), data.URL, data.Key)
	if err != nil {
		return errors.Wrap(err, "setting backend")
	}
	return ctx.JSON(http.StatusOK, b)
}

type (
	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
