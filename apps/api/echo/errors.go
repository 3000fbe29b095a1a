package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mwalimu/core"
	"github.com/trezcool/mwalimu/core/kid"
	"github.com/trezcool/mwalimu/core/plan"
	"github.com/trezcool/mwalimu/core/settings"
	"github.com/trezcool/mwalimu/core/task"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "parent not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")

	fallbackLocal = "local"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(
	logger core.Logger,
	translator ut.Translator,
	auth *authenticator,
	signalShutdown func(),
) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch cause {
		case kid.ErrNotFound, task.ErrNotFound, plan.ErrStepNotFound:
			code = http.StatusNotFound
			message = echo.Map{"error": cause.Error()}
		case task.ErrNoActiveTask:
			code = http.StatusNotFound
			message = echo.Map{"error": cause.Error(), "fallback": fallbackLocal}
		case core.ErrMissingAPIKey, core.ErrMissingBackendKey:
			code = http.StatusBadRequest
			message = echo.Map{"error": cause.Error()}
		case settings.ErrInvalidPIN:
			code = http.StatusUnauthorized
			message = echo.Map{"error": cause.Error()}
		}

		if code == 0 {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = echo.Map{"error": origErr.Message}
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				if m, ok := origErr.Message.(string); ok {
					message = echo.Map{"error": m}
				} else {
					message = origErr.Message
				}
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = echo.Map{"error": origErr.Error()}
				}
				code = http.StatusBadRequest
			case *core.UpstreamError:
				code = origErr.Status
				message = origErr.Body
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := "Internal server error"
				message = echo.Map{"error": msg, "details": err.Error()}

				req := ctx.Request()
				info := core.RequestInfo{
					ID:     ctx.Response().Header().Get(echo.HeaderXRequestID),
					Method: req.Method,
					Path:   req.URL.Path,
				}
				if _, cErr := auth.contextClaims(ctx); cErr == nil {
					info.Parent = true
				}
				logger.Error(msg, errors.Wrap(err, msg), info)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
