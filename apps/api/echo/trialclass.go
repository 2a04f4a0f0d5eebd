package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/core/user"
)

const trialClassRegistered = "Thank you! Your trial class is booked, check your inbox for the confirmation."

// registerTrialClass handles the trial class form, posted by the page form or as JSON by scripts.
func (s *Server) registerTrialClass(ctx echo.Context) error {
	api := isAPIRequest(ctx)

	var data trialclass.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}
	if err := data.Validate(s.deps.Validate, time.Now().UTC()); err != nil {
		if fields, ok := s.fieldErrors(err); ok && !api {
			return s.renderHome(ctx, http.StatusBadRequest, data, fields)
		}
		return err
	}

	reg, err := s.deps.TrialClassSvc.Register(ctx.Request().Context(), data)
	if err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			if api {
				return err
			}
			return s.renderHome(ctx, http.StatusBadRequest, data, fields)
		}

		var usr user.User
		if sess := getSession(ctx); sess != nil {
			usr = sess.User
		}
		s.deps.Logger.Error(err.Error(), err, usr)
		if api {
			return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
		}
		setFlash(ctx, flashError, err.Error())
		return redirect(ctx, backURL(ctx.Request(), "/"))
	}

	if api {
		return ctx.JSON(http.StatusCreated, reg)
	}
	setFlash(ctx, flashSuccess, trialClassRegistered)
	return redirect(ctx, backURL(ctx.Request(), "/"))
}
