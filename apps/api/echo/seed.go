package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// seed fires the seeder. Later calls are no-ops answering {"seeded": false}.
func (s *Server) seed(ctx echo.Context) error {
	fired, err := s.deps.Seeder.Run(ctx.Request().Context())
	if err != nil {
		s.deps.Logger.Error(err.Error(), err, getSession(ctx).User)
		return ctx.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return ctx.JSON(http.StatusOK, echo.Map{"seeded": fired})
}
