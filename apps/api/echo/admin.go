package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/category"
	"github.com/trezcool/elimu/core/program"
)

const latestRegistrations = 10

func (s *Server) registerAdminPages() {
	g := s.app.Group("/admin", guardMiddleware(adminGuard))
	g.GET("/dashboard", s.adminDashboard)
	g.GET("/categories", s.adminCategories)
	g.POST("/categories", s.adminCreateCategory)
	g.POST("/categories/:id/delete", s.adminDeleteCategory)
	g.GET("/programs", s.adminPrograms)
}

func (s *Server) adminDashboard(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	usersByRole, err := s.deps.UserSvc.CountByRole(rctx)
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	categories, err := s.deps.CategorySvc.Count(rctx)
	if err != nil {
		return errors.Wrap(err, "counting categories")
	}
	programs, err := s.deps.ProgramSvc.Count(rctx, program.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "counting programs")
	}
	registrations, err := s.deps.TrialClassSvc.Count(rctx)
	if err != nil {
		return errors.Wrap(err, "counting registrations")
	}
	latest, err := s.deps.TrialClassSvc.Latest(rctx, latestRegistrations)
	if err != nil {
		return errors.Wrap(err, "querying registrations")
	}

	return s.render(ctx, http.StatusOK, "admin_dashboard", page{
		Title: "Admin",
		Data: echo.Map{
			"UsersByRole":   usersByRole,
			"Categories":    categories,
			"Programs":      programs,
			"Registrations": registrations,
			"Latest":        registrationTable(latest),
			"Seeded":        s.deps.Seeder.Fired(),
		},
	})
}

func (s *Server) renderCategories(ctx echo.Context, code int, form category.NewCategory, errs map[string]string) error {
	cats, err := s.deps.CategorySvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return s.render(ctx, code, "admin_categories", page{
		Title:  "Categories",
		Form:   form,
		Errors: errs,
		Data:   echo.Map{"Table": categoryTable(cats)},
	})
}

func (s *Server) adminCategories(ctx echo.Context) error {
	return s.renderCategories(ctx, http.StatusOK, category.NewCategory{}, nil)
}

func (s *Server) adminCreateCategory(ctx echo.Context) error {
	var data category.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(s.deps.Validate, s.deps.CategorySvc); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.renderCategories(ctx, http.StatusBadRequest, data, fields)
		}
		return err
	}
	cat, err := s.deps.CategorySvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	setFlash(ctx, flashSuccess, "Category "+cat.Name+" created.")
	return redirect(ctx, "/admin/categories")
}

func (s *Server) adminDeleteCategory(ctx echo.Context) error {
	if err := s.deps.CategorySvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) != category.ErrNotFound {
			return errors.Wrap(err, "deleting category")
		}
	}
	setFlash(ctx, flashSuccess, "Category deleted.")
	return redirect(ctx, "/admin/categories")
}

func (s *Server) adminPrograms(ctx echo.Context) error {
	progs, err := s.deps.ProgramSvc.Query(ctx.Request().Context(), program.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	return s.render(ctx, http.StatusOK, "admin_programs", page{
		Title: "Programs",
		Data:  echo.Map{"Table": programTable(progs, true)},
	})
}
