package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/user"
)

func (s *Server) registerProgramPages() {
	g := s.app.Group("/teacher", guardMiddleware(roleGuard(user.RoleTeacher, user.RoleAdmin)))
	g.GET("/dashboard", s.teacherDashboard)
	g.GET("/programs", s.teacherPrograms)
	g.GET("/programs/new", s.newProgramPage)
	g.POST("/programs/new", s.createProgram)
	g.POST("/programs/:id/publish", s.publishProgram)
}

func (s *Server) teacherPrograms(ctx echo.Context) error {
	return s.renderTeacherPrograms(ctx, "teacher_programs", "My programs")
}

func (s *Server) teacherDashboard(ctx echo.Context) error {
	return s.renderTeacherPrograms(ctx, "teacher_dashboard", "Dashboard")
}

func (s *Server) renderTeacherPrograms(ctx echo.Context, name, title string) error {
	sess := getSession(ctx)
	progs, err := s.deps.ProgramSvc.Query(ctx.Request().Context(), program.QueryFilter{TeacherID: sess.User.ID})
	if err != nil {
		return errors.Wrap(err, "querying teacher programs")
	}
	var published int
	for _, p := range progs {
		if p.IsPublished {
			published++
		}
	}
	return s.render(ctx, http.StatusOK, name, page{
		Title: title,
		Data: echo.Map{
			"Table":     programTable(progs, true),
			"Total":     len(progs),
			"Published": published,
		},
	})
}

func (s *Server) renderProgramForm(ctx echo.Context, code int, form program.NewProgram, errs map[string]string) error {
	cats, err := s.deps.CategorySvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return s.render(ctx, code, "program_new", page{
		Title:  "New program",
		Form:   form,
		Errors: errs,
		Data:   echo.Map{"Categories": cats},
	})
}

func (s *Server) newProgramPage(ctx echo.Context) error {
	return s.renderProgramForm(ctx, http.StatusOK, program.NewProgram{}, nil)
}

func (s *Server) createProgram(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.renderProgramForm(ctx, http.StatusBadRequest, data, fields)
		}
		return err
	}
	prog, err := s.deps.ProgramSvc.Create(ctx.Request().Context(), getSession(ctx).User, data)
	if err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.renderProgramForm(ctx, http.StatusBadRequest, data, fields)
		}
		return err
	}
	setFlash(ctx, flashSuccess, "Program "+prog.Title+" created.")
	return redirect(ctx, "/programs/"+prog.ID)
}

func (s *Server) publishProgram(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	prog, err := s.deps.ProgramSvc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return redirect(ctx, notFoundPath)
		}
		return errors.Wrap(err, "finding program by ID")
	}
	if !program.CanManage(getSession(ctx).User, prog) {
		return redirect(ctx, notFoundPath)
	}

	published, err := strconv.ParseBool(ctx.FormValue("published"))
	if err != nil {
		published = !prog.IsPublished
	}
	if prog, err = s.deps.ProgramSvc.SetPublished(rctx, prog, published); err != nil {
		return errors.Wrap(err, "publishing program")
	}

	msg := prog.Title + " is now hidden."
	if prog.IsPublished {
		msg = prog.Title + " is now published."
	}
	setFlash(ctx, flashSuccess, msg)
	return redirect(ctx, backURL(ctx.Request(), "/teacher/programs"))
}
