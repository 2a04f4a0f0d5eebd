package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/chat"
	"github.com/trezcool/elimu/core/program"
	"github.com/trezcool/elimu/core/trialclass"
	"github.com/trezcool/elimu/core/user"
)

func (s *Server) registerPages() {
	s.app.GET("/", s.home)
	s.app.GET("/not-found", s.notFound)
	s.app.GET("/programs/:id", s.programDetail)

	s.app.GET("/login", s.loginPage)
	s.app.POST("/login", s.loginSubmit)
	s.app.POST("/logout", s.logout)
	s.app.GET("/register", s.registerPage)
	s.app.POST("/register", s.registerSubmit)

	ob := s.app.Group("/onboarding", guardMiddleware(onboardingGuard))
	ob.GET("", s.onboardingPage)
	ob.POST("", s.onboardingSubmit)

	s.app.GET("/dashboard", redirectHandler(dashboardRedirect))
	s.app.GET("/profile", redirectHandler(profileRedirect))

	authed := guardMiddleware(authGuard)
	s.app.GET("/profile/:id", s.profilePage, authed)
	s.app.POST("/profile/:id", s.profileSubmit, authed)
	s.app.GET("/chat", s.chatPage, authed)
	s.app.POST("/chat", s.chatSubmit, authed)

	st := s.app.Group("/student", guardMiddleware(roleGuard(user.RoleStudent)))
	st.GET("/dashboard", s.studentDashboard)
}

func (s *Server) notFound(ctx echo.Context) error {
	return s.render(ctx, http.StatusNotFound, "not_found", page{Title: "Page not found"})
}

func (s *Server) home(ctx echo.Context) error {
	return s.renderHome(ctx, http.StatusOK, trialclass.NewRegistration{}, nil)
}

func (s *Server) renderHome(ctx echo.Context, code int, form trialclass.NewRegistration, errs map[string]string) error {
	progs, err := s.deps.ProgramSvc.Query(ctx.Request().Context(), program.QueryFilter{PublishedOnly: true})
	if err != nil {
		return errors.Wrap(err, "querying published programs")
	}
	return s.render(ctx, code, "home", page{
		Form:   form,
		Errors: errs,
		Data:   echo.Map{"Programs": progs},
	})
}

func (s *Server) programDetail(ctx echo.Context) error {
	prog, err := s.deps.ProgramSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == program.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding program by ID")
	}
	sess := getSession(ctx)
	canManage := sess != nil && program.CanManage(sess.User, prog)
	if !prog.IsPublished && !canManage {
		return errHttpNotFound
	}
	return s.render(ctx, http.StatusOK, "program", page{
		Title: prog.Title,
		Form:  trialclass.NewRegistration{ProgramID: prog.ID},
		Data:  echo.Map{"Program": prog, "CanManage": canManage},
	})
}

// Auth pages

func (s *Server) loginPage(ctx echo.Context) error {
	if sess := getSession(ctx); sess != nil {
		return redirect(ctx, dashboardRedirect(sess))
	}
	return s.render(ctx, http.StatusOK, "login", page{Title: "Log in", Form: LoginRequest{}})
}

func (s *Server) loginSubmit(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	rerender := func(errs map[string]string) error {
		return s.render(ctx, http.StatusBadRequest, "login", page{
			Title:  "Log in",
			Form:   LoginRequest{Username: data.Username},
			Errors: errs,
		})
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return rerender(fields)
		}
		return err
	}

	usr, err := s.authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			return rerender(map[string]string{"_": herr.Message.(string)})
		}
		return errors.Wrap(err, "authenticating")
	}
	if _, err := s.login(ctx, usr); err != nil {
		return err
	}
	return redirect(ctx, usr.DashboardPath())
}

func (s *Server) logout(ctx echo.Context) error {
	s.clearSessionCookie(ctx)
	return redirect(ctx, loginPath)
}

func (s *Server) registerPage(ctx echo.Context) error {
	if sess := getSession(ctx); sess != nil {
		return redirect(ctx, dashboardRedirect(sess))
	}
	return s.render(ctx, http.StatusOK, "register", page{Title: "Create an account", Form: user.NewUser{}})
}

func (s *Server) registerSubmit(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Role = "" // picked during onboarding

	if err := data.Validate(s.deps.Validate, s.deps.UserSvc); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.render(ctx, http.StatusBadRequest, "register", page{
				Title:  "Create an account",
				Form:   user.NewUser{Name: data.Name, Username: data.Username, Email: data.Email},
				Errors: fields,
			})
		}
		return err
	}

	usr, err := s.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	if _, err := s.login(ctx, usr); err != nil {
		return err
	}
	return redirect(ctx, onboardingPath)
}

func (s *Server) onboardingPage(ctx echo.Context) error {
	sess := getSession(ctx)
	if sess.User.IsOnboarded() {
		return redirect(ctx, sess.User.DashboardPath())
	}
	return s.render(ctx, http.StatusOK, "onboarding", page{
		Title: "Welcome",
		Form:  user.Onboarding{Name: sess.User.Name, Role: user.RoleStudent},
		Data:  echo.Map{"Roles": user.OnboardingRoles},
	})
}

func (s *Server) onboardingSubmit(ctx echo.Context) error {
	sess := getSession(ctx)
	if sess.User.IsOnboarded() {
		return redirect(ctx, sess.User.DashboardPath())
	}

	var data user.Onboarding
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Onboarding")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.render(ctx, http.StatusBadRequest, "onboarding", page{
				Title:  "Welcome",
				Form:   data,
				Errors: fields,
				Data:   echo.Map{"Roles": user.OnboardingRoles},
			})
		}
		return err
	}

	usr, err := s.deps.UserSvc.Onboard(ctx.Request().Context(), sess.User, data)
	if err != nil {
		return errors.Wrap(err, "onboarding user")
	}
	// the role is part of the token claims
	if _, err := s.login(ctx, usr); err != nil {
		return err
	}
	setFlash(ctx, flashSuccess, "Welcome to "+s.conf.AppName+"!")
	return redirect(ctx, "/dashboard")
}

// Profile

// profileUser returns the user of the profile page, if the session may see it.
func (s *Server) profileUser(ctx echo.Context) (user.User, error) {
	sess := getSession(ctx)
	id := ctx.Param("id")
	if id == sess.User.ID {
		return sess.User, nil
	}
	if !sess.User.IsAdmin() {
		return user.User{}, errHttpNotFound
	}
	usr, err := s.deps.UserSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errHttpNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

func (s *Server) profilePage(ctx echo.Context) error {
	usr, err := s.profileUser(ctx)
	if err != nil {
		if err == errHttpNotFound {
			return redirect(ctx, notFoundPath)
		}
		return err
	}
	return s.render(ctx, http.StatusOK, "profile", page{
		Title: usr.DisplayName(),
		Form:  user.UpdateUser{Name: usr.Name, Username: usr.Username, Email: usr.Email, Bio: usr.Bio, ImageURL: usr.ImageURL},
		Data:  echo.Map{"User": &usr},
	})
}

func (s *Server) profileSubmit(ctx echo.Context) error {
	usr, err := s.profileUser(ctx)
	if err != nil {
		if err == errHttpNotFound {
			return redirect(ctx, notFoundPath)
		}
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	// role & account status are only managed through the admin API
	data.Role, data.IsActive = "", nil

	if err := data.Validate(usr, s.deps.Validate, s.deps.UserSvc); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			data.Password, data.PasswordConfirm = "", ""
			return s.render(ctx, http.StatusBadRequest, "profile", page{
				Title:  usr.DisplayName(),
				Form:   data,
				Errors: fields,
				Data:   echo.Map{"User": &usr},
			})
		}
		return err
	}
	if _, err := s.deps.UserSvc.Update(ctx.Request().Context(), usr, data); err != nil {
		return errors.Wrap(err, "updating user")
	}
	setFlash(ctx, flashSuccess, "Profile updated.")
	return redirect(ctx, usr.ProfilePath())
}

// Chat

func (s *Server) renderChat(ctx echo.Context, code int, form chat.NewMessage, errs map[string]string) error {
	msgs, err := s.deps.ChatSvc.History(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying chat history")
	}
	return s.render(ctx, code, "chat", page{
		Title:  "Chat",
		Form:   form,
		Errors: errs,
		Data:   echo.Map{"Messages": msgs},
	})
}

func (s *Server) chatPage(ctx echo.Context) error {
	return s.renderChat(ctx, http.StatusOK, chat.NewMessage{}, nil)
}

func (s *Server) chatSubmit(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(s.deps.Validate); err != nil {
		if fields, ok := s.fieldErrors(err); ok {
			return s.renderChat(ctx, http.StatusBadRequest, data, fields)
		}
		return err
	}
	if _, err := s.deps.ChatSvc.Post(ctx.Request().Context(), getSession(ctx).User, data); err != nil {
		return err
	}
	return redirect(ctx, "/chat")
}

// Student area

func (s *Server) studentDashboard(ctx echo.Context) error {
	progs, err := s.deps.ProgramSvc.Query(ctx.Request().Context(), program.QueryFilter{PublishedOnly: true})
	if err != nil {
		return errors.Wrap(err, "querying published programs")
	}
	return s.render(ctx, http.StatusOK, "student_dashboard", page{
		Title: "Dashboard",
		Data:  echo.Map{"Programs": progs},
	})
}
