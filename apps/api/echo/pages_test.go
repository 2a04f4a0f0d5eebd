package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func TestGuards_Redirects(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin01", user.RoleAdmin)
	teacher := app.createUser(t, "Teacher", "teacher01", user.RoleTeacher)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)
	newbie := app.createUser(t, "Newbie", "newbie01", "")

	tests := []struct {
		name         string
		path         string
		user         *user.User
		wantCode     int
		wantLocation string
	}{
		{name: "admin area, no session", path: "/admin/dashboard", wantCode: http.StatusSeeOther, wantLocation: "/not-found"},
		{name: "admin area, student", path: "/admin/categories", user: &student, wantCode: http.StatusSeeOther, wantLocation: "/not-found"},
		{name: "admin area, teacher", path: "/admin/programs", user: &teacher, wantCode: http.StatusSeeOther, wantLocation: "/not-found"},
		{name: "admin area, admin", path: "/admin/dashboard", user: &admin, wantCode: http.StatusOK},
		{name: "onboarding, no session", path: "/onboarding", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "onboarding, no role", path: "/onboarding", user: &newbie, wantCode: http.StatusOK},
		{name: "onboarding, onboarded", path: "/onboarding", user: &student, wantCode: http.StatusSeeOther, wantLocation: "/student/dashboard"},
		{name: "dashboard, no session", path: "/dashboard", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "dashboard, admin", path: "/dashboard", user: &admin, wantCode: http.StatusSeeOther, wantLocation: "/admin/dashboard"},
		{name: "dashboard, teacher", path: "/dashboard", user: &teacher, wantCode: http.StatusSeeOther, wantLocation: "/teacher/dashboard"},
		{name: "dashboard, student", path: "/dashboard", user: &student, wantCode: http.StatusSeeOther, wantLocation: "/student/dashboard"},
		{name: "profile, no session", path: "/profile", wantCode: http.StatusSeeOther, wantLocation: "/login"},
		{name: "profile, student", path: "/profile", user: &student, wantCode: http.StatusSeeOther, wantLocation: "/profile/" + student.ID},
		{name: "own profile page", path: "/profile/" + student.ID, user: &student, wantCode: http.StatusOK},
		{name: "someone else's profile page", path: "/profile/" + teacher.ID, user: &student, wantCode: http.StatusSeeOther, wantLocation: "/not-found"},
		{name: "any profile page, admin", path: "/profile/" + teacher.ID, user: &admin, wantCode: http.StatusOK},
		{name: "chat, no role", path: "/chat", user: &newbie, wantCode: http.StatusSeeOther, wantLocation: "/onboarding"},
		{name: "teacher area, student", path: "/teacher/dashboard", user: &student, wantCode: http.StatusSeeOther, wantLocation: "/not-found"},
		{name: "teacher area, teacher", path: "/teacher/dashboard", user: &teacher, wantCode: http.StatusOK},
		{name: "student area, student", path: "/student/dashboard", user: &student, wantCode: http.StatusOK},
		{name: "not found page", path: "/not-found", wantCode: http.StatusNotFound},
		{name: "unknown page", path: "/nope", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, request{path: tt.path, user: tt.user})
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestAuthToken(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)
	token := app.token(t, student)

	t.Run("no session", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/auth/token"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token": null}`, rec.Body.String())
	})

	t.Run("bearer token", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/auth/token", bearer: token})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, token, decodeJSON(t, rec)["token"])
	})

	t.Run("session cookie", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/auth/token", user: &student})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeJSON(t, rec)["token"])
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/auth/token", bearer: "not-a-jwt"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token": null}`, rec.Body.String())
	})

	t.Run("deactivated user", func(t *testing.T) {
		naughty := testutil.CreateUser(t, app.repos.User, "N Dog", "ndog01", "ndog@test.cd", testPassword, user.RoleStudent, false)
		rec := app.do(t, request{path: "/api/auth/token", user: &naughty})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"token": null}`, rec.Body.String())
		if c := responseCookie(rec, app.conf.Server.SessionCookie); assert.NotNil(t, c) {
			assert.True(t, c.MaxAge < 0)
		}
	})
}

func TestLoginPage(t *testing.T) {
	app := newTestApp(t)
	teacher := app.createUser(t, "Teacher", "teacher01", user.RoleTeacher)

	rec := app.do(t, request{method: http.MethodPost, path: "/login", form: url.Values{
		"username": {"TEACHER01"},
		"password": {"wrong"},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication failed")
	assert.Nil(t, responseCookie(rec, app.conf.Server.SessionCookie))

	rec = app.do(t, request{method: http.MethodPost, path: "/login", form: url.Values{
		"username": {teacher.Email},
		"password": {testPassword},
	}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/teacher/dashboard", rec.Header().Get("Location"))
	c := responseCookie(rec, app.conf.Server.SessionCookie)
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)

	rec = app.do(t, request{method: http.MethodPost, path: "/logout", user: &teacher})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegisterAndOnboard(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, request{method: http.MethodPost, path: "/register", form: url.Values{
		"name":             {"Jane Doe"},
		"username":         {"janedoe"},
		"email":            {"jane@example.com"},
		"password":         {testPassword},
		"password_confirm": {"mismatch"},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, request{method: http.MethodPost, path: "/register", form: url.Values{
		"name":             {"Jane Doe"},
		"username":         {"janedoe"},
		"email":            {"jane@example.com"},
		"password":         {testPassword},
		"password_confirm": {testPassword},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/onboarding", rec.Header().Get("Location"))

	jane, err := app.srv.deps.UserSvc.GetByUsernameOrEmail(context.Background(), "janedoe")
	require.NoError(t, err)
	assert.Empty(t, jane.Role)

	rec = app.do(t, request{method: http.MethodPost, path: "/onboarding", user: &jane, form: url.Values{
		"role": {user.RoleAdmin},
		"name": {"Jane"},
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, request{method: http.MethodPost, path: "/onboarding", user: &jane, form: url.Values{
		"role": {"teacher"},
		"name": {"Jane"},
		"bio":  {"I teach music."},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	jane, err = app.srv.deps.UserSvc.GetByID(context.Background(), jane.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, jane.Role)
	assert.Equal(t, "I teach music.", jane.Bio)
}

func TestProfileSubmit(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)

	t.Run("role & status are ignored", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/profile/" + student.ID, user: &student, json: map[string]interface{}{
			"role":      user.RoleAdmin,
			"is_active": false,
			"bio":       "Learning the guitar.",
		}})
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

		usr, err := app.srv.deps.UserSvc.GetByID(context.Background(), student.ID)
		require.NoError(t, err)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.True(t, usr.IsActive)
		assert.Equal(t, "Learning the guitar.", usr.Bio)

		rec = app.do(t, request{path: "/admin/categories", user: &usr})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/not-found", rec.Header().Get("Location"))
	})

	t.Run("form", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/profile/" + student.ID, user: &student, form: url.Values{
			"name": {"Student One"},
			"role": {user.RoleAdmin},
		}})
		require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
		assert.Equal(t, "/profile/"+student.ID, rec.Header().Get("Location"))

		usr, err := app.srv.deps.UserSvc.GetByID(context.Background(), student.ID)
		require.NoError(t, err)
		assert.Equal(t, "Student One", usr.Name)
		assert.Equal(t, user.RoleStudent, usr.Role)
	})
}

func TestAdminCategories(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin01", user.RoleAdmin)
	for _, name := range []string{"Music", "Accounting", "Fitness"} {
		testutil.CreateCategory(t, app.repos.Category, name)
	}

	rec := app.do(t, request{path: "/admin/categories", user: &admin})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	acc, fit, mus := strings.Index(body, "Accounting"), strings.Index(body, "Fitness"), strings.Index(body, "Music")
	require.True(t, acc > 0 && fit > 0 && mus > 0, body)
	assert.True(t, acc < fit && fit < mus, "categories must be sorted by name")

	rec = app.do(t, request{method: http.MethodPost, path: "/admin/categories", user: &admin, form: url.Values{"name": {"music"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "a category with this name already exists")

	rec = app.do(t, request{method: http.MethodPost, path: "/admin/categories", user: &admin, form: url.Values{"name": {"  Yoga "}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/categories", rec.Header().Get("Location"))
	assert.NotNil(t, responseCookie(rec, flashCookie))

	n, err := app.srv.deps.CategorySvc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestChat(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)

	rec := app.do(t, request{path: "/chat", user: &student})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to the chat, Student!")

	rec = app.do(t, request{method: http.MethodPost, path: "/chat", user: &student, form: url.Values{"body": {"hello **world**"}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(t, request{path: "/chat", user: &student})
	assert.Contains(t, rec.Body.String(), "<strong>world</strong>")
}

func TestProgramPages(t *testing.T) {
	app := newTestApp(t)
	teacher := app.createUser(t, "Teacher", "teacher01", user.RoleTeacher)
	other := app.createUser(t, "Other", "teacher02", user.RoleTeacher)
	cat := testutil.CreateCategory(t, app.repos.Category, "Music")

	rec := app.do(t, request{method: http.MethodPost, path: "/teacher/programs/new", user: &teacher, form: url.Values{
		"title":       {"Guitar 101"},
		"category_id": {cat.ID},
		"price":       {"1250"},
		"description": {`<p>Chords<script>alert(1)</script></p>`},
	}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	progPath := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(progPath, "/programs/"))

	// drafts are only visible to their managers
	rec = app.do(t, request{path: progPath})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, request{path: progPath, user: &teacher})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "$12.50")
	assert.NotContains(t, rec.Body.String(), "<script>")

	id := strings.TrimPrefix(progPath, "/programs/")
	rec = app.do(t, request{method: http.MethodPost, path: "/teacher/programs/" + id + "/publish", user: &other, form: url.Values{"published": {"true"}}})
	assert.Equal(t, "/not-found", rec.Header().Get("Location"))

	rec = app.do(t, request{method: http.MethodPost, path: "/teacher/programs/" + id + "/publish", user: &teacher, form: url.Values{"published": {"true"}}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(t, request{path: progPath})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, request{path: "/"})
	assert.Contains(t, rec.Body.String(), "Guitar 101")
}
