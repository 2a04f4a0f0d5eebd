package echoapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/seed"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func TestRegisterTrialClass(t *testing.T) {
	app := newTestApp(t)
	teacher := app.createUser(t, "Teacher", "teacher01", user.RoleTeacher)
	music := testutil.CreateCategory(t, app.repos.Category, "Music")
	prog := testutil.CreateProgram(t, app.repos.Program, "Guitar 101", teacher, music, true)

	t.Run("invalid", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", json: map[string]string{"name": "Ann"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeJSON(t, rec), "email")
	})

	t.Run("registered", func(t *testing.T) {
		app.mail.Reset()
		rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", json: map[string]string{
			"program_id": prog.ID,
			"name":       "Ann",
			"email":      "ANN@test.cd",
		}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		data := decodeJSON(t, rec)
		assert.Equal(t, "ann@test.cd", data["email"])
		assert.NotEmpty(t, data["id"])

		sent := app.mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ann@test.cd", sent[0].To[0].Address)
		assert.Contains(t, sent[0].TextContent, "Guitar 101")
	})

	draft := testutil.CreateProgram(t, app.repos.Program, "Piano 101", teacher, music, false)

	t.Run("unknown program", func(t *testing.T) {
		for _, id := range []string{uuid.New().String(), draft.ID} {
			rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", json: map[string]string{
				"program_id": id,
				"name":       "Ann",
				"email":      "ann@test.cd",
			}})
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, map[string]interface{}{"program_id": "program not found"}, decodeJSON(t, rec))
		}
	})

	t.Run("unknown program (form)", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", form: url.Values{
			"program_id": {uuid.New().String()},
			"name":       {"Ann"},
			"email":      {"ann@test.cd"},
		}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "program not found")
		assert.Nil(t, responseCookie(rec, flashCookie))
	})

	t.Run("store failure (JSON)", func(t *testing.T) {
		app.db.FailRegistrationWrites(errors.New("connection refused"))
		defer app.db.FailRegistrationWrites(nil)

		rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", json: map[string]string{"name": "Ann", "email": "ann@test.cd"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error": "failed to register trial class: connection refused"}`, rec.Body.String())
	})

	t.Run("store failure (form)", func(t *testing.T) {
		app.db.FailRegistrationWrites(errors.New("connection refused"))
		defer app.db.FailRegistrationWrites(nil)

		rec := app.do(t, request{method: http.MethodPost, path: "/trial-class", form: url.Values{"name": {"Ann"}, "email": {"ann@test.cd"}}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		c := responseCookie(rec, flashCookie)
		require.NotNil(t, c)
		val, err := url.QueryUnescape(c.Value)
		require.NoError(t, err)
		assert.Equal(t, "error|failed to register trial class: connection refused", val)
	})

	n, err := app.srv.deps.TrialClassSvc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func newUploadBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)
	teacher := app.createUser(t, "Teacher", "teacher01", user.RoleTeacher)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	tests := []struct {
		name     string
		endpoint string
		user     *user.User
		filename string
		content  []byte
		wantCode int
		wantErr  string
	}{
		{name: "no session", endpoint: "profileImage", filename: "me.png", content: png, wantCode: http.StatusUnauthorized, wantErr: "user not authenticated"},
		{name: "unknown endpoint", endpoint: "nope", user: &student, filename: "me.png", content: png, wantCode: http.StatusNotFound},
		{name: "role not allowed", endpoint: "programImage", user: &student, filename: "cover.png", content: png, wantCode: http.StatusForbidden},
		{name: "type not allowed", endpoint: "profileImage", user: &student, filename: "me.txt", content: []byte("hello"), wantCode: http.StatusUnsupportedMediaType},
		{name: "empty file", endpoint: "profileImage", user: &student, filename: "me.png", wantCode: http.StatusBadRequest},
		{name: "profile image", endpoint: "profileImage", user: &student, filename: "Me.PNG", content: png, wantCode: http.StatusCreated},
		{name: "program attachment", endpoint: "programAttachment", user: &teacher, filename: "syllabus.txt", content: []byte("week 1: chords"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ctype := newUploadBody(t, tt.filename, tt.content)
			rec := app.do(t, request{method: http.MethodPost, path: "/api/uploads/" + tt.endpoint, user: tt.user, body: body, ctype: ctype})
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			data := decodeJSON(t, rec)
			if tt.wantCode != http.StatusCreated {
				assert.NotEmpty(t, data["error"])
				if tt.wantErr != "" {
					assert.Equal(t, tt.wantErr, data["error"])
				}
				return
			}
			u, _ := data["url"].(string)
			assert.True(t, strings.HasPrefix(u, app.conf.Upload.URLPrefix+"/"), u)
			assert.Equal(t, tt.filename, data["name"])

			// the file is served back
			rec = app.do(t, request{path: u})
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.content, rec.Body.Bytes())
		})
	}
}

func TestSeed(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin01", user.RoleAdmin)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)

	rec := app.do(t, request{method: http.MethodPost, path: "/api/seed"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = app.do(t, request{method: http.MethodPost, path: "/api/seed", user: &student})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error": "permission denied"}`, rec.Body.String())

	rec = app.do(t, request{method: http.MethodPost, path: "/api/seed", user: &admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"seeded": true}`, rec.Body.String())

	// the seed element is gone once seeded
	rec = app.do(t, request{path: "/admin/dashboard", user: &admin})
	assert.NotContains(t, rec.Body.String(), "data-seed")

	for i := 0; i < 3; i++ {
		rec = app.do(t, request{method: http.MethodPost, path: "/api/seed", user: &admin})
		assert.JSONEq(t, `{"seeded": false}`, rec.Body.String())
	}
	assert.Equal(t, 1, app.seeded)

	rec = app.do(t, request{path: "/api/v1/categories"})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range seed.DefaultCategories {
		assert.Contains(t, rec.Body.String(), name)
	}
}

func TestUserAPI(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser(t, "Admin", "admin01", user.RoleAdmin)
	student := app.createUser(t, "Student", "student01", user.RoleStudent)

	t.Run("login", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/api/v1/users/login", json: LoginRequest{Username: "student01", Password: "nope"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error": "authentication failed"}`, rec.Body.String())

		rec = app.do(t, request{method: http.MethodPost, path: "/api/v1/users/login", json: LoginRequest{Username: "student01", Password: testPassword}})
		require.Equal(t, http.StatusOK, rec.Code)
		token, _ := decodeJSON(t, rec)["token"].(string)
		claims, err := app.srv.tokens.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, student.ID, claims.Subject)
		assert.Equal(t, user.RoleStudent, claims.Role)
	})

	t.Run("token refresh", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPost, path: "/api/v1/users/token-refresh"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = app.do(t, request{method: http.MethodPost, path: "/api/v1/users/token-refresh", bearer: app.token(t, student)})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decodeJSON(t, rec)["token"])
	})

	t.Run("query requires admin", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/v1/users", bearer: app.token(t, student)})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(t, request{path: "/api/v1/users?role=student&ordering=name", bearer: app.token(t, admin)})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), student.ID)
		assert.NotContains(t, rec.Body.String(), admin.ID)
	})

	t.Run("retrieve", func(t *testing.T) {
		rec := app.do(t, request{path: "/api/v1/users/" + admin.ID, bearer: app.token(t, student)})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(t, request{path: "/api/v1/users/" + student.ID, bearer: app.token(t, student)})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, student.Username, decodeJSON(t, rec)["username"])
	})

	t.Run("students cannot change their role", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodPut, path: "/api/v1/users/" + student.ID, bearer: app.token(t, student), json: map[string]string{"role": user.RoleAdmin}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("password reset", func(t *testing.T) {
		app.mail.Reset()
		rec := app.do(t, request{method: http.MethodPost, path: "/api/v1/users/password-reset", json: PasswordResetRequest{Email: student.Email}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, app.mail.SentMessages(), 1)

		rec = app.do(t, request{method: http.MethodPost, path: "/api/v1/users/password-reset", json: PasswordResetRequest{Email: "nobody@test.cd"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, app.mail.SentMessages(), 1)
	})

	t.Run("admins cannot delete themselves", func(t *testing.T) {
		rec := app.do(t, request{method: http.MethodDelete, path: "/api/v1/users?id=" + admin.ID, bearer: app.token(t, admin)})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
