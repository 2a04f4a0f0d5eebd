package echoapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core/user"
)

func sessionOf(id, role string) *Session {
	return &Session{User: user.User{ID: id, Role: role}}
}

func TestAdminGuard(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want string
	}{
		{"no session", nil, "/not-found"},
		{"student", sessionOf("1", user.RoleStudent), "/not-found"},
		{"teacher", sessionOf("1", user.RoleTeacher), "/not-found"},
		{"no role", sessionOf("1", ""), "/not-found"},
		{"lower-case admin", sessionOf("1", "admin"), "/not-found"},
		{"admin", sessionOf("1", user.RoleAdmin), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, adminGuard(tt.sess))
		})
	}
}

func TestOnboardingGuard(t *testing.T) {
	assert.Equal(t, "/login", onboardingGuard(nil))
	assert.Equal(t, "", onboardingGuard(sessionOf("1", "")))
	assert.Equal(t, "", onboardingGuard(sessionOf("1", user.RoleStudent)))
}

func TestDashboardRedirect(t *testing.T) {
	tests := []struct {
		name string
		sess *Session
		want string
	}{
		{"no session", nil, "/login"},
		{"admin", sessionOf("1", user.RoleAdmin), "/admin/dashboard"},
		{"teacher", sessionOf("1", user.RoleTeacher), "/teacher/dashboard"},
		{"student", sessionOf("1", user.RoleStudent), "/student/dashboard"},
		{"no role", sessionOf("1", ""), "/onboarding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dashboardRedirect(tt.sess))
		})
	}
}

func TestProfileRedirect(t *testing.T) {
	assert.Equal(t, "/login", profileRedirect(nil))
	assert.Equal(t, "/profile/42", profileRedirect(sessionOf("42", user.RoleStudent)))
	assert.Equal(t, "/profile/7", profileRedirect(sessionOf("7", "")))
}

func TestRoleGuard(t *testing.T) {
	teacherArea := roleGuard(user.RoleTeacher, user.RoleAdmin)
	assert.Equal(t, "/login", teacherArea(nil))
	assert.Equal(t, "/onboarding", teacherArea(sessionOf("1", "")))
	assert.Equal(t, "/not-found", teacherArea(sessionOf("1", user.RoleStudent)))
	assert.Equal(t, "", teacherArea(sessionOf("1", user.RoleTeacher)))
	assert.Equal(t, "", teacherArea(sessionOf("1", user.RoleAdmin)))
}
