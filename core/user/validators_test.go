package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestPasswordPolicy(t *testing.T) {
	validate := newTestValidator()

	commonPasswordsMu.Lock()
	commonPasswords = []string{"p@ssw0rd!"}
	commonPasswordsMu.Unlock()
	defer func() {
		commonPasswordsMu.Lock()
		commonPasswords = nil
		commonPasswordsMu.Unlock()
	}()

	tests := []struct {
		pwd     string
		wantTag string
	}{
		{pwd: "Sh0rt!", wantTag: pwdMinLenTag},
		{pwd: "Has Sp4ce!", wantTag: pwdNoSpaceTag},
		{pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{pwd: "alllowercase1!", wantTag: pwdComplexityTag},
		{pwd: "NoDigits!!", wantTag: pwdComplexityTag},
		{pwd: "Jonathan1!", wantTag: pwdAttrSimTag},
		{pwd: "P@ssw0rd!", wantTag: pwdNoCommonTag},
		{pwd: "Str0ng!Passw0rd#"},
	}
	for _, tt := range tests {
		t.Run(tt.pwd, func(t *testing.T) {
			nu := NewUser{Name: "Jonathan", Username: "jonathan", Password: tt.pwd, PasswordConfirm: tt.pwd}
			err := validate.Struct(nu)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			if assert.IsType(t, validator.ValidationErrors{}, err) {
				errs := err.(validator.ValidationErrors)
				assert.Equal(t, tt.wantTag, errs[0].Tag())
				assert.Equal(t, "password", errs[0].Field())
			}
		})
	}
}

func TestNewUser_UsernameOrEmail(t *testing.T) {
	validate := newTestValidator()
	nu := NewUser{Name: "Ann", Password: "Str0ng!Passw0rd#", PasswordConfirm: "Str0ng!Passw0rd#"}
	err := validate.Struct(nu)
	if assert.IsType(t, validator.ValidationErrors{}, err) {
		fields := map[string]string{}
		for _, e := range err.(validator.ValidationErrors) {
			fields[e.Field()] = e.Tag()
		}
		assert.Equal(t, map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag}, fields)
	}
}

func TestOnboarding_Validate(t *testing.T) {
	validate := newTestValidator()

	ob := Onboarding{Role: " teacher ", Name: " Ann "}
	assert.NoError(t, ob.Validate(validate))
	assert.Equal(t, RoleTeacher, ob.Role)
	assert.Equal(t, "Ann", ob.Name)

	ob = Onboarding{Role: RoleAdmin, Name: "Ann"}
	assert.Error(t, ob.Validate(validate))
}

func TestUser_DashboardPath(t *testing.T) {
	for role, want := range map[string]string{
		RoleAdmin:   "/admin/dashboard",
		RoleTeacher: "/teacher/dashboard",
		RoleStudent: "/student/dashboard",
		"":          "/onboarding",
	} {
		usr := User{ID: "42", Role: role}
		assert.Equal(t, want, usr.DashboardPath())
		assert.Equal(t, "/profile/42", usr.ProfilePath())
	}
}
