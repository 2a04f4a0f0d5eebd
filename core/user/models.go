package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elimu/core"
)

// Roles
const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleStudent = "STUDENT"
)

var (
	AllRoles        = []string{RoleAdmin, RoleTeacher, RoleStudent}
	OnboardingRoles = []string{RoleStudent, RoleTeacher}

	rolePriorities = map[string]int{
		RoleAdmin:   30,
		RoleTeacher: 20,
		RoleStudent: 10,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsValidRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio"`
	ImageURL     string    `json:"image_url"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsOnboarded reports whether the user picked a role.
func (u *User) IsOnboarded() bool { return u.Role != "" }

// DisplayName is what the UI greets the user with.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// DashboardPath is the role's dashboard, eg. "/teacher/dashboard".
// Users without a role must go through onboarding first.
func (u *User) DashboardPath() string {
	if !u.IsOnboarded() {
		return "/onboarding"
	}
	return "/" + strings.ToLower(u.Role) + "/dashboard"
}

// ProfilePath is the user's profile page.
func (u *User) ProfilePath() string {
	return "/profile/" + u.ID
}

// NewUser is the account form: information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" form:"name" validate:"required,max=100"`
	Username        string `json:"username" form:"username" validate:"omitempty,min=6,max=32,alphanum_"`
	Email           string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" form:"-" validate:"omitempty,role"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role)
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// Onboarding is the user form filled right after registration.
type Onboarding struct {
	Role     string `json:"role" form:"role" validate:"required,oneof=STUDENT TEACHER"`
	Name     string `json:"name" form:"name" validate:"required,notblank,max=100"`
	Bio      string `json:"bio" form:"bio" validate:"max=500"`
	ImageURL string `json:"image_url" form:"image_url" validate:"omitempty,url"`
}

func (ob *Onboarding) Validate(validate *validator.Validate) error {
	ob.Role = strings.ToUpper(core.CleanString(ob.Role))
	ob.Name = core.CleanString(ob.Name)
	ob.Bio = core.CleanString(ob.Bio)
	ob.ImageURL = core.CleanString(ob.ImageURL)
	return validate.Struct(ob)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name" form:"name" validate:"omitempty,max=100"`
	Username        string `json:"username" form:"username" validate:"omitempty,min=6,max=32,alphanum_"`
	Email           string `json:"email" form:"email" validate:"omitempty,email"`
	Bio             string `json:"bio" form:"bio" validate:"max=500"`
	ImageURL        string `json:"image_url" form:"image_url" validate:"omitempty,url"`
	IsActive        *bool  `json:"is_active" form:"-"`
	Role            string `json:"role" form:"-" validate:"omitempty,role"`
	Password        string `json:"password" form:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// Validate cleans the data, falls back on `origUsr` values for blank fields and validates the result.
func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	uu.Bio = core.CleanString(uu.Bio)
	uu.ImageURL = core.CleanString(uu.ImageURL)
	uu.Role = core.CleanString(uu.Role)

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, r := range qf.Roles {
		qf.Roles[i] = strings.ToUpper(core.CleanString(r))
	}
}

// GetFilter selects a single User; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}
