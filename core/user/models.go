package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/orbitaplataforma/orbita/core"
)

// Roles
const (
	RoleGestor = "gestor" // platform administrator
	RoleMentor = "mentor" // white-label coaching tenant
	RoleAluno  = "aluno"  // student
)

var (
	AllRoles = []string{RoleGestor, RoleMentor, RoleAluno}

	Roles = []Role{
		{Name: "Gestor", Value: RoleGestor},
		{Name: "Mentor", Value: RoleMentor},
		{Name: "Aluno", Value: RoleAluno},
	}
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	Email        string      `json:"email" db:"email"`
	Role         string      `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	FirebaseUID  null.String `json:"-" db:"firebase_uid"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time   `json:"last_login" db:"last_login"` // UTC
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
	if len(u.PasswordHash) == 0 {
		return bcrypt.ErrMismatchedHashAndPassword // invite not accepted yet
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) HasPassword() bool { return len(u.PasswordHash) > 0 }

func (u *User) IsGestor() bool { return u.Role == RoleGestor }
func (u *User) IsMentor() bool { return u.Role == RoleMentor }
func (u *User) IsAluno() bool  { return u.Role == RoleAluno }

// NewUser contains information needed to create a new User.
// Password may be empty for invited users: they choose it through the invite link.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,oneof=gestor mentor aluno"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,omitempty,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left untouched.
type UpdateUser struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	IsActive *bool   `json:"is_active"`
}

func (uu *UpdateUser) Clean() {
	core.CleanStringPtr(uu.Name)
	core.CleanStringPtr(uu.Email, true /* lower */)
}

func (uu UpdateUser) IsEmpty() bool {
	return uu.Name == nil && uu.Email == nil && uu.IsActive == nil
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type GetFilter struct {
	ID          string
	Email       string
	FirebaseUID string
}
