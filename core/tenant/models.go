package tenant

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/orbitaplataforma/orbita/core"
)

const DefaultAccentColor = "#3b82f6"

// Administrator is the gestor profile. It owns mentors.
type Administrator struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Mentor is a coaching tenant with its own branding. It owns students.
type Mentor struct {
	ID              string      `json:"id" db:"id"`
	UserID          string      `json:"user_id" db:"user_id"`
	AdministratorID string      `json:"administrator_id" db:"administrator_id"`
	Name            string      `json:"name" db:"name"`
	Email           string      `json:"email" db:"email"`
	PlatformName    string      `json:"platform_name" db:"platform_name"`
	LogoURL         null.String `json:"logo_url" db:"logo_url"`
	AccentColor     string      `json:"accent_color" db:"accent_color"`
	Active          bool        `json:"active" db:"active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// Branding is what a student sees of their mentor's platform.
type Branding struct {
	PlatformName string      `json:"platform_name"`
	LogoURL      null.String `json:"logo_url"`
	AccentColor  string      `json:"accent_color"`
}

func (m Mentor) Branding() Branding {
	return Branding{PlatformName: m.PlatformName, LogoURL: m.LogoURL, AccentColor: m.AccentColor}
}

type Student struct {
	ID        string      `json:"id" db:"id"`
	UserID    string      `json:"user_id" db:"user_id"`
	MentorID  string      `json:"mentor_id" db:"mentor_id"`
	Name      string      `json:"name" db:"name"`
	Email     string      `json:"email" db:"email"`
	Phone     null.String `json:"phone" db:"phone"`
	Plan      null.String `json:"plan" db:"plan"`
	Active    bool        `json:"active" db:"active"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

type NewMentor struct {
	Name         string  `json:"name" validate:"required"`
	Email        string  `json:"email" validate:"required,email"`
	PlatformName string  `json:"platform_name" validate:"required"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	AccentColor  string  `json:"accent_color" validate:"omitempty,hexcolor,len=7"`
}

func (nm *NewMentor) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.PlatformName = core.CleanString(nm.PlatformName)
	core.CleanStringPtr(nm.LogoURL)
	nm.AccentColor = core.CleanString(nm.AccentColor, true /* lower */)
	return validate.Struct(nm)
}

type UpdateMentor struct {
	Name         *string `json:"name" validate:"omitempty,min=1"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PlatformName *string `json:"platform_name" validate:"omitempty,min=1"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
	AccentColor  *string `json:"accent_color" validate:"omitempty,hexcolor,len=7"`
	Active       *bool   `json:"active"`
}

func (um *UpdateMentor) Validate(validate *validator.Validate) error {
	core.CleanStringPtr(um.Name)
	core.CleanStringPtr(um.Email, true /* lower */)
	core.CleanStringPtr(um.PlatformName)
	core.CleanStringPtr(um.LogoURL)
	core.CleanStringPtr(um.AccentColor, true /* lower */)
	return validate.Struct(um)
}

type NewStudent struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone"`
	Plan  *string `json:"plan"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	core.CleanStringPtr(ns.Phone)
	core.CleanStringPtr(ns.Plan)
	return validate.Struct(ns)
}

// UpdateStudent defines what may be changed on a Student. MentorID is only honoured in the gestor scope.
type UpdateStudent struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Plan     *string `json:"plan"`
	Active   *bool   `json:"active"`
	MentorID *string `json:"mentor_id" validate:"omitempty,uuid"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	core.CleanStringPtr(us.Name)
	core.CleanStringPtr(us.Email, true /* lower */)
	core.CleanStringPtr(us.Phone)
	core.CleanStringPtr(us.Plan)
	return validate.Struct(us)
}

type (
	GestorDashboard struct {
		TotalStudents int `json:"total_students"`
		TotalMentors  int `json:"total_mentors"`
		ActiveMentors int `json:"active_mentors"`
	}

	MentorDashboard struct {
		TotalStudents  int `json:"total_students"`
		ActiveStudents int `json:"active_students"`
	}
)

type (
	AdministratorFilter struct {
		ID     string
		UserID string
	}

	MentorFilter struct {
		ID              string
		UserID          string
		AdministratorID string
	}

	// StudentFilter applies AND on the non-empty fields.
	// AdministratorID matches the students of every mentor of that administrator.
	StudentFilter struct {
		ID              string
		UserID          string
		MentorID        string
		AdministratorID string
		Active          *bool
	}
)
