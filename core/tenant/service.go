package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("not found")
	ErrNotAdministrator = errors.New("user is not a gestor")
)

type (
	Repository interface {
		CreateAdministrator(ctx context.Context, adm Administrator, exec ...core.DBExecutor) (Administrator, error)
		GetAdministrator(ctx context.Context, filter AdministratorFilter, exec ...core.DBExecutor) (Administrator, error)

		CreateMentor(ctx context.Context, mtr Mentor, exec ...core.DBExecutor) (Mentor, error)
		GetMentor(ctx context.Context, filter MentorFilter, exec ...core.DBExecutor) (Mentor, error)
		QueryMentors(ctx context.Context, filter MentorFilter, exec ...core.DBExecutor) ([]Mentor, error)
		UpdateMentor(ctx context.Context, mtr Mentor, exec ...core.DBExecutor) (Mentor, error)
		// DeleteMentor deletes the mentor's user account and those of its students.
		DeleteMentor(ctx context.Context, mtr Mentor, exec ...core.DBExecutor) error

		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		GetStudent(ctx context.Context, filter StudentFilter, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter StudentFilter, exec ...core.DBExecutor) ([]Student, error)
		CountStudents(ctx context.Context, filter StudentFilter, exec ...core.DBExecutor) (int, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// DeleteStudent deletes the student's user account.
		DeleteStudent(ctx context.Context, std Student, exec ...core.DBExecutor) error
	}

	Service interface {
		EnsureAdministrator(ctx context.Context, usr user.User) (Administrator, error)

		ListMentors(ctx context.Context, adminID string) ([]Mentor, error)
		GetMentorForAdministrator(ctx context.Context, adminID, id string) (Mentor, error)
		CreateMentor(ctx context.Context, adminID string, nm NewMentor) (Mentor, error)
		UpdateMentor(ctx context.Context, adminID, id string, um UpdateMentor) (Mentor, error)
		DeleteMentor(ctx context.Context, adminID, id string) error

		ListStudents(ctx context.Context, mentorID string) ([]Student, error)
		GetStudentForMentor(ctx context.Context, mentorID, id string) (Student, error)
		CreateStudent(ctx context.Context, mentorID string, ns NewStudent) (Student, error)
		UpdateStudentForMentor(ctx context.Context, mentorID, id string, us UpdateStudent) (Student, error)
		DeleteStudentForMentor(ctx context.Context, mentorID, id string) error

		ListAllStudents(ctx context.Context, adminID string) ([]Student, error)
		CountStudents(ctx context.Context, adminID string) (int, error)
		UpdateStudentForAdministrator(ctx context.Context, adminID, id string, us UpdateStudent) (Student, error)
		DeleteStudentForAdministrator(ctx context.Context, adminID, id string) error

		GestorDashboard(ctx context.Context, adminID string) (GestorDashboard, error)
		MentorDashboard(ctx context.Context, mentorID string) (MentorDashboard, error)

		MentorByID(ctx context.Context, id string) (Mentor, error)
		MentorByUserID(ctx context.Context, userID string) (Mentor, error)
		StudentByUserID(ctx context.Context, userID string) (Student, error)
	}

	service struct {
		db     core.DB
		repo   Repository
		usrSvc user.Service
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

// NewService returns the tenant Service. Invite failures are reported to logger, the created record is kept.
func NewService(db core.DB, repo Repository, usrSvc user.Service, logger core.Logger) Service {
	return &service{db: db, repo: repo, usrSvc: usrSvc, logger: logger}
}

// EnsureAdministrator returns the Administrator of a gestor user, creating it on first access.
func (svc *service) EnsureAdministrator(ctx context.Context, usr user.User) (Administrator, error) {
	if !usr.IsGestor() {
		return Administrator{}, ErrNotAdministrator
	}
	adm, err := svc.repo.GetAdministrator(ctx, AdministratorFilter{UserID: usr.ID})
	if err == nil || errors.Cause(err) != ErrNotFound {
		return adm, err
	}

	now := time.Now().UTC()
	return svc.repo.CreateAdministrator(ctx, Administrator{
		UserID:    usr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Mentors

func (svc *service) ListMentors(ctx context.Context, adminID string) ([]Mentor, error) {
	return svc.repo.QueryMentors(ctx, MentorFilter{AdministratorID: adminID})
}

func (svc *service) GetMentorForAdministrator(ctx context.Context, adminID, id string) (Mentor, error) {
	if adminID == "" {
		return Mentor{}, ErrNotFound
	}
	return svc.repo.GetMentor(ctx, MentorFilter{ID: id, AdministratorID: adminID})
}

// CreateMentor creates the mentor's user account and profile, then mails them an invite.
func (svc *service) CreateMentor(ctx context.Context, adminID string, nm NewMentor) (Mentor, error) {
	if nm.AccentColor == "" {
		nm.AccentColor = DefaultAccentColor
	}

	var (
		usr user.User
		mtr Mentor
	)
	err := core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		usr, err = svc.usrSvc.Create(ctx, user.NewUser{Name: nm.Name, Email: nm.Email, Role: user.RoleMentor}, exec)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		mtr, err = svc.repo.CreateMentor(ctx, Mentor{
			UserID:          usr.ID,
			AdministratorID: adminID,
			Name:            usr.Name,
			Email:           usr.Email,
			PlatformName:    nm.PlatformName,
			LogoURL:         null.StringFromPtr(nm.LogoURL),
			AccentColor:     nm.AccentColor,
			Active:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, exec)
		return err
	})
	if err != nil {
		return Mentor{}, err
	}

	svc.sendInvite(ctx, usr, mtr.PlatformName)
	return mtr, nil
}

func (svc *service) UpdateMentor(ctx context.Context, adminID, id string, um UpdateMentor) (Mentor, error) {
	mtr, err := svc.GetMentorForAdministrator(ctx, adminID, id)
	if err != nil {
		return Mentor{}, err
	}

	if um.Name != nil {
		mtr.Name = *um.Name
	}
	if um.Email != nil {
		mtr.Email = *um.Email
	}
	if um.PlatformName != nil {
		mtr.PlatformName = *um.PlatformName
	}
	if um.LogoURL != nil {
		mtr.LogoURL = null.NewString(*um.LogoURL, *um.LogoURL != "")
	}
	if um.AccentColor != nil {
		mtr.AccentColor = *um.AccentColor
	}
	if um.Active != nil {
		mtr.Active = *um.Active
	}
	mtr.UpdatedAt = time.Now().UTC()

	err = core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		// the account mirrors the profile so that login follows e-mail changes
		uu := user.UpdateUser{Name: um.Name, Email: um.Email, IsActive: um.Active}
		if _, err := svc.usrSvc.Update(ctx, mtr.UserID, uu, exec); err != nil {
			return err
		}
		mtr, err = svc.repo.UpdateMentor(ctx, mtr, exec)
		return err
	})
	if err != nil {
		return Mentor{}, err
	}
	return mtr, nil
}

func (svc *service) DeleteMentor(ctx context.Context, adminID, id string) error {
	mtr, err := svc.GetMentorForAdministrator(ctx, adminID, id)
	if err != nil {
		return err
	}
	return core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		return svc.repo.DeleteMentor(ctx, mtr, exec)
	})
}

// Students

func (svc *service) ListStudents(ctx context.Context, mentorID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, StudentFilter{MentorID: mentorID})
}

// GetStudentForMentor returns ErrNotFound when the student does not belong to the mentor.
func (svc *service) GetStudentForMentor(ctx context.Context, mentorID, id string) (Student, error) {
	if mentorID == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, StudentFilter{ID: id, MentorID: mentorID})
}

// CreateStudent creates the student's user account and profile, then mails them an invite
// branded with the mentor's platform name.
func (svc *service) CreateStudent(ctx context.Context, mentorID string, ns NewStudent) (Student, error) {
	mtr, err := svc.MentorByID(ctx, mentorID)
	if err != nil {
		return Student{}, err
	}

	var (
		usr user.User
		std Student
	)
	err = core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		usr, err = svc.usrSvc.Create(ctx, user.NewUser{Name: ns.Name, Email: ns.Email, Role: user.RoleAluno}, exec)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		std, err = svc.repo.CreateStudent(ctx, Student{
			UserID:    usr.ID,
			MentorID:  mtr.ID,
			Name:      usr.Name,
			Email:     usr.Email,
			Phone:     nullString(ns.Phone),
			Plan:      nullString(ns.Plan),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}, exec)
		return err
	})
	if err != nil {
		return Student{}, err
	}

	svc.sendInvite(ctx, usr, mtr.PlatformName)
	return std, nil
}

func (svc *service) UpdateStudentForMentor(ctx context.Context, mentorID, id string, us UpdateStudent) (Student, error) {
	std, err := svc.GetStudentForMentor(ctx, mentorID, id)
	if err != nil {
		return Student{}, err
	}
	us.MentorID = nil // mentors cannot hand students over
	return svc.updateStudent(ctx, std, us)
}

func (svc *service) DeleteStudentForMentor(ctx context.Context, mentorID, id string) error {
	std, err := svc.GetStudentForMentor(ctx, mentorID, id)
	if err != nil {
		return err
	}
	return svc.deleteStudent(ctx, std)
}

func (svc *service) ListAllStudents(ctx context.Context, adminID string) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, StudentFilter{AdministratorID: adminID})
}

func (svc *service) CountStudents(ctx context.Context, adminID string) (int, error) {
	return svc.repo.CountStudents(ctx, StudentFilter{AdministratorID: adminID})
}

func (svc *service) getStudentForAdministrator(ctx context.Context, adminID, id string) (Student, error) {
	if adminID == "" {
		return Student{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, StudentFilter{ID: id, AdministratorID: adminID})
}

// UpdateStudentForAdministrator may also move the student to another mentor of the same administrator.
func (svc *service) UpdateStudentForAdministrator(ctx context.Context, adminID, id string, us UpdateStudent) (Student, error) {
	std, err := svc.getStudentForAdministrator(ctx, adminID, id)
	if err != nil {
		return Student{}, err
	}
	if us.MentorID != nil && *us.MentorID != std.MentorID {
		if _, err := svc.GetMentorForAdministrator(ctx, adminID, *us.MentorID); err != nil {
			if errors.Cause(err) == ErrNotFound {
				return Student{}, core.NewFieldError("mentor_id", "mentor not found")
			}
			return Student{}, err
		}
	}
	return svc.updateStudent(ctx, std, us)
}

func (svc *service) DeleteStudentForAdministrator(ctx context.Context, adminID, id string) error {
	std, err := svc.getStudentForAdministrator(ctx, adminID, id)
	if err != nil {
		return err
	}
	return svc.deleteStudent(ctx, std)
}

func (svc *service) updateStudent(ctx context.Context, std Student, us UpdateStudent) (Student, error) {
	if us.Name != nil {
		std.Name = *us.Name
	}
	if us.Email != nil {
		std.Email = *us.Email
	}
	if us.Phone != nil {
		std.Phone = nullString(us.Phone)
	}
	if us.Plan != nil {
		std.Plan = nullString(us.Plan)
	}
	if us.Active != nil {
		std.Active = *us.Active
	}
	if us.MentorID != nil {
		std.MentorID = *us.MentorID
	}
	std.UpdatedAt = time.Now().UTC()

	err := core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		uu := user.UpdateUser{Name: us.Name, Email: us.Email, IsActive: us.Active}
		if _, err := svc.usrSvc.Update(ctx, std.UserID, uu, exec); err != nil {
			return err
		}
		var err error
		std, err = svc.repo.UpdateStudent(ctx, std, exec)
		return err
	})
	if err != nil {
		return Student{}, err
	}
	return std, nil
}

func (svc *service) deleteStudent(ctx context.Context, std Student) error {
	return core.InTx(ctx, svc.db, func(exec core.DBExecutor) error {
		return svc.repo.DeleteStudent(ctx, std, exec)
	})
}

// Dashboards

func (svc *service) GestorDashboard(ctx context.Context, adminID string) (GestorDashboard, error) {
	mentors, err := svc.ListMentors(ctx, adminID)
	if err != nil {
		return GestorDashboard{}, errors.Wrap(err, "listing mentors")
	}
	total, err := svc.CountStudents(ctx, adminID)
	if err != nil {
		return GestorDashboard{}, errors.Wrap(err, "counting students")
	}

	dash := GestorDashboard{TotalStudents: total, TotalMentors: len(mentors)}
	for _, m := range mentors {
		if m.Active {
			dash.ActiveMentors++
		}
	}
	return dash, nil
}

func (svc *service) MentorDashboard(ctx context.Context, mentorID string) (MentorDashboard, error) {
	students, err := svc.ListStudents(ctx, mentorID)
	if err != nil {
		return MentorDashboard{}, errors.Wrap(err, "listing students")
	}

	dash := MentorDashboard{TotalStudents: len(students)}
	for _, s := range students {
		if s.Active {
			dash.ActiveStudents++
		}
	}
	return dash, nil
}

// Lookups

func (svc *service) MentorByID(ctx context.Context, id string) (Mentor, error) {
	return svc.repo.GetMentor(ctx, MentorFilter{ID: id})
}

func (svc *service) MentorByUserID(ctx context.Context, userID string) (Mentor, error) {
	return svc.repo.GetMentor(ctx, MentorFilter{UserID: userID})
}

func (svc *service) StudentByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudent(ctx, StudentFilter{UserID: userID})
}

func nullString(s *string) null.String {
	if s == nil || *s == "" {
		return null.String{}
	}
	return null.StringFrom(*s)
}

// sendInvite runs after the account is committed. A failure only gets logged:
// the account exists, and the invite can be sent again through a password reset.
func (svc *service) sendInvite(ctx context.Context, usr user.User, platformName string) {
	if err := svc.usrSvc.SendInvite(ctx, usr, platformName); err != nil {
		svc.logger.Error(fmt.Sprintf("sending invite: %v", err), err, map[string]interface{}{"invitee_id": usr.ID})
	}
}
