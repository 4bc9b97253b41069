package tenant_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
	emailsvc "github.com/orbitaplataforma/orbita/services/email"
	sqlxrepos "github.com/orbitaplataforma/orbita/storage/database/sqlx"
	"github.com/orbitaplataforma/orbita/testutil"
)

type fixture struct {
	svc     tenant.Service
	repo    tenant.Repository
	usrRepo user.Repository
	mailSvc *emailsvc.MockService
	logger  *recordLogger
}

// recordLogger keeps the messages logged at error level.
type recordLogger struct {
	errors []string
}

func (l *recordLogger) Debug(string, ...interface{}) {}
func (l *recordLogger) Info(string, ...interface{})  {}
func (l *recordLogger) Warn(string, ...interface{})  {}
func (l *recordLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *recordLogger) Fatal(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

// brokenInvites is a user.Service that cannot send invites.
type brokenInvites struct {
	user.Service
}

func (brokenInvites) SendInvite(context.Context, user.User, string) error {
	return errors.New("smtp down")
}

func setupWith(t *testing.T, wrap func(user.Service) user.Service) fixture {
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	repo := sqlxrepos.NewTenantRepository(db)
	mailSvc := emailsvc.NewMockService(conf)
	logger := &recordLogger{}
	usrSvc := wrap(user.NewService(usrRepo, mailSvc, conf))
	return fixture{
		svc:     tenant.NewService(db, repo, usrSvc, logger),
		repo:    repo,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

func setup(t *testing.T) fixture {
	return setupWith(t, func(svc user.Service) user.Service { return svc })
}

func strPtr(s string) *string { return &s }

func Test_service_EnsureAdministrator(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	gestor := testutil.CreateUser(t, f.usrRepo, "Ana Gestora", "ana@orbita.test", "", user.RoleGestor, true)
	mentor := testutil.CreateUser(t, f.usrRepo, "Rui Mentor", "rui@orbita.test", "", user.RoleMentor, true)

	_, err := f.svc.EnsureAdministrator(ctx, mentor)
	assert.Equal(t, tenant.ErrNotAdministrator, err)

	adm, err := f.svc.EnsureAdministrator(ctx, gestor)
	require.NoError(t, err)
	assert.Equal(t, gestor.ID, adm.UserID)
	assert.Equal(t, gestor.Email, adm.Email)

	again, err := f.svc.EnsureAdministrator(ctx, gestor)
	require.NoError(t, err)
	assert.Equal(t, adm.ID, again.ID)
}

func Test_service_CreateMentor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	adm, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Ana Gestora", "ana@orbita.test", "")

	t.Run("defaults and invite", func(t *testing.T) {
		mtr, err := f.svc.CreateMentor(ctx, adm.ID, tenant.NewMentor{Name: "Rui Mentor", Email: "rui@orbita.test", PlatformName: "Rui ENEM"})
		require.NoError(t, err)
		assert.Equal(t, tenant.DefaultAccentColor, mtr.AccentColor)
		assert.True(t, mtr.Active)
		assert.False(t, mtr.LogoURL.Valid)

		usr, err := f.usrRepo.GetUser(ctx, user.GetFilter{ID: mtr.UserID})
		require.NoError(t, err)
		assert.Equal(t, user.RoleMentor, usr.Role)
		assert.False(t, usr.HasPassword())

		sent := f.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Convite para Rui ENEM", sent[0].Subject)
	})

	t.Run("duplicated email rolls back", func(t *testing.T) {
		f.mailSvc.Reset()
		_, err := f.svc.CreateMentor(ctx, adm.ID, tenant.NewMentor{Name: "Outro", Email: "ana@orbita.test", PlatformName: "Outro"})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)

		mentors, err := f.svc.ListMentors(ctx, adm.ID)
		require.NoError(t, err)
		assert.Len(t, mentors, 1)
		assert.Empty(t, f.mailSvc.SentMessages())
	})
}

func Test_service_inviteFailure(t *testing.T) {
	ctx := context.Background()
	f := setupWith(t, func(svc user.Service) user.Service { return brokenInvites{svc} })

	adm, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Ana Gestora", "ana@orbita.test", "")

	mtr, err := f.svc.CreateMentor(ctx, adm.ID, tenant.NewMentor{Name: "Rui Mentor", Email: "rui@orbita.test", PlatformName: "Rui ENEM"})
	require.NoError(t, err)
	assert.NotEmpty(t, mtr.ID)

	std, err := f.svc.CreateStudent(ctx, mtr.ID, tenant.NewStudent{Name: "Bia Aluna", Email: "bia@orbita.test"})
	require.NoError(t, err)
	assert.NotEmpty(t, std.ID)

	// both accounts stay, and the failures are reported
	_, err = f.usrRepo.GetUser(ctx, user.GetFilter{Email: "rui@orbita.test"})
	assert.NoError(t, err)
	_, err = f.usrRepo.GetUser(ctx, user.GetFilter{Email: "bia@orbita.test"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"sending invite: smtp down", "sending invite: smtp down"}, f.logger.errors)
	assert.Empty(t, f.mailSvc.SentMessages())
}

func Test_service_UpdateMentor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	adm, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Ana Gestora", "ana@orbita.test", "")
	other, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Edu Gestor", "edu@orbita.test", "")
	mtr, _ := testutil.CreateMentor(t, f.usrRepo, f.repo, adm, "Rui Mentor", "rui@orbita.test", "")
	testutil.CreateMentor(t, f.usrRepo, f.repo, adm, "Lia Mentora", "lia@orbita.test", "")

	_, err := f.svc.UpdateMentor(ctx, other.ID, mtr.ID, tenant.UpdateMentor{Name: strPtr("Hacked")})
	assert.Equal(t, tenant.ErrNotFound, err)

	t.Run("email taken keeps both records", func(t *testing.T) {
		_, err := f.svc.UpdateMentor(ctx, adm.ID, mtr.ID, tenant.UpdateMentor{Name: strPtr("Rui M."), Email: strPtr("lia@orbita.test")})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)

		got, err := f.svc.MentorByID(ctx, mtr.ID)
		require.NoError(t, err)
		assert.Equal(t, "Rui Mentor", got.Name)
	})

	t.Run("deactivation and logo removal", func(t *testing.T) {
		active := false
		updated, err := f.svc.UpdateMentor(ctx, adm.ID, mtr.ID, tenant.UpdateMentor{
			Email:   strPtr("rui.m@orbita.test"),
			LogoURL: strPtr(""),
			Active:  &active,
		})
		require.NoError(t, err)
		assert.False(t, updated.Active)
		assert.False(t, updated.LogoURL.Valid)

		usr, err := f.usrRepo.GetUser(ctx, user.GetFilter{ID: mtr.UserID})
		require.NoError(t, err)
		assert.Equal(t, "rui.m@orbita.test", usr.Email)
		assert.False(t, usr.IsActive)

		dash, err := f.svc.GestorDashboard(ctx, adm.ID)
		require.NoError(t, err)
		assert.Equal(t, tenant.GestorDashboard{TotalMentors: 2, ActiveMentors: 1}, dash)
	})
}

func Test_service_students(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	adm, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Ana Gestora", "ana@orbita.test", "")
	other, _ := testutil.CreateAdministrator(t, f.usrRepo, f.repo, "Edu Gestor", "edu@orbita.test", "")
	rui, _ := testutil.CreateMentor(t, f.usrRepo, f.repo, adm, "Rui Mentor", "rui@orbita.test", "")
	lia, _ := testutil.CreateMentor(t, f.usrRepo, f.repo, adm, "Lia Mentora", "lia@orbita.test", "")
	gil, _ := testutil.CreateMentor(t, f.usrRepo, f.repo, other, "Gil Mentor", "gil@orbita.test", "")

	std, err := f.svc.CreateStudent(ctx, rui.ID, tenant.NewStudent{Name: "Bia Aluna", Email: "bia@orbita.test", Plan: strPtr("Mensal")})
	require.NoError(t, err)
	assert.Equal(t, "Mensal", std.Plan.String)
	assert.False(t, std.Phone.Valid)

	t.Run("mentor scope", func(t *testing.T) {
		_, err := f.svc.GetStudentForMentor(ctx, lia.ID, std.ID)
		assert.Equal(t, tenant.ErrNotFound, err)
		assert.Equal(t, tenant.ErrNotFound, f.svc.DeleteStudentForMentor(ctx, lia.ID, std.ID))

		updated, err := f.svc.UpdateStudentForMentor(ctx, rui.ID, std.ID, tenant.UpdateStudent{MentorID: &lia.ID, Plan: strPtr("")})
		require.NoError(t, err)
		assert.Equal(t, rui.ID, updated.MentorID)
		assert.False(t, updated.Plan.Valid)
	})

	t.Run("administrator scope", func(t *testing.T) {
		_, err := f.svc.UpdateStudentForAdministrator(ctx, other.ID, std.ID, tenant.UpdateStudent{Name: strPtr("Hacked")})
		assert.Equal(t, tenant.ErrNotFound, err)

		_, err = f.svc.UpdateStudentForAdministrator(ctx, adm.ID, std.ID, tenant.UpdateStudent{MentorID: &gil.ID})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, []core.FieldError{{Field: "mentor_id", Error: "mentor not found"}}, vErr.Fields)

		moved, err := f.svc.UpdateStudentForAdministrator(ctx, adm.ID, std.ID, tenant.UpdateStudent{MentorID: &lia.ID})
		require.NoError(t, err)
		assert.Equal(t, lia.ID, moved.MentorID)

		cnt, err := f.svc.CountStudents(ctx, adm.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt)
	})

	t.Run("delete removes the account", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteStudentForAdministrator(ctx, adm.ID, std.ID))
		_, err := f.usrRepo.GetUser(ctx, user.GetFilter{ID: std.UserID})
		assert.Equal(t, user.ErrNotFound, err)
		_, err = f.svc.StudentByUserID(ctx, std.UserID)
		assert.Equal(t, tenant.ErrNotFound, err)
	})
}
