// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/study"
	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
	"github.com/orbitaplataforma/orbita/storage/database"
)

// NewConfig returns the configuration used by tests: in-memory sqlite, fixed secret, UTC-3 study days.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	conf.SecretKey = "test-secret"
	conf.Timezone = "America/Sao_Paulo"
	conf.FrontendBaseURL = "https://app.orbita.test"
	conf.Database.Engine = database.EngineSQLite
	conf.Database.Path = ":memory:"
	conf.Firebase = core.FirebaseConfig{}
	return conf
}

// PrepareDB opens a fresh migrated in-memory database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.Open(NewConfig())
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewValidator returns a validator with every custom validation and translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	study.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateAdministrator creates a gestor user and its Administrator profile.
func CreateAdministrator(t *testing.T, usrRepo user.Repository, repo tenant.Repository, name, email, pwd string) (tenant.Administrator, user.User) {
	t.Helper()

	usr := CreateUser(t, usrRepo, name, email, pwd, user.RoleGestor, true)
	now := time.Now().UTC()
	adm, err := repo.CreateAdministrator(context.Background(), tenant.Administrator{
		UserID:    usr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAdministrator() failed: %v", err)
	}
	return adm, usr
}

// CreateMentor creates a mentor user and its Mentor profile under adm.
func CreateMentor(t *testing.T, usrRepo user.Repository, repo tenant.Repository, adm tenant.Administrator, name, email, pwd string) (tenant.Mentor, user.User) {
	t.Helper()

	usr := CreateUser(t, usrRepo, name, email, pwd, user.RoleMentor, true)
	now := time.Now().UTC()
	mtr, err := repo.CreateMentor(context.Background(), tenant.Mentor{
		UserID:          usr.ID,
		AdministratorID: adm.ID,
		Name:            usr.Name,
		Email:           usr.Email,
		PlatformName:    name + " Mentoria",
		AccentColor:     tenant.DefaultAccentColor,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateMentor() failed: %v", err)
	}
	return mtr, usr
}

// CreateStudent creates an aluno user and its Student profile under mtr.
func CreateStudent(t *testing.T, usrRepo user.Repository, repo tenant.Repository, mtr tenant.Mentor, name, email, pwd string) (tenant.Student, user.User) {
	t.Helper()

	usr := CreateUser(t, usrRepo, name, email, pwd, user.RoleAluno, true)
	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), tenant.Student{
		UserID:    usr.ID,
		MentorID:  mtr.ID,
		Name:      usr.Name,
		Email:     usr.Email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std, usr
}

func CreateSession(t *testing.T, repo study.Repository, studentID string, date time.Time, subject string, minutes, attempted, correct int) study.Session {
	t.Helper()

	now := time.Now().UTC()
	sess, err := repo.CreateSession(context.Background(), study.Session{
		StudentID:          studentID,
		Date:               date.UTC(),
		Subject:            subject,
		MinutesSpent:       minutes,
		QuestionsAttempted: attempted,
		QuestionsCorrect:   correct,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return sess
}

// CreateExam creates a mock exam with the given correct answers per area (languages, humanities, nature, math).
func CreateExam(t *testing.T, repo study.Repository, studentID, name string, date time.Time, correct [4]int) study.Exam {
	t.Helper()

	now := time.Now().UTC()
	exam, err := repo.CreateExam(context.Background(), study.Exam{
		StudentID:         studentID,
		Name:              name,
		Date:              date.UTC(),
		LanguagesCorrect:  correct[0],
		HumanitiesCorrect: correct[1],
		NatureCorrect:     correct[2],
		MathCorrect:       correct[3],
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return exam
}

func CreateSlot(t *testing.T, repo study.Repository, studentID string, weekday int, start, end, subject string) study.Slot {
	t.Helper()

	now := time.Now().UTC()
	slot, err := repo.CreateSlot(context.Background(), study.Slot{
		StudentID: studentID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		Subject:   subject,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}
