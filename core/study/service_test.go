package study_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/metrics"
	"github.com/orbitaplataforma/orbita/core/study"
	"github.com/orbitaplataforma/orbita/core/tenant"
	sqlxrepos "github.com/orbitaplataforma/orbita/storage/database/sqlx"
	"github.com/orbitaplataforma/orbita/testutil"
)

func setup(t *testing.T) (study.Service, study.Repository, tenant.Mentor, tenant.Student) {
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	tntRepo := sqlxrepos.NewTenantRepository(db)
	repo := sqlxrepos.NewStudyRepository(db)

	adm, _ := testutil.CreateAdministrator(t, usrRepo, tntRepo, "Ana Gestora", "ana@orbita.test", "")
	mtr, _ := testutil.CreateMentor(t, usrRepo, tntRepo, adm, "Rui Mentor", "rui@orbita.test", "")
	std, _ := testutil.CreateStudent(t, usrRepo, tntRepo, mtr, "Bia Aluna", "bia@orbita.test", "")
	return study.NewService(repo, conf), repo, mtr, std
}

func Test_service_Metrics(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, std := setup(t)

	// 12:00 in São Paulo
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	// 22:00 of the previous local day, although the same UTC day
	testutil.CreateSession(t, repo, std.ID, time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC), "Matemática", 40, 20, 15)
	testutil.CreateSession(t, repo, std.ID, time.Date(2024, 5, 10, 14, 0, 0, 0, time.UTC), "Matemática", 20, 10, 10)
	testutil.CreateSession(t, repo, std.ID, time.Date(2024, 5, 7, 14, 0, 0, 0, time.UTC), "Redação", 90, 0, 0)
	testutil.CreateExam(t, repo, std.ID, "Simulado 1", time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC), [4]int{40, 40, 40, 40})
	testutil.CreateExam(t, repo, std.ID, "Simulado 2", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), [4]int{30, 35, 20, 25})

	summary, err := svc.Metrics(ctx, std.ID, now)
	require.NoError(t, err)

	assert.Equal(t, 150, summary.TotalMinutes)
	assert.Equal(t, 30, summary.TotalQuestions)
	assert.Equal(t, 25, summary.TotalCorrect)
	assert.Equal(t, 83, summary.AccuracyPercent)
	assert.Equal(t, 2, summary.StreakDays)
	assert.True(t, summary.HasExam)
	assert.Equal(t, 110, summary.MostRecentExamScore)
	assert.Equal(t, map[string]metrics.SubjectSummary{
		"Matemática": {Minutes: 60, Questions: 30, Correct: 25, AccuracyPercent: 83},
		"Redação":    {Minutes: 90},
	}, summary.BySubject)

	// a day later without studying the streak is broken
	summary, err = svc.Metrics(ctx, std.ID, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.StreakDays)
}

func Test_service_sessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _, std := setup(t)

	date := time.Date(2024, 5, 10, 15, 0, 0, 0, time.FixedZone("BRT", -3*60*60))
	sess, err := svc.CreateSession(ctx, std.ID, study.NewSession{Date: date, Subject: "Física", QuestionsAttempted: 10, QuestionsCorrect: 7})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, sess.Date.Location())
	assert.True(t, date.Equal(sess.Date))

	_, err = svc.CreateSession(ctx, std.ID, study.NewSession{Date: date, Subject: "Física", QuestionsAttempted: 1, QuestionsCorrect: 2})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "questions_correct", vErr.Fields[0].Field)

	attempted := 5
	_, err = svc.UpdateSession(ctx, std.ID, sess.ID, study.UpdateSession{QuestionsAttempted: &attempted})
	require.True(t, errors.As(err, &vErr), "got %v", err)

	_, err = svc.UpdateSession(ctx, std.ID, "lol", study.UpdateSession{QuestionsAttempted: &attempted})
	assert.Equal(t, study.ErrNotFound, errors.Cause(err))
}

func Test_service_slots(t *testing.T) {
	ctx := context.Background()
	svc, _, _, std := setup(t)

	wd := 2
	slot, err := svc.CreateSlot(ctx, std.ID, study.NewSlot{Weekday: &wd, StartTime: "08:00", EndTime: "09:30", Subject: "Química"})
	require.NoError(t, err)
	assert.Equal(t, 2, slot.Weekday)

	start := "10:00"
	_, err = svc.UpdateSlot(ctx, std.ID, slot.ID, study.UpdateSlot{StartTime: &start})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "got %v", err)
	assert.Equal(t, "end_time", vErr.Fields[0].Field)

	end := "11:00"
	slot, err = svc.UpdateSlot(ctx, std.ID, slot.ID, study.UpdateSlot{StartTime: &start, EndTime: &end, Note: new(string)})
	require.NoError(t, err)
	assert.Equal(t, "10:00", slot.StartTime)
	assert.False(t, slot.Note.Valid)
}

func Test_service_notes(t *testing.T) {
	ctx := context.Background()
	svc, _, mtr, std := setup(t)

	note, err := svc.GetNote(ctx, mtr.ID, std.ID)
	require.NoError(t, err)
	assert.Equal(t, study.Note{MentorID: mtr.ID, StudentID: std.ID}, note)

	first, err := svc.SaveNote(ctx, mtr.ID, std.ID, study.SaveNote{Content: "Revisar logaritmos."})
	require.NoError(t, err)
	second, err := svc.SaveNote(ctx, mtr.ID, std.ID, study.SaveNote{Content: ""})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	note, err = svc.GetNote(ctx, mtr.ID, std.ID)
	require.NoError(t, err)
	assert.Empty(t, note.Content)
	assert.Equal(t, first.ID, note.ID)
}
