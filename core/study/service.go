package study

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/metrics"
)

var (
	// errors
	ErrNotFound = errors.New("record not found")
)

type (
	Repository interface {
		CreateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		GetSession(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (Session, error)
		// QuerySessions returns the student's sessions, most recent first.
		QuerySessions(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Session, error)
		UpdateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		DeleteSession(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error

		CreateExam(ctx context.Context, exam Exam, exec ...core.DBExecutor) (Exam, error)
		GetExam(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (Exam, error)
		// QueryExams returns the student's mock exams, most recent first.
		QueryExams(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Exam, error)
		UpdateExam(ctx context.Context, exam Exam, exec ...core.DBExecutor) (Exam, error)
		DeleteExam(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error

		CreateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		GetSlot(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (Slot, error)
		// QuerySlots returns the student's schedule ordered by weekday then start time.
		QuerySlots(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]Slot, error)
		UpdateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		DeleteSlot(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error

		GetNote(ctx context.Context, mentorID, studentID string, exec ...core.DBExecutor) (Note, error)
		UpsertNote(ctx context.Context, note Note, exec ...core.DBExecutor) (Note, error)
	}

	Service interface {
		ListSessions(ctx context.Context, studentID string) ([]Session, error)
		CreateSession(ctx context.Context, studentID string, ns NewSession) (Session, error)
		UpdateSession(ctx context.Context, studentID, id string, us UpdateSession) (Session, error)
		DeleteSession(ctx context.Context, studentID, id string) error

		ListExams(ctx context.Context, studentID string) ([]Exam, error)
		CreateExam(ctx context.Context, studentID string, ne NewExam) (Exam, error)
		UpdateExam(ctx context.Context, studentID, id string, ue UpdateExam) (Exam, error)
		DeleteExam(ctx context.Context, studentID, id string) error

		ListSlots(ctx context.Context, studentID string) ([]Slot, error)
		CreateSlot(ctx context.Context, studentID string, ns NewSlot) (Slot, error)
		UpdateSlot(ctx context.Context, studentID, id string, us UpdateSlot) (Slot, error)
		DeleteSlot(ctx context.Context, studentID, id string) error

		GetNote(ctx context.Context, mentorID, studentID string) (Note, error)
		SaveNote(ctx context.Context, mentorID, studentID string, sn SaveNote) (Note, error)

		Metrics(ctx context.Context, studentID string, now time.Time) (metrics.Summary, error)
	}

	service struct {
		repo Repository
		loc  *time.Location
	}
)

var _ Service = (*service)(nil)

// NewService returns the study Service. Calendar days are taken in the configured time zone.
func NewService(repo Repository, conf *core.Config) Service {
	return &service{repo: repo, loc: conf.Location()}
}

// Sessions

func (svc *service) ListSessions(ctx context.Context, studentID string) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, studentID)
}

func (svc *service) CreateSession(ctx context.Context, studentID string, ns NewSession) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		StudentID:          studentID,
		Date:               ns.Date.UTC(),
		Subject:            ns.Subject,
		Content:            ns.Content,
		MinutesSpent:       ns.MinutesSpent,
		QuestionsAttempted: ns.QuestionsAttempted,
		QuestionsCorrect:   ns.QuestionsCorrect,
		FlashcardsReviewed: ns.FlashcardsReviewed,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := sess.check(); err != nil {
		return Session{}, err
	}
	return svc.repo.CreateSession(ctx, sess)
}

func (svc *service) UpdateSession(ctx context.Context, studentID, id string, us UpdateSession) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, studentID, id)
	if err != nil {
		return Session{}, err
	}

	if us.Date != nil {
		sess.Date = us.Date.UTC()
	}
	setString(&sess.Subject, us.Subject)
	setString(&sess.Content, us.Content)
	setInt(&sess.MinutesSpent, us.MinutesSpent)
	setInt(&sess.QuestionsAttempted, us.QuestionsAttempted)
	setInt(&sess.QuestionsCorrect, us.QuestionsCorrect)
	setInt(&sess.FlashcardsReviewed, us.FlashcardsReviewed)
	if err := sess.check(); err != nil {
		return Session{}, err
	}

	sess.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSession(ctx, sess)
}

func (svc *service) DeleteSession(ctx context.Context, studentID, id string) error {
	return svc.repo.DeleteSession(ctx, studentID, id)
}

// Exams

func (svc *service) ListExams(ctx context.Context, studentID string) ([]Exam, error) {
	return svc.repo.QueryExams(ctx, studentID)
}

func (svc *service) CreateExam(ctx context.Context, studentID string, ne NewExam) (Exam, error) {
	now := time.Now().UTC()
	return svc.repo.CreateExam(ctx, Exam{
		StudentID:         studentID,
		Name:              ne.Name,
		Date:              ne.Date.UTC(),
		LanguagesCorrect:  ne.LanguagesCorrect,
		LanguagesMinutes:  ne.LanguagesMinutes,
		HumanitiesCorrect: ne.HumanitiesCorrect,
		HumanitiesMinutes: ne.HumanitiesMinutes,
		NatureCorrect:     ne.NatureCorrect,
		NatureMinutes:     ne.NatureMinutes,
		MathCorrect:       ne.MathCorrect,
		MathMinutes:       ne.MathMinutes,
		EssayScore:        ne.EssayScore,
		EssayMinutes:      ne.EssayMinutes,
		Notes:             nullString(ne.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func (svc *service) UpdateExam(ctx context.Context, studentID, id string, ue UpdateExam) (Exam, error) {
	exam, err := svc.repo.GetExam(ctx, studentID, id)
	if err != nil {
		return Exam{}, err
	}

	setString(&exam.Name, ue.Name)
	if ue.Date != nil {
		exam.Date = ue.Date.UTC()
	}
	setInt(&exam.LanguagesCorrect, ue.LanguagesCorrect)
	setInt(&exam.LanguagesMinutes, ue.LanguagesMinutes)
	setInt(&exam.HumanitiesCorrect, ue.HumanitiesCorrect)
	setInt(&exam.HumanitiesMinutes, ue.HumanitiesMinutes)
	setInt(&exam.NatureCorrect, ue.NatureCorrect)
	setInt(&exam.NatureMinutes, ue.NatureMinutes)
	setInt(&exam.MathCorrect, ue.MathCorrect)
	setInt(&exam.MathMinutes, ue.MathMinutes)
	setInt(&exam.EssayScore, ue.EssayScore)
	setInt(&exam.EssayMinutes, ue.EssayMinutes)
	if ue.Notes != nil {
		exam.Notes = nullString(ue.Notes)
	}

	exam.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExam(ctx, exam)
}

func (svc *service) DeleteExam(ctx context.Context, studentID, id string) error {
	return svc.repo.DeleteExam(ctx, studentID, id)
}

// Schedule

func (svc *service) ListSlots(ctx context.Context, studentID string) ([]Slot, error) {
	return svc.repo.QuerySlots(ctx, studentID)
}

func (svc *service) CreateSlot(ctx context.Context, studentID string, ns NewSlot) (Slot, error) {
	now := time.Now().UTC()
	slot := Slot{
		StudentID: studentID,
		StartTime: ns.StartTime,
		EndTime:   ns.EndTime,
		Subject:   ns.Subject,
		Note:      nullString(ns.Note),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.Weekday != nil {
		slot.Weekday = *ns.Weekday
	}
	if err := slot.check(); err != nil {
		return Slot{}, err
	}
	return svc.repo.CreateSlot(ctx, slot)
}

func (svc *service) UpdateSlot(ctx context.Context, studentID, id string, us UpdateSlot) (Slot, error) {
	slot, err := svc.repo.GetSlot(ctx, studentID, id)
	if err != nil {
		return Slot{}, err
	}

	setInt(&slot.Weekday, us.Weekday)
	setString(&slot.StartTime, us.StartTime)
	setString(&slot.EndTime, us.EndTime)
	setString(&slot.Subject, us.Subject)
	if us.Note != nil {
		slot.Note = nullString(us.Note)
	}
	if err := slot.check(); err != nil {
		return Slot{}, err
	}

	slot.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSlot(ctx, slot)
}

func (svc *service) DeleteSlot(ctx context.Context, studentID, id string) error {
	return svc.repo.DeleteSlot(ctx, studentID, id)
}

// Mentor notes

// GetNote returns an empty note when the mentor has not written one yet.
func (svc *service) GetNote(ctx context.Context, mentorID, studentID string) (Note, error) {
	note, err := svc.repo.GetNote(ctx, mentorID, studentID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Note{MentorID: mentorID, StudentID: studentID}, nil
		}
		return Note{}, err
	}
	return note, nil
}

func (svc *service) SaveNote(ctx context.Context, mentorID, studentID string, sn SaveNote) (Note, error) {
	now := time.Now().UTC()
	return svc.repo.UpsertNote(ctx, Note{
		MentorID:  mentorID,
		StudentID: studentID,
		Content:   sn.Content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Metrics aggregates the student's sessions and exams as of now.
func (svc *service) Metrics(ctx context.Context, studentID string, now time.Time) (metrics.Summary, error) {
	sessions, err := svc.repo.QuerySessions(ctx, studentID)
	if err != nil {
		return metrics.Summary{}, errors.Wrap(err, "querying sessions")
	}
	exams, err := svc.repo.QueryExams(ctx, studentID)
	if err != nil {
		return metrics.Summary{}, errors.Wrap(err, "querying exams")
	}

	ms := make([]metrics.Session, 0, len(sessions))
	for _, s := range sessions {
		ms = append(ms, s.metrics())
	}
	me := make([]metrics.Exam, 0, len(exams))
	for _, e := range exams {
		me = append(me, e.metrics())
	}
	return metrics.Compute(ms, me, metrics.DayOf(now, svc.loc), svc.loc), nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func nullString(s *string) null.String {
	if s == nil || *s == "" {
		return null.String{}
	}
	return null.StringFrom(*s)
}
