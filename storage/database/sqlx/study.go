package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/study"
)

const (
	sessionColumns = "id, student_id, date, subject, content, minutes_spent, questions_attempted, questions_correct, " +
		"flashcards_reviewed, created_at, updated_at"
	examColumns = "id, student_id, name, date, languages_correct, languages_minutes, humanities_correct, humanities_minutes, " +
		"nature_correct, nature_minutes, math_correct, math_minutes, essay_score, essay_minutes, notes, created_at, updated_at"
	slotColumns = "id, student_id, weekday, start_time, end_time, subject, note, created_at, updated_at"
	noteColumns = "id, mentor_id, student_id, content, created_at, updated_at"
)

type studyRepository struct {
	repository
}

var _ study.Repository = (*studyRepository)(nil) // interface compliance check

func NewStudyRepository(exec core.DBExecutor) *studyRepository {
	return &studyRepository{repository{exec: exec}}
}

// getOwned loads the row with id in table when it belongs to studentID.
func (repo studyRepository) getOwned(ctx context.Context, exe core.DBExecutor, dest interface{}, table, columns, studentID, id string) error {
	if !validIDs(studentID, id) {
		return study.ErrNotFound
	}
	q := "SELECT " + columns + " FROM " + table + " WHERE id = ? AND student_id = ?"
	if err := repo.get(ctx, exe, dest, q, id, studentID); err != nil {
		return trapNoRowsErr(err, study.ErrNotFound, "finding "+table)
	}
	return nil
}

// deleteOwned deletes the row with id in table when it belongs to studentID.
func (repo studyRepository) deleteOwned(ctx context.Context, exe core.DBExecutor, table, studentID, id string) error {
	if !validIDs(studentID, id) {
		return study.ErrNotFound
	}
	cnt, err := repo.execute(ctx, exe, "DELETE FROM "+table+" WHERE id = ? AND student_id = ?", id, studentID)
	if err != nil {
		return errors.Wrap(err, "deleting from "+table)
	}
	if cnt == 0 {
		return study.ErrNotFound
	}
	return nil
}

func (repo studyRepository) updateOwned(ctx context.Context, exe core.DBExecutor, q string, arg interface{}) error {
	cnt, err := repo.executeNamed(ctx, exe, q, arg)
	if err != nil {
		return err
	}
	if cnt == 0 {
		return study.ErrNotFound
	}
	return nil
}

// Sessions

func (repo studyRepository) CreateSession(ctx context.Context, sess study.Session, exec ...core.DBExecutor) (study.Session, error) {
	sess.ID = newID()
	q := "INSERT INTO study_sessions (" + sessionColumns + ") VALUES " +
		"(:id, :student_id, :date, :subject, :content, :minutes_spent, :questions_attempted, :questions_correct, " +
		":flashcards_reviewed, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, sess); err != nil {
		return study.Session{}, errors.Wrap(err, "inserting study session")
	}
	return sess, nil
}

func (repo studyRepository) GetSession(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (study.Session, error) {
	var sess study.Session
	if err := repo.getOwned(ctx, repo.getExec(exec), &sess, "study_sessions", sessionColumns, studentID, id); err != nil {
		return study.Session{}, err
	}
	return sess, nil
}

func (repo studyRepository) QuerySessions(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]study.Session, error) {
	sessions := make([]study.Session, 0)
	if !validIDs(studentID) {
		return sessions, nil
	}
	q := "SELECT " + sessionColumns + " FROM study_sessions WHERE student_id = ? ORDER BY date DESC, created_at DESC"
	if err := repo.selectAll(ctx, repo.getExec(exec), &sessions, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying study sessions")
	}
	return sessions, nil
}

func (repo studyRepository) UpdateSession(ctx context.Context, sess study.Session, exec ...core.DBExecutor) (study.Session, error) {
	q := `UPDATE study_sessions SET date = :date, subject = :subject, content = :content, minutes_spent = :minutes_spent,
		questions_attempted = :questions_attempted, questions_correct = :questions_correct,
		flashcards_reviewed = :flashcards_reviewed, updated_at = :updated_at
		WHERE id = :id AND student_id = :student_id`
	if err := repo.updateOwned(ctx, repo.getExec(exec), q, sess); err != nil {
		return study.Session{}, errors.Wrap(err, "updating study session")
	}
	return sess, nil
}

func (repo studyRepository) DeleteSession(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error {
	return repo.deleteOwned(ctx, repo.getExec(exec), "study_sessions", studentID, id)
}

// Exams

func (repo studyRepository) CreateExam(ctx context.Context, exam study.Exam, exec ...core.DBExecutor) (study.Exam, error) {
	exam.ID = newID()
	q := "INSERT INTO mock_exams (" + examColumns + ") VALUES " +
		"(:id, :student_id, :name, :date, :languages_correct, :languages_minutes, :humanities_correct, :humanities_minutes, " +
		":nature_correct, :nature_minutes, :math_correct, :math_minutes, :essay_score, :essay_minutes, :notes, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, exam); err != nil {
		return study.Exam{}, errors.Wrap(err, "inserting mock exam")
	}
	return exam, nil
}

func (repo studyRepository) GetExam(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (study.Exam, error) {
	var exam study.Exam
	if err := repo.getOwned(ctx, repo.getExec(exec), &exam, "mock_exams", examColumns, studentID, id); err != nil {
		return study.Exam{}, err
	}
	return exam, nil
}

func (repo studyRepository) QueryExams(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]study.Exam, error) {
	exams := make([]study.Exam, 0)
	if !validIDs(studentID) {
		return exams, nil
	}
	q := "SELECT " + examColumns + " FROM mock_exams WHERE student_id = ? ORDER BY date DESC, created_at DESC"
	if err := repo.selectAll(ctx, repo.getExec(exec), &exams, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying mock exams")
	}
	return exams, nil
}

func (repo studyRepository) UpdateExam(ctx context.Context, exam study.Exam, exec ...core.DBExecutor) (study.Exam, error) {
	q := `UPDATE mock_exams SET name = :name, date = :date,
		languages_correct = :languages_correct, languages_minutes = :languages_minutes,
		humanities_correct = :humanities_correct, humanities_minutes = :humanities_minutes,
		nature_correct = :nature_correct, nature_minutes = :nature_minutes,
		math_correct = :math_correct, math_minutes = :math_minutes,
		essay_score = :essay_score, essay_minutes = :essay_minutes, notes = :notes, updated_at = :updated_at
		WHERE id = :id AND student_id = :student_id`
	if err := repo.updateOwned(ctx, repo.getExec(exec), q, exam); err != nil {
		return study.Exam{}, errors.Wrap(err, "updating mock exam")
	}
	return exam, nil
}

func (repo studyRepository) DeleteExam(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error {
	return repo.deleteOwned(ctx, repo.getExec(exec), "mock_exams", studentID, id)
}

// Schedule

func (repo studyRepository) CreateSlot(ctx context.Context, slot study.Slot, exec ...core.DBExecutor) (study.Slot, error) {
	slot.ID = newID()
	q := "INSERT INTO schedule_slots (" + slotColumns + ") VALUES " +
		"(:id, :student_id, :weekday, :start_time, :end_time, :subject, :note, :created_at, :updated_at)"
	if _, err := repo.executeNamed(ctx, repo.getExec(exec), q, slot); err != nil {
		return study.Slot{}, errors.Wrap(err, "inserting schedule slot")
	}
	return slot, nil
}

func (repo studyRepository) GetSlot(ctx context.Context, studentID, id string, exec ...core.DBExecutor) (study.Slot, error) {
	var slot study.Slot
	if err := repo.getOwned(ctx, repo.getExec(exec), &slot, "schedule_slots", slotColumns, studentID, id); err != nil {
		return study.Slot{}, err
	}
	return slot, nil
}

func (repo studyRepository) QuerySlots(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]study.Slot, error) {
	slots := make([]study.Slot, 0)
	if !validIDs(studentID) {
		return slots, nil
	}
	q := "SELECT " + slotColumns + " FROM schedule_slots WHERE student_id = ? ORDER BY weekday, start_time"
	if err := repo.selectAll(ctx, repo.getExec(exec), &slots, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying schedule slots")
	}
	return slots, nil
}

func (repo studyRepository) UpdateSlot(ctx context.Context, slot study.Slot, exec ...core.DBExecutor) (study.Slot, error) {
	q := `UPDATE schedule_slots SET weekday = :weekday, start_time = :start_time, end_time = :end_time,
		subject = :subject, note = :note, updated_at = :updated_at
		WHERE id = :id AND student_id = :student_id`
	if err := repo.updateOwned(ctx, repo.getExec(exec), q, slot); err != nil {
		return study.Slot{}, errors.Wrap(err, "updating schedule slot")
	}
	return slot, nil
}

func (repo studyRepository) DeleteSlot(ctx context.Context, studentID, id string, exec ...core.DBExecutor) error {
	return repo.deleteOwned(ctx, repo.getExec(exec), "schedule_slots", studentID, id)
}

// Mentor notes

func (repo studyRepository) GetNote(ctx context.Context, mentorID, studentID string, exec ...core.DBExecutor) (study.Note, error) {
	if !validIDs(mentorID, studentID) {
		return study.Note{}, study.ErrNotFound
	}
	var note study.Note
	q := "SELECT " + noteColumns + " FROM mentor_notes WHERE mentor_id = ? AND student_id = ?"
	if err := repo.get(ctx, repo.getExec(exec), &note, q, mentorID, studentID); err != nil {
		return study.Note{}, trapNoRowsErr(err, study.ErrNotFound, "finding mentor note")
	}
	return note, nil
}

// UpsertNote replaces the content of the (mentor, student) note, creating it when missing.
func (repo studyRepository) UpsertNote(ctx context.Context, note study.Note, exec ...core.DBExecutor) (study.Note, error) {
	exe := repo.getExec(exec)
	note.ID = newID()
	q := "INSERT INTO mentor_notes (" + noteColumns + ") VALUES (:id, :mentor_id, :student_id, :content, :created_at, :updated_at) " +
		"ON CONFLICT (mentor_id, student_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at"
	if _, err := repo.executeNamed(ctx, exe, q, note); err != nil {
		return study.Note{}, errors.Wrap(err, "upserting mentor note")
	}
	return repo.GetNote(ctx, note.MentorID, note.StudentID, exe)
}
