package study

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/orbitaplataforma/orbita/core"
	"github.com/orbitaplataforma/orbita/core/metrics"
)

// Session is one study session logged by a student.
type Session struct {
	ID                 string    `json:"id" db:"id"`
	StudentID          string    `json:"student_id" db:"student_id"`
	Date               time.Time `json:"date" db:"date"`
	Subject            string    `json:"subject" db:"subject"`
	Content            string    `json:"content" db:"content"`
	MinutesSpent       int       `json:"minutes_spent" db:"minutes_spent"`
	QuestionsAttempted int       `json:"questions_attempted" db:"questions_attempted"`
	QuestionsCorrect   int       `json:"questions_correct" db:"questions_correct"`
	FlashcardsReviewed int       `json:"flashcards_reviewed" db:"flashcards_reviewed"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

func (s Session) metrics() metrics.Session {
	return metrics.Session{
		Date:               s.Date,
		Subject:            s.Subject,
		MinutesSpent:       s.MinutesSpent,
		QuestionsAttempted: s.QuestionsAttempted,
		QuestionsCorrect:   s.QuestionsCorrect,
		FlashcardsReviewed: s.FlashcardsReviewed,
	}
}

func (s Session) check() error {
	if s.QuestionsCorrect > s.QuestionsAttempted {
		return core.NewFieldError("questions_correct", lteAttemptedMsg)
	}
	return nil
}

type NewSession struct {
	Date               time.Time `json:"date" validate:"required"`
	Subject            string    `json:"subject" validate:"required,max=100"`
	Content            string    `json:"content"`
	MinutesSpent       int       `json:"minutes_spent" validate:"min=0"`
	QuestionsAttempted int       `json:"questions_attempted" validate:"min=0"`
	QuestionsCorrect   int       `json:"questions_correct" validate:"min=0"`
	FlashcardsReviewed int       `json:"flashcards_reviewed" validate:"min=0"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Subject = core.CleanString(ns.Subject)
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

type UpdateSession struct {
	Date               *time.Time `json:"date"`
	Subject            *string    `json:"subject" validate:"omitempty,min=1,max=100"`
	Content            *string    `json:"content"`
	MinutesSpent       *int       `json:"minutes_spent" validate:"omitempty,min=0"`
	QuestionsAttempted *int       `json:"questions_attempted" validate:"omitempty,min=0"`
	QuestionsCorrect   *int       `json:"questions_correct" validate:"omitempty,min=0"`
	FlashcardsReviewed *int       `json:"flashcards_reviewed" validate:"omitempty,min=0"`
}

func (us *UpdateSession) Validate(validate *validator.Validate) error {
	core.CleanStringPtr(us.Subject)
	core.CleanStringPtr(us.Content)
	return validate.Struct(us)
}

// Exam is an ENEM mock exam: correct answers and minutes per area (45 questions each) plus the essay.
type Exam struct {
	ID                string      `json:"id" db:"id"`
	StudentID         string      `json:"student_id" db:"student_id"`
	Name              string      `json:"name" db:"name"`
	Date              time.Time   `json:"date" db:"date"`
	LanguagesCorrect  int         `json:"languages_correct" db:"languages_correct"`
	LanguagesMinutes  int         `json:"languages_minutes" db:"languages_minutes"`
	HumanitiesCorrect int         `json:"humanities_correct" db:"humanities_correct"`
	HumanitiesMinutes int         `json:"humanities_minutes" db:"humanities_minutes"`
	NatureCorrect     int         `json:"nature_correct" db:"nature_correct"`
	NatureMinutes     int         `json:"nature_minutes" db:"nature_minutes"`
	MathCorrect       int         `json:"math_correct" db:"math_correct"`
	MathMinutes       int         `json:"math_minutes" db:"math_minutes"`
	EssayScore        int         `json:"essay_score" db:"essay_score"`
	EssayMinutes      int         `json:"essay_minutes" db:"essay_minutes"`
	Notes             null.String `json:"notes" db:"notes"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

func (e Exam) metrics() metrics.Exam {
	return metrics.Exam{
		Date:              e.Date,
		LanguagesCorrect:  e.LanguagesCorrect,
		HumanitiesCorrect: e.HumanitiesCorrect,
		NatureCorrect:     e.NatureCorrect,
		MathCorrect:       e.MathCorrect,
	}
}

type NewExam struct {
	Name              string    `json:"name" validate:"required"`
	Date              time.Time `json:"date" validate:"required"`
	LanguagesCorrect  int       `json:"languages_correct" validate:"min=0,max=45"`
	LanguagesMinutes  int       `json:"languages_minutes" validate:"min=0"`
	HumanitiesCorrect int       `json:"humanities_correct" validate:"min=0,max=45"`
	HumanitiesMinutes int       `json:"humanities_minutes" validate:"min=0"`
	NatureCorrect     int       `json:"nature_correct" validate:"min=0,max=45"`
	NatureMinutes     int       `json:"nature_minutes" validate:"min=0"`
	MathCorrect       int       `json:"math_correct" validate:"min=0,max=45"`
	MathMinutes       int       `json:"math_minutes" validate:"min=0"`
	EssayScore        int       `json:"essay_score" validate:"min=0,max=1000"`
	EssayMinutes      int       `json:"essay_minutes" validate:"min=0"`
	Notes             *string   `json:"notes"`
}

func (ne *NewExam) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	core.CleanStringPtr(ne.Notes)
	return validate.Struct(ne)
}

type UpdateExam struct {
	Name              *string    `json:"name" validate:"omitempty,min=1"`
	Date              *time.Time `json:"date"`
	LanguagesCorrect  *int       `json:"languages_correct" validate:"omitempty,min=0,max=45"`
	LanguagesMinutes  *int       `json:"languages_minutes" validate:"omitempty,min=0"`
	HumanitiesCorrect *int       `json:"humanities_correct" validate:"omitempty,min=0,max=45"`
	HumanitiesMinutes *int       `json:"humanities_minutes" validate:"omitempty,min=0"`
	NatureCorrect     *int       `json:"nature_correct" validate:"omitempty,min=0,max=45"`
	NatureMinutes     *int       `json:"nature_minutes" validate:"omitempty,min=0"`
	MathCorrect       *int       `json:"math_correct" validate:"omitempty,min=0,max=45"`
	MathMinutes       *int       `json:"math_minutes" validate:"omitempty,min=0"`
	EssayScore        *int       `json:"essay_score" validate:"omitempty,min=0,max=1000"`
	EssayMinutes      *int       `json:"essay_minutes" validate:"omitempty,min=0"`
	Notes             *string    `json:"notes"`
}

func (ue *UpdateExam) Validate(validate *validator.Validate) error {
	core.CleanStringPtr(ue.Name)
	core.CleanStringPtr(ue.Notes)
	return validate.Struct(ue)
}

// Slot is a block of the weekly study schedule. Weekday 0 is Sunday.
type Slot struct {
	ID        string      `json:"id" db:"id"`
	StudentID string      `json:"student_id" db:"student_id"`
	Weekday   int         `json:"weekday" db:"weekday"`
	StartTime string      `json:"start_time" db:"start_time"`
	EndTime   string      `json:"end_time" db:"end_time"`
	Subject   string      `json:"subject" db:"subject"`
	Note      null.String `json:"note" db:"note"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

func (s Slot) check() error {
	// HH:MM strings order like the times they represent
	if s.EndTime <= s.StartTime {
		return core.NewFieldError("end_time", endAfterStartMsg)
	}
	return nil
}

type NewSlot struct {
	Weekday   *int    `json:"weekday" validate:"required,min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required,clock"`
	EndTime   string  `json:"end_time" validate:"required,clock"`
	Subject   string  `json:"subject" validate:"required"`
	Note      *string `json:"note"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.StartTime = core.CleanString(ns.StartTime)
	ns.EndTime = core.CleanString(ns.EndTime)
	ns.Subject = core.CleanString(ns.Subject)
	core.CleanStringPtr(ns.Note)
	return validate.Struct(ns)
}

type UpdateSlot struct {
	Weekday   *int    `json:"weekday" validate:"omitempty,min=0,max=6"`
	StartTime *string `json:"start_time" validate:"omitempty,clock"`
	EndTime   *string `json:"end_time" validate:"omitempty,clock"`
	Subject   *string `json:"subject" validate:"omitempty,min=1"`
	Note      *string `json:"note"`
}

func (us *UpdateSlot) Validate(validate *validator.Validate) error {
	core.CleanStringPtr(us.StartTime)
	core.CleanStringPtr(us.EndTime)
	core.CleanStringPtr(us.Subject)
	core.CleanStringPtr(us.Note)
	return validate.Struct(us)
}

// Note is a mentor's private note about one of their students. There is at most one per pair.
type Note struct {
	ID        string    `json:"id" db:"id"`
	MentorID  string    `json:"mentor_id" db:"mentor_id"`
	StudentID string    `json:"student_id" db:"student_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SaveNote struct {
	Content string `json:"content"`
}
