// Package metrics aggregates a student's study sessions and mock exams into dashboard figures.
// Every function here is pure: the reference day and time zone are explicit arguments.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MaxExamScore is the nominal maximum raw mock exam score: 45 questions in each of the 4 areas.
const MaxExamScore = 4 * 45

type (
	Session struct {
		Date               time.Time
		Subject            string
		MinutesSpent       int
		QuestionsAttempted int
		QuestionsCorrect   int
		FlashcardsReviewed int
	}

	Exam struct {
		Date              time.Time
		LanguagesCorrect  int
		HumanitiesCorrect int
		NatureCorrect     int
		MathCorrect       int
	}

	SubjectSummary struct {
		Minutes         int `json:"minutes"`
		Questions       int `json:"questions"`
		Correct         int `json:"correct"`
		AccuracyPercent int `json:"accuracy_percent"`
	}

	Summary struct {
		TotalMinutes        int                       `json:"total_minutes"`
		TotalTime           string                    `json:"total_time"`
		TotalQuestions      int                       `json:"total_questions"`
		TotalCorrect        int                       `json:"total_correct"`
		TotalFlashcards     int                       `json:"total_flashcards"`
		AccuracyPercent     int                       `json:"accuracy_percent"`
		BySubject           map[string]SubjectSummary `json:"by_subject"`
		HasExam             bool                      `json:"has_exam"`
		MostRecentExamScore int                       `json:"most_recent_exam_score"`
		MaxExamScore        int                       `json:"max_exam_score"`
		StreakDays          int                       `json:"streak_days"`
	}
)

// Score is the raw exam score: the sum of the four area correct counts.
func (e Exam) Score() int {
	return e.LanguagesCorrect + e.HumanitiesCorrect + e.NatureCorrect + e.MathCorrect
}

// Compute builds the Summary of one student.
// exams must already be sorted by date, most recent first; this is not checked.
// today is the reference day of the streak, and loc the zone session dates are read in.
func Compute(sessions []Session, exams []Exam, today Day, loc *time.Location) Summary {
	sum := Summary{
		BySubject:    make(map[string]SubjectSummary),
		MaxExamScore: MaxExamScore,
	}

	dates := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		sum.TotalMinutes += s.MinutesSpent
		sum.TotalQuestions += s.QuestionsAttempted
		sum.TotalCorrect += s.QuestionsCorrect
		sum.TotalFlashcards += s.FlashcardsReviewed

		// subjects are grouped by literal value: "Matemática" and "matemática" are two groups
		sub := sum.BySubject[s.Subject]
		sub.Minutes += s.MinutesSpent
		sub.Questions += s.QuestionsAttempted
		sub.Correct += s.QuestionsCorrect
		sum.BySubject[s.Subject] = sub

		dates = append(dates, s.Date)
	}
	for name, sub := range sum.BySubject {
		sub.AccuracyPercent = Accuracy(sub.Correct, sub.Questions)
		sum.BySubject[name] = sub
	}
	sum.AccuracyPercent = Accuracy(sum.TotalCorrect, sum.TotalQuestions)
	sum.TotalTime = FormatMinutes(sum.TotalMinutes)

	if len(exams) > 0 {
		sum.HasExam = true
		sum.MostRecentExamScore = exams[0].Score()
	}

	sum.StreakDays = Streak(dates, today, loc)
	return sum
}

// Accuracy returns round(100*correct/attempted), halves rounded up, or 0 when nothing was attempted.
func Accuracy(correct, attempted int) int {
	if attempted <= 0 {
		return 0
	}
	return int(math.Floor(100*float64(correct)/float64(attempted) + 0.5))
}

// Streak counts the consecutive study days ending at today.
// It is 0 unless the most recent study day is today itself, so a session dated after today
// also yields 0, and it stops at the first missing day.
func Streak(dates []time.Time, today Day, loc *time.Location) int {
	seen := make(map[Day]struct{}, len(dates))
	days := make([]Day, 0, len(dates))
	for _, t := range dates {
		d := DayOf(t, loc)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	var streak int
	expected := today
	for _, d := range days {
		if d != expected {
			break
		}
		streak++
		expected = expected.AddDays(-1)
	}
	return streak
}

// FormatMinutes renders a duration in minutes as "Xh Ym".
func FormatMinutes(total int) string {
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
