package study

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/orbitaplataforma/orbita/core"
)

var (
	lteAttemptedTag = "lte_attempted"
	lteAttemptedMsg = "questions_correct cannot exceed questions_attempted"

	endAfterStartTag = "end_after_start"
	endAfterStartMsg = "end_time must be after start_time"
)

// InitValidators registers the study struct validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(sessionStructValidation, NewSession{})
	validate.RegisterStructValidation(slotStructValidation, NewSlot{})
	core.RegisterCustomTranslation(validate, translator, lteAttemptedTag, lteAttemptedMsg)
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartMsg)
}

func sessionStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSession)
	if ns.QuestionsCorrect > ns.QuestionsAttempted {
		sl.ReportError(ns.QuestionsCorrect, "questions_correct", "QuestionsCorrect", lteAttemptedTag, "")
	}
}

func slotStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSlot)
	if core.IsClock(ns.StartTime) && core.IsClock(ns.EndTime) && ns.EndTime <= ns.StartTime {
		sl.ReportError(ns.EndTime, "end_time", "EndTime", endAfterStartTag, "")
	}
}
