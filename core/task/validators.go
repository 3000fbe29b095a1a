package task

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/mwalimu/core"
)

var (
	taskStatusTag  = "taskstatus"
	taskStatusText = "invalid task status"

	startBeforeDueTag  = "startbeforedue"
	startBeforeDueText = "start date must not be after the due date"
)

// InitValidators registers the task validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(taskStatusTag, taskStatusValidation)
	core.RegisterCustomTranslation(validate, translator, taskStatusTag, taskStatusText)

	validate.RegisterStructValidation(taskStructValidation, NewTask{}, UpdateTask{})
	core.RegisterCustomTranslation(validate, translator, startBeforeDueTag, startBeforeDueText)
}

// Custom Validators

// taskStatusValidation checks that the status is one of Statuses
func taskStatusValidation(fl validator.FieldLevel) bool {
	return IsStatus(fl.Field().String())
}

// taskStructValidation does struct level validation on NewTask and UpdateTask structs.
func taskStructValidation(sl validator.StructLevel) {
	switch t := sl.Current().Interface().(type) {
	case NewTask:
		if t.StartDate != nil && t.DueDate != nil && t.StartDate.After(*t.DueDate) {
			sl.ReportError(t.StartDate, "start_date", "StartDate", startBeforeDueTag, "")
		}
	case UpdateTask:
		if t.StartDate != nil && t.DueDate != nil && t.StartDate.After(*t.DueDate) {
			sl.ReportError(t.StartDate, "start_date", "StartDate", startBeforeDueTag, "")
		}
	}
}
