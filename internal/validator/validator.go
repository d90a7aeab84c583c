package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

var topicTagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,99}$`)

// Validator combines struct tag validation with answer key rules
type Validator struct {
	structValidator    *validator.Validate
	answerKeyValidator *AnswerKeyValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:    structValidator,
		answerKeyValidator: NewAnswerKeyValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return ToValidationErrors(fieldErrs)
	}
	return err
}

// AnswerKey returns the answer key validator
func (v *Validator) AnswerKey() *AnswerKeyValidator {
	return v.answerKeyValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("answer_kind", validateAnswerKind)
	validate.RegisterValidation("session_state", validateSessionState)
	validate.RegisterValidation("topic_tag", validateTopicTag)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateAnswerKind(fl validator.FieldLevel) bool {
	validKinds := []models.AnswerKind{
		models.AnswerSingleChoice,
		models.AnswerMultiChoice,
		models.AnswerNumeric,
		models.AnswerExactText,
	}

	value := fl.Field().String()
	for _, kind := range validKinds {
		if string(kind) == value {
			return true
		}
	}
	return false
}

func validateSessionState(fl validator.FieldLevel) bool {
	validStates := []models.SessionState{
		models.SessionNotStarted,
		models.SessionInProgress,
		models.SessionCompleted,
		models.SessionAborted,
	}

	value := fl.Field().String()
	for _, state := range validStates {
		if string(state) == value {
			return true
		}
	}
	return false
}

// Topic tags are lower-case slugs such as "algebra" or "algebra.linear"
func validateTopicTag(fl validator.FieldLevel) bool {
	return topicTagPattern.MatchString(fl.Field().String())
}
