package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
)

// AnswerKeyValidator checks that items carry a usable answer key before they
// enter the item bank.
type AnswerKeyValidator struct{}

func NewAnswerKeyValidator() *AnswerKeyValidator {
	return &AnswerKeyValidator{}
}

// ValidateKey validates the answer key for its declared kind
func (v *AnswerKeyValidator) ValidateKey(key models.AnswerKey) error {
	switch key.Kind {
	case models.AnswerSingleChoice:
		return v.validateSingleChoice(key)
	case models.AnswerMultiChoice:
		return v.validateMultiChoice(key)
	case models.AnswerNumeric:
		return v.validateNumeric(key)
	case models.AnswerExactText:
		return v.validateExactText(key)
	default:
		return fmt.Errorf("unsupported answer kind: %q", key.Kind)
	}
}

// ValidateItem validates a complete item
func (v *AnswerKeyValidator) ValidateItem(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if strings.TrimSpace(item.Topic) == "" {
		return fmt.Errorf("item topic is required")
	}
	if math.IsNaN(item.Difficulty) || math.IsInf(item.Difficulty, 0) {
		return fmt.Errorf("item difficulty must be finite")
	}
	if item.MaxScore <= 0 {
		return fmt.Errorf("item max score must be positive")
	}
	return v.ValidateKey(item.Key())
}

// ValidateBatch validates multiple items
func (v *AnswerKeyValidator) ValidateBatch(items []*models.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("item batch cannot be empty")
	}

	for i, item := range items {
		if err := v.ValidateItem(item); err != nil {
			return fmt.Errorf("validation failed for item %d: %w", i+1, err)
		}
	}

	return nil
}

func (v *AnswerKeyValidator) validateSingleChoice(key models.AnswerKey) error {
	if key.Choice == nil {
		return fmt.Errorf("single choice key requires a choice index")
	}
	return v.checkIndex(*key.Choice, key.OptionCount)
}

func (v *AnswerKeyValidator) validateMultiChoice(key models.AnswerKey) error {
	if len(key.Choices) == 0 {
		return fmt.Errorf("multi choice key requires at least 1 choice")
	}

	seen := make(map[int]bool, len(key.Choices))
	for _, c := range key.Choices {
		if err := v.checkIndex(c, key.OptionCount); err != nil {
			return err
		}
		if seen[c] {
			return fmt.Errorf("duplicate choice index %d", c)
		}
		seen[c] = true
	}
	return nil
}

func (v *AnswerKeyValidator) validateNumeric(key models.AnswerKey) error {
	if key.Value == nil {
		return fmt.Errorf("numeric key requires a value")
	}
	if math.IsNaN(*key.Value) || math.IsInf(*key.Value, 0) {
		return fmt.Errorf("numeric key value must be finite")
	}
	if key.Tolerance < 0 || math.IsNaN(key.Tolerance) {
		return fmt.Errorf("numeric tolerance cannot be negative")
	}
	return nil
}

func (v *AnswerKeyValidator) validateExactText(key models.AnswerKey) error {
	if key.Text == nil || strings.TrimSpace(*key.Text) == "" {
		return fmt.Errorf("exact text key requires non-empty text")
	}
	return nil
}

func (v *AnswerKeyValidator) checkIndex(index, optionCount int) error {
	if index < 0 {
		return fmt.Errorf("choice index %d cannot be negative", index)
	}
	if optionCount > 0 && index >= optionCount {
		return fmt.Errorf("choice index %d out of range for %d options", index, optionCount)
	}
	return nil
}
