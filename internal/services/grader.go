package services

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

// numericEpsilon absorbs float rounding so a zero tolerance still accepts 0.1+0.2 for 0.3
const numericEpsilon = 1e-9

// Verdict is the outcome of grading one response
type Verdict struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	MaxScore  float64 `json:"max_score"`
}

// Observed returns the correctness signal fed to the estimator, in [0, 1]
func (v *Verdict) Observed() float64 {
	if v.MaxScore <= 0 {
		if v.IsCorrect {
			return 1
		}
		return 0
	}
	return math.Max(0, math.Min(1, v.Score/v.MaxScore))
}

// Grader scores responses against answer keys. Grading is binary: full marks
// or zero.
type Grader struct {
	keys *validator.AnswerKeyValidator
}

func NewGrader(keys *validator.AnswerKeyValidator) *Grader {
	return &Grader{keys: keys}
}

// Grade checks the response shape against the item's answer kind, then
// scores it. Shape mismatches return a MalformedResponseError.
func (g *Grader) Grade(item *models.Item, response models.Response) (*Verdict, error) {
	key := item.Key()
	if err := g.keys.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("%w: item %d: %v", ErrAnswerKeyCorrupt, item.ID, err)
	}

	kind, fields := response.Shape()
	switch {
	case fields == 0:
		return nil, apperrors.NewMalformedResponseError(item.ID, string(key.Kind), "no answer provided")
	case fields > 1:
		return nil, apperrors.NewMalformedResponseError(item.ID, string(key.Kind), "more than one answer field set")
	case kind != key.Kind:
		return nil, apperrors.NewMalformedResponseError(item.ID, string(key.Kind), fmt.Sprintf("got %s answer", kind))
	}

	var correct bool
	switch key.Kind {
	case models.AnswerSingleChoice:
		if err := checkChoice(item.ID, key, *response.Choice); err != nil {
			return nil, err
		}
		correct = *response.Choice == *key.Choice

	case models.AnswerMultiChoice:
		for _, c := range response.Choices {
			if err := checkChoice(item.ID, key, c); err != nil {
				return nil, err
			}
		}
		correct = sameSet(response.Choices, key.Choices)

	case models.AnswerNumeric:
		n := *response.Number
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, apperrors.NewMalformedResponseError(item.ID, string(key.Kind), "number must be finite")
		}
		correct = math.Abs(n-*key.Value) <= key.Tolerance+numericEpsilon

	case models.AnswerExactText:
		correct = strings.EqualFold(NormalizeText(*response.Text), NormalizeText(*key.Text))
	}

	verdict := &Verdict{IsCorrect: correct, MaxScore: item.MaxScore}
	if correct {
		verdict.Score = item.MaxScore
	}
	return verdict, nil
}

// NormalizeText trims and collapses internal whitespace runs to one space
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func checkChoice(itemID uint, key models.AnswerKey, choice int) error {
	if choice < 0 {
		return apperrors.NewMalformedResponseError(itemID, string(key.Kind), fmt.Sprintf("choice %d is negative", choice))
	}
	if key.OptionCount > 0 && choice >= key.OptionCount {
		return apperrors.NewMalformedResponseError(itemID, string(key.Kind),
			fmt.Sprintf("choice %d out of range for %d options", choice, key.OptionCount))
	}
	return nil
}

func sameSet(a, b []int) bool {
	left := make(map[int]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[int]struct{}, len(b))
	for _, v := range b {
		right[v] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}
	return true
}
