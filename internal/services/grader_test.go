package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	apperrors "github.com/SAP-F-2025/adaptive-assessment-engine/internal/errors"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/models"
	"github.com/SAP-F-2025/adaptive-assessment-engine/internal/validator"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func keyed(key models.AnswerKey) *models.Item {
	return &models.Item{
		ID:         1,
		Topic:      "algebra",
		Difficulty: 0,
		AnswerKey:  datatypes.NewJSONType(key),
		MaxScore:   2,
	}
}

func TestGrader_Grade(t *testing.T) {
	grader := NewGrader(validator.NewAnswerKeyValidator())

	single := keyed(models.AnswerKey{Kind: models.AnswerSingleChoice, Choice: intPtr(2), OptionCount: 4})
	multi := keyed(models.AnswerKey{Kind: models.AnswerMultiChoice, Choices: []int{0, 3}, OptionCount: 4})
	numeric := keyed(models.AnswerKey{Kind: models.AnswerNumeric, Value: floatPtr(3.14), Tolerance: 0.01})
	exact := keyed(models.AnswerKey{Kind: models.AnswerExactText, Text: strPtr("Pythagorean  theorem")})

	tests := []struct {
		name     string
		item     *models.Item
		response models.Response
		correct  bool
	}{
		{"single correct", single, models.Response{Choice: intPtr(2)}, true},
		{"single wrong", single, models.Response{Choice: intPtr(1)}, false},
		{"multi same set", multi, models.Response{Choices: []int{3, 0}}, true},
		{"multi duplicates collapse", multi, models.Response{Choices: []int{0, 3, 3}}, true},
		{"multi subset", multi, models.Response{Choices: []int{0}}, false},
		{"multi superset", multi, models.Response{Choices: []int{0, 1, 3}}, false},
		{"multi empty", multi, models.Response{Choices: []int{}}, false},
		{"numeric exact", numeric, models.Response{Number: floatPtr(3.14)}, true},
		{"numeric at tolerance edge", numeric, models.Response{Number: floatPtr(3.15)}, true},
		{"numeric outside tolerance", numeric, models.Response{Number: floatPtr(3.16)}, false},
		{"text case and whitespace", exact, models.Response{Text: strPtr("  pythagorean theorem\t")}, true},
		{"text inner whitespace runs", exact, models.Response{Text: strPtr("PYTHAGOREAN \n THEOREM")}, true},
		{"text different", exact, models.Response{Text: strPtr("pythagoras")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := grader.Grade(tt.item, tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.correct, verdict.IsCorrect)
			assert.Equal(t, 2.0, verdict.MaxScore)
			if tt.correct {
				assert.Equal(t, 2.0, verdict.Score)
			} else {
				assert.Zero(t, verdict.Score)
			}
		})
	}
}

func TestGrader_ZeroToleranceAbsorbsRounding(t *testing.T) {
	grader := NewGrader(validator.NewAnswerKeyValidator())
	item := keyed(models.AnswerKey{Kind: models.AnswerNumeric, Value: floatPtr(0.3)})

	verdict, err := grader.Grade(item, models.Response{Number: floatPtr(0.1 + 0.2)})
	require.NoError(t, err)
	assert.True(t, verdict.IsCorrect)
}

func TestGrader_MalformedResponses(t *testing.T) {
	grader := NewGrader(validator.NewAnswerKeyValidator())
	single := keyed(models.AnswerKey{Kind: models.AnswerSingleChoice, Choice: intPtr(0), OptionCount: 3})
	numeric := keyed(models.AnswerKey{Kind: models.AnswerNumeric, Value: floatPtr(1)})

	tests := []struct {
		name     string
		item     *models.Item
		response models.Response
	}{
		{"no field", single, models.Response{}},
		{"two fields", single, models.Response{Choice: intPtr(0), Text: strPtr("a")}},
		{"wrong kind", numeric, models.Response{Text: strPtr("1")}},
		{"choice out of range", single, models.Response{Choice: intPtr(3)}},
		{"negative choice", single, models.Response{Choice: intPtr(-1)}},
		{"not a number", numeric, models.Response{Number: floatPtr(math.NaN())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := grader.Grade(tt.item, tt.response)
			assert.Nil(t, verdict)
			assert.True(t, apperrors.IsMalformedResponse(err), "got %v", err)
		})
	}
}

func TestGrader_CorruptKey(t *testing.T) {
	grader := NewGrader(validator.NewAnswerKeyValidator())
	item := keyed(models.AnswerKey{Kind: models.AnswerSingleChoice})

	_, err := grader.Grade(item, models.Response{Choice: intPtr(0)})
	assert.ErrorIs(t, err, ErrAnswerKeyCorrupt)
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", NormalizeText("  a \t b\n\nc "))
	assert.Equal(t, "", NormalizeText("   "))
}
