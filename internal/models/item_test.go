package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func textItem(payload string, answer string) *Item {
	return &Item{
		ID:         7,
		Topic:      "geography",
		Difficulty: 0.25,
		Payload:    datatypes.JSON(payload),
		AnswerKey:  datatypes.NewJSONType(AnswerKey{Kind: AnswerExactText, Text: &answer}),
		MaxScore:   1,
	}
}

func TestItem_SameContent(t *testing.T) {
	stored := textItem(`{"prompt": "Capital of France?", "tags": ["eu"]}`, "Paris")

	assert.True(t, stored.SameContent(textItem(`{"tags":["eu"],"prompt":"Capital of France?"}`, "Paris")), "payload formatting is ignored")
	assert.False(t, stored.SameContent(textItem(`{"prompt": "Capital of France?", "tags": ["eu"]}`, "Lyon")))
	assert.False(t, stored.SameContent(textItem(`{"prompt": "Capital of Spain?"}`, "Paris")))

	moved := textItem(`{"prompt": "Capital of France?", "tags": ["eu"]}`, "Paris")
	moved.Difficulty = 1
	assert.False(t, stored.SameContent(moved))

	assert.True(t, textItem("", "Paris").SameContent(textItem("", "Paris")))
}
