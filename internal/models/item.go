package models

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"

	"gorm.io/datatypes"
)

type AnswerKind string

const (
	AnswerSingleChoice AnswerKind = "single_choice"
	AnswerMultiChoice  AnswerKind = "multi_choice"
	AnswerNumeric      AnswerKind = "numeric"
	AnswerExactText    AnswerKind = "exact_text"
)

// AnswerKey holds the canonical answer for an item. Exactly one of the value
// fields is meaningful, selected by Kind.
type AnswerKey struct {
	Kind AnswerKind `json:"kind" validate:"required,answer_kind"`

	Choice      *int  `json:"choice,omitempty"`       // single_choice
	Choices     []int `json:"choices,omitempty"`      // multi_choice
	OptionCount int   `json:"option_count,omitempty"` // bounds choice indexes when > 0

	Value     *float64 `json:"value,omitempty"` // numeric
	Tolerance float64  `json:"tolerance,omitempty" validate:"min=0"`

	Text *string `json:"text,omitempty"` // exact_text
}

// Item is a single gradable question. Items are owned by the external content
// store and never modified by the engine.
type Item struct {
	ID         uint                          `json:"id" gorm:"primaryKey"`
	Topic      string                        `json:"topic" gorm:"not null;size:100;index"`
	Difficulty float64                       `json:"difficulty" gorm:"not null"`
	Payload    datatypes.JSON                `json:"payload" gorm:"type:jsonb"`
	AnswerKey  datatypes.JSONType[AnswerKey] `json:"-" gorm:"type:jsonb;not null"`
	MaxScore   float64                       `json:"max_score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (Item) TableName() string {
	return "items"
}

// Key returns the decoded answer key.
func (i *Item) Key() AnswerKey {
	return i.AnswerKey.Data()
}

// SameContent reports whether o carries the same gradable content as i. Items
// are immutable once stored, so a reload may only repeat them.
func (i *Item) SameContent(o *Item) bool {
	if i.ID != o.ID || i.Topic != o.Topic || i.Difficulty != o.Difficulty || i.MaxScore != o.MaxScore {
		return false
	}
	ka, errA := json.Marshal(i.Key())
	kb, errB := json.Marshal(o.Key())
	if errA != nil || errB != nil || !bytes.Equal(ka, kb) {
		return false
	}
	return samePayload(i.Payload, o.Payload)
}

// samePayload compares JSON documents by value; stores may reformat them
func samePayload(a, b datatypes.JSON) bool {
	decode := func(raw datatypes.JSON) (interface{}, bool) {
		if len(raw) == 0 {
			return nil, true
		}
		var v interface{}
		return v, json.Unmarshal(raw, &v) == nil
	}
	va, okA := decode(a)
	vb, okB := decode(b)
	return okA && okB && reflect.DeepEqual(va, vb)
}

// PresentedItem is the learner-facing view of an item; it never carries the
// answer key.
type PresentedItem struct {
	ID         uint           `json:"id"`
	Topic      string         `json:"topic"`
	Difficulty float64        `json:"difficulty"`
	Kind       AnswerKind     `json:"answer_kind"`
	Payload    datatypes.JSON `json:"payload"`
	MaxScore   float64        `json:"max_score"`
}

func (i *Item) Present() *PresentedItem {
	if i == nil {
		return nil
	}
	return &PresentedItem{
		ID:         i.ID,
		Topic:      i.Topic,
		Difficulty: i.Difficulty,
		Kind:       i.Key().Kind,
		Payload:    i.Payload,
		MaxScore:   i.MaxScore,
	}
}

// ItemDocument is the interchange form of an item used for bulk loading.
// Unlike Item it serializes the answer key.
type ItemDocument struct {
	ID         uint           `json:"id" validate:"required"`
	Topic      string         `json:"topic" validate:"required,topic_tag"`
	Difficulty float64        `json:"difficulty"`
	Payload    datatypes.JSON `json:"payload"`
	AnswerKey  AnswerKey      `json:"answer_key"`
	MaxScore   float64        `json:"max_score" validate:"gt=0"`
}

func (d ItemDocument) ToItem() *Item {
	return &Item{
		ID:         d.ID,
		Topic:      d.Topic,
		Difficulty: d.Difficulty,
		Payload:    d.Payload,
		AnswerKey:  datatypes.NewJSONType(d.AnswerKey),
		MaxScore:   d.MaxScore,
	}
}
