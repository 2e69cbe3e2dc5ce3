package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type ExerciseType string

const (
	MultipleChoice ExerciseType = "multiple-choice"
	SelectMultiple ExerciseType = "select-multiple"
	FreeResponse   ExerciseType = "free-response"
)

// ExerciseTypes lists every supported variant.
var ExerciseTypes = []ExerciseType{MultipleChoice, SelectMultiple, FreeResponse}

func (t ExerciseType) IsValid() bool {
	for _, known := range ExerciseTypes {
		if t == known {
			return true
		}
	}
	return false
}

var (
	ErrUnknownExerciseType = errors.New("unknown exercise type")
	ErrMissingVariantBody  = errors.New("exercise content has no body for its type")
)

// Exercise is a quiz item attached to an episode. The id doubles as the
// seed for the display order of the choices.
type Exercise struct {
	ID        uint                                `json:"id" gorm:"primaryKey"`
	EpisodeID uint                                `json:"episode_id" gorm:"not null;index"`
	Content   datatypes.JSONType[ExerciseContent] `json:"content" gorm:"not null"`

	// Timeline anchor in seconds. Nil means the exercise is not embedded.
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Responses []ExerciseResponse `json:"-" gorm:"foreignKey:ExerciseID;constraint:OnDelete:CASCADE"`
}

func (Exercise) TableName() string {
	return "exercises"
}

// Body returns the decoded content payload.
func (e *Exercise) Body() ExerciseContent {
	return e.Content.Data()
}

func (e *Exercise) Type() ExerciseType {
	return e.Body().Type
}

type MultipleChoiceContent struct {
	Question         string   `json:"question" validate:"required"`
	CorrectChoice    string   `json:"correctChoice" validate:"required"`
	IncorrectChoices []string `json:"incorrectChoices" validate:"required,min=1,dive,required"`
}

type SelectMultipleContent struct {
	Question         string   `json:"question" validate:"required"`
	CorrectChoices   []string `json:"correctChoices" validate:"required,min=1,dive,required"`
	IncorrectChoices []string `json:"incorrectChoices" validate:"dive,required"`
}

type FreeResponseContent struct {
	Question string `json:"question" validate:"required"`
	Response string `json:"response" validate:"required"`
}

// ExerciseContent is the tagged union stored in exercises.content.
// Exactly one variant pointer is set and it matches Type.
type ExerciseContent struct {
	Type           ExerciseType           `json:"type" validate:"required,exercise_type"`
	MultipleChoice *MultipleChoiceContent `json:"multipleChoice,omitempty" validate:"required_if=Type multiple-choice"`
	SelectMultiple *SelectMultipleContent `json:"selectMultiple,omitempty" validate:"required_if=Type select-multiple"`
	FreeResponse   *FreeResponseContent   `json:"freeResponse,omitempty" validate:"required_if=Type free-response"`
}

func NewMultipleChoice(question, correct string, incorrect ...string) ExerciseContent {
	return ExerciseContent{
		Type: MultipleChoice,
		MultipleChoice: &MultipleChoiceContent{
			Question:         question,
			CorrectChoice:    correct,
			IncorrectChoices: incorrect,
		},
	}
}

func NewSelectMultiple(question string, correct, incorrect []string) ExerciseContent {
	return ExerciseContent{
		Type: SelectMultiple,
		SelectMultiple: &SelectMultipleContent{
			Question:         question,
			CorrectChoices:   correct,
			IncorrectChoices: incorrect,
		},
	}
}

func NewFreeResponse(question, modelAnswer string) ExerciseContent {
	return ExerciseContent{
		Type: FreeResponse,
		FreeResponse: &FreeResponseContent{
			Question: question,
			Response: modelAnswer,
		},
	}
}

func (c ExerciseContent) Question() string {
	switch {
	case c.MultipleChoice != nil:
		return c.MultipleChoice.Question
	case c.SelectMultiple != nil:
		return c.SelectMultiple.Question
	case c.FreeResponse != nil:
		return c.FreeResponse.Question
	}
	return ""
}

// HasChoices reports whether the variant is presented as a list of choices.
func (c ExerciseContent) HasChoices() bool {
	return c.Type == MultipleChoice || c.Type == SelectMultiple
}

// CanonicalChoices returns correct choices followed by incorrect ones.
func (c ExerciseContent) CanonicalChoices() []string {
	switch c.Type {
	case MultipleChoice:
		if c.MultipleChoice == nil {
			return nil
		}
		out := make([]string, 0, 1+len(c.MultipleChoice.IncorrectChoices))
		out = append(out, c.MultipleChoice.CorrectChoice)
		return append(out, c.MultipleChoice.IncorrectChoices...)
	case SelectMultiple:
		if c.SelectMultiple == nil {
			return nil
		}
		out := make([]string, 0, len(c.SelectMultiple.CorrectChoices)+len(c.SelectMultiple.IncorrectChoices))
		out = append(out, c.SelectMultiple.CorrectChoices...)
		return append(out, c.SelectMultiple.IncorrectChoices...)
	}
	return nil
}

// CorrectCount is the number of leading canonical choices that are correct.
func (c ExerciseContent) CorrectCount() int {
	switch c.Type {
	case MultipleChoice:
		return 1
	case SelectMultiple:
		if c.SelectMultiple != nil {
			return len(c.SelectMultiple.CorrectChoices)
		}
	}
	return 0
}

func (c ExerciseContent) ChoiceCount() int {
	return len(c.CanonicalChoices())
}

type typedMultipleChoice struct {
	Type ExerciseType `json:"type"`
	MultipleChoiceContent
}

type typedSelectMultiple struct {
	Type ExerciseType `json:"type"`
	SelectMultipleContent
}

type typedFreeResponse struct {
	Type ExerciseType `json:"type"`
	FreeResponseContent
}

// MarshalJSON flattens the active variant next to its "type" key.
func (c ExerciseContent) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case MultipleChoice:
		if c.MultipleChoice == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariantBody, c.Type)
		}
		body := *c.MultipleChoice
		body.IncorrectChoices = nonNil(body.IncorrectChoices)
		return json.Marshal(typedMultipleChoice{Type: c.Type, MultipleChoiceContent: body})
	case SelectMultiple:
		if c.SelectMultiple == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariantBody, c.Type)
		}
		body := *c.SelectMultiple
		body.CorrectChoices = nonNil(body.CorrectChoices)
		body.IncorrectChoices = nonNil(body.IncorrectChoices)
		return json.Marshal(typedSelectMultiple{Type: c.Type, SelectMultipleContent: body})
	case FreeResponse:
		if c.FreeResponse == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariantBody, c.Type)
		}
		return json.Marshal(typedFreeResponse{Type: c.Type, FreeResponseContent: *c.FreeResponse})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseType, c.Type)
}

// UnmarshalJSON dispatches on the "type" key. Unknown keys are ignored.
func (c *ExerciseContent) UnmarshalJSON(data []byte) error {
	var head struct {
		Type ExerciseType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	out := ExerciseContent{Type: head.Type}
	switch head.Type {
	case MultipleChoice:
		var body MultipleChoiceContent
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		out.MultipleChoice = &body
	case SelectMultiple:
		var body SelectMultipleContent
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		out.SelectMultiple = &body
	case FreeResponse:
		var body FreeResponseContent
		if err := json.Unmarshal(data, &body); err != nil {
			return err
		}
		out.FreeResponse = &body
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExerciseType, head.Type)
	}

	*c = out
	return nil
}

// IsContentDecodeError reports whether err came from decoding stored content.
func IsContentDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, ErrUnknownExerciseType) ||
		errors.Is(err, ErrMissingVariantBody) ||
		errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
