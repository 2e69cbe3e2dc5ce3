package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	apperrors "github.com/SAP-F-2025/exercise-service/internal/errors"
)

// MaxFreeResponseLength is exclusive.
const MaxFreeResponseLength = 500

// ResponseValue is a learner answer in display index space.
// Choice, Choices or Text is meaningful depending on Type.
type ResponseValue struct {
	Type    ExerciseType
	Choice  int
	Choices []int
	Text    string
}

func NewChoiceResponse(choice int) ResponseValue {
	return ResponseValue{Type: MultipleChoice, Choice: choice}
}

func NewChoicesResponse(choices ...int) ResponseValue {
	if choices == nil {
		choices = []int{}
	}
	return ResponseValue{Type: SelectMultiple, Choices: choices}
}

func NewTextResponse(text string) ResponseValue {
	return ResponseValue{Type: FreeResponse, Text: text}
}

// MarshalJSON writes the bare answer: a number, an array of numbers or a string.
func (r ResponseValue) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case MultipleChoice:
		return json.Marshal(r.Choice)
	case SelectMultiple:
		if r.Choices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.Choices)
	case FreeResponse:
		return json.Marshal(r.Text)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExerciseType, r.Type)
}

// ParseResponse checks that raw has the shape required by exerciseType.
func ParseResponse(exerciseType ExerciseType, raw json.RawMessage) (ResponseValue, error) {
	raw = bytes.TrimSpace(raw)

	switch exerciseType {
	case MultipleChoice:
		choice, ok := parseWholeNumber(raw)
		if !ok {
			return ResponseValue{}, invalidResponse("must be a non-negative whole number", raw)
		}
		return NewChoiceResponse(choice), nil

	case SelectMultiple:
		var items []json.RawMessage
		if len(raw) == 0 || raw[0] != '[' || json.Unmarshal(raw, &items) != nil {
			return ResponseValue{}, invalidResponse("must be an array of non-negative whole numbers", raw)
		}
		seen := make(map[int]struct{}, len(items))
		choices := make([]int, 0, len(items))
		for _, item := range items {
			choice, ok := parseWholeNumber(bytes.TrimSpace(item))
			if !ok {
				return ResponseValue{}, invalidResponse("must be an array of non-negative whole numbers", raw)
			}
			if _, dup := seen[choice]; dup {
				return ResponseValue{}, invalidResponse("must not contain duplicate choices", raw)
			}
			seen[choice] = struct{}{}
			choices = append(choices, choice)
		}
		return NewChoicesResponse(choices...), nil

	case FreeResponse:
		var text string
		if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &text) != nil {
			return ResponseValue{}, invalidResponse("must be a string", raw)
		}
		n := utf8.RuneCountInString(text)
		if n < 1 || n >= MaxFreeResponseLength {
			return ResponseValue{}, invalidResponse(fmt.Sprintf("must be between 1 and %d characters", MaxFreeResponseLength-1), text)
		}
		return NewTextResponse(text), nil
	}

	return ResponseValue{}, apperrors.ValidationErrors{
		*apperrors.NewValidationErrorWithRule("type", "must be a valid exercise type", "exercise_type", string(exerciseType)),
	}
}

func parseWholeNumber(raw []byte) (int, bool) {
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func invalidResponse(message string, value interface{}) apperrors.ValidationErrors {
	if raw, ok := value.([]byte); ok {
		value = string(raw)
	}
	return apperrors.ValidationErrors{
		*apperrors.NewValidationErrorWithRule("response", message, "exercise_response", value),
	}
}
