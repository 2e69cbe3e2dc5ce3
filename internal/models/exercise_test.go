package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	apperrors "github.com/SAP-F-2025/exercise-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestExerciseContent_DecodesDocumentedSchema(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantType  ExerciseType
		canonical []string
		correct   int
	}{
		{
			name:      "multiple choice",
			payload:   `{"type":"multiple-choice","question":"Q","correctChoice":"A","incorrectChoices":["B","C","D"]}`,
			wantType:  MultipleChoice,
			canonical: []string{"A", "B", "C", "D"},
			correct:   1,
		},
		{
			name:      "select multiple with no incorrect choices",
			payload:   `{"type":"select-multiple","question":"Q","correctChoices":["X","Y"],"incorrectChoices":[]}`,
			wantType:  SelectMultiple,
			canonical: []string{"X", "Y"},
			correct:   2,
		},
		{
			name:     "free response",
			payload:  `{"type":"free-response","question":"Why?","response":"Because."}`,
			wantType: FreeResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var content ExerciseContent
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &content))

			assert.Equal(t, tt.wantType, content.Type)
			assert.Equal(t, tt.canonical, content.CanonicalChoices())
			assert.Equal(t, tt.correct, content.CorrectCount())

			encoded, err := json.Marshal(content)
			require.NoError(t, err)
			assert.JSONEq(t, tt.payload, string(encoded))
		})
	}
}

func TestExerciseContent_UnknownType(t *testing.T) {
	var content ExerciseContent
	err := json.Unmarshal([]byte(`{"type":"essay","question":"Q"}`), &content)
	assert.True(t, errors.Is(err, ErrUnknownExerciseType))
}

func TestIsContentDecodeError(t *testing.T) {
	var content ExerciseContent
	assert.True(t, IsContentDecodeError(json.Unmarshal([]byte(`{"type":"essay"}`), &content)))
	assert.True(t, IsContentDecodeError(json.Unmarshal([]byte(`{"type":"multiple-choice","question":5}`), &content)))
	assert.True(t, IsContentDecodeError(fmt.Errorf("scan: %w", json.Unmarshal([]byte(`{`), &content))))
	assert.False(t, IsContentDecodeError(errors.New("connection refused")))
}

func TestExerciseContent_MarshalNormalizesNilSlices(t *testing.T) {
	encoded, err := json.Marshal(NewSelectMultiple("Q", []string{"A"}, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"select-multiple","question":"Q","correctChoices":["A"],"incorrectChoices":[]}`, string(encoded))
}

func TestExercise_ContentColumnRoundTrip(t *testing.T) {
	exercise := Exercise{Content: datatypes.NewJSONType(NewMultipleChoice("Q", "A", "B"))}

	value, err := exercise.Content.Value()
	require.NoError(t, err)

	var scanned datatypes.JSONType[ExerciseContent]
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, []string{"A", "B"}, scanned.Data().CanonicalChoices())
	assert.Equal(t, "Q", scanned.Data().Question())
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		typ      ExerciseType
		raw      string
		want     ResponseValue
		wantFail bool
	}{
		{name: "choice", typ: MultipleChoice, raw: `2`, want: NewChoiceResponse(2)},
		{name: "choice as whole float", typ: MultipleChoice, raw: `1.0`, want: NewChoiceResponse(1)},
		{name: "negative choice", typ: MultipleChoice, raw: `-1`, wantFail: true},
		{name: "fractional choice", typ: MultipleChoice, raw: `1.5`, wantFail: true},
		{name: "choice as string", typ: MultipleChoice, raw: `"1"`, wantFail: true},
		{name: "choice as array", typ: MultipleChoice, raw: `[1]`, wantFail: true},
		{name: "choices", typ: SelectMultiple, raw: `[0, 3]`, want: NewChoicesResponse(0, 3)},
		{name: "empty choices", typ: SelectMultiple, raw: `[]`, want: NewChoicesResponse()},
		{name: "duplicate choices", typ: SelectMultiple, raw: `[1,1]`, wantFail: true},
		{name: "choices with string", typ: SelectMultiple, raw: `[1,"2"]`, wantFail: true},
		{name: "choices as number", typ: SelectMultiple, raw: `1`, wantFail: true},
		{name: "text", typ: FreeResponse, raw: `"hello"`, want: NewTextResponse("hello")},
		{name: "empty text", typ: FreeResponse, raw: `""`, wantFail: true},
		{name: "text at limit", typ: FreeResponse, raw: `"` + strings.Repeat("a", 500) + `"`, wantFail: true},
		{name: "text as number", typ: FreeResponse, raw: `5`, wantFail: true},
		{name: "unknown type", typ: ExerciseType("essay"), raw: `"x"`, wantFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.typ, json.RawMessage(tt.raw))
			if tt.wantFail {
				var ve apperrors.ValidationErrors
				assert.True(t, errors.As(err, &ve), "expected validation errors, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResponse_LongestAcceptedText(t *testing.T) {
	text := strings.Repeat("é", MaxFreeResponseLength-1)
	raw, err := json.Marshal(text)
	require.NoError(t, err)

	got, err := ParseResponse(FreeResponse, raw)
	require.NoError(t, err)
	assert.Equal(t, text, got.Text)
}

func TestResponseValue_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewChoiceResponse(3))
	require.NoError(t, err)
	assert.Equal(t, `3`, string(b))

	b, err = json.Marshal(ResponseValue{Type: SelectMultiple})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	b, err = json.Marshal(NewTextResponse("hi"))
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(b))
}

func TestPodcast_LevelList(t *testing.T) {
	p := Podcast{Levels: datatypes.JSON(`["beginner","advanced"]`)}
	assert.Equal(t, []string{"beginner", "advanced"}, p.LevelList())

	p.Levels = datatypes.JSON(`not json`)
	assert.Nil(t, p.LevelList())
}
