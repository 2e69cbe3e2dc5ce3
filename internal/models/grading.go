package models

import (
	"encoding/json"
	"time"
)

// ExerciseResponse is one graded submission. Response and Feedback hold
// display indices for choice exercises.
type ExerciseResponse struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index:idx_exercise_responses_user_exercise"`
	ExerciseID uint      `json:"exercise_id" gorm:"not null;index:idx_exercise_responses_user_exercise;index"`
	Response   RawJSON   `json:"response" gorm:"not null"`
	Score      int       `json:"score" gorm:"not null;default:0"`
	Feedback   RawJSON   `json:"feedback"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ExerciseResponse) TableName() string {
	return "exercise_responses"
}

// GradeResult is returned to the learner after a submission.
// Feedback is null when a choice answer is correct.
type GradeResult struct {
	Score    int             `json:"score"`
	Feedback json.RawMessage `json:"feedback"`
}

func (g GradeResult) IsCorrect() bool {
	return g.Score == 1
}

// FeedbackJSON marshals feedback for storage, keeping nil as SQL NULL.
func FeedbackJSON(feedback interface{}) (RawJSON, error) {
	if feedback == nil {
		return nil, nil
	}
	b, err := json.Marshal(feedback)
	if err != nil {
		return nil, err
	}
	return RawJSON(b), nil
}
