// Package grader talks to the external model that judges free-text answers.
package grader

import (
	"context"
	"errors"
	"fmt"
)

// ErrMalformedVerdict means the grader answered but not with a usable verdict.
var ErrMalformedVerdict = errors.New("grader returned a malformed verdict")

// Request carries everything the grader needs to judge one answer.
type Request struct {
	Question    string
	ModelAnswer string
	Response    string
	Language    string
	Level       string
}

// Verdict is the grader's decision.
type Verdict struct {
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
}

// FreeResponseGrader judges a learner's free-text answer against a model answer.
type FreeResponseGrader interface {
	Grade(ctx context.Context, req *Request) (*Verdict, error)
}

// APIError is a non-200 reply from the grading endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}
