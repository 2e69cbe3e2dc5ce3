package grader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const systemPrompt = `You grade short written answers from language learners.
Reply with a single JSON object and nothing else: {"isCorrect": boolean, "feedback": string}.
The answer is correct when it conveys the meaning of the model answer, even with minor mistakes.
Write the feedback in %s, adapted to a %s learner, in at most two sentences.`

const userPrompt = `Question: %s
Model answer: %s
Learner answer: %s`

// OpenAIGrader grades through an OpenAI-compatible chat completions API
type OpenAIGrader struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI grader
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // default: https://api.openai.com
	Model      string // default: gpt-4o-mini
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewOpenAIGrader(cfg OpenAIConfig) *OpenAIGrader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = newHTTPClient(cfg.Timeout)
	}

	return &OpenAIGrader{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 5,
		ForceAttemptHTTP2:   true,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (g *OpenAIGrader) Grade(ctx context.Context, req *Request) (*Verdict, error) {
	body, err := json.Marshal(g.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMalformedVerdict, err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedVerdict)
	}

	return ParseVerdict(chatResp.Choices[0].Message.Content)
}

func (g *OpenAIGrader) buildRequest(req *Request) *chatRequest {
	language := req.Language
	if language == "" {
		language = "English"
	}
	level := req.Level
	if level == "" {
		level = "intermediate"
	}

	return &chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, language, level)},
			{Role: "user", Content: fmt.Sprintf(userPrompt, req.Question, req.ModelAnswer, req.Response)},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}
}

// ParseVerdict decodes the model output. Both fields must be present with
// the right types.
func ParseVerdict(content string) (*Verdict, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw struct {
		IsCorrect *bool   `json:"isCorrect"`
		Feedback  *string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if raw.IsCorrect == nil || raw.Feedback == nil {
		return nil, fmt.Errorf("%w: missing isCorrect or feedback", ErrMalformedVerdict)
	}

	return &Verdict{IsCorrect: *raw.IsCorrect, Feedback: *raw.Feedback}, nil
}
