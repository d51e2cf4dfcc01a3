package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"live-quiz-service/internal/domain"
)

// Generator drafts quiz questions from a topic string through an
// OpenAI-compatible chat-completions endpoint. Drafts are never written to
// the bank here; the admin reviews and commits them through the normal
// create flow.
type Generator struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

func NewGenerator(apiKey, apiURL, model string) *Generator {
	return &Generator{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
	}
}

func (g *Generator) IsAvailable() bool {
	return g.apiKey != "" && g.apiURL != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type draftQuestion struct {
	Question string `json:"question"`
	Answers  []struct {
		Key  int    `json:"key"`
		Text string `json:"text"`
	} `json:"answers"`
	RightAnswer int `json:"rightAnswer"`
}

const systemPrompt = `You are a quiz question generator. The user will give you a topic. Respond with ONLY valid JSON (no markdown, no code fences, no explanations) in this format:

{
  "question": "A single, clear multiple-choice question about the topic?",
  "answers": [
    {"key": 1, "text": "First option"},
    {"key": 2, "text": "Second option"},
    {"key": 3, "text": "Third option"},
    {"key": 4, "text": "Fourth option"}
  ],
  "rightAnswer": 2
}

Rules:
- Exactly four answers with keys 1, 2, 3, 4
- rightAnswer must be the key of the single correct option
- Make the question factually accurate and the wrong options plausible
- Return ONLY the JSON object, nothing else`

// Draft asks the model for one question about topic. The returned question
// has no ID or creation timestamp; those are assigned when the admin commits.
func (g *Generator) Draft(ctx context.Context, topic string) (domain.Question, error) {
	if !g.IsAvailable() {
		return domain.Question{}, fmt.Errorf("question generation is not configured")
	}

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Generate one multiple-choice quiz question about: %s", topic)},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.Question{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.Question{}, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Question{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Question{}, fmt.Errorf("generation API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return domain.Question{}, fmt.Errorf("parse API response: %w", err)
	}
	if chatResp.Error != nil {
		return domain.Question{}, fmt.Errorf("generation API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return domain.Question{}, fmt.Errorf("empty response from model")
	}

	content := cleanJSONContent(chatResp.Choices[0].Message.Content)
	var draft draftQuestion
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return domain.Question{}, fmt.Errorf("model returned invalid JSON: %w", err)
	}

	q := domain.Question{
		Text:           draft.Question,
		RightAnswerKey: draft.RightAnswer,
	}
	for _, a := range draft.Answers {
		q.Options = append(q.Options, domain.Option{Key: a.Key, Text: a.Text})
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, fmt.Errorf("model returned a malformed question: %w", err)
	}
	return q, nil
}

func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	}
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}
