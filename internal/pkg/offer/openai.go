package offer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/Offertly/internal/pkg/env"
)

const openaiURL = "https://api.openai.com/v1/chat/completions"
const defaultOpenAIModel = "gpt-4o-mini"

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// OpenAIClient generates quote text via the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey string
	model  string
	client *http.Client
}

// NewOpenAIClientFromEnv builds a client from OPENAI_API_KEY and
// OPENAI_MODEL. It returns nil when no key is configured, which callers
// treat as "no text generation available".
func NewOpenAIClientFromEnv() *OpenAIClient {
	apiKey := strings.TrimSpace(env.GetEnv("OPENAI_API_KEY", ""))
	if apiKey == "" {
		return nil
	}
	return &OpenAIClient{
		apiKey: apiKey,
		model:  env.GetEnv("OPENAI_MODEL", defaultOpenAIModel),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate sends the system and user instruction and returns the completion.
func (c *OpenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	reqBody := openAIRequest{
		Model:       c.model,
		MaxTokens:   900,
		Temperature: 0.3,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("openai: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("openai: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
