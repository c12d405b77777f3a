// Package localllm adapts an OpenAI-compatible chat completions server
// (LM Studio, llama.cpp, Ollama) to the adk model.LLM interface.
package localllm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const defaultTimeout = 2 * time.Minute

// Config holds configuration for the local LLM.
type Config struct {
	// BaseURL is the base URL of the local LLM server (e.g., "http://localhost:1234")
	BaseURL string
	// Model is the model name to use
	Model string
	// MaxTokens caps the completion length; zero leaves it to the server
	MaxTokens int
	// HTTPClient overrides the default client with a two minute timeout
	HTTPClient *http.Client
}

// LocalLLM implements model.LLM for OpenAI-compatible local LLM servers.
type LocalLLM struct {
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

var _ model.LLM = (*LocalLLM)(nil)

// New creates a new LocalLLM instance.
func New(cfg Config) *LocalLLM {
	name := cfg.Model
	if name == "" {
		name = "local-model"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &LocalLLM{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		model:     name,
		maxTokens: cfg.MaxTokens,
		client:    client,
	}
}

// Name implements model.LLM.
func (l *LocalLLM) Name() string {
	return l.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int32 `json:"prompt_tokens"`
		CompletionTokens int32 `json:"completion_tokens"`
		TotalTokens      int32 `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateContent implements model.LLM. Responses are never streamed; the
// sequence yields exactly one response or one error.
func (l *LocalLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := l.complete(ctx, req)
		yield(resp, err)
	}
}

func (l *LocalLLM) complete(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	chatReq := chatRequest{
		Model:     l.model,
		Messages:  toMessages(req),
		MaxTokens: l.maxTokens,
	}
	if req.Config != nil {
		chatReq.Temperature = req.Config.Temperature
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("LLM request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &model.LLMResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     chatResp.Usage.PromptTokens,
			CandidatesTokenCount: chatResp.Usage.CompletionTokens,
			TotalTokenCount:      chatResp.Usage.TotalTokens,
		},
	}
	if len(chatResp.Choices) > 0 {
		out.Content = genai.NewContentFromText(chatResp.Choices[0].Message.Content, genai.RoleModel)
	}
	return out, nil
}

// toMessages flattens the system instruction and text contents into chat
// messages. Non-text parts are ignored.
func toMessages(req *model.LLMRequest) []chatMessage {
	var messages []chatMessage

	if req.Config != nil && req.Config.SystemInstruction != nil {
		if text := partsText(req.Config.SystemInstruction.Parts); text != "" {
			messages = append(messages, chatMessage{Role: "system", Content: text})
		}
	}

	for _, content := range req.Contents {
		if content == nil {
			continue
		}
		role := "user"
		if content.Role == string(genai.RoleModel) {
			role = "assistant"
		}
		if text := partsText(content.Parts); text != "" {
			messages = append(messages, chatMessage{Role: role, Content: text})
		}
	}
	return messages
}

func partsText(parts []*genai.Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
