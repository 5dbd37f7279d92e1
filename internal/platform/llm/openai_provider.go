package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/apierr"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// OpenAIProvider calls a chat-completions-shaped endpoint. Most OpenAI-
// compatible providers (OpenAI itself, and any "uncensored"/self-hosted
// backend registered under a custom tag) speak this same wire shape, so one
// implementation covers every registered provider; only base URL, API key
// and model differ per Registration.
type OpenAIProvider struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	jsonMode   bool
	httpClient *http.Client
	log        *logger.Logger
}

func NewOpenAIProvider(name, apiKey, model, baseURL string, log *logger.Logger) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	transport := &http.Transport{
		IdleConnTimeout: 30 * time.Second,
		DialContext:     (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
	}
	return &OpenAIProvider{
		name:       name,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Transport: transport},
		log:        log.With("component", "llm.OpenAIProvider", "provider", name),
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	return p.call(ctx, systemPrompt, userPrompt, false)
}

func (p *OpenAIProvider) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	return p.call(ctx, systemPrompt, userPrompt, true)
}

func (p *OpenAIProvider) call(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (Result, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &respFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, apierr.New(0, "transport_error", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, apierr.New(resp.StatusCode, "read_body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, apierr.New(resp.StatusCode, "llm_http_error", fmt.Errorf("%s", string(raw)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, apierr.New(resp.StatusCode, "decode_error", err)
	}
	if parsed.Error != nil {
		return Result{}, apierr.New(resp.StatusCode, parsed.Error.Type, fmt.Errorf("%s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 {
		return Result{}, apierr.New(resp.StatusCode, "empty_completion", fmt.Errorf("no choices returned"))
	}

	return Result{
		Content:      parsed.Choices[0].Message.Content,
		Usage:        Usage{PromptTokens: parsed.Usage.PromptTokens, CompletionTokens: parsed.Usage.CompletionTokens},
		ProviderName: p.name,
	}, nil
}
