package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"passageai/internal/config"
)

// Provider represents a logical LLM provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// Generator turns a complete prompt into the model's text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewClientFromConfig constructs the Generator for the configured default
// provider. It is called once at startup and the result is shared by all
// requests.
func NewClientFromConfig(ctx context.Context, cfg *config.Config) (Generator, Provider, string, error) {
	prov := Provider(cfg.LLM.DefaultProvider)

	switch prov {
	case ProviderOpenAI:
		openaiCfg := cfg.LLM.OpenAI
		if openaiCfg.APIKey == "" || openaiCfg.Model == "" {
			return nil, prov, openaiCfg.Model, errors.New("openai llm provider is not fully configured")
		}
		return &openAIClient{
			apiKey:  openaiCfg.APIKey,
			baseURL: openaiCfg.BaseURL,
			model:   openaiCfg.Model,
			http:    &http.Client{},
		}, prov, openaiCfg.Model, nil
	case ProviderAnthropic:
		anthCfg := cfg.LLM.Anthropic
		if anthCfg.APIKey == "" || anthCfg.Model == "" {
			return nil, prov, anthCfg.Model, errors.New("anthropic llm provider is not fully configured")
		}
		return &anthropicClient{
			apiKey:  anthCfg.APIKey,
			baseURL: anthCfg.BaseURL,
			model:   anthCfg.Model,
			http:    &http.Client{},
		}, prov, anthCfg.Model, nil
	case ProviderGoogle:
		googleCfg := cfg.LLM.Google
		if googleCfg.APIKey == "" || googleCfg.Model == "" {
			return nil, prov, googleCfg.Model, errors.New("google llm provider is not fully configured")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  googleCfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, prov, googleCfg.Model, fmt.Errorf("failed to create genai client: %w", err)
		}
		return &googleClient{client: client, model: googleCfg.Model}, prov, googleCfg.Model, nil
	default:
		return nil, prov, "", fmt.Errorf("unsupported llm provider: %s", cfg.LLM.DefaultProvider)
	}
}

// googleClient implements Generator using the Gemini API SDK.
type googleClient struct {
	client *genai.Client
	model  string
}

func (c *googleClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("google generateContent failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("google generateContent returned no candidates")
	}
	return resp.Text(), nil
}

// openAIClient implements Generator using OpenAI-compatible Chat Completions.
type openAIClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := openAIChatRequest{
		Model: c.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	endpoint := strings.TrimRight(c.baseURL, "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}
	endpoint = endpoint + "/chat/completions"

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var parsed openAIChatResponse
	if err := postJSON(ctx, c.http, endpoint, headers, body, &parsed, "openai chat completion"); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// anthropicClient implements Generator using Anthropic's Messages API.
type anthropicClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string                 `json:"role"`
	Content []anthropicTextContent `json:"content"`
}

type anthropicTextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessagesResponse struct {
	Content []anthropicTextContent `json:"content"`
}

func (c *anthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := anthropicMessagesRequest{
		Model:     c.model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{
				Role:    "user",
				Content: []anthropicTextContent{{Type: "text", Text: prompt}},
			},
		},
	}

	endpoint := strings.TrimRight(c.baseURL, "/")
	if endpoint == "" {
		endpoint = "https://api.anthropic.com/v1"
	}
	endpoint = endpoint + "/messages"

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var parsed anthropicMessagesResponse
	if err := postJSON(ctx, c.http, endpoint, headers, body, &parsed, "anthropic messages request"); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", errors.New("anthropic messages returned no content")
	}

	var sb strings.Builder
	for _, part := range parsed.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, body, out any, op string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// defaultTimeout converts the configured timeout; zero disables it.
func defaultTimeout(cfg *config.Config) time.Duration {
	if cfg.LLM.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
}
