// Package llm implements the stage-specific structured-output call layer
//: one function per stage composes a system+stage prompt, attaches a
// JSON schema, calls the provider with a bounded token budget, and retries
// once with a schema-repair instruction on malformed output.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"google.golang.org/genai"
)

// Client wraps the Gemini SDK connection used by every stage engine.
type Client struct {
	genai       *genai.Client
	model       string
	temperature *float32
	mock        bool
}

// NewClient builds a Client from environment configuration, with
// env-var-with-fallback handling for model and temperature settings.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	mock := os.Getenv("LLM_MOCK") == "1"

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	var temperature *float32
	if tempStr := os.Getenv("LLM_TEMPERATURE"); tempStr != "" {
		if temp, err := strconv.ParseFloat(tempStr, 32); err == nil {
			temp32 := float32(temp)
			temperature = &temp32
		}
	}

	if mock {
		slog.Info("llm: LLM_MOCK=1, provider calls bypassed", "model", model)
		return &Client{model: model, temperature: temperature, mock: true}, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}

	slog.Info("llm: client configured", "model", model)
	return &Client{genai: gc, model: model, temperature: temperature}, nil
}

// generate issues one structured-output call and returns the raw JSON text
// the model produced.
func (c *Client) generate(ctx context.Context, stage StageKey, systemPrompt, userPrompt string, maxOutputTokens int32) (string, error) {
	if c.mock {
		return mockFixture(stage, userPrompt), nil
	}

	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   maxOutputTokens,
	}
	if c.temperature != nil {
		cfg.Temperature = c.temperature
	}

	result, err := c.genai.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("llm: empty response from provider")
	}
	return result.Text(), nil
}
