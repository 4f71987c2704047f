// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     answer
// Description: Local answer backend talking to the Ollama REST API
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig holds Ollama backend configuration
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// DefaultOllamaConfig returns default Ollama configuration
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		BaseURL:     "http://localhost:11434",
		Model:       "llama3.2",
		Timeout:     60 * time.Second,
		Temperature: 0.6,
	}
}

// OllamaBackend answers with a locally running model
type OllamaBackend struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewOllamaBackend creates a new Ollama backend
func NewOllamaBackend(cfg OllamaConfig) *OllamaBackend {
	def := DefaultOllamaConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}

	return &OllamaBackend{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Name returns the backend name
func (b *OllamaBackend) Name() string {
	return "ollama/" + b.model
}

// Complete sends the conversation to /api/chat without streaming
func (b *OllamaBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	req := ollamaChatRequest{
		Model:    b.model,
		Messages: make([]ollamaMessage, len(messages)),
		Stream:   false,
		Options:  map[string]any{"temperature": b.temperature},
	}
	for i, m := range messages {
		req.Messages[i] = ollamaMessage{Role: string(m.Role), Content: m.Content}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// HealthCheck checks that Ollama is reachable and has the model pulled
func (b *OllamaBackend) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama unhealthy: status %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	for _, m := range result.Models {
		if m.Name == b.model || strings.TrimSuffix(m.Name, ":latest") == b.model {
			return nil
		}
	}
	return fmt.Errorf("model %s not pulled (run: ollama pull %s)", b.model, b.model)
}
