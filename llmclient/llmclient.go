// Package llmclient is the concrete oracle.Caller transport: a single HTTP
// round trip to an Ollama or OpenAI-compatible chat endpoint, grounded on
// diagnostic/llm.go's HTTPClient timeout shape but stripped to the one thing
// the oracle package needs — send a prompt, get back raw text — since retry
// and per-call timeout are already the oracle's concern (oracle.Config).
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider selects the wire format a Client speaks.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai" // also OpenAI-compatible: vLLM, xAI Grok, etc.
)

// Client is a single model endpoint, implementing oracle.Caller.
type Client struct {
	Provider    Provider
	BaseURL     string
	Model       string
	Temperature float64
	APIKey      string
	HTTPClient  *http.Client
}

// New builds a Client. provider, baseURL, and model come from CLI flags;
// apiKey is read from the environment, which the root command's
// PersistentPreRun fills from the .env file (godotenv, see package
// analytics) after flag parsing and before the subcommand runs.
func New(provider Provider, baseURL, model, apiKey string, temperature float64, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		Provider:    provider,
		BaseURL:     baseURL,
		Model:       model,
		Temperature: temperature,
		APIKey:      apiKey,
		HTTPClient:  httpClient,
	}
}

// Invoke implements oracle.Caller.
func (c *Client) Invoke(ctx context.Context, prompt string) (string, error) {
	switch c.Provider {
	case ProviderOllama:
		return c.callOllama(ctx, prompt)
	case ProviderOpenAI:
		return c.callOpenAI(ctx, prompt)
	default:
		return "", fmt.Errorf("llmclient: unsupported provider %q", c.Provider)
	}
}

func (c *Client) callOllama(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model":  c.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": c.Temperature,
		},
	}
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.post(ctx, c.BaseURL+"/api/generate", body, nil, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (c *Client) callOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": c.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.APIKey}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, c.BaseURL+"/chat/completions", body, headers, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]interface{}, headers map[string]string, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("llmclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("llmclient: model returned status %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("llmclient: decode response: %w", err)
	}
	return nil
}
