/*
Package gemini is the outbound client for the generative backend. The model
is treated as a black box: one prompt plus an optional system instruction in,
free text out. Transport failures and empty responses both surface as
*OracleError so callers handle a single failure kind.
*/
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

// --- Gemini API Configuration ---
const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/"
	defaultModel   = "gemini-3-pro-preview"
	requestTimeout = 60 * time.Second

	// Fixed generation parameters: moderate randomness, generous output
	// ceiling. Plan generation needs room for the full JSON payload.
	temperature     = 0.7
	maxOutputTokens = 4000
)

// --- Structs for the Gemini API Request/Response ---

type geminiPayload struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// OracleError is the single failure kind the core sees from the backend:
// transport errors, non-success statuses, and empty text payloads.
type OracleError struct {
	Status string // HTTP status line, empty for transport failures
	Body   string // error body from the API, truncated
	Err    error  // underlying transport error, if any
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle request failed: %v", e.Err)
	}
	if e.Status != "" {
		return fmt.Sprintf("oracle returned %s: %s", e.Status, e.Body)
	}
	return "oracle returned an empty response"
}

func (e *OracleError) Unwrap() error { return e.Err }

// IsOracleError reports whether err is (or wraps) an OracleError.
func IsOracleError(err error) bool {
	var oe *OracleError
	return errors.As(err, &oe)
}

// Client calls the generateContent endpoint for a fixed model.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the generation model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL points the client at a different endpoint (tests, proxies).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient reads GEMINI_API_KEY (and optional GEMINI_MODEL) from the
// environment. A missing key is an error at startup rather than at first use.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		c.model = m
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}
	return c, nil
}

// Generate sends one request and returns the raw response text. There is no
// internal retry: a failed call surfaces immediately and the caller decides
// whether to re-invoke. Deadlines come from ctx.
func (c *Client) Generate(ctx context.Context, prompt, systemInstruction string) (string, error) {
	payload := geminiPayload{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}
	if systemInstruction != "" {
		payload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: systemInstruction}},
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.baseURL + c.model + ":generateContent?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("model", c.model).Msg("Calling Gemini API...")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &OracleError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &OracleError{Status: resp.Status, Body: string(body)}
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		if text := geminiResp.Candidates[0].Content.Parts[0].Text; text != "" {
			return text, nil
		}
	}

	return "", &OracleError{}
}
