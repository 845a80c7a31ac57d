// Package narrative turns the deterministic analysis profiles into a
// human-readable summary via an OpenAI-compatible chat API. The stage
// is strictly additive: every failure collapses to a typed outcome and
// the pipeline result stays valid without it.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/models"
)

// Outcome classifies how the narrative stage ended. Anything other
// than OutcomeOK means the result carries no narrative fields.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeCredentialMissing Outcome = "credential-missing"
	OutcomeMalformedResponse Outcome = "malformed-response"
	OutcomeTransportFailure  Outcome = "transport-failure"
)

// Generation parameters. Temperature is kept low so repeated runs over
// the same profiles produce near-identical narratives.
const (
	temperature = 0.1
	maxTokens   = 3000
)

// Narrative is the parsed model output.
type Narrative struct {
	Summary            string                  `json:"summary"`
	Recommendations    []models.Recommendation `json:"recommendations"`
	CompetitiveSummary string                  `json:"competitive_summary"`
}

// Client is a lightweight OpenAI-compatible chat client. It uses
// net/http directly — no third-party SDK needed.
type Client struct {
	cfg        config.NarrativeConfig
	httpClient *http.Client
}

// NewClient creates a narrative client. Pass a nil http.Client to use
// a default one.
func NewClient(cfg config.NarrativeConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// chatRequest is the OpenAI chat completion request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the minimal chat completion response we need.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatErrorResponse captures an API error from the provider.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces the narrative for a completed analysis. A missing
// credential is a quiet no-op; transport and parse failures are
// reported through the outcome plus a typed error for logging.
func (c *Client) Generate(ctx context.Context, pageURL string, seo *models.SeoReport, tech *models.TechProfile, comp *models.CompetitiveProfile) (*Narrative, Outcome, error) {
	if c.cfg.APIKey == "" {
		return nil, OutcomeCredentialMissing, nil
	}

	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(pageURL, seo, tech, comp)},
	}

	raw, err := c.complete(ctx, messages)
	if err != nil {
		return nil, OutcomeTransportFailure, err
	}

	narrative, parseErr := parseNarrative(raw)
	if parseErr == nil {
		return narrative, OutcomeOK, nil
	}

	// One corrective retry: replay the conversation with the bad answer
	// and ask for JSON only.
	slog.Warn("narrative response not valid JSON, retrying once", "error", parseErr)
	messages = append(messages,
		chatMessage{Role: "assistant", Content: raw},
		chatMessage{Role: "user", Content: "Your response was not valid JSON. Return ONLY the JSON object, no other text."},
	)
	raw, err = c.complete(ctx, messages)
	if err != nil {
		return nil, OutcomeTransportFailure, err
	}
	narrative, parseErr = parseNarrative(raw)
	if parseErr != nil {
		return nil, OutcomeMalformedResponse,
			models.NewAnalysisError(models.ErrCodeNarrativeFailure, "narrative output is not valid JSON after retry", parseErr)
	}
	return narrative, OutcomeOK, nil
}

// complete sends one chat completion round-trip and returns the raw
// assistant message content.
func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeNarrativeFailure, "narrative request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeNarrativeFailure, "failed to read narrative response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyAPIError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewAnalysisError(models.ErrCodeNarrativeFailure, "failed to parse narrative response", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", models.NewAnalysisError(models.ErrCodeNarrativeFailure, "narrative API returned no choices", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseNarrative strips optional markdown fences and unmarshals the
// payload. A payload without a summary counts as malformed.
func parseNarrative(raw string) (*Narrative, error) {
	content := stripFences(raw)

	var n Narrative
	if err := json.Unmarshal([]byte(content), &n); err != nil {
		return nil, err
	}
	if n.Summary == "" {
		return nil, fmt.Errorf("narrative payload has no summary")
	}
	if n.Recommendations == nil {
		n.Recommendations = []models.Recommendation{}
	}
	return &n, nil
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// classifyAPIError maps HTTP status codes to typed error codes.
func classifyAPIError(statusCode int, body []byte) *models.AnalysisError {
	var errResp chatErrorResponse
	msg := "narrative API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return models.NewAnalysisError(models.ErrCodeNarrativeAuthFailure, msg, nil)
	case http.StatusTooManyRequests:
		return models.NewAnalysisError(models.ErrCodeNarrativeRateLimited, msg, nil)
	}
	return models.NewAnalysisError(models.ErrCodeNarrativeFailure,
		fmt.Sprintf("narrative API returned %d: %s", statusCode, msg), nil)
}
