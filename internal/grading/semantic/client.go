// Package semantic implements grading.SemanticEvaluator against a remote
// semantic-evaluation HTTP service. The remote payload is untrusted: every
// shape mismatch is rejected with a distinct error before anything is stored.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/gradeflow/gradeflow/internal/grading"
)

// Error kinds, one per failure mode of the call contract. Wrapped errors
// carry the most specific detail available; match with errors.Is.
var (
	ErrNotAuthenticated = errors.New("semantic evaluation requires an authenticated session")
	ErrUnavailable      = errors.New("semantic evaluation service unavailable")
	ErrServiceReported  = errors.New("semantic evaluation service reported an error")
	ErrEmptyResponse    = errors.New("semantic evaluation service returned no payload")
	ErrMalformedPayload = errors.New("semantic evaluation payload is malformed")
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the external semantic-evaluation service.
type Client struct {
	http *resty.Client
	key  string
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c, key: cfg.APIKey}
}

// rawResponse mirrors the wire shape loosely enough to validate it at
// runtime. Score stays untyped until checked: a string or missing score is a
// malformed payload, not a zero.
type rawResponse struct {
	Score    interface{} `json:"score"`
	Feedback *string     `json:"feedback"`
	Error    string      `json:"error"`
	HowTo    string      `json:"how_to_improve"`
}

func (c *Client) Evaluate(ctx context.Context, req grading.EvalRequest) (grading.EvalResponse, error) {
	var out grading.EvalResponse
	if c.key == "" {
		return out, ErrNotAuthenticated
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.key).
		SetBody(req).
		Post("/evaluate")
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body := resp.Body()
	if len(body) == 0 {
		return out, ErrEmptyResponse
	}
	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// An error field in the payload wins over any success indicator,
	// including a 2xx status.
	if raw.Error != "" {
		return out, fmt.Errorf("%w: %s", ErrServiceReported, raw.Error)
	}
	if resp.IsError() {
		return out, fmt.Errorf("%w: status %d: %s", ErrServiceReported, resp.StatusCode(), strings.TrimSpace(string(body)))
	}

	score, ok := numeric(raw.Score)
	if !ok {
		return out, fmt.Errorf("%w: score is not numeric", ErrMalformedPayload)
	}
	if raw.Feedback == nil {
		return out, fmt.Errorf("%w: feedback is missing", ErrMalformedPayload)
	}

	out.Score = score
	out.Feedback = *raw.Feedback
	out.HowToImprove = raw.HowTo
	out.Raw = json.RawMessage(body)
	return out, nil
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
