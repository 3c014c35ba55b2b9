package simulate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/model"
	"github.com/chris-altman/chef-ai-learning-lab/internal/domain/types"
)

// Outcome of one submission.
type Outcome string

// Submission outcomes.
const (
	OutcomeAccepted  Outcome = "accepted"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Client talks to the learning API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Submit posts one feedback event. 4xx answers other than 429 count as
// rejected; transport errors, 429 and 5xx count as failed.
func (c *Client) Submit(ctx context.Context, ev model.FeedbackEvent) Outcome { //nolint:gocritic // hugeParam
	body, err := json.Marshal(ev)
	if err != nil {
		return OutcomeFailed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/learn", bytes.NewReader(body))
	if err != nil {
		return OutcomeFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return OutcomeFailed
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		var ack ackResponse
		if err := json.NewDecoder(resp.Body).Decode(&ack); err == nil && ack.Duplicate {
			return OutcomeDuplicate
		}
		return OutcomeAccepted
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return OutcomeFailed
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return OutcomeRejected
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.get(ctx, "/healthz", &out)
}

// LearningStats fetches GET /api/learning_stats.
func (c *Client) LearningStats(ctx context.Context) (types.LearningStats, error) {
	var out types.LearningStats
	err := c.get(ctx, "/api/learning_stats", &out)
	return out, err
}

// SkillLevel fetches GET /api/skill_level.
func (c *Client) SkillLevel(ctx context.Context) (types.SkillLevel, error) {
	var out types.SkillLevel
	err := c.get(ctx, "/api/skill_level", &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
