// Package canvas uploads rendered questions to a Canvas LMS question bank.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/abhisek/quizmaker/internal/config"
)

// Config holds the connection settings for a Canvas instance.
type Config struct {
	BaseURL  string
	CourseID string
	Token    string
	Timeout  time.Duration
	Retry    config.RetryConfig
}

// ConfigFrom converts the application configuration.
func ConfigFrom(c config.CanvasConfig) Config {
	return Config{
		BaseURL:  c.BaseURL,
		CourseID: c.CourseID,
		Token:    c.Token,
		Timeout:  c.Timeout,
		Retry:    c.Retry,
	}
}

// Client talks to the Canvas REST API with a static bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	retry   config.RetryConfig
}

// New returns a Client for cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("canvas: base URL is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("canvas: token is required")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = cfg.Timeout
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		retry:   cfg.Retry,
	}, nil
}

// BankExists checks that the question bank is reachable with this token.
func (c *Client) BankExists(ctx context.Context, bankID int64) error {
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/assessment_question_banks/%d", bankID), nil)
	if err != nil {
		return fmt.Errorf("cannot access question bank %d: %w", bankID, err)
	}
	return nil
}

// CreateQuestion adds q to the question bank.
func (c *Client) CreateQuestion(ctx context.Context, bankID int64, q Question) error {
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/v1/assessment_question_banks/%d/questions", bankID), q.Values())
	return err
}

// do sends one request with retries and returns the response body. GETs
// retry on any transient failure; other methods only on 429, so a question
// is never created twice.
func (c *Client) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	retryable := rateLimited
	if method == http.MethodGet {
		retryable = shouldRetry
	}
	var body []byte
	err := retry(ctx, c.retry, retryable, func() error {
		var err error
		body, err = c.once(ctx, method, path, form)
		return err
	})
	return body, err
}

func (c *Client) once(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ErrUnavailable{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &ErrUnavailable{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ErrStatus{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return data, nil
}

// parseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
