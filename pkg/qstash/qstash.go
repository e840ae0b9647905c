package qstash

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultURL = "https://qstash.upstash.io"

type Config struct {
	URL         string        `split_words:"true" default:"https://qstash.upstash.io"`
	Token       string        `split_words:"true"`
	Destination string        `split_words:"true"`
	Retries     int           `split_words:"true" default:"3"`
	Timeout     time.Duration `split_words:"true" default:"10s"`
}

// Enabled reports whether publishing is configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.Destination) != ""
}

type Client struct {
	http    *resty.Client
	retries int
}

// PublishResponse is the body QStash returns for an accepted message.
type PublishResponse struct {
	MessageID    string `json:"messageId"`
	Deduplicated bool   `json:"deduplicated,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

type PublishOption func(*resty.Request)

// WithDeduplicationID lets QStash drop repeated publishes of the same message.
func WithDeduplicationID(id string) PublishOption {
	return func(r *resty.Request) {
		if id = strings.TrimSpace(id); id != "" {
			r.SetHeader("Upstash-Deduplication-Id", id)
		}
	}
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = defaultURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("qstash token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: httpClient, retries: retries}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Publish hands body to QStash for delivery to destination. Delivery retries
// are QStash's job; this call only fails when the message was not accepted.
func (c *Client) Publish(ctx context.Context, destination string, body any, opts ...PublishOption) (PublishResponse, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return PublishResponse{}, errors.New("qstash destination is required")
	}

	var (
		out    PublishResponse
		apiErr apiError
	)
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Upstash-Retries", strconv.Itoa(c.retries)).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := req.Post("/v2/publish/" + destination)
	if err != nil {
		return PublishResponse{}, fmt.Errorf("qstash publish: %w", err)
	}
	if resp.IsError() {
		msg := strings.TrimSpace(apiErr.Error)
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return PublishResponse{}, fmt.Errorf("qstash publish: status=%d: %s", resp.StatusCode(), msg)
	}
	return out, nil
}
