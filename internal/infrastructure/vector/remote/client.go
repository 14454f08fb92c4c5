package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/time/rate"

	"memvoice/internal/domain/memory"
)

const DefaultTimeout = 30 * time.Second

var ErrStatus = errors.New("vector service returned error status")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit - запросов в секунду, 0 без ограничения
	RateLimit float64
}

// Client - HTTP клиент внешнего сервиса векторной памяти
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	log     *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("vector service url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("vector service url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		log:     log.With("component", "vector_client"),
	}

	if cfg.RateLimit > 0 {
		burst := max(1, int(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return c, nil
}

type addRequest struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

type addResponse struct {
	Embedding []float32 `json:"embedding,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []struct {
		ID       string         `json:"id"`
		Metadata map[string]any `json:"metadata"`
		Score    float64        `json:"score"`
	} `json:"results"`
}

func (c *Client) Add(ctx context.Context, collection, id, content string, metadata map[string]any) ([]float32, error) {
	var resp addResponse
	err := c.do(ctx, http.MethodPost, c.documentsPath(collection), addRequest{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// Delete - 404 считается успехом: документа уже нет
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	err := c.do(ctx, http.MethodDelete, c.documentsPath(collection)+"/"+url.PathEscape(id), nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) Search(ctx context.Context, collection, query string, limit int) ([]memory.Hit, error) {
	var resp searchResponse
	err := c.do(ctx, http.MethodPost, c.collectionPath(collection)+"/search", searchRequest{
		Query: query,
		Limit: limit,
	}, &resp)
	if err != nil {
		return nil, err
	}

	hits := make([]memory.Hit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, memory.Hit{ID: r.ID, Metadata: r.Metadata, Score: r.Score})
	}
	return hits, nil
}

func (c *Client) collectionPath(collection string) string {
	return "/api/v1/collections/" + url.PathEscape(collection)
}

func (c *Client) documentsPath(collection string) string {
	return c.collectionPath(collection) + "/documents"
}

// StatusError - ответ сервиса с кодом >= 400
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vector service: status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	}

	c.log.Debug("vector request", "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("vector service request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if result != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}
