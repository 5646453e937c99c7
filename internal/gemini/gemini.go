// Package gemini calls the generative language generateContent endpoint
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ask-api/internal/metrics"
	"ask-api/internal/shared"
)

type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the pooled default client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, model, apiKey string, opts ...Option) *Client {
	tr := &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).Dial,
		TLSHandshakeTimeout: 5 * time.Second,
		DisableKeepAlives:   false,
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Transport: tr, Timeout: shared.DefaultUpstreamTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateRequest struct {
	Contents json.RawMessage `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

// Generate sends history as the conversation contents and returns the text of
// the first part of the first candidate.
func (c *Client) Generate(ctx context.Context, history json.RawMessage) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, history)
	outcome := "ok"
	switch {
	case errors.Is(err, shared.ErrUpstreamUnavailable):
		outcome = "unavailable"
	case err != nil:
		outcome = "protocol"
	}
	metrics.UpstreamDuration.WithLabelValues(c.model, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ErrorCount.WithLabelValues("upstream_" + outcome).Inc()
	}
	return text, err
}

func (c *Client) generate(ctx context.Context, history json.RawMessage) (string, error) {
	payload, err := json.Marshal(generateRequest{Contents: history})
	if err != nil {
		return "", shared.ErrInternalServerError.WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", shared.ErrInternalServerError.WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", shared.ErrUpstreamUnavailable.WithCause(redactKey(err, c.apiKey))
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", shared.ErrUpstreamUnavailable.WithCause(err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", shared.ErrUpstreamUnavailable.WithCause(
			fmt.Errorf("%d %s", res.StatusCode, http.StatusText(res.StatusCode)),
		)
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", shared.ErrUpstreamProtocol
	}
	if len(out.Candidates) == 0 ||
		len(out.Candidates[0].Content.Parts) == 0 ||
		out.Candidates[0].Content.Parts[0].Text == nil {
		return "", shared.ErrUpstreamProtocol
	}
	return *out.Candidates[0].Content.Parts[0].Text, nil
}

// redactKey keeps the api key out of url.Error messages surfaced to callers
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), url.QueryEscape(key), "REDACTED"))
}
