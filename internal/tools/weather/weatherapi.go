package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 512

// APIProvider reads current conditions from weatherapi.com.
type APIProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewAPIProvider creates a weatherapi.com client. A nil client uses
// http.DefaultClient; deadlines come from the caller's context.
func NewAPIProvider(baseURL, apiKey string, client *http.Client) *APIProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

type currentResponse struct {
	Current map[string]any `json:"current"`
}

// Current calls GET /v1/current.json and returns its "current" object.
func (p *APIProvider) Current(ctx context.Context, city string) (map[string]any, error) {
	reqURL, err := p.buildRequestURL(city)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redactKey(err, p.apiKey))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Current == nil {
		return nil, fmt.Errorf("response has no current conditions")
	}

	return parsed.Current, nil
}

func (p *APIProvider) buildRequestURL(city string) (string, error) {
	u, err := url.Parse(p.baseURL + "/v1/current.json")
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("key", p.apiKey)
	q.Set("q", city)
	q.Set("aqi", "no")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// redactKey strips the API key from the URL quoted by transport errors.
func redactKey(err error, key string) error {
	var ue *url.Error
	if key != "" && errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, url.QueryEscape(key), "REDACTED")
	}
	return err
}
