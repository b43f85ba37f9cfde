package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// captionClient calls a hosted image-to-text model (BLIP on the Hugging Face
// inference API by default).
type captionClient struct {
	rest     *restClient
	endpoint string
	token    string
}

type captionResult struct {
	GeneratedText string `json:"generated_text"`
}

func NewCaptioner(endpoint, token string, timeout time.Duration, httpClient *http.Client) (Captioner, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("caption: %w", ErrNotConfigured)
	}

	return &captionClient{
		rest:     newRESTClient("caption", httpClient, timeout),
		endpoint: endpoint,
		token:    token,
	}, nil
}

func (c *captionClient) Caption(ctx context.Context, image []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body, err := c.rest.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(image))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var results []captionResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("failed to parse caption response: %w", err)
	}
	if len(results) == 0 || strings.TrimSpace(results[0].GeneratedText) == "" {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(results[0].GeneratedText), nil
}
