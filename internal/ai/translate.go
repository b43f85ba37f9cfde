package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"
)

// translateClient speaks the Google Cloud Translation v2 REST API.
type translateClient struct {
	rest     *restClient
	endpoint string
	apiKey   string
}

type translateRequest struct {
	Q      string `json:"q"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

func NewTranslator(endpoint, apiKey string, timeout time.Duration, httpClient *http.Client) (Translator, error) {
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("translate: %w", ErrNotConfigured)
	}

	return &translateClient{
		rest:     newRESTClient("translate", httpClient, timeout),
		endpoint: endpoint,
		apiKey:   apiKey,
	}, nil
}

// Translate auto-detects the source language.
func (c *translateClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	target, err := NormalizeLanguage(targetLang, DefaultTranslateTarget)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(translateRequest{Q: text, Target: target, Format: "text"})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint, err := withKey(c.endpoint, c.apiKey)
	if err != nil {
		return "", err
	}

	body, err := c.rest.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var resp translateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse translate response: %w", err)
	}
	if len(resp.Data.Translations) == 0 {
		return "", ErrEmptyResponse
	}

	return html.UnescapeString(resp.Data.Translations[0].TranslatedText), nil
}

func withKey(endpoint, key string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if key != "" {
		q := u.Query()
		q.Set("key", key)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
