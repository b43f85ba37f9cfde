package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// speechClient speaks the Google Cloud Text-to-Speech REST API.
type speechClient struct {
	rest     *restClient
	endpoint string
	apiKey   string
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
		SsmlGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// NewSpeaker authenticates with the API key when one is set and otherwise with
// application default credentials.
func NewSpeaker(ctx context.Context, endpoint, apiKey string, timeout time.Duration) (Speaker, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("speech: %w", ErrNotConfigured)
	}

	var httpClient *http.Client
	if apiKey == "" {
		client, err := google.DefaultClient(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("speech: %w: %v", ErrNotConfigured, err)
		}
		httpClient = client
	}

	return newSpeechClient(endpoint, apiKey, timeout, httpClient), nil
}

func newSpeechClient(endpoint, apiKey string, timeout time.Duration, httpClient *http.Client) *speechClient {
	return &speechClient{
		rest:     newRESTClient("speech", httpClient, timeout),
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (c *speechClient) Speak(ctx context.Context, text, lang string) ([]byte, error) {
	code, err := SpeechLanguage(lang)
	if err != nil {
		return nil, err
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = code
	reqBody.Voice.Name = code + "-Standard-A"
	reqBody.Voice.SsmlGender = "NEUTRAL"
	reqBody.AudioConfig.AudioEncoding = "MP3"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint, err := withKey(c.endpoint, c.apiKey)
	if err != nil {
		return nil, err
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
		return nil, err
	}

	var resp synthesizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse speech response: %w", err)
	}
	if resp.AudioContent == "" {
		return nil, ErrEmptyResponse
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	return audio, nil
}
