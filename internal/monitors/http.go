package monitors

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/eventease-dev/eventease/internal/types"
)

// GetHTTP checks that an upstream answers. With no expected status any
// response below 500 counts, since AI endpoints reject unauthenticated probes.
func GetHTTP(ctx context.Context, config *types.HttpConfig) error {
	timeout := config.Timeout

	if timeout == 0 {
		timeout = 5
	}

	client := &http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}

	method := config.Method

	if method == "" {
		method = http.MethodHead
	}

	req, err := http.NewRequestWithContext(ctx, method, config.URL, nil)

	if err != nil {
		return err
	}

	for key, value := range config.Headers {
		req.Header.Add(key, value)
	}

	resp, err := client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if config.ExpectedStatus == 0 {
		if resp.StatusCode >= 500 {
			return errors.New("unexpected status code: " + resp.Status)
		}
		return nil
	}

	if resp.StatusCode != config.ExpectedStatus {
		return errors.New("unexpected status code: " + resp.Status)
	}

	return nil
}
