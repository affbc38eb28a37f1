package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the FCM HTTP v1 API host
const DefaultEndpoint = "https://fcm.googleapis.com"

const sendTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept in Result.Error
const maxErrorBody = 64 << 10

// Sender delivers one message to one device token
type Sender interface {
	Send(ctx context.Context, accessToken, deviceToken string, data map[string]string) Result
}

// HTTPSender posts messages to the FCM HTTP v1 API
type HTTPSender struct {
	httpClient *http.Client
	url        string
}

// NewHTTPSender targets {endpoint}/v1/projects/{projectID}/messages:send.
// An empty endpoint means DefaultEndpoint.
func NewHTTPSender(endpoint, projectID string) *HTTPSender {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPSender{
		httpClient: &http.Client{
			Timeout: sendTimeout,
		},
		url: fmt.Sprintf("%s/v1/projects/%s/messages:send", strings.TrimRight(endpoint, "/"), projectID),
	}
}

func (s *HTTPSender) Send(ctx context.Context, accessToken, deviceToken string, data map[string]string) Result {
	result := Result{Token: deviceToken}

	body, err := json.Marshal(sendRequest{
		Message: message{
			Token:   deviceToken,
			Data:    data,
			Webpush: webpushConfig{Headers: webpushHeaders()},
		},
	})
	if err != nil {
		result.Error = fmt.Sprintf("failed to encode message: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		result.Error = fmt.Sprintf("failed to build request: %v", err)
		return result
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	if resp.StatusCode == http.StatusOK {
		result.Success = true
		return result
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		result.Error = fmt.Sprintf("HTTP %d: failed to read response body: %v", resp.StatusCode, err)
	} else {
		result.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	// 400 and 404 mean the token itself is bad (malformed or unregistered)
	result.Invalid = resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound
	return result
}
