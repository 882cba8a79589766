// Package platform holds one publish adapter per social platform. Adapters
// are isolated from each other: a failure in one never aborts another.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/markaz-center/markazbot/internal/models"
)

const graphAPIBase = "https://graph.facebook.com/v18.0"

// ErrorKind classifies a publish failure. The scheduler retries all kinds
// alike (the feed is the retry ledger); the kind exists for operator logs.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindRateLimited ErrorKind = "rate_limited"
	KindMediaFetch  ErrorKind = "media_fetch"
	KindRejected    ErrorKind = "rejected"
	KindTransient   ErrorKind = "transient"
)

type PublishError struct {
	Platform models.Platform
	Kind     ErrorKind
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s publish failed (%s): %v", e.Platform, e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

type PublishResult struct {
	PlatformPostID string
}

// Publisher is the capability every platform adapter implements.
type Publisher interface {
	Name() models.Platform
	Publish(ctx context.Context, job models.PostJob) (PublishResult, error)
}

// graphResponse is the envelope the Graph API returns for both success and
// failure.
type graphResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
		Subcode int    `json:"error_subcode"`
	} `json:"error"`
}

// classifyGraphCode maps Graph API error codes onto the failure taxonomy.
func classifyGraphCode(code int) ErrorKind {
	switch code {
	case 102, 190:
		return KindAuth
	case 4, 17, 32, 613:
		return KindRateLimited
	case 1, 2:
		return KindTransient
	default:
		return KindRejected
	}
}

// transportError wraps a request-level failure. Timeouts and network errors
// are retryable by contract, so they all classify as transient.
func transportError(platform models.Platform, err error) *PublishError {
	return &PublishError{Platform: platform, Kind: KindTransient, Err: err}
}

// postGraph sends a JSON POST to a Graph API edge and decodes the envelope.
func postGraph(ctx context.Context, client *http.Client, url string, payload map[string]interface{}) (*graphResponse, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var gr graphResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse response: %w", err)
	}
	return &gr, resp.StatusCode, nil
}

// checkGraph converts a decoded Graph envelope into a typed publish error.
func checkGraph(platform models.Platform, gr *graphResponse, statusCode int) error {
	if gr.Error != nil {
		return &PublishError{
			Platform: platform,
			Kind:     classifyGraphCode(gr.Error.Code),
			Err:      fmt.Errorf("graph error %d: %s", gr.Error.Code, gr.Error.Message),
		}
	}
	if statusCode >= 500 {
		return &PublishError{
			Platform: platform,
			Kind:     KindTransient,
			Err:      fmt.Errorf("unexpected status code %d", statusCode),
		}
	}
	if statusCode != http.StatusOK || gr.ID == "" {
		return &PublishError{
			Platform: platform,
			Kind:     KindRejected,
			Err:      fmt.Errorf("no post id returned (status %d)", statusCode),
		}
	}
	return nil
}
