package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"battle-pass-service/utils"
)

// envelope is the response wrapper shared by the platform services.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// serviceCaller performs authenticated JSON calls to another platform service.
type serviceCaller struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// do sends the request and returns the status, the decoded envelope and the raw body.
// Only transport failures are returned as errors; callers classify statuses themselves.
func (c *serviceCaller) do(ctx context.Context, method, path string, body any, headers map[string]string) (int, *envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if id := utils.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(utils.RequestIDHeader, id)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			env.Message = string(raw)
		}
	}
	return resp.StatusCode, &env, nil
}

func (e *envelope) describe(status int) string {
	switch {
	case e == nil:
		return http.StatusText(status)
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return http.StatusText(status)
	}
}
