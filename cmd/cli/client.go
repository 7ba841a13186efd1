package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
)

// errUnhealthy marks a check that ran but found a problem.
var errUnhealthy = errors.New("integrity check failed")

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(opts *options) *client {
	return &client{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		http:    &http.Client{Timeout: opts.timeout},
	}
}

// do sends a request and decodes a JSON body into out. Any status in
// accept is treated as success; other statuses are turned into errors
// built from the API's error response.
func (c *client) do(ctx context.Context, method, path string, query url.Values, out any, accept ...int) (int, []byte, error) {
	u := c.baseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	if len(accept) == 0 {
		accept = []int{http.StatusOK}
	}

	ok := false
	for _, code := range accept {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return resp.StatusCode, body, fmt.Errorf("%s (%d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return resp.StatusCode, body, fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return resp.StatusCode, body, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, body, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return resp.StatusCode, body, nil
}
