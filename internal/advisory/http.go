package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds the body read from the advisory service.
const maxResponseBytes = 1 << 20

// HTTPGenerator posts advisory requests as JSON to a remote service.
type HTTPGenerator struct {
	url    string
	client *http.Client
}

// NewHTTPGenerator creates a generator for the service at url. A nil client
// uses http.DefaultClient; deadlines come from the request context.
func NewHTTPGenerator(url string, client *http.Client) *HTTPGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGenerator{url: url, client: client}
}

// GenerateTips implements Generator.
func (g *HTTPGenerator) GenerateTips(ctx context.Context, req Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("GenerateTips: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("GenerateTips: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("GenerateTips: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, fmt.Errorf("GenerateTips: unexpected status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("GenerateTips: %w: %v", ErrMalformed, err)
	}
	return out, nil
}

var _ Generator = (*HTTPGenerator)(nil)
