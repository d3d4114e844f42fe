// Package objstore provides a client for the blob staging service used to
// hold rasterized page images during OCR.
package objstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines blob staging operations.
type Client interface {
	// Put uploads a blob and returns its publicly fetchable URL.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Delete removes a staged blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, key string) error
}

// Option configures the objstore client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	bucket  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new blob staging client.
func NewClient(apiKey, bucket string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		bucket:  bucket,
		baseURL: "https://blobs.ascentvc.dev",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type putResponse struct {
	URL string `json:"url"`
}

func (c *httpClient) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", eris.Wrap(err, "objstore: create put request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "objstore: put %s", key)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "objstore: read put response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", eris.Errorf("objstore: put %s returned %d: %s", key, resp.StatusCode, string(body))
	}

	var pr putResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", eris.Wrap(err, "objstore: unmarshal put response")
	}
	if pr.URL == "" {
		// Service omits the URL for overwrites; derive it from the key.
		return reqURL, nil
	}
	return pr.URL, nil
}

func (c *httpClient) Delete(ctx context.Context, key string) error {
	reqURL := fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return eris.Wrap(err, "objstore: create delete request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "objstore: delete %s", key)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNoContent &&
		resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(resp.Body)
		return eris.Errorf("objstore: delete %s returned %d: %s", key, resp.StatusCode, string(body))
	}

	return nil
}
