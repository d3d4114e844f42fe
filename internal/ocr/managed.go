package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/ascentvc/diligence-cli/internal/config"
)

const defaultManagedEndpoint = "https://api.docparse.dev/v1"

// ManagedOCR extracts text through an asynchronous document OCR service.
// Documents are submitted as one operation and polled until completion.
type ManagedOCR struct {
	apiKey      string
	baseURL     string
	pollEvery   time.Duration
	pollTimeout time.Duration
	limiter     *rate.Limiter
	client      *http.Client
}

// NewManagedOCR creates a ManagedOCR client from config.
func NewManagedOCR(cfg config.OCRConfig) *ManagedOCR {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultManagedEndpoint
	}
	pollEvery := time.Duration(cfg.PollSecs) * time.Second
	if pollEvery <= 0 {
		pollEvery = 3 * time.Second
	}
	pollTimeout := time.Duration(cfg.PollTimeout) * time.Second
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Minute
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}

	return &ManagedOCR{
		apiKey:      cfg.Key,
		baseURL:     strings.TrimRight(baseURL, "/"),
		pollEvery:   pollEvery,
		pollTimeout: pollTimeout,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type submitRequest struct {
	Document submitDocument `json:"document"`
}

type submitDocument struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type submitResponse struct {
	OperationID string `json:"operation_id"`
}

type operationResponse struct {
	Status string          `json:"status"`
	Error  string          `json:"error,omitempty"`
	Pages  []operationPage `json:"pages,omitempty"`
}

type operationPage struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ExtractText submits the PDF for OCR and polls until the operation
// completes or the poll timeout elapses.
func (m *ManagedOCR) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read PDF %s", pdfPath)
	}

	opID, err := m.submit(ctx, data)
	if err != nil {
		return "", err
	}

	return m.poll(ctx, opID)
}

// ReadImage performs OCR on a staged page image by URL.
func (m *ManagedOCR) ReadImage(ctx context.Context, imageURL string) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "ocr: rate limit wait")
	}

	reqBody, err := json.Marshal(submitRequest{
		Document: submitDocument{Type: "image_url", Content: imageURL},
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal image request")
	}

	body, status, err := m.do(ctx, http.MethodPost, "/images:read", reqBody)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", eris.Errorf("ocr: image read returned %d: %s", status, string(body))
	}

	var page operationPage
	if err := json.Unmarshal(body, &page); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal image response")
	}
	return page.Text, nil
}

func (m *ManagedOCR) submit(ctx context.Context, pdf []byte) (string, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "ocr: rate limit wait")
	}

	encoded := base64.StdEncoding.EncodeToString(pdf)
	reqBody, err := json.Marshal(submitRequest{
		Document: submitDocument{Type: "pdf_base64", Content: encoded},
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal submit request")
	}

	body, status, err := m.do(ctx, http.MethodPost, "/documents:process", reqBody)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return "", eris.Errorf("ocr: submit returned %d: %s", status, string(body))
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal submit response")
	}
	if sr.OperationID == "" {
		return "", eris.New("ocr: submit response missing operation_id")
	}
	return sr.OperationID, nil
}

func (m *ManagedOCR) poll(ctx context.Context, opID string) (string, error) {
	deadline := time.Now().Add(m.pollTimeout)
	ticker := time.NewTicker(m.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", eris.Wrap(ctx.Err(), "ocr: poll canceled")
		case <-ticker.C:
		}

		if time.Now().After(deadline) {
			return "", eris.Errorf("ocr: operation %s timed out after %s", opID, m.pollTimeout)
		}

		body, status, err := m.do(ctx, http.MethodGet, "/operations/"+opID, nil)
		if err != nil {
			return "", err
		}
		if status != http.StatusOK {
			return "", eris.Errorf("ocr: poll returned %d: %s", status, string(body))
		}

		var op operationResponse
		if err := json.Unmarshal(body, &op); err != nil {
			return "", eris.Wrap(err, "ocr: unmarshal operation")
		}

		switch op.Status {
		case "succeeded", "done":
			var sb strings.Builder
			for i, page := range op.Pages {
				if i > 0 {
					sb.WriteString("\n\n")
				}
				sb.WriteString(page.Text)
			}
			return sb.String(), nil
		case "failed":
			return "", eris.Errorf("ocr: operation %s failed: %s", opID, op.Error)
		}
		// pending or running: keep polling
	}
}

func (m *ManagedOCR) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ocr: create request")
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "ocr: API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "ocr: read response")
	}
	return respBody, resp.StatusCode, nil
}
