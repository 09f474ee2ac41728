package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// uploadFieldName is the multipart part name the collection API expects.
const uploadFieldName = "jsonFile"

// maxErrorBody caps how much of a remote error response is echoed back
// to the submitter.
const maxErrorBody = 2048

// Forwarder relays an augmented submission to the central collection API
// as a multipart file part with an API-key header. It never retries and
// attaches no idempotency key; a timeout after the remote accepted the
// bytes reads as failure here.
type Forwarder struct {
	url    string
	apiKey string
	client *http.Client
}

func NewForwarder(url, apiKey string, timeout time.Duration) *Forwarder {
	return &Forwarder{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

// Forward POSTs the envelope bytes under the stored filename. A network
// error or a non-2xx status is returned as a recoverable error whose
// message is shown to the submitter.
func (f *Forwarder) Forward(ctx context.Context, filename string, envelope []byte) error {
	if f.url == "" {
		return fmt.Errorf("upload forwarding is not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadFieldName, filename)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := part.Write(envelope); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not contact the collection API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("collection API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}
