package imaging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// Fixed output dimensions for the two image kinds the service stores.
const (
	AvatarSize      = 72
	TopicImageWidth = 400
)

// Resizer scales raw image bytes to fixed dimensions before storage.
// A height of 0 requests proportional scaling from the width.
type Resizer interface {
	Resize(ctx context.Context, data []byte, width, height int) ([]byte, error)
}

// ServiceResizer delegates resizing to an external HTTP service. The
// service takes a multipart POST with the blob and target dimensions and
// answers with the resized bytes. Malformed input surfaces as an error;
// no fallback image is substituted.
type ServiceResizer struct {
	baseURL string
	client  *http.Client
}

func NewServiceResizer(baseURL string) *ServiceResizer {
	return &ServiceResizer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *ServiceResizer) Resize(ctx context.Context, data []byte, width, height int) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("width", strconv.Itoa(width)); err != nil {
		return nil, fmt.Errorf("build resize request: %w", err)
	}
	if height > 0 {
		if err := writer.WriteField("height", strconv.Itoa(height)); err != nil {
			return nil, fmt.Errorf("build resize request: %w", err)
		}
	}
	part, err := writer.CreateFormFile("image", "image")
	if err != nil {
		return nil, fmt.Errorf("build resize request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build resize request: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/resize", &body)
	if err != nil {
		return nil, fmt.Errorf("create resize request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resize request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resize service: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
