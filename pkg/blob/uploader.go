// Package blob turns a local file into a durable public URL before a media
// message is inserted. The store itself is an external collaborator behind
// a single HTTP endpoint; an upload either fully succeeds with a URL or
// fails, no partial state is tracked.
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Uploader struct {
	endpoint string
	client   *http.Client
}

func NewUploader(endpoint string) *Uploader {
	return &Uploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload posts the bytes as a multipart form and returns the public URL.
// The object name is prefixed with a uuid so uploads never collide.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if u.endpoint == "" {
		return "", fmt.Errorf("blob endpoint not configured")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", uuid.NewString()+"-"+name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("blob upload failed: %s: %s", resp.Status, msg)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("blob upload returned no url")
	}
	return out.URL, nil
}
