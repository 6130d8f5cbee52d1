// Package apiclient wraps the api service's HTTP surface for the terminal
// clients and session controllers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"time"

	"github.com/mahaj/guestline/pkg/model"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken attaches the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

type JoinResponse struct {
	Token   string      `json:"token"`
	Guest   model.Guest `json:"guest"`
	Created bool        `json:"created"`
}

// Join registers the guest (or resumes an existing conversation with the
// same username) and stores the returned token on the client.
func (c *Client) Join(ctx context.Context, username string) (JoinResponse, error) {
	var out JoinResponse
	err := c.post(ctx, "/join", map[string]string{"username": username}, &out)
	if err != nil {
		return JoinResponse{}, err
	}
	c.token = out.Token
	return out, nil
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login authenticates the admin and stores the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out LoginResponse
	err := c.post(ctx, "/login", map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Token, nil
}

// History fetches the conversation for a guest. The server filters
// retracted rows for guest-role tokens; the admin gets everything.
func (c *Client) History(ctx context.Context, guestName string) ([]model.Message, error) {
	var out []model.Message
	err := c.get(ctx, "/history?guest="+url.QueryEscape(guestName), &out)
	return out, err
}

// Guests lists all guest rows for the dashboard roster.
func (c *Client) Guests(ctx context.Context) ([]model.Guest, error) {
	var out []model.Guest
	err := c.get(ctx, "/guests", &out)
	return out, err
}

// UnreadCounts runs the admin bootstrap query: guest-sent messages since
// the watermark, grouped by guest.
func (c *Client) UnreadCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	var out map[string]int
	err := c.get(ctx, "/guests/unread?since="+url.QueryEscape(since.Format(time.RFC3339Nano)), &out)
	return out, err
}

// Connections lists usernames with a live gateway connection for the
// conversation. Informational only; online classification derives from
// heartbeat timestamps.
func (c *Client) Connections(ctx context.Context, guestName string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/guests/"+url.PathEscape(guestName)+"/connections", &out)
	return out, err
}

type UploadResponse struct {
	URL         string            `json:"url"`
	ContentType model.ContentType `json:"content_type"`
}

// Upload sends a media file through the api's blob proxy and returns its
// durable URL plus the detected content type. The part carries a real MIME
// type; the server rejects anything that is not image, audio or video.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return UploadResponse{}, err
	}
	if _, err := part.Write(data); err != nil {
		return UploadResponse{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return UploadResponse{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return UploadResponse{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
