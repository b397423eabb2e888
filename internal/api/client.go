package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DefaultBaseURL is where `doceo serve` listens by default.
const DefaultBaseURL = "http://127.0.0.1:8000"

// Client calls a lesson server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a Client for baseURL. Lesson generation can take a while, so
// the default timeout is long; streams are not read through this client.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the server root.
func (c *Client) BaseURL() string { return c.baseURL }

// StreamURL is the SSE endpoint of a session's lesson.
func (c *Client) StreamURL(sessionID string) string {
	return c.baseURL + "/sessions/" + url.PathEscape(sessionID) + "/lesson/stream"
}

// ManifestURL is the audio manifest of a session.
func (c *Client) ManifestURL(sessionID string) string {
	return c.baseURL + "/sessions/" + url.PathEscape(sessionID) + "/audio/manifest"
}

// CreateSession asks the server to write a lesson for a text problem.
func (c *Client) CreateSession(ctx context.Context, in SessionCreate) (*SessionResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &out, nil
}

// UploadSession sends the problem as a file.
func (c *Client) UploadSession(ctx context.Context, in Upload) (*SessionResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := in.Filename
	if name == "" {
		name = "problem"
	}
	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(in.Data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	for field, v := range map[string]string{"problem_text": in.ProblemText, "subject_hint": in.SubjectHint} {
		if v == "" {
			continue
		}
		if err := w.WriteField(field, v); err != nil {
			return nil, fmt.Errorf("write %s: %w", field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions/upload", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, fmt.Errorf("upload session: %w", err)
	}
	return &out, nil
}

// GetSession returns a session's metadata.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/"+url.PathEscape(sessionID), "", nil, &out); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &out, nil
}

// Ask sends a question about a session's lesson to the tutor.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{Message: question})
	if err != nil {
		return nil, fmt.Errorf("encode question: %w", err)
	}
	var out ChatResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/chat"
	if err := c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &out); err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return &out, nil
}

// Health checks that the server is up and speaks a compatible API.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &out); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	if !Compatible(out.APIVersion) {
		return &out, fmt.Errorf("%w: server API %q, client API %s", ErrIncompatibleServer, out.APIVersion, APIVersion)
	}
	return &out, nil
}

// Compatible reports whether a server API version works with this client.
func Compatible(version string) bool {
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	if !semver.IsValid(version) {
		return false
	}
	return semver.Major(version) == semver.Major(APIVersion)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var eb ErrorBody
		detail := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Detail != "" {
			detail = eb.Detail
		}
		return &StatusError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
