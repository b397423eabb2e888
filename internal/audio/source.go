package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abhisek/doceo/internal/lesson"
)

// Resource is a session's narration as known at load time. Tracks may be
// empty when the server has not produced audio yet; steps streamed later
// carry their own references.
type Resource struct {
	SessionID string
	BaseURL   *url.URL
	tracks    map[int]lesson.AudioTrack
}

// NewResource builds a Resource from a manifest. base resolves relative
// track URLs and may be nil.
func NewResource(sessionID string, base *url.URL, m *lesson.AudioManifest) *Resource {
	r := &Resource{SessionID: sessionID, BaseURL: base, tracks: map[int]lesson.AudioTrack{}}
	if m != nil {
		for _, t := range m.Tracks {
			r.tracks[t.StepNumber] = t
		}
	}
	return r
}

// Track returns the manifest entry for a step number.
func (r *Resource) Track(stepNumber int) *lesson.AudioTrack {
	if r == nil {
		return nil
	}
	t, ok := r.tracks[stepNumber]
	if !ok {
		return nil
	}
	return &t
}

// Resolve turns a track URL into something an external player can open.
func (r *Resource) Resolve(ref string) string {
	if r == nil || r.BaseURL == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return r.BaseURL.ResolveReference(u).String()
}

// Source fetches the narration resource for a session.
type Source interface {
	Fetch(ctx context.Context, sessionID string) (*Resource, error)
}

// StaticSource returns an empty resource. Steps supply all audio details.
type StaticSource struct{}

// Fetch implements Source.
func (StaticSource) Fetch(_ context.Context, sessionID string) (*Resource, error) {
	return NewResource(sessionID, nil, nil), nil
}

// HTTPSource reads /sessions/{id}/audio/manifest from a lesson server.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// Fetch implements Source. A server without a manifest for the session
// yields an empty resource rather than an error.
func (s HTTPSource) Fetch(ctx context.Context, sessionID string) (*Resource, error) {
	base, err := url.Parse(strings.TrimRight(s.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	manifestURL := base.JoinPath("sessions", sessionID, "audio", "manifest")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL.String(), nil)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return NewResource(sessionID, base, nil), nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch audio manifest: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var m lesson.AudioManifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode audio manifest: %w", err)
	}
	return NewResource(sessionID, base, &m), nil
}
