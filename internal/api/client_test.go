package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestCreateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in SessionCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Solve 2x+3=7", in.ProblemText)
		assert.Equal(t, "Algebra", in.SubjectHint)

		json.NewEncoder(w).Encode(SessionResponse{SessionID: "s1", LoadingRunID: "r1", Title: "Linear", StepCount: 4, Status: StatusProcessing})
	})

	out, err := c.CreateSession(context.Background(), SessionCreate{ProblemText: "Solve 2x+3=7", SubjectHint: "Algebra"})
	require.NoError(t, err)
	assert.Equal(t, "s1", out.SessionID)
	assert.Equal(t, "r1", out.LoadingRunID)
	assert.Equal(t, 4, out.StepCount)
}

func TestUploadSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "photo.png", hdr.Filename)
		assert.Equal(t, []byte("png-bytes"), data)
		assert.Equal(t, "what is this?", r.FormValue("problem_text"))
		assert.Empty(t, r.FormValue("subject_hint"))

		json.NewEncoder(w).Encode(SessionResponse{SessionID: "s2"})
	})

	out, err := c.UploadSession(context.Background(), Upload{Filename: "photo.png", Data: []byte("png-bytes"), ProblemText: "what is this?"})
	require.NoError(t, err)
	assert.Equal(t, "s2", out.SessionID)
}

func TestGetSession_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorBody{Detail: "Session not found"})
	})

	_, err := c.GetSession(context.Background(), "a/b")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Session not found", se.Detail)
	assert.Contains(t, err.Error(), "404 Not Found")
}

type countingTransport struct{ n int }

func (t *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	t.n++
	return http.DefaultTransport.RoundTrip(r)
}

func TestWithHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SessionResponse{SessionID: "s3", Status: StatusComplete})
	}))
	t.Cleanup(srv.Close)

	rt := &countingTransport{}
	c := New(srv.URL, WithHTTPClient(&http.Client{Transport: rt}))
	out, err := c.GetSession(context.Background(), "s3")
	require.NoError(t, err)
	assert.Equal(t, "s3", out.SessionID)
	assert.Equal(t, 1, rt.n)
}

func TestAsk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/s1/chat", r.URL.Path)
		var in ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "why?", in.Message)
		w.Write([]byte(`{"role":"tutor","message":"Because.","math_blocks":[{"latex":"x=1","display":true}],"related_step":2}`))
	})

	out, err := c.Ask(context.Background(), "s1", "why?")
	require.NoError(t, err)
	assert.Equal(t, "Because.", out.Message)
	require.Len(t, out.MathBlocks, 1)
	require.NotNil(t, out.RelatedStep)
	assert.Equal(t, 2, *out.RelatedStep)
}

func TestAsk_PlainTextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	})
	_, err := c.Ask(context.Background(), "s1", "why?")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "upstream broke", se.Detail)
}

func TestHealth(t *testing.T) {
	version := APIVersion
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Health{Status: "ok", APIVersion: version})
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)

	version = "v2.0.0"
	_, err = c.Health(context.Background())
	assert.ErrorIs(t, err, ErrIncompatibleServer)
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible("v1.0.0"))
	assert.True(t, Compatible("1.9.3"))
	assert.False(t, Compatible("v0.9.0"))
	assert.False(t, Compatible("v2.0.0"))
	assert.False(t, Compatible("latest"))
	assert.False(t, Compatible(""))
}

func TestURLs(t *testing.T) {
	c := New("http://example.test/")
	assert.Equal(t, "http://example.test/sessions/s%201/lesson/stream", c.StreamURL("s 1"))
	assert.Equal(t, "http://example.test/sessions/s1/audio/manifest", c.ManifestURL("s1"))
	assert.Equal(t, DefaultBaseURL, New("").BaseURL())
}
