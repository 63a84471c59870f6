package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "")
	c, err := NewClient(WithBaseURL(srv.URL+"/"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func candidateBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + mustJSON(text) + `}]}}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGenerateSuccess(t *testing.T) {
	var gotPayload geminiPayload
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(candidateBody("Here is your plan.")))
	})

	text, err := c.Generate(context.Background(), "make a plan", "be invisible")
	require.NoError(t, err)
	assert.Equal(t, "Here is your plan.", text)

	assert.Equal(t, "/gemini-3-pro-preview:generateContent?key=test-key", gotPath)
	require.Len(t, gotPayload.Contents, 1)
	assert.Equal(t, "make a plan", gotPayload.Contents[0].Parts[0].Text)
	require.NotNil(t, gotPayload.SystemInstruction)
	assert.Equal(t, "be invisible", gotPayload.SystemInstruction.Parts[0].Text)
	require.NotNil(t, gotPayload.GenerationConfig)
	assert.Equal(t, 0.7, gotPayload.GenerationConfig.Temperature)
	assert.Equal(t, 4000, gotPayload.GenerationConfig.MaxOutputTokens)
}

func TestGenerateOmitsEmptySystemInstruction(t *testing.T) {
	var gotPayload geminiPayload
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte(candidateBody("ok")))
	})

	_, err := c.Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Nil(t, gotPayload.SystemInstruction)
}

func TestGenerateNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	})

	_, err := c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateEmptyCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
}

func TestGenerateEmptyText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody("")))
	})

	_, err := c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force a connection failure

	t.Setenv("GEMINI_API_KEY", "test-key")
	c, err := NewClient(WithBaseURL(srv.URL + "/"))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
}

func TestGenerateContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, "hello", "")
	require.Error(t, err)
	assert.True(t, IsOracleError(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := NewClient()
	require.Error(t, err)
}

func TestNewClientModelOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-flash")

	c, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, "gemini-flash", c.model)

	c, err = NewClient(WithModel("custom"))
	require.NoError(t, err)
	assert.Equal(t, "custom", c.model)
}
