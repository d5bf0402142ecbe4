package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-advisor/internal/api"
	"equity-advisor/internal/store"
	"equity-advisor/internal/types"
)

func completion(content string) string {
	b, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
		"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}]}`, b)
}

func newTestReasoner(t *testing.T, h http.HandlerFunc) *Reasoner {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := store.Default()
	cfg.LLM.BaseURL = srv.URL + "/"
	r, err := NewReasoner(cfg)
	require.NoError(t, err)
	return r
}

func TestInferParsesCompletion(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/chat/completions", req.URL.Path)
		assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "score ACME", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion(`{"score": 0.6, "rationale": "strong quarter"}`))
	})

	inf, err := r.Infer(context.Background(), types.Prompt{Kind: types.SignalNews, Symbol: "ACME", User: "score ACME"})
	require.NoError(t, err)
	assert.Equal(t, 0.6, inf.Score)
	assert.Equal(t, "strong quarter", inf.Rationale)
}

func TestInferUnparsableContent(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, completion("I think it is a BUY"))
	})

	_, err := r.Infer(context.Background(), types.Prompt{User: "x"})
	assert.True(t, errors.Is(err, types.ErrUnparsableResponse))
}

func TestInferClientErrorIsPermanent(t *testing.T) {
	r := newTestReasoner(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})

	_, err := r.Infer(context.Background(), types.Prompt{User: "x"})
	require.Error(t, err)
	assert.True(t, api.IsPermanent(err))
}

func TestNewReasonerRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewReasoner(store.Default())
	assert.Error(t, err)
}
