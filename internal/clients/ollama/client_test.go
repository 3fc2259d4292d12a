package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNarrative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "AAPL")

		fmt.Fprint(w, `{"response": "  AAPL looks constructive here.  "}`)
	}))
	defer server.Close()

	client := NewClient(WithHost(server.URL))

	text, err := client.GenerateNarrative(context.Background(), "Rephrase analysis for AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL looks constructive here.", text)
}

func TestGenerateNarrative_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": "model not loaded"}`)
	}))
	defer server.Close()

	client := NewClient(WithHost(server.URL))

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestGenerateNarrative_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": ""}`)
	}))
	defer server.Close()

	client := NewClient(WithHost(server.URL))

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
}

func TestGenerateNarrative_Unreachable(t *testing.T) {
	client := NewClient(WithHost("http://127.0.0.1:1"))

	_, err := client.GenerateNarrative(context.Background(), "prompt")
	require.Error(t, err)
}
