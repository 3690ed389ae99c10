package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

func TestNewLLMService_RequiresModel(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestLLMService_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, "json", req.Format)
		assert.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: `{"answer":"25 days"}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "directive"},
		{Role: driven.RoleUser, Content: "How much leave?"},
	}, driven.ChatOptions{JSONMode: true})

	require.NoError(t, err)
	assert.Equal(t, `{"answer":"25 days"}`, out)
	assert.Equal(t, "llama3.2", svc.ModelName())
}

func TestLLMService_Chat_SendsZeroTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		opts, _ := body["options"].(map[string]any)
		assert.Contains(t, opts, "temperature")
		assert.EqualValues(t, 0, opts["temperature"])

		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: "ok"}, Done: true})
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}}, driven.ChatOptions{})
	assert.NoError(t, err)
}

func TestLLMService_Chat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
		}},
		{"error field", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"model 'x' not found"}`))
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
			require.NoError(t, err)

			_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}}, driven.ChatOptions{})
			assert.ErrorIs(t, err, domain.ErrSynthesisUnavailable)
		})
	}
}

func TestLLMService_Chat_UnknownModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"qwen9\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "qwen9"})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}}, driven.ChatOptions{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "ollama pull qwen9")
}

func TestLLMService_Chat_SendsSchemaAsFormat(t *testing.T) {
	schema := map[string]any{"type": "object", "required": []any{"answer"}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, schema, body["format"])

		_ = json.NewEncoder(w).Encode(chatResponse{Message: chatMessage{Content: `{"answer":"yes"}`}, Done: true})
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	out, err := svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}},
		driven.ChatOptions{JSONMode: true, Schema: schema})
	require.NoError(t, err)
	assert.Equal(t, `{"answer":"yes"}`, out)
}

func TestLLMService_Chat_WarnsOnTruncation(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message:    chatMessage{Content: `{"answer":"Staff may carry over`},
			Done:       true,
			DoneReason: "length",
		})
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "q"}},
		driven.ChatOptions{MaxTokens: 8})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "token limit")
}

func TestLLMService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"}]}`))
	}))
	defer srv.Close()

	svc, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "llama3.2"})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())

	missing, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "qwen2.5:7b"})
	require.NoError(t, err)
	err = missing.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "ollama pull qwen2.5:7b")
}
