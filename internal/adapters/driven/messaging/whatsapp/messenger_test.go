package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

func TestNewMessenger_RequiresToken(t *testing.T) {
	_, err := NewMessenger(Config{})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestMessenger_SendText(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v19.0/1234/messages", r.URL.Path)
		assert.Equal(t, "Bearer wa-token", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	m, err := NewMessenger(Config{Token: "wa-token", APIBaseURL: srv.URL + "/v19.0/"})
	require.NoError(t, err)

	err = m.SendText(context.Background(), "1234", "447700900000", "You get 25 days of leave.")

	require.NoError(t, err)
	assert.Equal(t, sendRequest{
		MessagingProduct: "whatsapp",
		To:               "447700900000",
		Type:             "text",
		Text:             textBody{PreviewURL: false, Body: "You get 25 days of leave."},
	}, got)
}

func TestMessenger_SendText_TruncatesBody(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	m, err := NewMessenger(Config{Token: "t", APIBaseURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, m.SendText(context.Background(), "1", "2", strings.Repeat("é", MaxBodyRunes+10)))

	assert.Equal(t, MaxBodyRunes, len([]rune(got.Text.Body)))
}

func TestMessenger_SendText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	m, err := NewMessenger(Config{Token: "t", APIBaseURL: srv.URL})
	require.NoError(t, err)

	err = m.SendText(context.Background(), "1", "2", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestMessenger_SendText_RequiresAddresses(t *testing.T) {
	m, err := NewMessenger(Config{Token: "t"})
	require.NoError(t, err)

	err = m.SendText(context.Background(), "", "2", "hi")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}
