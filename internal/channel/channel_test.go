package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMailer_SendsAuthorizedJSONRequest(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	mailer := NewHTTPMailer(server.URL, "test-key", 5*time.Second)
	err := mailer.Send(context.Background(), "alice@acme.test", "Welcome", "<p>Hi Alice</p>")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "alice@acme.test", gotPayload["to"])
	assert.Equal(t, "Welcome", gotPayload["subject"])
	assert.Equal(t, "<p>Hi Alice</p>", gotPayload["html"])
}

func TestHTTPMailer_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid recipient"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	mailer := NewHTTPMailer(server.URL, "test-key", 5*time.Second)
	err := mailer.Send(context.Background(), "bad", "Welcome", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestMessagingClient_ReturnsProviderMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/texts", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "+1555000", payload["to"])
		json.NewEncoder(w).Encode(map[string]string{"message_id": "wamid.abc123"})
	}))
	defer server.Close()

	client := NewMessagingClient(server.URL, "test-key", 5*time.Second)
	id, err := client.SendText(context.Background(), "+1555000", "*Hello*\n\nBody")
	require.NoError(t, err)
	assert.Equal(t, "wamid.abc123", id)
}

func TestMessagingClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewMessagingClient(server.URL, "test-key", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SendText(ctx, "+1555000", "hello")
	assert.Error(t, err)
}

func TestLogSenders_CountAndSequenceIDs(t *testing.T) {
	messenger := &LogMessenger{}

	id1, err := messenger.SendText(context.Background(), "+1", "a")
	require.NoError(t, err)
	id2, err := messenger.SendText(context.Background(), "+2", "b")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	mailer := &LogMailer{}
	assert.NoError(t, mailer.Send(context.Background(), "a@b.c", "s", "b"))
}
