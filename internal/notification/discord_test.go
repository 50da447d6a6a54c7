package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendDiscordErrorNotification(t *testing.T) {
	var got DiscordMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	t.Setenv("DISCORD_ERROR_NOTIFICATION_URL", server.URL)

	require.NoError(t, SendDiscordErrorNotification("2 of 5 frames failed"))
	require.Len(t, got.Embeds, 1)
	assert.Contains(t, got.Embeds[0].Title, "error")
	assert.Equal(t, "2 of 5 frames failed", got.Embeds[0].Description)
	assert.Equal(t, colorRed, got.Embeds[0].Color)
}

func TestSendDiscordSuccessNotification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	t.Setenv("DISCORD_SUCCESS_NOTIFICATION_URL", server.URL)

	require.NoError(t, SendDiscordSuccessNotification("downloaded 5 frames"))
}

func TestSendDiscordNotificationBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()
	t.Setenv("DISCORD_ERROR_NOTIFICATION_URL", server.URL)

	err := SendDiscordErrorNotification("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSendDiscordNotificationUnconfigured(t *testing.T) {
	t.Setenv("DISCORD_ERROR_NOTIFICATION_URL", "")
	require.NoError(t, SendDiscordErrorNotification("ignored"))
}
