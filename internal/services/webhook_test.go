package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eventease-dev/eventease/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type capture struct {
	mu     sync.Mutex
	bodies map[string][]byte
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, *capture) {
	c := &capture{bodies: map[string][]byte{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		c.mu.Lock()
		c.bodies[r.URL.Path] = raw
		c.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, c
}

func testEvent(server *httptest.Server) models.Event {
	return models.Event{
		BaseModel:      models.BaseModel{ID: 1},
		Name:           "Beach trip",
		Date:           time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC),
		DiscordWebhook: server.URL + "/discord",
		SlackWebhook:   server.URL + "/slack",
	}
}

func TestSendTaskCompleted(t *testing.T) {
	server, c := newCaptureServer(t, http.StatusNoContent)
	n := NewNotifier(server.Client(), zap.NewNop())

	item := "sunscreen"
	task := models.Task{Description: "Pack sunscreen", Priority: models.PriorityNecessary, Item: &item}
	require.NoError(t, n.Send(context.Background(), testEvent(server), TaskCompletedNotification(task, "ada")))

	var discord DiscordWebhookRequest
	require.NoError(t, json.Unmarshal(c.bodies["/discord"], &discord))
	require.Len(t, discord.Embeds, 1)
	assert.Equal(t, ColorGreen, discord.Embeds[0].Color)
	assert.Contains(t, discord.Embeds[0].Footer.Text, "Beach trip")
	assert.Equal(t, "Necessary", discord.Embeds[0].Fields[2].Value)
	assert.Equal(t, "sunscreen", discord.Embeds[0].Fields[3].Value)

	var slack SlackWebhookRequest
	require.NoError(t, json.Unmarshal(c.bodies["/slack"], &slack))
	require.Len(t, slack.Attachments, 1)
	assert.Equal(t, "good", slack.Attachments[0].Color)
	assert.Equal(t, "Beach trip", slack.Attachments[0].Title)
	assert.Len(t, slack.Attachments[0].Fields, 4)
}

func TestSendReportsFailures(t *testing.T) {
	server, _ := newCaptureServer(t, http.StatusInternalServerError)
	n := NewNotifier(server.Client(), zap.NewNop())

	err := n.Send(context.Background(), testEvent(server), ChecklistCreatedNotification(8, "ada"))
	assert.ErrorContains(t, err, "discord")
}

func TestDispatchLogsAndSkipsUnconfigured(t *testing.T) {
	server, c := newCaptureServer(t, http.StatusBadRequest)
	core, observed := observer.New(zapcore.DebugLevel)
	n := NewNotifier(server.Client(), zap.New(core))

	n.Dispatch(models.Event{Name: "quiet"}, OwnershipTransferredNotification("a", "b"))
	n.Dispatch(testEvent(server), OwnershipTransferredNotification("a", "b"))
	n.Wait()

	assert.Equal(t, 1, observed.FilterMessage("Failed to deliver event webhook").Len())
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.bodies, 1)
}

func TestValidWebhookURL(t *testing.T) {
	tests := []struct {
		target string
		raw    string
		want   bool
	}{
		{TargetDiscord, "", true},
		{TargetDiscord, "https://discord.com/api/webhooks/123/token", true},
		{TargetDiscord, "https://discordapp.com/api/webhooks/123/token", true},
		{TargetDiscord, "http://discord.com/api/webhooks/123/token", false},
		{TargetDiscord, "https://discord.com.evil.test/api/webhooks/123/token", false},
		{TargetDiscord, "https://discord.com/channels/1", false},
		{TargetDiscord, "https://hooks.slack.com/services/T/B/x", false},
		{TargetDiscord, "https://user@discord.com/api/webhooks/1/x", false},
		{TargetSlack, "https://hooks.slack.com/services/T000/B000/xyz", true},
		{TargetSlack, "https://hooks.slack.com:8443/services/T/B/x", false},
		{TargetSlack, "https://10.0.0.5/services/T/B/x", false},
		{TargetSlack, "not a url", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidWebhookURL(tt.target, tt.raw), "%s %q", tt.target, tt.raw)
	}
}
