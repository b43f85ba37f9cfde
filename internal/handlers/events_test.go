package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/eventease-dev/eventease/internal/imaging"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListEvents(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	token := testutil.TokenFor(t, ada)

	w := env.do(t, http.MethodPost, "/api/events", map[string]string{
		"eventName": "Hackathon", "eventDate": "2031-03-01", "eventDescription": "48 hours",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := uint(testutil.DecodeJSON(t, w)["eventId"].(float64))

	var event models.Event
	require.NoError(t, env.db.Preload("Participants").First(&event, eventID).Error)
	assert.Equal(t, ada.ID, event.UserID)
	assert.False(t, event.StrictMode)
	require.Len(t, event.Participants, 1)
	assert.Equal(t, ada.ID, event.Participants[0].ID)

	// Earlier event owned by someone else that ada joined.
	shared := testutil.CreateTestEvent(t, env.db, grace, "Picnic")
	testutil.AddTestParticipant(t, env.db, shared, ada)
	done := testutil.CreateTestTask(t, env.db, shared, "Blanket", 3, nil)
	testutil.CreateTestTask(t, env.db, shared, "Sandwiches", 3, nil)
	require.NoError(t, env.db.Model(done).Update("completed", true).Error)

	// Not visible to ada.
	testutil.CreateTestEvent(t, env.db, grace, "Private")

	w = env.do(t, http.MethodGet, "/api/events", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	events := testutil.DecodeJSON(t, w)["events"].([]any)
	require.Len(t, events, 2)

	first := events[0].(map[string]any)
	second := events[1].(map[string]any)
	assert.Equal(t, "Picnic", first["name"])
	assert.InDelta(t, 50.0, first["progress"], 0.001)
	assert.Equal(t, "Hackathon", second["name"])
	assert.Equal(t, "2031-03-01", second["date"])
	assert.InDelta(t, 0.0, second["progress"], 0.001)
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	token := testutil.TokenFor(t, ada)

	w := env.do(t, http.MethodPost, "/api/events", map[string]string{"eventName": ""}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/events", map[string]string{"eventName": "Party", "eventDate": "01/02/2030"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/events", map[string]string{"eventName": "Party"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEventNameLimitCountsCharacters(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	token := testutil.TokenFor(t, ada)

	// 100 characters, 300 bytes.
	name := strings.Repeat("祭", 100)
	w := env.do(t, http.MethodPost, "/api/events", map[string]string{"eventName": name, "eventDate": "2031-03-01"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := uint(testutil.DecodeJSON(t, w)["eventId"].(float64))

	w = env.do(t, http.MethodPost, "/api/events", map[string]string{"eventName": name + "祭"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/name", eventID), map[string]string{"name": strings.Repeat("ü", 100)}, token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestChecklistOrderingAndAccess(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	eve := testutil.CreateTestUser(t, env.db, "eve", "eve@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Wedding")
	testutil.AddTestParticipant(t, env.db, event, grace)
	testutil.MakeTestFriends(t, env.db, ada, eve)

	later := time.Date(2030, 5, 20, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2030, 5, 10, 0, 0, 0, 0, time.UTC)

	normal := testutil.CreateTestTask(t, env.db, event, "Music", models.PriorityNormal, nil)
	testutil.CreateTestTask(t, env.db, event, "Venue", models.PriorityImportant, nil)
	dated := testutil.CreateTestTask(t, env.db, event, "Rings", models.PriorityImportant, nil)
	earliest := testutil.CreateTestTask(t, env.db, event, "Invites", models.PriorityImportant, nil)
	require.NoError(t, env.db.Model(dated).Update("due_date", later).Error)
	require.NoError(t, env.db.Model(earliest).Update("due_date", sooner).Error)
	require.NoError(t, env.db.Model(normal).Association("AssignedUsers").Append(grace))

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d/checklist", event.ID), nil, testutil.TokenFor(t, ada))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := testutil.DecodeJSON(t, w)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 4)

	var order []string
	for _, task := range tasks {
		order = append(order, task.(map[string]any)["description"].(string))
	}
	assert.Equal(t, []string{"Invites", "Rings", "Venue", "Music"}, order)

	assert.Len(t, body["participants"].([]any), 2)
	friends := body["friends"].([]any)
	require.Len(t, friends, 1)
	assert.Equal(t, "eve", friends[0].(map[string]any)["username"])
	// Every participant is listed, assigned to a task or not.
	assert.Equal(t, []any{float64(ada.ID), float64(grace.ID)}, body["assigned_participant_ids"])
	assert.Equal(t, false, body["strict_mode"])

	// Participants can view; strangers cannot tell the event exists.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d/checklist", event.ID), nil, testutil.TokenFor(t, grace))
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d/checklist", event.ID), nil, testutil.TokenFor(t, eve))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/events/9999/checklist", nil, testutil.TokenFor(t, ada))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/events/abc/checklist", nil, testutil.TokenFor(t, ada))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenameAndRedateEvent(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	testutil.AddTestParticipant(t, env.db, event, grace)
	token := testutil.TokenFor(t, grace)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/name", event.ID), map[string]string{"name": "Big Party"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/date", event.ID), map[string]string{"date": "2032-12-31"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/date", event.ID), map[string]string{"date": "tomorrow"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var reloaded models.Event
	require.NoError(t, env.db.First(&reloaded, event.ID).Error)
	assert.Equal(t, "Big Party", reloaded.Name)
	assert.Equal(t, "2032-12-31", reloaded.Date.Format("2006-01-02"))
}

func TestDeleteEventCascades(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	testutil.AddTestParticipant(t, env.db, event, grace)

	rel, err := env.h.Images.Save(imaging.TaskImagesDir, "png", pngImage(t, 4, 4))
	require.NoError(t, err)
	task := testutil.CreateTestTask(t, env.db, event, "Cake", 1, testutil.StrPtr("cake"))
	require.NoError(t, env.db.Model(task).Update("image_link", rel).Error)
	require.NoError(t, env.db.Model(task).Association("AssignedUsers").Append(grace))

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%d", event.ID), nil, testutil.TokenFor(t, grace))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%d", event.ID), nil, testutil.TokenFor(t, ada))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var count int64
	env.db.Model(&models.Event{}).Count(&count)
	assert.Zero(t, count)
	env.db.Model(&models.Task{}).Count(&count)
	assert.Zero(t, count)
	env.db.Table("event_participants").Count(&count)
	assert.Zero(t, count)
	env.db.Table("task_assignments").Count(&count)
	assert.Zero(t, count)

	path, err := env.h.Images.Path(rel)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestUpdateParticipants(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	eve := testutil.CreateTestUser(t, env.db, "eve", "eve@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	testutil.MakeTestFriends(t, env.db, ada, grace)
	path := fmt.Sprintf("/api/events/%d/participants", event.ID)
	adaToken := testutil.TokenFor(t, ada)

	w := env.do(t, http.MethodPost, path, map[string]any{"add": []uint{eve.ID}}, adaToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, "only friends can be added")

	w = env.do(t, http.MethodPost, path, map[string]any{"add": []uint{grace.ID}}, adaToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Adding again is a no-op.
	w = env.do(t, http.MethodPost, path, map[string]any{"add": []uint{grace.ID}}, adaToken)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	env.db.Table("event_participants").Where("event_id = ?", event.ID).Count(&count)
	assert.Equal(t, int64(2), count)

	// Participants cannot remove others, nobody can remove the owner.
	w = env.do(t, http.MethodPost, path, map[string]any{"remove": []uint{grace.ID}}, testutil.TokenFor(t, grace))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, map[string]any{"remove": []uint{ada.ID}}, adaToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	task := testutil.CreateTestTask(t, env.db, event, "Cake", 1, nil)
	require.NoError(t, env.db.Model(task).Association("AssignedUsers").Append(grace))

	w = env.do(t, http.MethodPost, path, map[string]any{"remove": []uint{grace.ID}}, adaToken)
	require.Equal(t, http.StatusOK, w.Code)

	env.db.Table("event_participants").Where("event_id = ?", event.ID).Count(&count)
	assert.Equal(t, int64(1), count)
	env.db.Table("task_assignments").Count(&count)
	assert.Zero(t, count)
}

func TestTransferOwnership(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	grace := testutil.CreateTestUser(t, env.db, "grace", "grace@example.com")
	eve := testutil.CreateTestUser(t, env.db, "eve", "eve@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	testutil.AddTestParticipant(t, env.db, event, grace)
	path := fmt.Sprintf("/api/events/%d/ownership", event.ID)

	w := env.do(t, http.MethodPost, path, map[string]any{"new_owner_id": ada.ID}, testutil.TokenFor(t, grace))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, path, map[string]any{"new_owner_id": eve.ID}, testutil.TokenFor(t, ada))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, map[string]any{
		"new_owner_id": grace.ID, "new_event_name": "Grace's Party", "new_event_date": "2031-01-01",
	}, testutil.TokenFor(t, ada))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reloaded models.Event
	require.NoError(t, env.db.First(&reloaded, event.ID).Error)
	assert.Equal(t, grace.ID, reloaded.UserID)
	assert.Equal(t, "Grace's Party", reloaded.Name)

	// The previous owner stays on as a participant but loses admin rights.
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/%d", event.ID), nil, testutil.TokenFor(t, ada))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSetStrictMode(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	path := fmt.Sprintf("/api/events/%d/strict-mode", event.ID)
	token := testutil.TokenFor(t, ada)

	w := env.do(t, http.MethodPost, path, map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, map[string]any{"strict_mode": "yes"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, path, map[string]any{"strict_mode": true}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Event
	require.NoError(t, env.db.First(&reloaded, event.ID).Error)
	assert.True(t, reloaded.StrictMode)
}

func TestUpdateWebhooks(t *testing.T) {
	env := newTestEnv(t)
	ada := testutil.CreateTestUser(t, env.db, "ada", "ada@example.com")
	event := testutil.CreateTestEvent(t, env.db, ada, "Party")
	path := fmt.Sprintf("/api/events/%d/webhooks", event.ID)
	token := testutil.TokenFor(t, ada)

	w := env.do(t, http.MethodPut, path, map[string]string{"discord_webhook": "not a url"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, body := range []map[string]string{
		{"discord_webhook": "http://discord.com/api/webhooks/1/abc"},
		{"discord_webhook": "https://169.254.169.254/latest/meta-data"},
		{"discord_webhook": "https://hooks.slack.com/services/T/B/x"},
		{"slack_webhook": "https://localhost:8080/services/T/B/x"},
	} {
		w = env.do(t, http.MethodPut, path, body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w = env.do(t, http.MethodPut, path, map[string]string{"discord_webhook": "https://discord.com/api/webhooks/1/abc"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Event
	require.NoError(t, env.db.First(&reloaded, event.ID).Error)
	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", reloaded.DiscordWebhook)
	assert.Empty(t, reloaded.SlackWebhook)
}
