// Package testutil holds database and request helpers shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eventease-dev/eventease/db"
	"github.com/eventease-dev/eventease/internal/auth"
	"github.com/eventease-dev/eventease/internal/models"
	"gorm.io/gorm"
)

const (
	TestJWTSecret = "test-secret"
	TestPassword  = "password123"
)

// SetupTestDB returns a migrated in-memory sqlite database. A single pooled
// connection keeps every query on the same in-memory schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := db.ConnectDatabase("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.MigrateDatabase(database); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	if err := auth.InitJWTSecret(TestJWTSecret); err != nil {
		t.Fatalf("Failed to init jwt secret: %v", err)
	}

	return database
}

// CreateTestUser inserts a verified user whose password is TestPassword.
func CreateTestUser(t *testing.T, database *gorm.DB, username, email string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Language:      models.DefaultLanguage,
		EmailVerified: true,
	}
	if err := database.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// CreateTestEvent inserts an event owned by owner, who is also a participant.
func CreateTestEvent(t *testing.T, database *gorm.DB, owner *models.User, name string) *models.Event {
	t.Helper()

	event := &models.Event{
		Name:   name,
		Date:   time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		UserID: owner.ID,
	}
	if err := database.Create(event).Error; err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}
	AddTestParticipant(t, database, event, owner)
	return event
}

func AddTestParticipant(t *testing.T, database *gorm.DB, event *models.Event, user *models.User) {
	t.Helper()

	if err := database.Model(event).Association("Participants").Append(user); err != nil {
		t.Fatalf("Failed to add participant: %v", err)
	}
}

func CreateTestTask(t *testing.T, database *gorm.DB, event *models.Event, description string, priority int, item *string) *models.Task {
	t.Helper()

	task := &models.Task{
		Description: description,
		Priority:    priority,
		EventID:     event.ID,
		Item:        item,
	}
	if err := database.Create(task).Error; err != nil {
		t.Fatalf("Failed to create test task: %v", err)
	}
	return task
}

// MakeTestFriends adds friend to user's friend list (one direction).
func MakeTestFriends(t *testing.T, database *gorm.DB, user, friend *models.User) {
	t.Helper()

	if err := database.Model(user).Association("Friends").Append(friend); err != nil {
		t.Fatalf("Failed to add friend: %v", err)
	}
}

func TokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

// DoJSON sends body as JSON with an optional bearer token.
func DoJSON(t *testing.T, handler http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func StrPtr(s string) *string {
	return &s
}
