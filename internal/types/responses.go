package types

import (
	"time"

	"github.com/eventease-dev/eventease/internal/models"
)

const DateLayout = "2006-01-02"

type UserResponse struct {
	ID             uint    `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Language       string  `json:"language,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	EmailVerified  bool    `json:"email_verified"`
}

func NewUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Language:       user.Language,
		ProfilePicture: user.ProfilePicture,
		EmailVerified:  user.EmailVerified,
	}
}

type FriendResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func NewFriendResponses(users []models.User) []FriendResponse {
	out := make([]FriendResponse, 0, len(users))
	for _, u := range users {
		out = append(out, FriendResponse{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return out
}

type EventResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Date        string    `json:"date"`
	OwnerID     uint      `json:"owner_id"`
	StrictMode  bool      `json:"strict_mode"`
	Progress    float64   `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewEventResponse(event *models.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		Name:        event.Name,
		Description: event.Description,
		Date:        event.Date.Format(DateLayout),
		OwnerID:     event.UserID,
		StrictMode:  event.StrictMode,
		Progress:    event.Progress(),
		CreatedAt:   event.CreatedAt,
	}
}

type TaskResponse struct {
	ID            uint    `json:"id"`
	Description   string  `json:"description"`
	Note          *string `json:"note"`
	Completed     bool    `json:"completed"`
	Priority      int     `json:"priority"`
	DueDate       *string `json:"due_date"`
	EventID       uint    `json:"event_id"`
	Item          *string `json:"item"`
	ImageLink     *string `json:"image_link"`
	AssignedUsers []uint  `json:"assigned_user_ids"`
}

func NewTaskResponse(task *models.Task) TaskResponse {
	var due *string
	if task.DueDate != nil {
		s := task.DueDate.Format(DateLayout)
		due = &s
	}

	assigned := make([]uint, 0, len(task.AssignedUsers))
	for _, u := range task.AssignedUsers {
		assigned = append(assigned, u.ID)
	}

	return TaskResponse{
		ID:            task.ID,
		Description:   task.Description,
		Note:          task.Note,
		Completed:     task.Completed,
		Priority:      task.Priority,
		DueDate:       due,
		EventID:       task.EventID,
		Item:          task.Item,
		ImageLink:     task.ImageLink,
		AssignedUsers: assigned,
	}
}
