// Package access decides what a user may do with an event.
//
// A user's role on an event is derived from the database (owner or participant)
// and checked against a casbin RBAC model where the owner inherits every
// participant permission.
package access

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/eventease-dev/eventease/internal/models"
	"gorm.io/gorm"
)

type Role string

const (
	RoleNone        Role = ""
	RoleParticipant Role = "participant"
	RoleOwner       Role = "owner"
)

type Action string

const (
	// ActionView covers reading the event, its checklist and live updates.
	ActionView Action = "view"
	// ActionEdit covers renaming, re-dating and all task changes.
	ActionEdit Action = "edit"
	// ActionInvite lets a member add their own friends.
	ActionInvite Action = "invite"
	// ActionAdminister covers deletion, ownership, strict mode, removals and manual verification.
	ActionAdminister Action = "administer"
)

const eventResource = "event"

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var (
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("event not found")
)

type Enforcer struct {
	enforcer *casbin.Enforcer
}

func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load access model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	policies := [][]string{
		{string(RoleParticipant), eventResource, string(ActionView)},
		{string(RoleParticipant), eventResource, string(ActionEdit)},
		{string(RoleParticipant), eventResource, string(ActionInvite)},
		{string(RoleOwner), eventResource, string(ActionAdminister)},
	}
	if _, err := e.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}
	if _, err := e.AddGroupingPolicy(string(RoleOwner), string(RoleParticipant)); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}

	return &Enforcer{enforcer: e}, nil
}

func (e *Enforcer) Allowed(role Role, action Action) bool {
	if role == RoleNone {
		return false
	}
	ok, err := e.enforcer.Enforce(string(role), eventResource, string(action))
	return err == nil && ok
}

// RoleOf reports the user's role on an already loaded event.
func RoleOf(tx *gorm.DB, event *models.Event, userID uint) (Role, error) {
	if event.UserID == userID {
		return RoleOwner, nil
	}

	var count int64
	err := tx.Table("event_participants").
		Where("event_id = ? AND user_id = ?", event.ID, userID).
		Count(&count).Error
	if err != nil {
		return RoleNone, err
	}
	if count > 0 {
		return RoleParticipant, nil
	}
	return RoleNone, nil
}

// Authorize loads the event and checks the action. Non-members get ErrNotFound
// so event ids do not leak; members lacking the permission get ErrForbidden.
func (e *Enforcer) Authorize(tx *gorm.DB, eventID, userID uint, action Action) (*models.Event, Role, error) {
	var event models.Event
	if err := tx.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, RoleNone, ErrNotFound
		}
		return nil, RoleNone, err
	}

	role, err := RoleOf(tx, &event, userID)
	if err != nil {
		return nil, RoleNone, err
	}
	if role == RoleNone {
		return nil, RoleNone, ErrNotFound
	}
	if !e.Allowed(role, action) {
		return &event, role, ErrForbidden
	}

	return &event, role, nil
}
