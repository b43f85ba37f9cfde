package access

import (
	"testing"

	"github.com/eventease-dev/eventease/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	e, err := NewEnforcer()
	require.NoError(t, err)

	tests := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleOwner, ActionView, true},
		{RoleOwner, ActionEdit, true},
		{RoleOwner, ActionInvite, true},
		{RoleOwner, ActionAdminister, true},
		{RoleParticipant, ActionView, true},
		{RoleParticipant, ActionEdit, true},
		{RoleParticipant, ActionInvite, true},
		{RoleParticipant, ActionAdminister, false},
		{RoleNone, ActionView, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, e.Allowed(tt.role, tt.action))
		})
	}
}

func TestAuthorize(t *testing.T) {
	database := testutil.SetupTestDB(t)
	e, err := NewEnforcer()
	require.NoError(t, err)

	owner := testutil.CreateTestUser(t, database, "owner", "owner@example.com")
	member := testutil.CreateTestUser(t, database, "member", "member@example.com")
	stranger := testutil.CreateTestUser(t, database, "stranger", "stranger@example.com")
	event := testutil.CreateTestEvent(t, database, owner, "Camping")
	testutil.AddTestParticipant(t, database, event, member)

	got, role, err := e.Authorize(database, event.ID, owner.ID, ActionAdminister)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, role)
	assert.Equal(t, event.ID, got.ID)

	_, role, err = e.Authorize(database, event.ID, member.ID, ActionEdit)
	require.NoError(t, err)
	assert.Equal(t, RoleParticipant, role)

	_, _, err = e.Authorize(database, event.ID, member.ID, ActionAdminister)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = e.Authorize(database, event.ID, stranger.ID, ActionView)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = e.Authorize(database, 9999, owner.ID, ActionView)
	assert.ErrorIs(t, err, ErrNotFound)
}
