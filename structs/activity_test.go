package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidActivityType(t *testing.T) {
	assert.True(t, IsValidActivityType(ActivityTaskCreated))
	assert.True(t, IsValidActivityType(ActivityListTaskRemoved))
	assert.False(t, IsValidActivityType("task_exploded"))
	assert.False(t, IsValidActivityType(""))
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences()
	require.Len(t, prefs, len(ActivityTypes))

	emailTypes := map[ActivityType]bool{
		ActivityTaskAssigned:       true,
		ActivityMention:            true,
		ActivityDueDateReminder:    true,
		ActivityTeamInvitationSent: true,
		ActivityListInvitationSent: true,
	}

	for _, typ := range ActivityTypes {
		p, ok := prefs[typ]
		require.True(t, ok, "missing preference for %s", typ)
		assert.True(t, p.InApp, "in-app should default on for %s", typ)
		assert.Equal(t, emailTypes[typ], p.Email, "email default wrong for %s", typ)
		assert.False(t, p.Push, "push should default off for %s", typ)
	}
}
