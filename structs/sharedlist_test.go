package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListPermissionBags(t *testing.T) {
	assert.Equal(t, ListPermissions{View: true}, DefaultListPermissions())
	assert.Equal(t, ListPermissions{View: true, Create: true, Update: true, Delete: true, Share: true}, FullListPermissions())
}

func TestSharedListPermissionsFor(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	list := &SharedList{
		Owner: owner,
		Members: []ListMember{
			{User: member, Permissions: ListPermissions{View: true, Create: true}},
		},
	}

	p, ok := list.PermissionsFor(owner)
	require.True(t, ok)
	assert.Equal(t, FullListPermissions(), p)

	p, ok = list.PermissionsFor(member)
	require.True(t, ok)
	assert.True(t, p.Create)
	assert.False(t, p.Share)

	_, ok = list.PermissionsFor(stranger)
	assert.False(t, ok)
}

func TestSharedListHasTask(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	list := &SharedList{Tasks: []primitive.ObjectID{a}}

	assert.True(t, list.HasTask(a))
	assert.False(t, list.HasTask(b))
}
