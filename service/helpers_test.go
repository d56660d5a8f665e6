package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := parseObjectID(oid.Hex(), "task")
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = parseObjectID("not-a-hex-id", "task")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound), "malformed ids look like missing documents")
}

func TestParseObjectIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	got, err := parseObjectIDs([]string{a.Hex(), b.Hex()}, "user")
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, got)

	got, err = parseObjectIDs(nil, "user")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseObjectIDs([]string{a.Hex(), "bogus"}, "user")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestParseBoolParam(t *testing.T) {
	got := parseBoolParam("true")
	require.NotNil(t, got)
	assert.True(t, *got)

	got = parseBoolParam("false")
	require.NotNil(t, got)
	assert.False(t, *got)

	assert.Nil(t, parseBoolParam(""))
	assert.Nil(t, parseBoolParam("yes"))
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"name", "due_date"}, splitFields("name,due_date"))
	assert.Equal(t, []string{"name"}, splitFields(" name , "))
	assert.Nil(t, splitFields(""))
}

func TestContainsRemoveID(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	ids := []primitive.ObjectID{a, b, c}

	assert.True(t, containsID(ids, b))
	assert.False(t, containsID(ids, primitive.NewObjectID()))

	assert.Equal(t, []primitive.ObjectID{a, c}, removeID(ids, b))
}
