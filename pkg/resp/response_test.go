package resp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/taskflow/pkg/ecode"
)

func TestSuccessWithData(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]any{"name": "demo"})

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "demo", body["name"])
}

func TestSuccessWithMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, "deleted")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "deleted", body["message"])
}

func TestWithStatusCode(t *testing.T) {
	w := httptest.NewRecorder()
	WithStatusCode(w, http.StatusCreated, map[string]any{"id": "1"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, NotFound("no task with id x"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body Exception
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ecode.NothingFound, body.Code)
	assert.Equal(t, "no task with id x", body.Message)
}

func TestFailNil(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestFailWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, BadRequest("validation failed", map[string]string{"email": "required"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body Exception
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errs, ok := body.Errors.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "required", errs["email"])
}
