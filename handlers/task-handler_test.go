package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/milbratheduardo/task-manager/middleware"
	"github.com/milbratheduardo/task-manager/models"
	"github.com/milbratheduardo/task-manager/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The handlers under test reject bad payloads before touching the service,
// so a service without collections is enough here.
func newTestTaskHandler() *TaskHandler {
	return NewTaskHandler(services.NewTaskService(nil, nil))
}

func authedTaskRequest(t *testing.T, method, body string) *http.Request {
	t.Helper()
	taskID := primitive.NewObjectID()
	req := httptest.NewRequest(method, "/api/tasks/"+taskID.Hex(), strings.NewReader(body))
	identity := models.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	return mux.SetURLVars(req, map[string]string{"id": taskID.Hex()})
}

func TestUpdateTaskChecklist_RejectsNullChecklist(t *testing.T) {
	h := newTestTaskHandler()

	req := authedTaskRequest(t, http.MethodPut, `{"todoChecklist": null}`)
	rec := httptest.NewRecorder()

	h.UpdateTaskChecklist(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid checklist")
}

func TestUpdateTaskChecklist_RejectsNonArrayChecklist(t *testing.T) {
	h := newTestTaskHandler()

	tests := []struct {
		name string
		body string
	}{
		{"string value", `{"todoChecklist": "do the thing"}`},
		{"object value", `{"todoChecklist": {"text": "a"}}`},
		{"missing field", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := authedTaskRequest(t, http.MethodPut, tt.body)
			rec := httptest.NewRecorder()

			h.UpdateTaskChecklist(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid checklist")
		})
	}
}

func TestUpdateTask_RejectsNonArrayAssignedTo(t *testing.T) {
	h := newTestTaskHandler()

	req := authedTaskRequest(t, http.MethodPut, `{"assignedTo": "not-a-list"}`)
	rec := httptest.NewRecorder()

	h.UpdateTask(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request data")
}

func TestCreateTask_RejectsNonArrayAssignedTo(t *testing.T) {
	h := newTestTaskHandler()

	body := `{"title": "t", "dueDate": "2026-09-30T00:00:00Z", "assignedTo": "not-a-list"}`
	req := authedTaskRequest(t, http.MethodPost, body)
	rec := httptest.NewRecorder()

	h.CreateTask(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing or invalid required fields")
}
