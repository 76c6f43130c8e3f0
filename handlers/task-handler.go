package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/milbratheduardo/task-manager/middleware"
	"github.com/milbratheduardo/task-manager/models"
	"github.com/milbratheduardo/task-manager/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

func taskIDFromRequest(r *http.Request) (primitive.ObjectID, bool) {
	vars := mux.Vars(r)
	taskID, err := primitive.ObjectIDFromHex(vars["id"])
	return taskID, err == nil
}

// GetTasks lists tasks visible to the acting user, with a status summary.
// Admins see everything, members only their assigned tasks.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	status := r.URL.Query().Get("status")
	tasks, summary, err := h.service.GetTasks(r.Context(), identity, status)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks":         tasks,
		"statusSummary": summary,
	})
}

// GetTaskByID returns a single task with populated assignees.
func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDFromRequest(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	task, err := h.service.GetTaskByID(r.Context(), taskID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// CreateTask creates a task on behalf of the acting admin.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var input services.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Missing or invalid required fields")
		return
	}

	task, err := h.service.CreateTask(r.Context(), identity.ID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Task created successfully",
		"task":    task,
	})
}

// UpdateTask applies a partial update to a task.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDFromRequest(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var input services.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), taskID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Task updated successfully",
		"updatedTask": task,
	})
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := taskIDFromRequest(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		respondError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, "Task deleted successfully")
}

// UpdateTaskStatus sets a task's status directly.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	taskID, ok := taskIDFromRequest(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var input struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	task, err := h.service.ChangeTaskStatus(r.Context(), taskID, identity, input.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Task status updated successfully",
		"task":    task,
	})
}

// UpdateTaskChecklist replaces a task's checklist and returns the task with
// rederived progress and status.
func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	taskID, ok := taskIDFromRequest(r)
	if !ok {
		respondMessage(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var input struct {
		TodoChecklist *[]services.TodoInput `json:"todoChecklist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.TodoChecklist == nil {
		respondMessage(w, http.StatusBadRequest, "Invalid checklist")
		return
	}

	task, err := h.service.UpdateChecklist(r.Context(), taskID, identity, *input.TodoChecklist)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Checklist updated",
		"task":    task,
	})
}
