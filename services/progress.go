package services

import (
	"encoding/json"
	"math"

	"github.com/milbratheduardo/task-manager/models"
)

// TodoInput is a checklist entry as it arrives on the wire. Entries may be
// sent either as plain strings or as {text, completed} objects; plain
// strings become unchecked items.
type TodoInput struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func (t *TodoInput) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		t.Text = text
		t.Completed = false
		return nil
	}

	type todoAlias TodoInput
	var alias todoAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*t = TodoInput(alias)
	return nil
}

// NormalizeChecklist converts wire checklist entries into stored items.
func NormalizeChecklist(items []TodoInput) []models.TodoItem {
	checklist := make([]models.TodoItem, 0, len(items))
	for _, item := range items {
		checklist = append(checklist, models.TodoItem{Text: item.Text, Completed: item.Completed})
	}
	return checklist
}

// ChecklistProgress returns the completion percentage of a checklist,
// rounded to the nearest integer. An empty checklist is 0.
func ChecklistProgress(items []models.TodoItem) int {
	if len(items) == 0 {
		return 0
	}
	completed := CompletedCount(items)
	return int(math.Round(float64(completed) / float64(len(items)) * 100))
}

// CompletedCount counts the checked items of a checklist.
func CompletedCount(items []models.TodoItem) int {
	count := 0
	for _, item := range items {
		if item.Completed {
			count++
		}
	}
	return count
}

// StatusForProgress maps a progress percentage onto a task status:
// 100 is Completed, anything above zero is In Progress, zero is Pending.
func StatusForProgress(progress int) models.TaskStatus {
	switch {
	case progress == 100:
		return models.StatusCompleted
	case progress > 0:
		return models.StatusInProgress
	default:
		return models.StatusPending
	}
}

// ApplyChecklist replaces a task's checklist wholesale and rederives its
// progress and status from the new items.
func ApplyChecklist(task *models.Task, items []models.TodoItem) {
	task.TodoChecklist = items
	task.Progress = ChecklistProgress(items)
	task.Status = StatusForProgress(task.Progress)
}

// ApplyStatus sets a task's status directly. Moving to Completed cascades:
// every checklist item is checked and progress forced to 100. Moving away
// from Completed does not cascade back.
func ApplyStatus(task *models.Task, status models.TaskStatus) {
	task.Status = status

	if status == models.StatusCompleted {
		for i := range task.TodoChecklist {
			task.TodoChecklist[i].Completed = true
		}
		task.Progress = 100
	}
}

// CanModifyTask reports whether an identity may change a task's status or
// checklist: admins always, everyone else only when assigned to it.
func CanModifyTask(identity models.Identity, task *models.Task) bool {
	if identity.IsAdmin() {
		return true
	}
	for _, assignee := range task.AssignedTo {
		if assignee == identity.ID {
			return true
		}
	}
	return false
}
