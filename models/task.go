package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

// TodoItem is a single checklist entry on a task.
type TodoItem struct {
	Text      string `json:"text" bson:"text"`
	Completed bool   `json:"completed" bson:"completed"`
}

type Task struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Title         string               `json:"title" bson:"title"`
	Description   string               `json:"description,omitempty" bson:"description,omitempty"`
	Priority      TaskPriority         `json:"priority" bson:"priority"`
	Status        TaskStatus           `json:"status" bson:"status"`
	DueDate       time.Time            `json:"dueDate" bson:"dueDate"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo" bson:"assignedTo"`
	CreatedBy     primitive.ObjectID   `json:"createdBy" bson:"createdBy"`
	Attachments   []string             `json:"attachments" bson:"attachments"`
	TodoChecklist []TodoItem           `json:"todoChecklist" bson:"todoChecklist"`
	Progress      int                  `json:"progress" bson:"progress"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// AssigneeSummary is the projection of a user that gets embedded in task
// responses in place of the raw assignee IDs.
type AssigneeSummary struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email" bson:"email"`
	ProfileImageURL string             `json:"profileImageUrl" bson:"profileImageUrl"`
}

// TaskWithAssignees is a task joined with its assignee display data.
type TaskWithAssignees struct {
	Task               `bson:",inline"`
	Assignees          []AssigneeSummary `json:"assignedTo"`
	CompletedTodoCount int               `json:"completedTodoCount"`
}

// TaskSummary is the trimmed shape used by the dashboard recent-tasks list.
type TaskSummary struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Status    TaskStatus         `json:"status" bson:"status"`
	Priority  TaskPriority       `json:"priority" bson:"priority"`
	DueDate   time.Time          `json:"dueDate" bson:"dueDate"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
