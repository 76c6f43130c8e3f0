package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/milbratheduardo/task-manager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskService struct {
	TaskCollection *mongo.Collection
	UserCollection *mongo.Collection
}

func NewTaskService(taskCollection, userCollection *mongo.Collection) *TaskService {
	return &TaskService{
		TaskCollection: taskCollection,
		UserCollection: userCollection,
	}
}

type CreateTaskInput struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Priority      models.TaskPriority  `json:"priority"`
	DueDate       *time.Time           `json:"dueDate"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo"`
	Attachments   []string             `json:"attachments"`
	TodoChecklist []TodoInput          `json:"todoChecklist"`
}

type UpdateTaskInput struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Priority      *models.TaskPriority  `json:"priority"`
	DueDate       *time.Time            `json:"dueDate"`
	AssignedTo    *[]primitive.ObjectID `json:"assignedTo"`
	Attachments   *[]string             `json:"attachments"`
	TodoChecklist *[]TodoInput          `json:"todoChecklist"`
}

// StatusSummary carries per-status task counts next to a task listing.
type StatusSummary struct {
	All             int64 `json:"all"`
	PendingTasks    int64 `json:"pendingTasks"`
	InProgressTasks int64 `json:"inProgressTasks"`
	CompletedTasks  int64 `json:"completedTasks"`
}

var validStatuses = map[models.TaskStatus]bool{
	models.StatusPending:    true,
	models.StatusInProgress: true,
	models.StatusCompleted:  true,
}

// GetTasks lists tasks with assignee data and a status summary. Admins see
// every task; members only the ones assigned to them. An optional status
// value narrows the listing.
func (s *TaskService) GetTasks(ctx context.Context, identity models.Identity, status string) ([]models.TaskWithAssignees, *StatusSummary, error) {
	userFilter := bson.M{}
	if !identity.IsAdmin() {
		userFilter["assignedTo"] = identity.ID
	}

	filter := bson.M{}
	for k, v := range userFilter {
		filter[k] = v
	}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := s.TaskCollection.Find(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, nil, fmt.Errorf("failed to decode tasks: %v", err)
	}

	populated, err := s.populateTasks(ctx, tasks)
	if err != nil {
		return nil, nil, err
	}

	summary := &StatusSummary{}
	if summary.All, err = s.TaskCollection.CountDocuments(ctx, userFilter); err != nil {
		return nil, nil, fmt.Errorf("failed to count tasks: %v", err)
	}
	for st, target := range map[models.TaskStatus]*int64{
		models.StatusPending:    &summary.PendingTasks,
		models.StatusInProgress: &summary.InProgressTasks,
		models.StatusCompleted:  &summary.CompletedTasks,
	} {
		statusFilter := bson.M{"status": st}
		for k, v := range userFilter {
			statusFilter[k] = v
		}
		if *target, err = s.TaskCollection.CountDocuments(ctx, statusFilter); err != nil {
			return nil, nil, fmt.Errorf("failed to count tasks: %v", err)
		}
	}

	return populated, summary, nil
}

// GetTaskByID returns a single task joined with its assignee data.
func (s *TaskService) GetTaskByID(ctx context.Context, taskID primitive.ObjectID) (*models.TaskWithAssignees, error) {
	var task models.Task
	if err := s.TaskCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	populated, err := s.populateTasks(ctx, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

// CreateTask validates and stores a new task. Title, due date and at least
// one assignee are required.
func (s *TaskService) CreateTask(ctx context.Context, creatorID primitive.ObjectID, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" || input.DueDate == nil || len(input.AssignedTo) == 0 {
		return nil, fmt.Errorf("%w: missing or invalid required fields", ErrValidation)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now()
	task := models.Task{
		ID:            primitive.NewObjectID(),
		Title:         input.Title,
		Description:   input.Description,
		Priority:      priority,
		Status:        models.StatusPending,
		DueDate:       *input.DueDate,
		AssignedTo:    input.AssignedTo,
		CreatedBy:     creatorID,
		Attachments:   input.Attachments,
		TodoChecklist: NormalizeChecklist(input.TodoChecklist),
		Progress:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if task.Attachments == nil {
		task.Attachments = []string{}
	}

	if _, err := s.TaskCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	return &task, nil
}

// UpdateTask applies a partial update. Each field overrides the stored value
// only when present in the patch; an assignedTo value replaces the list
// wholesale. Progress and status are not rederived here.
func (s *TaskService) UpdateTask(ctx context.Context, taskID primitive.ObjectID, input UpdateTaskInput) (*models.Task, error) {
	var task models.Task
	if err := s.TaskCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.TodoChecklist != nil {
		task.TodoChecklist = NormalizeChecklist(*input.TodoChecklist)
	}
	if input.Attachments != nil {
		task.Attachments = *input.Attachments
	}
	if input.AssignedTo != nil {
		task.AssignedTo = *input.AssignedTo
	}
	task.UpdatedAt = time.Now()

	if _, err := s.TaskCollection.ReplaceOne(ctx, bson.M{"_id": taskID}, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}

	return &task, nil
}

// DeleteTask removes a task unconditionally.
func (s *TaskService) DeleteTask(ctx context.Context, taskID primitive.ObjectID) error {
	result, err := s.TaskCollection.DeleteOne(ctx, bson.M{"_id": taskID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("task %w", ErrNotFound)
	}
	return nil
}

// ChangeTaskStatus sets a task's status directly. Only assignees and admins
// may do so. Setting Completed cascades checklist completion.
func (s *TaskService) ChangeTaskStatus(ctx context.Context, taskID primitive.ObjectID, identity models.Identity, status models.TaskStatus) (*models.Task, error) {
	if !validStatuses[status] {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var task models.Task
	if err := s.TaskCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !CanModifyTask(identity, &task) {
		return nil, ErrForbidden
	}

	ApplyStatus(&task, status)
	task.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"status":        task.Status,
		"todoChecklist": task.TodoChecklist,
		"progress":      task.Progress,
		"updatedAt":     task.UpdatedAt,
	}}
	if _, err := s.TaskCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to update task status: %v", err)
	}

	return &task, nil
}

// UpdateChecklist replaces a task's checklist and rederives progress and
// status from the new items. Only assignees and admins may do so.
func (s *TaskService) UpdateChecklist(ctx context.Context, taskID primitive.ObjectID, identity models.Identity, items []TodoInput) (*models.TaskWithAssignees, error) {
	var task models.Task
	if err := s.TaskCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("task %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !CanModifyTask(identity, &task) {
		return nil, ErrForbidden
	}

	ApplyChecklist(&task, NormalizeChecklist(items))
	task.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"todoChecklist": task.TodoChecklist,
		"progress":      task.Progress,
		"status":        task.Status,
		"updatedAt":     task.UpdatedAt,
	}}
	if _, err := s.TaskCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update); err != nil {
		return nil, fmt.Errorf("failed to update checklist: %v", err)
	}

	populated, err := s.populateTasks(ctx, []models.Task{task})
	if err != nil {
		return nil, err
	}
	return &populated[0], nil
}

// populateTasks joins tasks with the display data of their assignees and
// computes the completed-item count shown in listings.
func (s *TaskService) populateTasks(ctx context.Context, tasks []models.Task) ([]models.TaskWithAssignees, error) {
	idSet := make(map[primitive.ObjectID]struct{})
	for _, task := range tasks {
		for _, assignee := range task.AssignedTo {
			idSet[assignee] = struct{}{}
		}
	}

	assignees := make(map[primitive.ObjectID]models.AssigneeSummary)
	if len(idSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}

		projection := options.Find().SetProjection(bson.M{"name": 1, "email": 1, "profileImageUrl": 1})
		cursor, err := s.UserCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, projection)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch assignees: %v", err)
		}
		defer cursor.Close(ctx)

		var summaries []models.AssigneeSummary
		if err := cursor.All(ctx, &summaries); err != nil {
			return nil, fmt.Errorf("failed to decode assignees: %v", err)
		}
		for _, summary := range summaries {
			assignees[summary.ID] = summary
		}
	}

	populated := make([]models.TaskWithAssignees, 0, len(tasks))
	for _, task := range tasks {
		withAssignees := models.TaskWithAssignees{
			Task:               task,
			Assignees:          make([]models.AssigneeSummary, 0, len(task.AssignedTo)),
			CompletedTodoCount: CompletedCount(task.TodoChecklist),
		}
		for _, id := range task.AssignedTo {
			if summary, ok := assignees[id]; ok {
				withAssignees.Assignees = append(withAssignees.Assignees, summary)
			}
		}
		populated = append(populated, withAssignees)
	}

	return populated, nil
}
