package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/milbratheduardo/task-manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// Concurrent updates to the same task are not serialized by the service:
// the last document write wins and no version token is checked. That is a
// known limitation of the storage model, so nothing here asserts that two
// racing checklist edits merge.

func TestCreateTask_Validation(t *testing.T) {
	svc := NewTaskService(nil, nil)
	due := time.Now().Add(24 * time.Hour)
	assignee := primitive.NewObjectID()

	tests := []struct {
		name  string
		input CreateTaskInput
	}{
		{"missing title", CreateTaskInput{DueDate: &due, AssignedTo: []primitive.ObjectID{assignee}}},
		{"missing due date", CreateTaskInput{Title: "t", AssignedTo: []primitive.ObjectID{assignee}}},
		{"empty assignees", CreateTaskInput{Title: "t", DueDate: &due}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(context.Background(), primitive.NewObjectID(), tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestChangeTaskStatus_RejectsUnknownStatus(t *testing.T) {
	svc := NewTaskService(nil, nil)

	_, err := svc.ChangeTaskStatus(context.Background(), primitive.NewObjectID(), models.Identity{}, "Archived")
	assert.ErrorIs(t, err, ErrValidation)
}

func taskDoc(id primitive.ObjectID, assignees ...primitive.ObjectID) bson.D {
	assigned := bson.A{}
	for _, a := range assignees {
		assigned = append(assigned, a)
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "demo task"},
		{Key: "priority", Value: models.PriorityMedium},
		{Key: "status", Value: models.StatusPending},
		{Key: "dueDate", Value: time.Now().Add(24 * time.Hour)},
		{Key: "assignedTo", Value: assigned},
		{Key: "createdBy", Value: primitive.NewObjectID()},
		{Key: "attachments", Value: bson.A{}},
		{Key: "todoChecklist", Value: bson.A{
			bson.D{{Key: "text", Value: "a"}, {Key: "completed", Value: true}},
			bson.D{{Key: "text", Value: "b"}, {Key: "completed", Value: false}},
		}},
		{Key: "progress", Value: 50},
		{Key: "createdAt", Value: time.Now()},
		{Key: "updatedAt", Value: time.Now()},
	}
}

func TestTaskService_Mongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("GetTaskByID reports not found", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		svc := NewTaskService(mt.Coll, mt.Coll)
		_, err := svc.GetTaskByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt.T, err, ErrNotFound)
	})

	mt.Run("GetTaskByID populates assignees", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
		taskID := primitive.NewObjectID()
		assigneeID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, taskDoc(taskID, assigneeID)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: assigneeID},
				{Key: "name", Value: "Ana"},
				{Key: "email", Value: "ana@example.com"},
				{Key: "profileImageUrl", Value: ""},
			}),
		)

		svc := NewTaskService(mt.Coll, mt.Coll)
		task, err := svc.GetTaskByID(context.Background(), taskID)
		require.NoError(mt.T, err)

		assert.Equal(mt.T, taskID, task.ID)
		assert.Equal(mt.T, 1, task.CompletedTodoCount)
		require.Len(mt.T, task.Assignees, 1)
		assert.Equal(mt.T, "Ana", task.Assignees[0].Name)
		assert.Equal(mt.T, "ana@example.com", task.Assignees[0].Email)
	})

	mt.Run("ChangeTaskStatus rejects strangers", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
		taskID := primitive.NewObjectID()
		assigneeID := primitive.NewObjectID()

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, taskDoc(taskID, assigneeID)))

		svc := NewTaskService(mt.Coll, mt.Coll)
		identity := models.Identity{ID: primitive.NewObjectID(), Role: models.RoleMember}
		_, err := svc.ChangeTaskStatus(context.Background(), taskID, identity, models.StatusCompleted)
		assert.ErrorIs(mt.T, err, ErrForbidden)
	})

	mt.Run("ChangeTaskStatus cascades completion for assignees", func(mt *mtest.T) {
		ns := fmt.Sprintf("%s.%s", mt.Coll.Database().Name(), mt.Coll.Name())
		taskID := primitive.NewObjectID()
		assigneeID := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, taskDoc(taskID, assigneeID)),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		svc := NewTaskService(mt.Coll, mt.Coll)
		identity := models.Identity{ID: assigneeID, Role: models.RoleMember}
		task, err := svc.ChangeTaskStatus(context.Background(), taskID, identity, models.StatusCompleted)
		require.NoError(mt.T, err)

		assert.Equal(mt.T, models.StatusCompleted, task.Status)
		assert.Equal(mt.T, 100, task.Progress)
		for _, item := range task.TodoChecklist {
			assert.True(mt.T, item.Completed)
		}
	})

	mt.Run("DeleteTask reports not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		svc := NewTaskService(mt.Coll, mt.Coll)
		err := svc.DeleteTask(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt.T, err, ErrNotFound)
	})
}
