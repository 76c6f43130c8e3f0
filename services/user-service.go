package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/milbratheduardo/task-manager/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	UserCollection *mongo.Collection
	TaskCollection *mongo.Collection
}

func NewUserService(userCollection, taskCollection *mongo.Collection) *UserService {
	return &UserService{
		UserCollection: userCollection,
		TaskCollection: taskCollection,
	}
}

// GetMembers returns every member account together with counts of their
// assigned tasks per status.
func (s *UserService) GetMembers(ctx context.Context) ([]models.UserWithTaskCounts, error) {
	cursor, err := s.UserCollection.Find(ctx, bson.M{"role": models.RoleMember})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to parse members: %v", err)
	}

	members := make([]models.UserWithTaskCounts, 0, len(users))
	for _, user := range users {
		user.Password = ""

		counts := models.UserWithTaskCounts{User: user}
		for status, target := range map[models.TaskStatus]*int64{
			models.StatusPending:    &counts.PendingTasks,
			models.StatusInProgress: &counts.InProgressTasks,
			models.StatusCompleted:  &counts.CompletedTasks,
		} {
			n, err := s.TaskCollection.CountDocuments(ctx, bson.M{"assignedTo": user.ID, "status": status})
			if err != nil {
				return nil, fmt.Errorf("failed to count tasks for user %s: %v", user.ID.Hex(), err)
			}
			*target = n
		}

		members = append(members, counts)
	}

	return members, nil
}

// GetUserByID returns a single user record with the credential stripped.
func (s *UserService) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to retrieve user: %v", err)
	}
	user.Password = ""
	return &user, nil
}

// DeleteUser removes a user account.
func (s *UserService) DeleteUser(ctx context.Context, userID primitive.ObjectID) error {
	result, err := s.UserCollection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("user %w", ErrNotFound)
	}
	return nil
}
