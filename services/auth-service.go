package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/milbratheduardo/task-manager/models"
	"github.com/milbratheduardo/task-manager/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuthService struct {
	UserCollection *mongo.Collection
}

func NewAuthService(userCollection *mongo.Collection) *AuthService {
	return &AuthService{UserCollection: userCollection}
}

type RegisterInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
}

type ProfileUpdateInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// Register creates a new user. The role defaults to member; supplying the
// matching admin invite token promotes the account to admin.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	var existing models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"email": input.Email}).Decode(&existing)
	if err == nil {
		return nil, "", ErrEmailTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", fmt.Errorf("failed to check existing user: %v", err)
	}

	role := models.RoleMember
	inviteToken := os.Getenv("ADMIN_INVITE_TOKEN")
	if input.AdminInviteToken != "" && inviteToken != "" && input.AdminInviteToken == inviteToken {
		role = models.RoleAdmin
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	user := models.User{
		ID:              primitive.NewObjectID(),
		Name:            input.Name,
		Email:           input.Email,
		Password:        hashed,
		ProfileImageURL: input.ProfileImageURL,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to save user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	user.Password = ""
	return &user, token, nil
}

// Login verifies credentials and issues a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to retrieve user: %v", err)
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	user.Password = ""
	return &user, token, nil
}

// GetUserByID fetches a user record with the credential stripped.
func (s *AuthService) GetUserByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
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

// UpdateProfile applies the provided fields to the acting user's own record
// and issues a fresh token. Absent fields are left untouched.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, input ProfileUpdateInput) (*models.User, string, error) {
	var user models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, "", fmt.Errorf("user %w", ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to retrieve user: %v", err)
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.ProfileImageURL != nil {
		user.ProfileImageURL = *input.ProfileImageURL
	}
	if input.Password != nil {
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, "", err
		}
		user.Password = hashed
	}
	user.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":            user.Name,
		"email":           user.Email,
		"profileImageUrl": user.ProfileImageURL,
		"password":        user.Password,
		"updatedAt":       user.UpdatedAt,
	}}
	if _, err := s.UserCollection.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return nil, "", fmt.Errorf("failed to update profile: %v", err)
	}

	token, err := utils.GenerateToken(user.ID.Hex())
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	user.Password = ""
	return &user, token, nil
}
