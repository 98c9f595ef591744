package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) (string, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error)
	FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// Users implements UserCollection on a Store
type Users struct {
	store Store
}

// NewUsers creates a user collection backed by store
func NewUsers(store Store) *Users {
	return &Users{store: store}
}

// InsertUser inserts a new user and sets its ID
func (c *Users) InsertUser(ctx context.Context, user *models.User) (string, error) {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	id, err := c.store.InsertOne(ctx, CollectionUsers, user)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

// FindUserByID finds a user by their ID. Malformed IDs are reported as ErrNotFound.
func (c *Users) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindUserByEmail finds a user by their email
func (c *Users) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": email})
}

// FindUserByEmailAndRole finds a user registered with the given email and role
func (c *Users) FindUserByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": email, "role": string(role)})
}

// FindUsersByRole lists users with role, in stored order
func (c *Users) FindUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := c.store.FindMany(ctx, CollectionUsers, bson.M{"role": string(role)}, &users); err != nil {
		return nil, fmt.Errorf("find users by role: %w", err)
	}
	return users, nil
}

func (c *Users) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := c.store.FindOne(ctx, CollectionUsers, filter, &user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
