package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manumay1962/CHAT-APP/internal/db"
	"github.com/manumay1962/CHAT-APP/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListOthers(ctx context.Context, excludeID string) ([]model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
}

func NewUserRepository(repo *db.Repository[model.User]) UserRepository {
	return &userRepository{
		mongoRepo: repo,
	}
}

func (r *userRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, primitive.ErrInvalidHex) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user failed: %w", err)
	}

	return result, nil
}

// ListOthers returns every user except the one identified by excludeID,
// newest profiles first.
func (r *userRepository) ListOthers(ctx context.Context, excludeID string) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := db.Empty()
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter = db.NewFilter().Ne("_id", oid).Build()
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	users, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list users failed: %w", err)
	}
	return users, nil
}
