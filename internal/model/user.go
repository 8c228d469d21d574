package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a user profile document in MongoDB.
// Credential material is owned by the auth service and is never stored
// or returned here.
type User struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email     string             `json:"email" bson:"email"`
	FullName  string             `json:"fullName" bson:"full_name"`
	AvatarURL string             `json:"avatarUrl" bson:"avatar_url"`
	Bio       string             `json:"bio" bson:"bio"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt *time.Time         `json:"updatedAt" bson:"updated_at"`
}
