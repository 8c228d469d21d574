package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a direct message document in MongoDB.
// A message is immutable after insert except for the Seen flag, which
// transitions false -> true exactly once (setting it again is a no-op).
type Message struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID   string             `json:"senderId" bson:"sender_id"`
	ReceiverID string             `json:"receiverId" bson:"receiver_id"`
	Text       string             `json:"text,omitempty" bson:"text,omitempty"`
	ImageURL   string             `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	Seen       bool               `json:"seen" bson:"seen"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// ErrorPayload represents an error response sent to a client via WebSocket
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
