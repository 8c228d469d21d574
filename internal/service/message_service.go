package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/manumay1962/CHAT-APP/internal/repo"
	"github.com/manumay1962/CHAT-APP/internal/uploader"
	"go.uber.org/zap"
)

var (
	// ErrEmptyMessage rejects a send carrying neither text nor image.
	ErrEmptyMessage = errors.New("message must contain text or an image")
	// ErrInvalidReceiver rejects a send without a receiver.
	ErrInvalidReceiver = errors.New("receiver is required")
)

// Deliverer pushes a persisted message towards its receiver's live
// connection. Implemented by hub.Dispatcher.
type Deliverer interface {
	Deliver(msg *model.Message)
}

// SendInput is the request body for sending a message. At least one of
// Text/Image must be present; Image is a base64 data URI.
type SendInput struct {
	Text  string `json:"text" validate:"required_without=Image"`
	Image string `json:"image" validate:"required_without=Text"`
}

type MessageService interface {
	Send(ctx context.Context, senderID, receiverID string, in SendInput) (*model.Message, error)
	GetThread(ctx context.Context, userID, peerID string) ([]model.Message, error)
	MarkSeen(ctx context.Context, messageID string) error
	UnseenCounts(ctx context.Context, userID string) (map[string]int64, error)
}

type messageService struct {
	messages  repo.MessageRepository
	uploader  uploader.Uploader
	deliverer Deliverer
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewMessageService(messages repo.MessageRepository, up uploader.Uploader, deliverer Deliverer, logger *zap.Logger) MessageService {
	return &messageService{
		messages:  messages,
		uploader:  up,
		deliverer: deliverer,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Send persists a message and triggers best-effort live delivery.
// Success of the returned message means persistence succeeded; it says
// nothing about whether the receiver got the push.
func (s *messageService) Send(ctx context.Context, senderID, receiverID string, in SendInput) (*model.Message, error) {
	if receiverID == "" {
		return nil, ErrInvalidReceiver
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyMessage, err)
	}

	var imageURL string
	if in.Image != "" {
		// Upload before persisting: an upload failure aborts the whole
		// send, no partial message without its image.
		url, err := s.uploader.Upload(ctx, []byte(in.Image))
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       in.Text,
		ImageURL:   imageURL,
		Seen:       false,
		CreatedAt:  time.Now().UTC(),
	}

	persisted, err := s.messages.InsertMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	// Push is attempted only after persistence is confirmed, and its
	// outcome never reaches the sender.
	s.deliverer.Deliver(persisted)

	return persisted, nil
}

// GetThread returns the full conversation between userID and peerID in
// creation order and, as a side effect, bulk-marks every message from
// the peer to the requesting user as seen.
func (s *messageService) GetThread(ctx context.Context, userID, peerID string) ([]model.Message, error) {
	messages, err := s.messages.FindBetween(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messages.MarkThreadSeen(ctx, peerID, userID); err != nil {
		// The thread itself was fetched; losing the seen transition is
		// worth failing for, the client would otherwise keep stale
		// unseen counts.
		return nil, err
	}

	return messages, nil
}

func (s *messageService) MarkSeen(ctx context.Context, messageID string) error {
	return s.messages.MarkSeen(ctx, messageID)
}

// UnseenCounts returns a sparse per-peer map of unseen message counts
// for the requesting user.
func (s *messageService) UnseenCounts(ctx context.Context, userID string) (map[string]int64, error) {
	return s.messages.CountUnseenBySender(ctx, userID)
}
