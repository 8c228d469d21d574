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
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage     = errors.New("invalid message: sender and receiver are required")
	ErrMessageNotFound    = errors.New("message not found")
	ErrOperationTimeout   = errors.New("operation timeout exceeded")
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
	FindBetween(ctx context.Context, userA, userB string) ([]model.Message, error)
	MarkThreadSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	MarkSeen(ctx context.Context, id string) error
	CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int64, error)
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := m.validateMessage(msg); err != nil {
		return nil, err
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("sender_id", msg.SenderID),
				zap.String("receiver_id", msg.ReceiverID),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err

		// Don't retry on context cancellation or non-retryable errors
		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("sender_id", msg.SenderID),
		zap.String("receiver_id", msg.ReceiverID),
	)

	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// FindBetween
// -----------------------------------------------------------------------------

// FindBetween returns every message exchanged between the two users in
// creation order, oldest first. Ties on created_at break on _id so the
// ordering is stable.
func (m *messageRepository) FindBetween(ctx context.Context, userA, userB string) ([]model.Message, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		db.NewFilter().Eq("sender_id", userA).Eq("receiver_id", userB).Build(),
		db.NewFilter().Eq("sender_id", userB).Eq("receiver_id", userA).Build(),
	).Build()

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	messages, err := m.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		return nil, m.handleReadError(err, userA, userB)
	}

	m.logger.Debug("thread fetched",
		zap.String("user_a", userA),
		zap.String("user_b", userB),
		zap.Int("count", len(messages)),
	)
	return messages, nil
}

// -----------------------------------------------------------------------------
// Seen transitions
// -----------------------------------------------------------------------------

// MarkThreadSeen flips every unseen message from senderID to receiverID
// in one bulk update and returns the number of messages modified.
func (m *messageRepository) MarkThreadSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("sender_id", senderID).
		Eq("receiver_id", receiverID).
		Eq("seen", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"seen": true})
	if err != nil {
		m.logger.Error("bulk seen update failed",
			zap.Error(err),
			zap.String("sender_id", senderID),
			zap.String("receiver_id", receiverID),
		)
		return 0, fmt.Errorf("mark thread seen failed: %w", err)
	}

	if result.ModifiedCount > 0 {
		m.logger.Info("thread marked seen",
			zap.String("sender_id", senderID),
			zap.String("receiver_id", receiverID),
			zap.Int64("modified", result.ModifiedCount),
		)
	}
	return result.ModifiedCount, nil
}

// MarkSeen flips the seen flag on a single message. Marking an already
// seen message is a no-op; an id that resolves to nothing is ErrMessageNotFound.
func (m *messageRepository) MarkSeen(ctx context.Context, id string) error {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	result, err := m.mongoRepo.UpdateByID(ctx, id, bson.M{"seen": true})
	if err != nil {
		if errors.Is(err, primitive.ErrInvalidHex) {
			return ErrMessageNotFound
		}
		m.logger.Error("mark seen failed", zap.Error(err), zap.String("message_id", id))
		return fmt.Errorf("mark seen failed: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// -----------------------------------------------------------------------------
// CountUnseenBySender
// -----------------------------------------------------------------------------

type unseenCountRow struct {
	SenderID string `bson:"_id"`
	Count    int64  `bson:"count"`
}

// CountUnseenBySender returns a sparse map of sender id to unseen message
// count for the given receiver. Senders with zero unseen messages are
// absent from the map. One grouped query, not one query per peer.
func (m *messageRepository) CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int64, error) {
	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"receiver_id": receiverID, "seen": false}}},
		{{Key: "$group", Value: bson.M{"_id": "$sender_id", "count": bson.M{"$sum": 1}}}},
	}

	var rows []unseenCountRow
	if err := m.mongoRepo.Aggregate(ctx, pipeline, &rows); err != nil {
		m.logger.Error("unseen count aggregation failed",
			zap.Error(err),
			zap.String("receiver_id", receiverID),
		)
		return nil, fmt.Errorf("count unseen failed: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	return counts, nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil || msg.SenderID == "" || msg.ReceiverID == "" {
		return ErrInvalidMessage
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

func (m *messageRepository) handleReadError(err error, userA, userB string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("user_a", userA), zap.String("user_b", userB))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("user_a", userA), zap.String("user_b", userB))
		return err
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("user_a", userA), zap.String("user_b", userB))
	return fmt.Errorf("find thread failed: %w", err)
}
