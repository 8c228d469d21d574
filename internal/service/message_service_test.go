package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/manumay1962/CHAT-APP/internal/repo"
	"github.com/manumay1962/CHAT-APP/internal/uploader"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeMessages is an in-memory MessageRepository preserving insertion
// order, which stands in for created_at ordering.
type fakeMessages struct {
	messages  []model.Message
	insertErr error
}

func (f *fakeMessages) InsertMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	msg.ID = primitive.NewObjectID()
	f.messages = append(f.messages, *msg)
	return msg, nil
}

func (f *fakeMessages) FindBetween(ctx context.Context, userA, userB string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkThreadSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	var modified int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.Seen {
			m.Seen = true
			modified++
		}
	}
	return modified, nil
}

func (f *fakeMessages) MarkSeen(ctx context.Context, id string) error {
	for i := range f.messages {
		if f.messages[i].ID.Hex() == id {
			f.messages[i].Seen = true
			return nil
		}
	}
	return repo.ErrMessageNotFound
}

func (f *fakeMessages) CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, m := range f.messages {
		if m.ReceiverID == receiverID && !m.Seen {
			counts[m.SenderID]++
		}
	}
	return counts, nil
}

type fakeUploader struct {
	url    string
	err    error
	calls  int
	lastIn []byte
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte) (string, error) {
	f.calls++
	f.lastIn = data
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type recordingDeliverer struct {
	delivered []*model.Message
}

func (r *recordingDeliverer) Deliver(msg *model.Message) {
	r.delivered = append(r.delivered, msg)
}

func newTestService() (MessageService, *fakeMessages, *fakeUploader, *recordingDeliverer) {
	messages := &fakeMessages{}
	up := &fakeUploader{url: "https://cdn.example.com/img.png"}
	deliverer := &recordingDeliverer{}
	svc := NewMessageService(messages, up, deliverer, zap.NewNop())
	return svc, messages, up, deliverer
}

func TestSend_TextToOfflineReceiver(t *testing.T) {
	req := require.New(t)
	svc, _, up, deliverer := newTestService()

	msg, err := svc.Send(context.Background(), "u1", "u2", SendInput{Text: "hello"})
	req.NoError(err)
	req.False(msg.ID.IsZero())
	req.Equal("u1", msg.SenderID)
	req.Equal("u2", msg.ReceiverID)
	req.False(msg.Seen)
	req.Zero(up.calls)

	// delivery was triggered; its outcome never affects the response
	req.Len(deliverer.delivered, 1)

	// the message is discoverable through a later fetch, still unseen
	thread, err := svc.GetThread(context.Background(), "u2", "u1")
	req.NoError(err)
	req.Len(thread, 1)
	req.False(thread[0].Seen)
}

func TestSend_WithImageUploadsFirst(t *testing.T) {
	req := require.New(t)
	svc, _, up, _ := newTestService()

	msg, err := svc.Send(context.Background(), "u1", "u2", SendInput{Image: "data:image/png;base64,aGk="})
	req.NoError(err)
	req.Equal(1, up.calls)
	req.Equal([]byte("data:image/png;base64,aGk="), up.lastIn)
	req.Equal("https://cdn.example.com/img.png", msg.ImageURL)
}

func TestSend_UploadFailureAbortsEverything(t *testing.T) {
	req := require.New(t)
	svc, messages, up, deliverer := newTestService()
	up.err = fmt.Errorf("%w: quota exceeded", uploader.ErrUploadFailed)

	_, err := svc.Send(context.Background(), "u1", "u2", SendInput{Text: "caption", Image: "data:..."})
	req.ErrorIs(err, uploader.ErrUploadFailed)

	// no partial message, no delivery attempt
	req.Empty(messages.messages)
	req.Empty(deliverer.delivered)
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	req := require.New(t)
	svc, messages, _, deliverer := newTestService()

	_, err := svc.Send(context.Background(), "u1", "u2", SendInput{})
	req.ErrorIs(err, ErrEmptyMessage)
	req.Empty(messages.messages)
	req.Empty(deliverer.delivered)
}

func TestSend_MissingReceiverRejected(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Send(context.Background(), "u1", "", SendInput{Text: "hi"})
	require.ErrorIs(t, err, ErrInvalidReceiver)
}

func TestSend_PersistenceFailurePropagates(t *testing.T) {
	req := require.New(t)
	svc, messages, _, deliverer := newTestService()
	messages.insertErr = errors.New("mongo down")

	_, err := svc.Send(context.Background(), "u1", "u2", SendInput{Text: "hi"})
	req.Error(err)
	req.Empty(deliverer.delivered)
}

func TestGetThread_MarksIncomingSeen(t *testing.T) {
	req := require.New(t)
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Send(ctx, "u2", "u1", SendInput{Text: "first"})
	req.NoError(err)
	_, err = svc.Send(ctx, "u2", "u1", SendInput{Text: "second"})
	req.NoError(err)
	_, err = svc.Send(ctx, "u1", "u2", SendInput{Text: "reply"})
	req.NoError(err)

	counts, err := svc.UnseenCounts(ctx, "u1")
	req.NoError(err)
	req.Equal(map[string]int64{"u2": 2}, counts)

	// fetching the thread as u1 bulk-marks u2's messages seen
	thread, err := svc.GetThread(ctx, "u1", "u2")
	req.NoError(err)
	req.Len(thread, 3)
	req.Equal("first", thread[0].Text)
	req.Equal("reply", thread[2].Text)

	counts, err = svc.UnseenCounts(ctx, "u1")
	req.NoError(err)
	req.Empty(counts)

	// u1's own reply stays unseen for u2 until u2 fetches
	counts, err = svc.UnseenCounts(ctx, "u2")
	req.NoError(err)
	req.Equal(map[string]int64{"u1": 1}, counts)
}

func TestMarkSeen_IsIdempotent(t *testing.T) {
	req := require.New(t)
	svc, messages, _, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.Send(ctx, "u1", "u2", SendInput{Text: "hi"})
	req.NoError(err)

	req.NoError(svc.MarkSeen(ctx, msg.ID.Hex()))
	req.NoError(svc.MarkSeen(ctx, msg.ID.Hex()))
	req.True(messages.messages[0].Seen)
}

func TestMarkSeen_UnknownIdIsNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.MarkSeen(context.Background(), primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, repo.ErrMessageNotFound)
}

func TestUnseenCounts_SparseMapping(t *testing.T) {
	req := require.New(t)
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	counts, err := svc.UnseenCounts(ctx, "u1")
	req.NoError(err)
	req.Empty(counts)

	senders := []string{"u2", "u2", "u3"}
	for _, s := range senders {
		_, err := svc.Send(ctx, s, "u1", SendInput{Text: "ping"})
		req.NoError(err)
	}

	counts, err = svc.UnseenCounts(ctx, "u1")
	req.NoError(err)

	var peers []string
	for peer := range counts {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	req.Equal([]string{"u2", "u3"}, peers)
	req.EqualValues(2, counts["u2"])
	req.EqualValues(1, counts["u3"])
}
