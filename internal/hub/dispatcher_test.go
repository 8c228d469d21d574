package hub

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/manumay1962/CHAT-APP/internal/model"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testMessage(sender, receiver, text string) *model.Message {
	return &model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestDispatcher_OfflineReceiverIsSilent(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceTable()
	d := NewDispatcher(presence, zap.NewNop())

	d.Deliver(testMessage("u1", "u2", "hello"))

	stats := d.Stats()
	req.EqualValues(1, stats.Offline)
	req.EqualValues(0, stats.Delivered)
}

func TestDispatcher_OnlineReceiverGetsExactlyOnePush(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceTable()
	d := NewDispatcher(presence, zap.NewNop())

	receiver := newTestClient("u2")
	bystander := newTestClient("u3")
	presence.Register("u2", receiver)
	presence.Register("u3", bystander)

	msg := testMessage("u1", "u2", "hello")
	d.Deliver(msg)

	ev := recvEvent(t, receiver)
	req.Equal("newMessage", ev.Event)

	var pushed model.Message
	req.NoError(json.Unmarshal(ev.Payload, &pushed))
	req.Equal(msg.ID, pushed.ID)
	req.Equal("u1", pushed.SenderID)
	req.Equal("hello", pushed.Text)
	req.False(pushed.Seen)

	// nobody else hears about it
	req.Empty(bystander.egress)
	req.Empty(receiver.egress)

	req.EqualValues(1, d.Stats().Delivered)
}

func TestDispatcher_PushGoesToLatestConnection(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceTable()
	d := NewDispatcher(presence, zap.NewNop())

	old := newTestClient("u2")
	fresh := newTestClient("u2")
	presence.Register("u2", old)
	presence.Register("u2", fresh)

	d.Deliver(testMessage("u1", "u2", "hi"))

	req.Empty(old.egress)
	ev := recvEvent(t, fresh)
	req.Equal("newMessage", ev.Event)
}

func TestDispatcher_ClosedClientCountsAsDropped(t *testing.T) {
	req := require.New(t)
	presence := NewPresenceTable()
	d := NewDispatcher(presence, zap.NewNop())

	receiver := newTestClient("u2")
	presence.Register("u2", receiver)
	receiver.Close()

	// push failure is swallowed, never surfaced
	d.Deliver(testMessage("u1", "u2", "hello"))

	stats := d.Stats()
	req.EqualValues(0, stats.Delivered)
	req.EqualValues(1, stats.DroppedFull)
}
