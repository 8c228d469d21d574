package hub

import (
	"encoding/json"
	"sync/atomic"

	"github.com/manumay1962/CHAT-APP/internal/event"
	"github.com/manumay1962/CHAT-APP/internal/model"
	"go.uber.org/zap"
)

// Dispatcher pushes freshly persisted messages to the receiver's live
// connection, if any. Delivery is best-effort and at-most-once: no ack
// is awaited, no retry happens, and failures are logged, never surfaced
// to the sender. An offline receiver finds the message on its next
// thread fetch.
type Dispatcher struct {
	presence *PresenceTable
	logger   *zap.Logger

	delivered   atomic.Int64
	droppedFull atomic.Int64
	offline     atomic.Int64
}

func NewDispatcher(presence *PresenceTable, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		presence: presence,
		logger:   logger,
	}
}

// Deliver looks up the receiver in the presence table and, when online,
// enqueues a newMessage event on its connection. The message must
// already be persisted; persistence success and delivery success are
// deliberately decoupled.
func (d *Dispatcher) Deliver(msg *model.Message) {
	client, online := d.presence.Lookup(msg.ReceiverID)
	if !online {
		d.offline.Add(1)
		d.logger.Debug("receiver offline, message stays pending",
			zap.String("message_id", msg.ID.Hex()),
			zap.String("receiver_id", msg.ReceiverID),
		)
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		d.logger.Error("failed to marshal message payload",
			zap.Error(err),
			zap.String("message_id", msg.ID.Hex()),
		)
		return
	}

	ev := event.WsEvent{Event: event.EventNewMessage, Payload: payload}
	if client.SafeSend(ev, sendTimeout) {
		d.delivered.Add(1)
		d.logger.Debug("message pushed",
			zap.String("message_id", msg.ID.Hex()),
			zap.String("receiver_id", msg.ReceiverID),
			zap.String("client_id", client.ID),
		)
		return
	}

	d.droppedFull.Add(1)
	d.logger.Warn("push failed, dropping live delivery",
		zap.String("message_id", msg.ID.Hex()),
		zap.String("receiver_id", msg.ReceiverID),
		zap.String("client_id", client.ID),
	)
}

func (d *Dispatcher) Stats() model.DeliveryStats {
	return model.DeliveryStats{
		Delivered:   d.delivered.Load(),
		DroppedFull: d.droppedFull.Load(),
		Offline:     d.offline.Load(),
	}
}
