package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/manumay1962/CHAT-APP/internal/event"
	"go.uber.org/zap"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// Hub drives the presence table from connection lifecycle events and
// rebroadcasts the online-user snapshot to every open connection on
// each change. Anonymous connections are tracked (and receive
// broadcasts) but never enter the presence table.
type Hub struct {
	presence *PresenceTable

	clientsMu sync.RWMutex
	clients   map[*Client]struct{} // every open connection, anonymous included

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	allowedOrigins map[string]struct{}
	logger         *zap.Logger

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewHub(presence *PresenceTable, allowedOrigins []string, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		presence:       presence,
		clients:        make(map[*Client]struct{}),
		register:       make(chan *Client, 1024),
		unregister:     make(chan *Client, 1024),
		inbound:        make(chan inboundMessage, 4096), // buffer for burst handling
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}

	for _, origin := range allowedOrigins {
		h.allowedOrigins[origin] = struct{}{}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}

					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()

	if c.userID != "" {
		h.presence.Register(c.userID, c)
	}

	h.logger.Info("connection opened",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
		zap.Int("online", h.presence.Len()),
	)

	h.broadcastOnlineUsers()
}

func (h *Hub) removeClient(c *Client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c]; !ok {
		// duplicate disconnect event
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, c)
	h.clientsMu.Unlock()

	// Only drop the identity if this connection still owns it; a
	// reconnect may already have replaced the table entry.
	if c.userID != "" {
		h.presence.UnregisterClient(c.userID, c)
	}

	c.Close()

	h.logger.Info("connection closed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.userID),
		zap.Int("online", h.presence.Len()),
	)

	h.broadcastOnlineUsers()
}

// broadcastOnlineUsers sends the current presence snapshot to every
// open connection. Full-table rebroadcast, not a delta.
func (h *Hub) broadcastOnlineUsers() {
	payload, err := json.Marshal(h.presence.Snapshot())
	if err != nil {
		h.logger.Error("failed to marshal online users", zap.Error(err))
		return
	}
	ev := event.WsEvent{Event: event.EventOnlineUsers, Payload: payload}

	// collect clients while holding RLock, deliver without it
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			h.logger.Debug("presence broadcast dropped",
				zap.String("client_id", c.ID),
				zap.String("user_id", c.userID),
			)
		}
	}
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventTyping:
		h.relayTyping(ev, c)
	default:
		log.Printf("unknown event type: %s", ev.Event)
	}
}

// relayTyping forwards a typing indicator to the peer it names.
// Best-effort, like message delivery: an offline peer or a full egress
// just drops it.
func (h *Hub) relayTyping(ev event.WsEvent, c *Client) {
	if c.userID == "" {
		return // anonymous connections cannot claim an identity
	}

	var typing event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &typing); err != nil {
		log.Printf("failed to unmarshal typing payload from %s: %v", c.ID, err)
		return
	}

	typing.From = c.userID
	peer, online := h.presence.Lookup(typing.To)
	if !online {
		return
	}

	payload, err := json.Marshal(typing)
	if err != nil {
		return
	}
	peer.SafeSend(event.WsEvent{Event: event.EventTyping, Payload: payload}, sendTimeout)
}

// ClientCount returns the number of open connections, anonymous
// included.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Stop shuts the hub down. Safe to call more than once: the server
// shutdown path and the container cleanup both reach here.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		h.clientsMu.RLock()
		for c := range h.clients {
			c.Close()
		}
		h.clientsMu.RUnlock()

		close(h.inbound)
		h.wg.Wait()
	})
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, ok := h.allowedOrigins[origin]
	return ok
}

// ServeWS upgrades the request and registers the resulting connection.
// userID comes from the handshake's verified token and may be empty.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	RegisterClient(userID, conn, h)
}
