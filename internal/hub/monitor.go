package hub

import (
	"time"

	"github.com/manumay1962/CHAT-APP/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub        *Hub
	dispatcher *Dispatcher
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub, dispatcher *Dispatcher) *MonitorService {
	return &MonitorService{hub: hub, dispatcher: dispatcher}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	connectionStats := ms.getConnectionStats()
	clients := ms.getClientList()

	status := "healthy"
	if connectionStats.TotalConnected == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Clients:     clients,
		Delivery:    ms.dispatcher.Stats(),
	}
}

func (ms *MonitorService) getConnectionStats() model.ConnectionStats {
	total := ms.hub.ClientCount()
	identified := ms.hub.presence.Len()

	return model.ConnectionStats{
		TotalConnected:  total,
		TotalIdentified: identified,
		TotalAnonymous:  total - identified,
	}
}

// getClientList returns the identified connections currently in the
// presence table.
func (ms *MonitorService) getClientList() []model.ClientInfo {
	p := ms.hub.presence
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]model.ClientInfo, 0, len(p.clients))
	for userID, client := range p.clients {
		clients = append(clients, model.ClientInfo{
			ClientID:    client.ID,
			UserID:      userID,
			ConnectedAt: client.connectedAt.Format(time.RFC3339),
		})
	}
	return clients
}
