package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"`
	Clients     []ClientInfo    `json:"clients"`
	Delivery    DeliveryStats   `json:"delivery"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnected  int `json:"totalConnected"`  // All open sockets, anonymous included
	TotalIdentified int `json:"totalIdentified"` // Sockets registered in the presence table
	TotalAnonymous  int `json:"totalAnonymous"`
}

// ClientInfo contains information about a connected, identified client
type ClientInfo struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	ConnectedAt string `json:"connectedAt"` // ISO timestamp
}

// DeliveryStats counts live-push outcomes since process start
type DeliveryStats struct {
	Delivered   int64 `json:"delivered"`   // Pushed to an online receiver
	DroppedFull int64 `json:"droppedFull"` // Receiver online but egress stayed full
	Offline     int64 `json:"offline"`     // Receiver offline, message left pending
}
