package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMonitorService_GetStats(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	d := NewDispatcher(h.presence, zap.NewNop())
	ms := NewMonitorService(h, d)

	req.Equal("idle", ms.GetStats().Status)

	identified := newTestClient("u1")
	anon := newTestClient("")
	h.register <- identified
	h.register <- anon
	req.Eventually(func() bool { return h.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	stats := ms.GetStats()
	req.Equal("healthy", stats.Status)
	req.Equal(2, stats.Connections.TotalConnected)
	req.Equal(1, stats.Connections.TotalIdentified)
	req.Equal(1, stats.Connections.TotalAnonymous)
	req.Len(stats.Clients, 1)
	req.Equal("u1", stats.Clients[0].UserID)
}
