package hub

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceTable_LookupAbsent(t *testing.T) {
	req := require.New(t)
	p := NewPresenceTable()

	_, ok := p.Lookup("never-registered")
	req.False(ok)
	req.Zero(p.Len())
	req.Empty(p.Snapshot())
}

func TestPresenceTable_RegisterOverwrites(t *testing.T) {
	req := require.New(t)
	p := NewPresenceTable()

	first := newTestClient("u1")
	second := newTestClient("u1")

	p.Register("u1", first)
	p.Register("u1", second)

	got, ok := p.Lookup("u1")
	req.True(ok)
	req.Same(second, got)
	req.Equal(1, p.Len())
}

func TestPresenceTable_UnregisterAbsentIsNoop(t *testing.T) {
	p := NewPresenceTable()

	// must not panic or error
	p.Unregister("ghost")
	p.Unregister("ghost")

	require.Zero(t, p.Len())
}

func TestPresenceTable_UnregisterClientGuardsReconnect(t *testing.T) {
	req := require.New(t)
	p := NewPresenceTable()

	old := newTestClient("u1")
	fresh := newTestClient("u1")

	p.Register("u1", old)
	p.Register("u1", fresh)

	// The stale connection's teardown must not evict the new one.
	req.False(p.UnregisterClient("u1", old))
	got, ok := p.Lookup("u1")
	req.True(ok)
	req.Same(fresh, got)

	req.True(p.UnregisterClient("u1", fresh))
	_, ok = p.Lookup("u1")
	req.False(ok)
}

func TestPresenceTable_SnapshotAfterDisconnect(t *testing.T) {
	req := require.New(t)
	p := NewPresenceTable()

	ids := []string{"u1", "u2", "u3", "u4"}
	for _, id := range ids {
		p.Register(id, newTestClient(id))
	}

	p.Unregister("u3")

	snapshot := p.Snapshot()
	req.Len(snapshot, len(ids)-1)
	req.NotContains(snapshot, "u3")
	req.ElementsMatch([]string{"u1", "u2", "u4"}, snapshot)
}
