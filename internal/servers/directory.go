// Package servers holds the master's in-memory directory of live game
// servers. The directory is rebuilt purely from validated heartbeats; there
// is no persistence.
package servers

import (
	"sort"
	"sync"
	"time"

	"dpmaster/internal/protocol"
)

// Directory maps "ip:port" to its ServerEntry. Heartbeat handling is the
// only writer; query and API paths take read snapshots under the lock.
// Expiry is evaluated lazily against the caller-supplied "now", so scans
// never see aged-out servers even before the janitor physically removes
// them.
type Directory struct {
	mu      sync.Mutex
	timeout time.Duration
	entries map[string]*ServerEntry
}

// NewDirectory creates a directory whose entries age out when their last
// heartbeat is older than timeout.
func NewDirectory(timeout time.Duration) *Directory {
	return &Directory{
		timeout: timeout,
		entries: make(map[string]*ServerEntry),
	}
}

// Upsert adds or refreshes the entry for e.Addr. The address is the sole
// key: a re-heartbeat updates in place and FirstSeen survives refreshes.
func (d *Directory) Upsert(e ServerEntry, now time.Time) {
	e.Address = e.Addr.String()
	e.LastSeen = now
	e.FirstSeen = now

	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.entries[e.Address]; ok && d.fresh(prev, now) {
		e.FirstSeen = prev.FirstSeen
	}
	d.entries[e.Address] = &e
}

// Match returns the packed addresses of all live entries matching f, in a
// deterministic order. The result is a point-in-time snapshot: pagination
// over it can never skip or duplicate servers however the directory mutates
// afterwards.
func (d *Directory) Match(f Filter, now time.Time) []protocol.ServerAddr {
	d.mu.Lock()
	defer d.mu.Unlock()

	var addrs []protocol.ServerAddr
	for _, e := range d.entries {
		if d.fresh(e, now) && f.matches(e) {
			addrs = append(addrs, e.Addr)
		}
	}
	sort.Slice(addrs, func(i, j int) bool {
		if addrs[i].IP != addrs[j].IP {
			return string(addrs[i].IP[:]) < string(addrs[j].IP[:])
		}
		return addrs[i].Port < addrs[j].Port
	})
	return addrs
}

// List returns a snapshot of all live entries, sorted by player count then
// address, for the browse API.
func (d *Directory) List(now time.Time) []ServerEntry {
	d.mu.Lock()
	list := make([]ServerEntry, 0, len(d.entries))
	for _, e := range d.entries {
		if d.fresh(e, now) {
			list = append(list, *e)
		}
	}
	d.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].PlayerCount != list[j].PlayerCount {
			return list[i].PlayerCount > list[j].PlayerCount
		}
		return list[i].Address < list[j].Address
	})
	return list
}

// Len counts all entries, live or aged out.
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Prune physically removes aged-out entries and reports how many went.
// Query results already exclude them; this only reclaims memory.
func (d *Directory) Prune(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for addr, e := range d.entries {
		if !d.fresh(e, now) {
			delete(d.entries, addr)
			removed++
		}
	}
	return removed
}

func (d *Directory) fresh(e *ServerEntry, now time.Time) bool {
	return now.Sub(e.LastSeen) <= d.timeout
}
