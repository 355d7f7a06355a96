package servers

import (
	"time"

	"dpmaster/internal/protocol"
)

// ServerEntry holds the self-reported attributes of one known game server.
// Entries exist only in memory and only for servers that completed the
// heartbeat/challenge handshake.
type ServerEntry struct {
	Address     string            `json:"address"`
	Hostname    string            `json:"hostname"`
	Map         string            `json:"map"`
	GameName    string            `json:"gamename"`
	GameType    string            `json:"gametype"`
	Protocol    int               `json:"protocol"`
	PlayerCount int               `json:"player_count"`
	MaxPlayers  int               `json:"max_players"`
	Info        map[string]string `json:"info"`
	FirstSeen   time.Time         `json:"first_seen"`
	LastSeen    time.Time         `json:"last_seen"`

	// Addr is the packed record sent in getserversResponse pages.
	Addr protocol.ServerAddr `json:"-"`
}

// Filter is the predicate a getservers query applies to the directory.
type Filter struct {
	Protocol     int
	GameName     string // "" matches any game
	GameType     string // "" matches any gametype
	IncludeEmpty bool
	IncludeFull  bool
}

func (f Filter) matches(e *ServerEntry) bool {
	if e.Protocol != f.Protocol {
		return false
	}
	if f.GameName != "" && e.GameName != f.GameName {
		return false
	}
	if f.GameType != "" && e.GameType != f.GameType {
		return false
	}
	if !f.IncludeEmpty && e.PlayerCount == 0 {
		return false
	}
	if !f.IncludeFull && e.MaxPlayers > 0 && e.PlayerCount >= e.MaxPlayers {
		return false
	}
	return true
}
