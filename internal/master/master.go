// Package master implements the discovery protocol state machine: the
// heartbeat/challenge handshake that admits game servers to the directory,
// and the getservers query path that streams the directory back to clients.
package master

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dpmaster/internal/challenge"
	"dpmaster/internal/config"
	"dpmaster/internal/protocol"
	"dpmaster/internal/servers"
	"dpmaster/internal/util"
)

// Master drives the protocol over a shared directory and challenge store.
// HandlePacket is socket-free: Run owns the UDP conn and feeds it.
type Master struct {
	cfg        *config.Config
	log        zerolog.Logger
	dir        *servers.Directory
	challenges *challenge.Store

	limiters *limiterPool
}

// New creates a master over the given directory and challenge store.
func New(cfg *config.Config, dir *servers.Directory, challenges *challenge.Store) *Master {
	return &Master{
		cfg:        cfg,
		log:        util.ComponentLogger("master"),
		dir:        dir,
		challenges: challenges,
		limiters:   newLimiterPool(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
	}
}

// HandlePacket decodes one inbound datagram and returns the datagrams to
// send back to the sender, if any. Every per-message failure is a silent
// drop: no reply ever goes to unvalidated input, which keeps the master
// useless as a reflection amplifier.
func (m *Master) HandlePacket(sender *net.UDPAddr, data []byte, now time.Time) [][]byte {
	msg, err := protocol.Decode(data)
	if err != nil {
		m.log.Debug().Err(err).Str("from", sender.String()).Msg("dropped undecodable datagram")
		return nil
	}

	switch msg := msg.(type) {
	case protocol.Heartbeat:
		return m.handleHeartbeat(sender, msg, now)
	case protocol.InfoResponse:
		m.handleInfoResponse(sender, msg, now)
		return nil
	case protocol.GetServers:
		return m.handleGetServers(sender, msg, now)
	default:
		// getinfo and getserversResponse only travel master -> peer;
		// receiving one is someone probing us.
		m.log.Debug().Str("from", sender.String()).Msg("dropped master-outbound message type")
		return nil
	}
}

// handleHeartbeat answers an announcing server with a getinfo carrying a
// fresh challenge. Sending getinfo is the only effect; nothing enters the
// directory until the challenge comes back.
func (m *Master) handleHeartbeat(sender *net.UDPAddr, msg protocol.Heartbeat, now time.Time) [][]byte {
	if _, ok := protocol.AddrFromUDP(sender); !ok {
		// IPv6 peers need the reserved Ext messages.
		m.log.Debug().Str("from", sender.String()).Msg("dropped heartbeat from non-IPv4 address")
		return nil
	}

	token, err := m.challenges.Issue(sender.String(), now)
	if err != nil {
		m.log.Error().Err(err).Msg("challenge generation failed")
		return nil
	}
	m.log.Debug().
		Str("from", sender.String()).
		Str("protocol", msg.ProtocolName).
		Msg("heartbeat, sending getinfo")
	return [][]byte{protocol.Encode(protocol.GetInfo{Challenge: token})}
}

// handleInfoResponse admits or refreshes the sender's directory entry iff
// the echoed challenge proves it received our getinfo. Anything else is
// dropped with no directory mutation.
func (m *Master) handleInfoResponse(sender *net.UDPAddr, msg protocol.InfoResponse, now time.Time) {
	token := msg.Challenge()
	if token == "" || !m.challenges.Validate(sender.String(), token, now) {
		m.log.Debug().Str("from", sender.String()).Msg("dropped infoResponse with bad challenge")
		return
	}

	addr, ok := protocol.AddrFromUDP(sender)
	if !ok {
		m.log.Debug().Str("from", sender.String()).Msg("dropped infoResponse from non-IPv4 address")
		return
	}

	entry, err := entryFromInfo(addr, msg.Info)
	if err != nil {
		m.log.Debug().Err(err).Str("from", sender.String()).Msg("dropped infoResponse with bad attributes")
		return
	}

	m.dir.Upsert(entry, now)
	m.log.Info().
		Str("server", entry.Address).
		Str("game", entry.GameName).
		Int("protocol", entry.Protocol).
		Int("clients", entry.PlayerCount).
		Int("max_clients", entry.MaxPlayers).
		Msg("server registered")
}

// handleGetServers snapshots the matching directory slice and paginates it.
// Even an empty match yields the terminating EOT page.
func (m *Master) handleGetServers(sender *net.UDPAddr, msg protocol.GetServers, now time.Time) [][]byte {
	f := servers.Filter{
		Protocol:     msg.ProtocolNumber,
		GameName:     msg.GameName,
		GameType:     msg.GameType,
		IncludeEmpty: msg.Empty,
		IncludeFull:  msg.Full,
	}
	matched := m.dir.Match(f, now)
	pages := buildPages(matched, protocol.ResponseCapacity(m.cfg.MaxPacketSize))

	m.log.Debug().
		Str("from", sender.String()).
		Int("matched", len(matched)).
		Int("pages", len(pages)).
		Msg("getservers")
	return pages
}

// entryFromInfo builds a directory entry from a validated infoResponse.
// protocol and sv_maxclients are mandatory; a server that reports neither
// is not listable.
func entryFromInfo(addr protocol.ServerAddr, info map[string]string) (servers.ServerEntry, error) {
	proto, err := strconv.Atoi(info[protocol.KeyProtocol])
	if err != nil {
		return servers.ServerEntry{}, fmt.Errorf("missing or non-numeric protocol: %q", info[protocol.KeyProtocol])
	}
	maxClients, err := strconv.Atoi(info[protocol.KeyMaxClients])
	if err != nil || maxClients <= 0 {
		return servers.ServerEntry{}, fmt.Errorf("missing or bad sv_maxclients: %q", info[protocol.KeyMaxClients])
	}
	clients, _ := strconv.Atoi(info[protocol.KeyClients])

	return servers.ServerEntry{
		Addr:        addr,
		Hostname:    info[protocol.KeyHostname],
		Map:         info[protocol.KeyMapName],
		GameName:    info[protocol.KeyGameName],
		GameType:    info[protocol.KeyGameType],
		Protocol:    proto,
		PlayerCount: clients,
		MaxPlayers:  maxClients,
		Info:        info,
	}, nil
}
