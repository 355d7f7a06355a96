package protocol

import (
	"fmt"
	"net"
)

// Command tokens as they appear on the wire, right after the OOB prefix.
const (
	cmdHeartbeat             = "heartbeat"
	cmdGetInfo               = "getinfo"
	cmdInfoResponse          = "infoResponse"
	cmdGetServers            = "getservers"
	cmdGetServersResponse    = "getserversResponse"
	cmdGetServersExt         = "getserversExt"         // reserved, IPv6 variant
	cmdGetServersExtResponse = "getserversExtResponse" // reserved
)

// Info keys recognized by the master in an infoResponse payload.
const (
	KeyChallenge  = "challenge"
	KeyProtocol   = "protocol"
	KeyClients    = "clients"
	KeyMaxClients = "sv_maxclients"
	KeyGameName   = "gamename"
	KeyGameType   = "gametype"
	KeyHostname   = "sv_hostname"
	KeyMapName    = "mapname"
)

// Message is one out-of-band protocol message. The set of implementations is
// closed: one type per command token, so dispatch is an exhaustive type
// switch and the reserved Ext variants slot in as new types later.
type Message interface {
	message()
}

// Heartbeat is sent by a game server to announce itself. It carries the
// protocol name the server speaks (e.g. "DarkPlaces", "QuakeArena-1").
type Heartbeat struct {
	ProtocolName string
}

// GetInfo is sent by the master back to a heartbeating server, carrying the
// challenge the server must echo in its infoResponse.
type GetInfo struct {
	Challenge string
}

// InfoResponse carries the server's self-reported attributes as a
// backslash-separated key/value list. The echoed challenge travels as the
// "challenge" key.
type InfoResponse struct {
	Info map[string]string
}

// Challenge returns the echoed challenge token, or "" if absent.
func (m InfoResponse) Challenge() string {
	return m.Info[KeyChallenge]
}

// GetServers is a client query for the server list. GameName and GameType
// are optional; the zero value means "not specified". Empty and Full request
// inclusion of empty and full servers respectively.
type GetServers struct {
	GameName       string
	ProtocolNumber int
	GameType       string
	Empty          bool
	Full           bool
}

// GetServersResponse is one page of the server list. A page with EOT set and
// no records terminates the transmission.
type GetServersResponse struct {
	Servers []ServerAddr
	EOT     bool
}

func (Heartbeat) message()          {}
func (GetInfo) message()            {}
func (InfoResponse) message()       {}
func (GetServers) message()         {}
func (GetServersResponse) message() {}

// ServerAddr is the fixed-width IPv4 address record carried in a
// getserversResponse: 4 bytes IP, 2 bytes big-endian port.
type ServerAddr struct {
	IP   [4]byte
	Port uint16
}

// AddrFromUDP converts a UDP address to a record. Returns false for
// addresses that do not fit the IPv4 record layout.
func AddrFromUDP(addr *net.UDPAddr) (ServerAddr, bool) {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return ServerAddr{}, false
	}
	var a ServerAddr
	copy(a.IP[:], ip4)
	a.Port = uint16(addr.Port)
	return a, true
}

// UDPAddr converts the record back to a UDP address.
func (a ServerAddr) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(a.IP[0], a.IP[1], a.IP[2], a.IP[3]), Port: int(a.Port)}
}

func (a ServerAddr) String() string {
	return fmt.Sprintf("%d.%d.%d.%d:%d", a.IP[0], a.IP[1], a.IP[2], a.IP[3], a.Port)
}

// ValidChallenge reports whether s is a legal challenge token: non-empty
// printable ASCII (33..126) without the separator characters the info string
// and quoting layers reserve.
func ValidChallenge(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 126 {
			return false
		}
		switch c {
		case '\\', '/', ';', '"', '%':
			return false
		}
	}
	return true
}
