package protocol

import (
	"bytes"
	"encoding/binary"
	"sort"
	"strconv"
)

// Encode serializes a message into a ready-to-send datagram. It never fails
// for well-formed in-memory values; keeping field values inside protocol
// limits (challenge alphabet, port range) is the caller's job.
func Encode(m Message) []byte {
	var buf bytes.Buffer
	buf.Write(oobPrefix)

	switch msg := m.(type) {
	case Heartbeat:
		buf.WriteString(cmdHeartbeat)
		buf.WriteByte(' ')
		buf.WriteString(msg.ProtocolName)
		buf.WriteByte('\n')

	case GetInfo:
		buf.WriteString(cmdGetInfo)
		buf.WriteByte(' ')
		buf.WriteString(msg.Challenge)

	case InfoResponse:
		buf.WriteString(cmdInfoResponse)
		buf.WriteByte('\n')
		keys := make([]string, 0, len(msg.Info))
		for k := range msg.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buf.WriteByte('\\')
			buf.WriteString(k)
			buf.WriteByte('\\')
			buf.WriteString(msg.Info[k])
		}

	case GetServers:
		buf.WriteString(cmdGetServers)
		buf.WriteByte(' ')
		if msg.GameName != "" {
			buf.WriteString(msg.GameName)
			buf.WriteByte(' ')
		}
		buf.WriteString(strconv.Itoa(msg.ProtocolNumber))
		if msg.GameType != "" {
			buf.WriteString(" gametype=")
			buf.WriteString(msg.GameType)
		}
		if msg.Empty {
			buf.WriteString(" empty")
		}
		if msg.Full {
			buf.WriteString(" full")
		}

	case GetServersResponse:
		buf.WriteString(cmdGetServersResponse)
		var port [2]byte
		for _, addr := range msg.Servers {
			buf.WriteByte('\\')
			buf.Write(addr.IP[:])
			binary.BigEndian.PutUint16(port[:], addr.Port)
			buf.Write(port[:])
		}
		if msg.EOT {
			buf.Write(eotMarker)
		}
	}
	return buf.Bytes()
}

// recordSize is the on-wire size of one IPv4 address record including its
// leading family marker.
const recordSize = 7

// responseOverhead is the fixed cost of a getserversResponse page before any
// records: OOB prefix plus command token.
var responseOverhead = len(oobPrefix) + len(cmdGetServersResponse)

// ResponseCapacity returns how many address records fit in one
// getserversResponse datagram of at most maxPacket bytes. Always at least
// one, so pagination makes progress even with an absurdly small limit.
func ResponseCapacity(maxPacket int) int {
	n := (maxPacket - responseOverhead) / recordSize
	if n < 1 {
		n = 1
	}
	return n
}
