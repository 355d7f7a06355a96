package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// oobPrefix marks a datagram as an out-of-band protocol message; the message
// is the remainder of the datagram, no length prefix.
var oobPrefix = []byte{0xff, 0xff, 0xff, 0xff}

var eotMarker = []byte("\\EOT\x00\x00\x00")

var (
	// ErrMalformed is returned for datagrams that carry the OOB prefix and a
	// known command but fail to parse. Callers drop these silently.
	ErrMalformed = errors.New("malformed message")

	// ErrUnknownCommand is returned when the command token is unrecognized
	// or reserved but unimplemented.
	ErrUnknownCommand = errors.New("unknown command")
)

// Decode parses a raw datagram into a Message.
func Decode(data []byte) (Message, error) {
	body, ok := bytes.CutPrefix(data, oobPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: missing OOB prefix", ErrMalformed)
	}

	// Longest tokens first: several commands share the "getservers" prefix.
	switch {
	case bytes.HasPrefix(body, []byte(cmdGetServersExtResponse)):
		return nil, fmt.Errorf("%w: %s (reserved)", ErrUnknownCommand, cmdGetServersExtResponse)
	case bytes.HasPrefix(body, []byte(cmdGetServersExt)):
		return nil, fmt.Errorf("%w: %s (reserved)", ErrUnknownCommand, cmdGetServersExt)
	case bytes.HasPrefix(body, []byte(cmdGetServersResponse)):
		return decodeGetServersResponse(body[len(cmdGetServersResponse):])
	case bytes.HasPrefix(body, []byte(cmdGetServers)):
		return decodeGetServers(body[len(cmdGetServers):])
	case bytes.HasPrefix(body, []byte(cmdInfoResponse)):
		return decodeInfoResponse(body[len(cmdInfoResponse):])
	case bytes.HasPrefix(body, []byte(cmdHeartbeat)):
		return decodeHeartbeat(body[len(cmdHeartbeat):])
	case bytes.HasPrefix(body, []byte(cmdGetInfo)):
		return decodeGetInfo(body[len(cmdGetInfo):])
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, firstToken(body))
}

func firstToken(body []byte) string {
	if i := bytes.IndexAny(body, " \n"); i >= 0 {
		body = body[:i]
	}
	if len(body) > 32 {
		body = body[:32]
	}
	return string(body)
}

// heartbeat <protocol-name>\n
func decodeHeartbeat(rest []byte) (Message, error) {
	if len(rest) == 0 || rest[0] != ' ' {
		return nil, fmt.Errorf("%w: heartbeat without protocol name", ErrMalformed)
	}
	name := strings.TrimLeft(string(rest), " ")
	name = strings.TrimRight(name, "\n")
	if name == "" || strings.ContainsAny(name, " \n") {
		return nil, fmt.Errorf("%w: bad heartbeat protocol name", ErrMalformed)
	}
	return Heartbeat{ProtocolName: name}, nil
}

// getinfo <challenge>
func decodeGetInfo(rest []byte) (Message, error) {
	if len(rest) == 0 || rest[0] != ' ' {
		return nil, fmt.Errorf("%w: getinfo without challenge", ErrMalformed)
	}
	challenge := strings.TrimLeft(string(rest), " ")
	if !ValidChallenge(challenge) {
		return nil, fmt.Errorf("%w: bad getinfo challenge", ErrMalformed)
	}
	return GetInfo{Challenge: challenge}, nil
}

// infoResponse\n\key\value\key\value...
func decodeInfoResponse(rest []byte) (Message, error) {
	if len(rest) < 2 || rest[0] != '\n' || rest[1] != '\\' {
		return nil, fmt.Errorf("%w: infoResponse without info string", ErrMalformed)
	}
	parts := strings.Split(string(rest[2:]), "\\")
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("%w: odd infoResponse key/value list", ErrMalformed)
	}
	info := make(map[string]string, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		if parts[i] == "" || parts[i+1] == "" {
			return nil, fmt.Errorf("%w: empty infoResponse key or value", ErrMalformed)
		}
		info[parts[i]] = parts[i+1]
	}
	return InfoResponse{Info: info}, nil
}

// getservers [game-name] <protocol-number> [gametype=X] [empty] [full]
func decodeGetServers(rest []byte) (Message, error) {
	if len(rest) == 0 || rest[0] != ' ' {
		return nil, fmt.Errorf("%w: getservers without protocol number", ErrMalformed)
	}
	fields := strings.Fields(string(rest))
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: getservers without protocol number", ErrMalformed)
	}

	msg := GetServers{}
	if _, err := strconv.Atoi(fields[0]); err != nil {
		// Optional leading game name: any non-numeric token.
		msg.GameName = fields[0]
		fields = fields[1:]
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: getservers without protocol number", ErrMalformed)
		}
	}
	proto, err := strconv.Atoi(fields[0])
	if err != nil || proto < 0 {
		return nil, fmt.Errorf("%w: bad getservers protocol number %q", ErrMalformed, fields[0])
	}
	msg.ProtocolNumber = proto

	for _, opt := range fields[1:] {
		switch {
		case opt == "empty":
			msg.Empty = true
		case opt == "full":
			msg.Full = true
		case strings.HasPrefix(opt, "gametype="):
			if gt := opt[len("gametype="):]; gt != "" {
				msg.GameType = gt
			}
		default:
			// Unknown filter words are ignored, not fatal; older clients
			// send extra tokens.
		}
	}
	return msg, nil
}

// getserversResponse then per record: '\' + 4-byte IP + 2-byte port;
// terminated by the EOT marker when this is the last page.
func decodeGetServersResponse(rest []byte) (Message, error) {
	msg := GetServersResponse{}
	for len(rest) > 0 {
		if rest[0] != '\\' {
			return nil, fmt.Errorf("%w: getserversResponse record without family marker", ErrMalformed)
		}
		if bytes.Equal(rest, eotMarker) {
			msg.EOT = true
			return msg, nil
		}
		if len(rest) < 7 {
			return nil, fmt.Errorf("%w: truncated getserversResponse record", ErrMalformed)
		}
		var addr ServerAddr
		copy(addr.IP[:], rest[1:5])
		addr.Port = binary.BigEndian.Uint16(rest[5:7])
		msg.Servers = append(msg.Servers, addr)
		rest = rest[7:]
	}
	return msg, nil
}
