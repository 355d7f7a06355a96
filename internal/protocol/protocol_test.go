package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeartbeat(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Heartbeat
	}{
		{"darkplaces", "\xff\xff\xff\xffheartbeat DarkPlaces\x0a", Heartbeat{ProtocolName: "DarkPlaces"}},
		{"quake3", "\xff\xff\xff\xffheartbeat QuakeArena-1\x0a", Heartbeat{ProtocolName: "QuakeArena-1"}},
		{"rtcw", "\xff\xff\xff\xffheartbeat Wolfenstein-1\x0a", Heartbeat{ProtocolName: "Wolfenstein-1"}},
		{"et", "\xff\xff\xff\xffheartbeat EnemyTerritory-1\x0a", Heartbeat{ProtocolName: "EnemyTerritory-1"}},
		{"no trailing newline", "\xff\xff\xff\xffheartbeat DarkPlaces", Heartbeat{ProtocolName: "DarkPlaces"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestDecodeGetInfo(t *testing.T) {
	msg, err := Decode([]byte("\xff\xff\xff\xffgetinfo A_ch4Lleng3"))
	require.NoError(t, err)
	assert.Equal(t, GetInfo{Challenge: "A_ch4Lleng3"}, msg)
}

func TestDecodeInfoResponse(t *testing.T) {
	msg, err := Decode([]byte("\xff\xff\xff\xffinfoResponse\x0a\\sv_maxclients\\8\\clients\\0"))
	require.NoError(t, err)
	assert.Equal(t, InfoResponse{Info: map[string]string{
		"sv_maxclients": "8",
		"clients":       "0",
	}}, msg)
}

func TestDecodeInfoResponseChallenge(t *testing.T) {
	msg, err := Decode([]byte("\xff\xff\xff\xffinfoResponse\x0a\\challenge\\A_ch4Lleng3\\protocol\\68"))
	require.NoError(t, err)
	ir, ok := msg.(InfoResponse)
	require.True(t, ok)
	assert.Equal(t, "A_ch4Lleng3", ir.Challenge())
}

func TestDecodeGetServers(t *testing.T) {
	tests := []struct {
		name string
		data string
		want GetServers
	}{
		{"quake3 gametype", "\xff\xff\xff\xffgetservers 67 gametype=0 empty full",
			GetServers{ProtocolNumber: 67, GameType: "0", Empty: true, Full: true}},
		{"et bare", "\xff\xff\xff\xffgetservers 84",
			GetServers{ProtocolNumber: 84}},
		{"nexuiz gamename", "\xff\xff\xff\xffgetservers Nexuiz 3",
			GetServers{GameName: "Nexuiz", ProtocolNumber: 3}},
		{"qfusion full", "\xff\xff\xff\xffgetservers qfusion 39 full",
			GetServers{GameName: "qfusion", ProtocolNumber: 39, Full: true}},
		{"unknown filter words ignored", "\xff\xff\xff\xffgetservers 68 empty ipv4",
			GetServers{ProtocolNumber: 68, Empty: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestDecodeGetServersResponse(t *testing.T) {
	data := "\xff\xff\xff\xffgetserversResponse" +
		"\\\xc0\x00\x02\x01\x6d\x38" +
		"\\\xc6\x33\x64\x02\x6d\x39" +
		"\\\xcb\x00\x71\x03\x6d\x3a"
	msg, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, GetServersResponse{
		Servers: []ServerAddr{
			{IP: [4]byte{192, 0, 2, 1}, Port: 27960},
			{IP: [4]byte{198, 51, 100, 2}, Port: 27961},
			{IP: [4]byte{203, 0, 113, 3}, Port: 27962},
		},
	}, msg)
}

func TestDecodeGetServersResponseEOT(t *testing.T) {
	data := "\xff\xff\xff\xffgetserversResponse\\\x01\x02\x03\x04\x08\x00\\EOT\x00\x00\x00"
	msg, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, GetServersResponse{
		Servers: []ServerAddr{{IP: [4]byte{1, 2, 3, 4}, Port: 2048}},
		EOT:     true,
	}, msg)
}

func TestDecodeGetServersResponseEOTOnly(t *testing.T) {
	msg, err := Decode([]byte("\xff\xff\xff\xffgetserversResponse\\EOT\x00\x00\x00"))
	require.NoError(t, err)
	assert.Equal(t, GetServersResponse{EOT: true}, msg)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{"empty", "", ErrMalformed},
		{"no prefix", "heartbeat DarkPlaces\x0a", ErrMalformed},
		{"short prefix", "\xff\xff\xffheartbeat DarkPlaces\x0a", ErrMalformed},
		{"unknown command", "\xff\xff\xff\xffconnect", ErrUnknownCommand},
		{"reserved ext query", "\xff\xff\xff\xffgetserversExt Game 68", ErrUnknownCommand},
		{"reserved ext response", "\xff\xff\xff\xffgetserversExtResponse\\EOT\x00\x00\x00", ErrUnknownCommand},
		{"heartbeat bare", "\xff\xff\xff\xffheartbeat", ErrMalformed},
		{"heartbeat blank name", "\xff\xff\xff\xffheartbeat \x0a", ErrMalformed},
		{"getinfo bare", "\xff\xff\xff\xffgetinfo", ErrMalformed},
		{"getinfo bad challenge byte", "\xff\xff\xff\xffgetinfo uh\xffoh", ErrMalformed},
		{"getinfo disallowed challenge byte", "\xff\xff\xff\xffgetinfo uhoh;", ErrMalformed},
		{"getservers bare", "\xff\xff\xff\xffgetservers", ErrMalformed},
		{"getservers no protocol", "\xff\xff\xff\xffgetservers Nexuiz", ErrMalformed},
		{"infoResponse no info", "\xff\xff\xff\xffinfoResponse\x0a", ErrMalformed},
		{"infoResponse odd pairs", "\xff\xff\xff\xffinfoResponse\x0a\\clients", ErrMalformed},
		{"infoResponse empty value", "\xff\xff\xff\xffinfoResponse\x0a\\clients\\\\protocol\\68", ErrMalformed},
		{"response truncated record", "\xff\xff\xff\xffgetserversResponse\\\x01\x02\x03", ErrMalformed},
		{"response missing marker", "\xff\xff\xff\xffgetserversResponse\x01\x02\x03\x04\x08\x00", ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"heartbeat", Heartbeat{ProtocolName: "DarkPlaces"},
			"\xff\xff\xff\xffheartbeat DarkPlaces\x0a"},
		{"getinfo", GetInfo{Challenge: "A_ch4Lleng3"},
			"\xff\xff\xff\xffgetinfo A_ch4Lleng3"},
		{"getservers", GetServers{ProtocolNumber: 67, GameType: "0", Empty: true, Full: true},
			"\xff\xff\xff\xffgetservers 67 gametype=0 empty full"},
		{"getservers gamename", GetServers{GameName: "Nexuiz", ProtocolNumber: 3},
			"\xff\xff\xff\xffgetservers Nexuiz 3"},
		{"response with eot", GetServersResponse{
			Servers: []ServerAddr{{IP: [4]byte{1, 2, 3, 4}, Port: 2048}},
			EOT:     true,
		}, "\xff\xff\xff\xffgetserversResponse\\\x01\x02\x03\x04\x08\x00\\EOT\x00\x00\x00"},
		{"eot only page", GetServersResponse{EOT: true},
			"\xff\xff\xff\xffgetserversResponse\\EOT\x00\x00\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []byte(tt.want), Encode(tt.msg))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	messages := []Message{
		Heartbeat{ProtocolName: "DarkPlaces"},
		GetInfo{Challenge: "0zqRJ+Kj9Fz"},
		InfoResponse{Info: map[string]string{
			"challenge":     "0zqRJ+Kj9Fz",
			"protocol":      "68",
			"clients":       "3",
			"sv_maxclients": "16",
			"gamename":      "Quake3Arena",
		}},
		GetServers{GameName: "Nexuiz", ProtocolNumber: 3, GameType: "ctf", Empty: true},
		GetServers{ProtocolNumber: 84, Full: true},
		GetServersResponse{Servers: []ServerAddr{
			{IP: [4]byte{10, 0, 0, 1}, Port: 26000},
			{IP: [4]byte{192, 0, 2, 7}, Port: 27960},
		}},
		GetServersResponse{EOT: true},
	}
	for _, m := range messages {
		got, err := Decode(Encode(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestValidChallenge(t *testing.T) {
	assert.True(t, ValidChallenge("A_ch4Lleng3"))
	assert.False(t, ValidChallenge(""))
	assert.False(t, ValidChallenge("has space"))
	assert.False(t, ValidChallenge("back\\slash"))
	assert.False(t, ValidChallenge("uhoh;"))
	assert.False(t, ValidChallenge("pct%"))
	assert.False(t, ValidChallenge("\xff"))
}

func TestResponseCapacity(t *testing.T) {
	// 1400-byte packets: 4 prefix + 18 command = 22 overhead, 7 per record.
	assert.Equal(t, 196, ResponseCapacity(1400))
	// Degenerate limits still allow one record per page.
	assert.Equal(t, 1, ResponseCapacity(10))
}
