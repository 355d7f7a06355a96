package master

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Run binds the UDP socket and serves datagrams until ctx is cancelled.
// Reads and replies are fire-and-forget; a failed send is the peer's loss,
// never ours.
func (m *Master) Run(ctx context.Context) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: m.cfg.UDPPort})
	if err != nil {
		return fmt.Errorf("listen udp :%d: %w", m.cfg.UDPPort, err)
	}
	m.log.Info().Int("port", m.cfg.UDPPort).Msg("master server listening")

	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go m.limiters.cleanup(ctx)

	buf := make([]byte, 2048)
	for {
		n, sender, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				m.log.Info().Msg("master server stopping")
				return nil
			default:
				m.log.Error().Err(err).Msg("udp read error")
				continue
			}
		}

		if !m.limiters.allow(sender.IP.String()) {
			m.log.Debug().Str("from", sender.String()).Msg("rate limit exceeded")
			continue
		}

		for _, reply := range m.HandlePacket(sender, buf[:n], time.Now()) {
			if _, err := conn.WriteToUDP(reply, sender); err != nil {
				m.log.Warn().Err(err).Str("to", sender.String()).Msg("udp write failed")
			}
		}
	}
}
