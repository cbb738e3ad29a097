package record

import (
	"encoding/json"
	"fmt"
	"net"

	"rovernav/internal/nav"
)

// UDPBroadcaster sends each record as one JSON datagram to a fixed
// destination, for plotting tools listening on the ground-station LAN.
// Send errors are returned but safe to ignore; the link is best-effort.
type UDPBroadcaster struct {
	dest string
	conn *net.UDPConn
}

func NewUDPBroadcaster(dest string) (*UDPBroadcaster, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("record: resolve %s: %w", dest, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("record: dial udp: %w", err)
	}
	return &UDPBroadcaster{dest: dest, conn: conn}, nil
}

func (b *UDPBroadcaster) Send(rec nav.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("record: marshal: %w", err)
	}
	_, err = b.conn.Write(payload)
	return err
}

func (b *UDPBroadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
