package gps

import (
	"time"

	"rovernav/internal/transport"
)

// Reader drains NMEA lines from a transport and keeps the latest fix.
// It is polled from the rover loop; Poll never blocks beyond the
// transport's own read bound.
type Reader struct {
	link  transport.LineTransport
	state fixState
}

func NewReader(link transport.LineTransport) *Reader {
	return &Reader{link: link}
}

// Poll consumes every pending line and reports whether the fix changed.
// Malformed sentences are dropped; the receiver re-sends every second.
func (r *Reader) Poll(now time.Time) bool {
	updated := false
	for {
		line, ok := r.link.ReadLine()
		if !ok {
			return updated
		}
		sent, err := parseNMEASentence(line)
		if err != nil {
			continue
		}
		if r.state.apply(now, sent) {
			updated = true
		}
	}
}

// Fix returns the most recent fix. Valid stays false until the first
// complete RMC or GGA sentence with a position.
func (r *Reader) Fix() Fix {
	return r.state.fix
}
