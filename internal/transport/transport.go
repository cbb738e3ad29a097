// Package transport carries newline-terminated ASCII lines between the base
// station and the rover. The control loops poll it; nothing here blocks
// indefinitely.
package transport

import (
	"strings"
	"sync"
)

// LineTransport is the link the control loops poll.
//
// ReadLine returns the next complete line (without terminator) and true, or
// ("", false) when no full line is pending. Both methods are single-pass and
// non-blocking apart from a bounded serial read timeout.
type LineTransport interface {
	ReadLine() (string, bool)
	WriteLine(line string) error
	Close() error
}

// Pipe is an in-memory LineTransport endpoint, used by tests and the
// closed-loop simulator. NewPipe returns two connected endpoints: lines
// written to one are read from the other.
type Pipe struct {
	mu     sync.Mutex
	inbox  []string
	peer   *Pipe
	closed bool
}

func NewPipe() (*Pipe, *Pipe) {
	a := &Pipe{}
	b := &Pipe{}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *Pipe) ReadLine() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inbox) == 0 {
		return "", false
	}
	line := p.inbox[0]
	p.inbox = p.inbox[1:]
	return line, true
}

func (p *Pipe) WriteLine(line string) error {
	peer := p.peer
	peer.mu.Lock()
	defer peer.mu.Unlock()
	if peer.closed {
		return nil
	}
	peer.inbox = append(peer.inbox, strings.TrimRight(line, "\r\n"))
	return nil
}

func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.inbox = nil
	p.mu.Unlock()
	return nil
}
