// Package transport provides the packet channels a signaling session runs
// over: a WebRTC DataChannel, a WebSocket connection, and an in-process pipe
// for tests and local demos. All of them deliver whole packets in order.
package transport

// Handler receives transport notifications. OnPacket is invoked once per
// inbound packet; OnSendReady is invoked when a previously congested channel
// can accept writes again. Each transport serializes its notifications, so
// handlers need no locking of their own.
type Handler interface {
	OnPacket(pkt []byte)
	OnSendReady()
}

// Pipe is one end of an in-process packet channel. Packets sent on one end
// are delivered to the other end's handler on the caller's goroutine. A pipe
// never reports congestion.
type Pipe struct {
	peer       *Pipe
	handler    Handler
	queue      [][]byte
	delivering bool
}

// NewPipe returns two connected pipe ends.
func NewPipe() (*Pipe, *Pipe) {
	a := &Pipe{}
	b := &Pipe{}
	a.peer = b
	b.peer = a
	return a, b
}

// SetHandler attaches the handler inbound packets are delivered to.
func (p *Pipe) SetHandler(h Handler) {
	p.handler = h
}

// Send delivers pkt to the peer end. The packet is copied, so the caller may
// reuse its buffer.
func (p *Pipe) Send(pkt []byte) bool {
	peer := p.peer
	peer.queue = append(peer.queue, append([]byte(nil), pkt...))
	peer.deliver()
	return false
}

// deliver drains queued packets into the handler. The delivering flag keeps
// nested Send calls from re-entering the drain loop.
func (p *Pipe) deliver() {
	if p.delivering || p.handler == nil {
		return
	}
	p.delivering = true
	for len(p.queue) > 0 {
		pkt := p.queue[0]
		p.queue = p.queue[1:]
		p.handler.OnPacket(pkt)
	}
	p.delivering = false
}
