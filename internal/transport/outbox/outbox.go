package outbox

import (
	"sync"

	"infond.dev/internal/protocol"
)

const DefaultMaxBytes = 1 << 20

// Outbox queues encoded frames for one connection. The world loop pushes,
// the connection's writer goroutine takes. Pushing past the byte limit
// closes the outbox: the peer has fallen behind and must reconnect to get a
// fresh snapshot.
type Outbox struct {
	mu         sync.Mutex
	frames     [][]byte
	size       int
	max        int
	closed     bool
	overflowed bool

	wake chan struct{}
	done chan struct{}
}

func New(maxBytes int) *Outbox {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Outbox{
		max:  maxBytes,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Push queues b and reports whether it was accepted.
func (o *Outbox) Push(b []byte) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if o.size+len(b) > o.max {
		o.overflowed = true
		o.closeLocked()
		o.mu.Unlock()
		return false
	}
	o.frames = append(o.frames, b)
	o.size += len(b)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return true
}

// Take moves all queued frames into dst[:0] and returns it.
func (o *Outbox) Take(dst [][]byte) [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	dst = append(dst[:0], o.frames...)
	for i := range o.frames {
		o.frames[i] = nil
	}
	o.frames = o.frames[:0]
	o.size = 0
	return dst
}

// Wake fires after a Push into an empty or idle outbox.
func (o *Outbox) Wake() <-chan struct{} { return o.wake }

// Done is closed once the outbox is closed.
func (o *Outbox) Done() <-chan struct{} { return o.done }

func (o *Outbox) Close() {
	o.mu.Lock()
	o.closeLocked()
	o.mu.Unlock()
}

func (o *Outbox) closeLocked() {
	if o.closed {
		return
	}
	o.closed = true
	o.frames = nil
	o.size = 0
	close(o.done)
}

func (o *Outbox) Overflowed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overflowed
}

// Len is the number of queued bytes.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.size
}

// Encoder turns a world message into one frame for the wire.
type Encoder func(m protocol.Message) ([]byte, error)

// Client adapts an Outbox to the world's client interface.
type Client struct {
	id   string
	addr string
	box  *Outbox
	enc  Encoder
}

func NewClient(id, addr string, box *Outbox, enc Encoder) *Client {
	return &Client{id: id, addr: addr, box: box, enc: enc}
}

func (c *Client) ID() string      { return c.id }
func (c *Client) Addr() string    { return c.addr }
func (c *Client) Outbox() *Outbox { return c.box }

func (c *Client) Send(m protocol.Message) bool {
	b, err := c.enc(m)
	if err != nil {
		return false
	}
	return c.box.Push(b)
}
