package outbox

import (
	"testing"

	"infond.dev/internal/protocol"
)

func TestPushTake(t *testing.T) {
	o := New(16)
	if !o.Push([]byte{1, 2, 3}) || !o.Push([]byte{4}) {
		t.Fatalf("push rejected")
	}
	select {
	case <-o.Wake():
	default:
		t.Fatalf("no wake after push")
	}
	if o.Len() != 4 {
		t.Fatalf("len: got %d want 4", o.Len())
	}
	frames := o.Take(nil)
	if len(frames) != 2 || frames[1][0] != 4 {
		t.Fatalf("frames: got %v", frames)
	}
	if o.Len() != 0 || len(o.Take(frames)) != 0 {
		t.Fatalf("outbox not empty after take")
	}
}

func TestOverflowCloses(t *testing.T) {
	o := New(4)
	if !o.Push([]byte{1, 2, 3}) {
		t.Fatalf("push rejected")
	}
	if o.Push([]byte{4, 5}) {
		t.Fatalf("push over limit accepted")
	}
	if !o.Overflowed() {
		t.Fatalf("overflow not recorded")
	}
	select {
	case <-o.Done():
	default:
		t.Fatalf("outbox still open after overflow")
	}
	if o.Push([]byte{1}) {
		t.Fatalf("push after close accepted")
	}
	o.Close()
}

func TestClientSend(t *testing.T) {
	o := New(64)
	c := NewClient("id1", "ip:127.0.0.1:9", o, protocol.EncodePacket)
	if c.ID() != "id1" || c.Addr() != "ip:127.0.0.1:9" {
		t.Fatalf("client: got %s %s", c.ID(), c.Addr())
	}
	if !c.Send(protocol.NewWorldUpdate(1, 2, 9, 3)) {
		t.Fatalf("send rejected")
	}
	if c.Send(protocol.RawPacket{Type: 9, Payload: make([]byte, 300)}) {
		t.Fatalf("oversized packet accepted")
	}
	frames := o.Take(nil)
	want := []byte{4, protocol.PacketWorldUpdate, 1, 2, 9, 3}
	if len(frames) != 1 || string(frames[0]) != string(want) {
		t.Fatalf("frame: got %v want %v", frames, want)
	}
}
