package link

import (
	"bytes"
	"testing"
)

func TestLoopbackEndpointRoundTrip(t *testing.T) {
	e := NewLoopback("lo0")
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer e.Close()

	res := e.SendAndReceive([]byte{0x01, 0x02, 0x03})
	if !res.Success {
		t.Fatalf("expected success, got %q", res.ErrorMessage)
	}
	if !bytes.Equal(res.Data, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("expected echo, got % x", res.Data)
	}
}

func TestLoopbackEndpointTimeoutWhenIdle(t *testing.T) {
	e := NewLoopback("lo0")
	if err := e.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	defer e.Close()

	n, data := e.ReceivePacket(64)
	if n != 0 || data != nil {
		t.Fatalf("expected timeout on idle link, got n=%d data=%v", n, data)
	}
}
