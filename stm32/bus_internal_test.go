package stm32

import (
	"errors"
	"testing"

	"github.com/ardnew/stm32usb/pkg"
	"github.com/ardnew/stm32usb/usb"
)

// allocControl0 claims both directions of endpoint 0 for control transfers.
func allocControl0(t *testing.T, b *Bus) {
	t.Helper()
	ctrl := usb.NewEndpointAddress(0, usb.DirOut)
	if _, err := b.AllocEndpoint(usb.DirOut, &ctrl, usb.EndpointTypeControl, 8, 0); err != nil {
		t.Fatalf("control OUT allocation failed: %v", err)
	}
	ctrlIn := usb.NewEndpointAddress(0, usb.DirIn)
	if _, err := b.AllocEndpoint(usb.DirIn, &ctrlIn, usb.EndpointTypeControl, 8, 0); err != nil {
		t.Fatalf("control IN allocation failed: %v", err)
	}
}

func TestEnableComputesMaxEndpoint(t *testing.T) {
	b := New(&fakeRegs{})
	allocControl0(t, b)
	b.Enable()
	if b.maxEndpoint != 0 {
		t.Errorf("maxEndpoint = %d, want 0", b.maxEndpoint)
	}

	b = New(&fakeRegs{})
	allocControl0(t, b)
	if _, err := b.AllocEndpoint(usb.DirIn, nil, usb.EndpointTypeInterrupt, 8, 10); err != nil {
		t.Fatalf("interrupt IN allocation failed: %v", err)
	}
	if _, err := b.AllocEndpoint(usb.DirIn, nil, usb.EndpointTypeBulk, 64, 0); err != nil {
		t.Fatalf("bulk IN allocation failed: %v", err)
	}
	if _, err := b.AllocEndpoint(usb.DirOut, nil, usb.EndpointTypeBulk, 64, 0); err != nil {
		t.Fatalf("bulk OUT allocation failed: %v", err)
	}

	b.Enable()
	if b.maxEndpoint != 2 {
		t.Errorf("maxEndpoint = %d, want 2", b.maxEndpoint)
	}
}

func TestAllocEndpointExplicitSlotOutOfRange(t *testing.T) {
	b := New(&fakeRegs{})
	ea := usb.NewEndpointAddress(9, usb.DirIn)
	if _, err := b.AllocEndpoint(usb.DirIn, &ea, usb.EndpointTypeBulk, 64, 0); !errors.Is(err, pkg.ErrEndpointOverflow) {
		t.Errorf("AllocEndpoint(slot 9) = %v, want ErrEndpointOverflow", err)
	}
}

func TestAllocEndpointRoundsTransmitSize(t *testing.T) {
	b := New(&fakeRegs{})

	if _, err := b.AllocEndpoint(usb.DirIn, nil, usb.EndpointTypeInterrupt, 7, 10); err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	if b.mem.next != memStart+8 {
		t.Errorf("allocator cursor = %d, want %d", b.mem.next, memStart+8)
	}
	if b.endpoints[1].inBuf.addr&1 != 0 {
		t.Errorf("buffer offset %d is odd", b.endpoints[1].inBuf.addr)
	}
}

func TestPollReentrant(t *testing.T) {
	hw := &fakeRegs{istr: IstrRESET}
	b := New(hw)

	// Simulate a poll in flight in another context by holding the
	// register guard; the reentrant call must degrade to no event and
	// leave the sticky status bit untouched.
	b.mu.Lock()
	res := b.Poll()
	b.mu.Unlock()

	if res.Event != usb.EventNone {
		t.Errorf("reentrant Poll event = %v, want none", res.Event)
	}
	if hw.istr&IstrRESET == 0 {
		t.Error("reentrant Poll cleared the sticky reset bit")
	}

	res = b.Poll()
	if res.Event != usb.EventReset {
		t.Errorf("subsequent Poll event = %v, want reset", res.Event)
	}
}
