package sim

import (
	"bytes"
	"testing"

	"github.com/ardnew/stm32usb/stm32"
)

func TestSetEPRToggleFields(t *testing.T) {
	tests := []struct {
		name  string
		old   uint16
		write uint16
		want  uint16
	}{
		{
			// Writing 1 to a STAT bit flips it; 0 leaves it alone.
			name:  "toggle stat tx",
			old:   uint16(stm32.StatusNak) << stm32.EprStatTxShift,
			write: uint16(stm32.StatusNak^stm32.StatusValid) << stm32.EprStatTxShift,
			want:  uint16(stm32.StatusValid) << stm32.EprStatTxShift,
		},
		{
			name:  "toggle stat rx to disabled",
			old:   uint16(stm32.StatusValid) << stm32.EprStatRxShift,
			write: uint16(stm32.StatusValid) << stm32.EprStatRxShift,
			want:  0,
		},
		{
			name:  "zero write leaves toggles",
			old:   stm32.EprDtogTx | stm32.EprDtogRx,
			write: 0,
			want:  stm32.EprDtogTx | stm32.EprDtogRx,
		},
		{
			name:  "dtog cleared by writing current value",
			old:   stm32.EprDtogTx | stm32.EprDtogRx,
			write: stm32.EprDtogTx | stm32.EprDtogRx,
			want:  0,
		},
		{
			// rw fields are written through regardless of prior value.
			name:  "type and address written through",
			old:   0x1 << stm32.EprTypeShift,
			write: 0x3<<stm32.EprTypeShift | 0x5,
			want:  0x3<<stm32.EprTypeShift | 0x5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.epr[2] = tt.old
			p.SetEPR(2, tt.write)
			if got := p.EPR(2); got != tt.want {
				t.Errorf("EPR = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestSetEPRTransferCompleteBits(t *testing.T) {
	p := New()
	p.epr[1] = stm32.EprCtrRx | stm32.EprCtrTx | stm32.EprSetup

	// Writing 1 holds the bits.
	p.SetEPR(1, stm32.EprCtrRx|stm32.EprCtrTx)
	if got := p.EPR(1); got&(stm32.EprCtrRx|stm32.EprCtrTx) != stm32.EprCtrRx|stm32.EprCtrTx {
		t.Fatalf("CTR bits lost on hold write: 0x%04X", got)
	}
	if p.EPR(1)&stm32.EprSetup == 0 {
		t.Fatal("SETUP lost while CTR_RX held")
	}

	// Writing 0 to CTR_TX clears only it.
	p.SetEPR(1, stm32.EprCtrRx)
	if got := p.EPR(1); got&stm32.EprCtrTx != 0 || got&stm32.EprCtrRx == 0 {
		t.Fatalf("selective CTR clear failed: 0x%04X", got)
	}

	// Clearing CTR_RX drops SETUP with it.
	p.SetEPR(1, stm32.EprCtrTx)
	if got := p.EPR(1); got&(stm32.EprCtrRx|stm32.EprSetup) != 0 {
		t.Fatalf("CTR_RX/SETUP not cleared: 0x%04X", got)
	}
}

func TestSetISTRClearOnWriteZero(t *testing.T) {
	p := New()
	p.SignalReset()
	p.SignalSuspend()

	// Writing 1 everywhere changes nothing.
	p.SetISTR(0xFFFF)
	if v := p.ISTR(); v&stm32.IstrRESET == 0 || v&stm32.IstrSUSP == 0 {
		t.Fatalf("all-ones write cleared sticky bits: 0x%04X", v)
	}

	// Writing 0 at one position clears only that bit.
	p.SetISTR(^uint16(stm32.IstrRESET))
	if v := p.ISTR(); v&stm32.IstrRESET != 0 {
		t.Errorf("reset bit not cleared: 0x%04X", v)
	} else if v&stm32.IstrSUSP == 0 {
		t.Errorf("suspend bit lost: 0x%04X", v)
	}
}

func TestISTRDerivesCTR(t *testing.T) {
	p := New()
	if p.ISTR()&stm32.IstrCTR != 0 {
		t.Fatal("CTR set with no pending endpoint bits")
	}

	p.epr[3] = stm32.EprCtrTx
	if p.ISTR()&stm32.IstrCTR == 0 {
		t.Fatal("CTR not derived from endpoint CTR_TX")
	}

	// CTR cannot be cleared through ISTR writes.
	p.SetISTR(0)
	if p.ISTR()&stm32.IstrCTR == 0 {
		t.Error("CTR cleared by ISTR write")
	}
}

func TestSendOutRespectsStatus(t *testing.T) {
	p := New()
	// Receive buffer at offset 64, 8 bytes, endpoint NAKing.
	p.pma[stm32.DescWord(1, stm32.DescAddrRx)] = 64
	p.epr[1] = uint16(stm32.StatusNak) << stm32.EprStatRxShift

	if p.SendOut(1, []byte{1, 2}, false) {
		t.Fatal("NAKing endpoint accepted a packet")
	}

	p.epr[1] = uint16(stm32.StatusValid) << stm32.EprStatRxShift
	if !p.SendOut(1, []byte{1, 2}, false) {
		t.Fatal("armed endpoint rejected a packet")
	}

	e := p.EPR(1)
	if e&stm32.EprCtrRx == 0 {
		t.Error("CTR_RX not raised after reception")
	}
	if stm32.Status(e&stm32.EprStatRx>>stm32.EprStatRxShift) != stm32.StatusNak {
		t.Error("STAT_RX not dropped to NAK after reception")
	}
	if got := p.pma[stm32.DescWord(1, stm32.DescCountRx)] & stm32.CountRxMask; got != 2 {
		t.Errorf("received count = %d, want 2", got)
	}
}

func TestCollectInRoundTrip(t *testing.T) {
	p := New()
	if _, ok := p.CollectIn(1); ok {
		t.Fatal("collected from an idle endpoint")
	}

	msg := []byte{0xDE, 0xAD, 0xBE}
	p.pma[stm32.DescWord(1, stm32.DescAddrTx)] = 96
	p.pma[stm32.DescWord(1, stm32.DescCountTx)] = uint16(len(msg))
	for i, b := range msg {
		w := p.pma[(96+i)>>1]
		if i&1 == 0 {
			w = w&0xFF00 | uint16(b)
		} else {
			w = w&0x00FF | uint16(b)<<8
		}
		p.pma[(96+i)>>1] = w
	}
	p.epr[1] = uint16(stm32.StatusValid) << stm32.EprStatTxShift

	data, ok := p.CollectIn(1)
	if !ok || !bytes.Equal(data, msg) {
		t.Fatalf("CollectIn = (%X, %v), want (%X, true)", data, ok, msg)
	}

	e := p.EPR(1)
	if e&stm32.EprCtrTx == 0 {
		t.Error("CTR_TX not raised after collection")
	}
	if stm32.Status(e&stm32.EprStatTx>>stm32.EprStatTxShift) != stm32.StatusNak {
		t.Error("STAT_TX not dropped to NAK after collection")
	}
}

func TestPinRecordsLevels(t *testing.T) {
	pin := &Pin{}
	if pin.IsLow() {
		t.Fatal("fresh pin reads low")
	}
	pin.Low()
	if !pin.IsLow() {
		t.Error("pin not low after Low")
	}
	pin.High()
	if pin.IsLow() {
		t.Error("pin still low after High")
	}
	if got := pin.Transitions(); got != 2 {
		t.Errorf("transitions = %d, want 2", got)
	}
}
