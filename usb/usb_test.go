package usb

import "testing"

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		name  string
		index int
		dir   Direction
		want  EndpointAddress
	}{
		{"control OUT", 0, DirOut, 0x00},
		{"control IN", 0, DirIn, 0x80},
		{"bulk OUT", 2, DirOut, 0x02},
		{"bulk IN", 2, DirIn, 0x82},
		{"interrupt IN", 1, DirIn, 0x81},
		{"high slot OUT", 7, DirOut, 0x07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ea := NewEndpointAddress(tt.index, tt.dir)
			if ea != tt.want {
				t.Fatalf("NewEndpointAddress(%d, %v) = 0x%02X, want 0x%02X",
					tt.index, tt.dir, uint8(ea), uint8(tt.want))
			}
			if got := ea.Index(); got != tt.index {
				t.Errorf("Index() = %d, want %d", got, tt.index)
			}
			if got := ea.Direction(); got != tt.dir {
				t.Errorf("Direction() = %v, want %v", got, tt.dir)
			}
			if ea.IsIn() != (tt.dir == DirIn) {
				t.Errorf("IsIn() = %v for direction %v", ea.IsIn(), tt.dir)
			}
			if ea.IsOut() == ea.IsIn() {
				t.Errorf("IsOut() and IsIn() agree for %v", ea)
			}
		})
	}
}

func TestEndpointTypeString(t *testing.T) {
	tests := []struct {
		epType EndpointType
		want   string
	}{
		{EndpointTypeControl, "Control"},
		{EndpointTypeIsochronous, "Isochronous"},
		{EndpointTypeBulk, "Bulk"},
		{EndpointTypeInterrupt, "Interrupt"},
		{EndpointType(9), "Unknown(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.epType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		event Event
		want  string
	}{
		{EventNone, "none"},
		{EventReset, "reset"},
		{EventResume, "resume"},
		{EventSuspend, "suspend"},
		{EventData, "data"},
		{Event(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.event.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
