package coding

import (
	"errors"
	"testing"
)

func TestDecodeResponseStatus(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)
		s, err := DecodeResponseStatus(b)
		if b <= 0x0C {
			if err != nil {
				t.Errorf("DecodeResponseStatus(0x%02X) unexpected error: %v", b, err)
				continue
			}
			if got, err := s.Encode(); err != nil || got != b {
				t.Errorf("status round trip 0x%02X -> 0x%02X (%v)", b, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrCoding) {
			t.Errorf("DecodeResponseStatus(0x%02X) error = %v, want ErrCoding", b, err)
		}
	}
}

func TestResponseStatus_Verbose(t *testing.T) {
	tests := []struct {
		status ResponseStatus
		want   string
	}{
		{PoROK, "[00] PoR OK"},
		{CounterLow, "[02] Counter low"},
		{CipheringError, "[05] Ciphering error"},
		{TARUnknown, "[09] TAR unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.Verbose(); got != tt.want {
			t.Errorf("Verbose() = %q, want %q", got, tt.want)
		}
	}

	if got := ResponseStatus(0x42).String(); got != "ResponseStatus(66)" {
		t.Errorf("String() of unknown = %q", got)
	}
	if !PoROK.IsSuccess() || CounterHigh.IsSuccess() {
		t.Error("IsSuccess() must be true only for PoR OK")
	}
}
