package coding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeCommandSPI(t *testing.T) {
	tests := []struct {
		name    string
		raw     byte
		want    CommandSPI
		wantErr bool
	}{
		{
			name: "No security",
			raw:  0x00,
			want: CommandSPI{},
		},
		{
			name: "CC, no ciphering, counter must be higher (0x12)",
			raw:  0x12,
			want: CommandSPI{CertificationMode: CC, CounterMode: CounterReplayCheck},
		},
		{
			name: "CC, ciphered, counter must be higher (0x16)",
			raw:  0x16,
			want: CommandSPI{CertificationMode: CC, Ciphered: true, CounterMode: CounterReplayCheck},
		},
		{
			name: "RC, ciphered, no counter (0x05)",
			raw:  0x05,
			want: CommandSPI{CertificationMode: RC, Ciphered: true},
		},
		{
			name: "DS decodes (rejected later by the profile)",
			raw:  0x1B,
			want: CommandSPI{CertificationMode: DS, CounterMode: CounterReplayCheckIncrement},
		},
		{name: "Reserved bit 6", raw: 0x20, wantErr: true},
		{name: "Reserved bit 8", raw: 0x80, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommandSPI(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeCommandSPI(0x%02X) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrCoding) {
					t.Errorf("error %v does not match ErrCoding", err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeCommandSPI(0x%02X) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestDecodeResponseSPI(t *testing.T) {
	tests := []struct {
		name    string
		raw     byte
		want    ResponseSPI
		wantErr bool
	}{
		{
			name: "PoR always, no security, deliver report (0x01)",
			raw:  0x01,
			want: ResponseSPI{PoRMode: ReplyAlways},
		},
		{
			name: "PoR always, ciphered (0x11)",
			raw:  0x11,
			want: ResponseSPI{PoRMode: ReplyAlways, Ciphered: true},
		},
		{
			name: "PoR always, CC, submit (0x29)",
			raw:  0x29,
			want: ResponseSPI{PoRMode: ReplyAlways, CertificationMode: CC, Protocol: Submit},
		},
		{
			name: "PoR on error, RC, submit (0x26)",
			raw:  0x26,
			want: ResponseSPI{PoRMode: ReplyOnError, CertificationMode: RC, Protocol: Submit},
		},
		{
			name: "Reserved PoR mode is representable (0x03)",
			raw:  0x03,
			want: ResponseSPI{PoRMode: PoRReserved},
		},
		{name: "Reserved bit 7", raw: 0x40, wantErr: true},
		{name: "Reserved bit 8", raw: 0x81, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponseSPI(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeResponseSPI(0x%02X) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeResponseSPI(0x%02X) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestSPI_RoundTripAllBytes(t *testing.T) {
	for i := 0; i < 256; i++ {
		b := byte(i)

		if spi, err := DecodeCommandSPI(b); err == nil {
			if got, err := spi.Encode(); err != nil || got != b {
				t.Errorf("CommandSPI round trip 0x%02X -> 0x%02X (%v)", b, got, err)
			}
		} else if b&0xE0 == 0 {
			t.Errorf("DecodeCommandSPI(0x%02X) unexpected error: %v", b, err)
		}

		if spi, err := DecodeResponseSPI(b); err == nil {
			if got, err := spi.Encode(); err != nil || got != b {
				t.Errorf("ResponseSPI round trip 0x%02X -> 0x%02X (%v)", b, got, err)
			}
		} else if b&0xC0 == 0 {
			t.Errorf("DecodeResponseSPI(0x%02X) unexpected error: %v", b, err)
		}
	}
}

func TestSPI_EncodeRejectsOutOfRange(t *testing.T) {
	if _, err := (CommandSPI{CertificationMode: 4}).Encode(); !errors.Is(err, ErrCoding) {
		t.Errorf("CommandSPI{cert=4}.Encode() error = %v, want ErrCoding", err)
	}
	if _, err := (CommandSPI{CounterMode: 7}).Encode(); !errors.Is(err, ErrCoding) {
		t.Errorf("CommandSPI{counter=7}.Encode() error = %v, want ErrCoding", err)
	}
	if _, err := (ResponseSPI{Protocol: 2}).Encode(); !errors.Is(err, ErrCoding) {
		t.Errorf("ResponseSPI{protocol=2}.Encode() error = %v, want ErrCoding", err)
	}
}

func TestCommandSPI_Verbose(t *testing.T) {
	spi := CommandSPI{CertificationMode: CC, Ciphered: true, CounterMode: CounterReplayCheck}
	want := "Certification: Cryptographic Checksum\nCiphering: true\nCounter: Counter must be higher"
	if got := spi.Verbose(); got != want {
		t.Errorf("Verbose() = %q, want %q", got, want)
	}
}
