package packet

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

func TestFraming_Encode(t *testing.T) {
	tests := []struct {
		name     string
		framing  func() (framing, error)
		length   int
		expected []byte
	}{
		{name: "SMS-PP command", framing: func() (framing, error) { return commandFraming(profile.SMSPP) }, length: 0x18, expected: tlv.Hex("0018")},
		{name: "SMS-CB command", framing: func() (framing, error) { return commandFraming(profile.SMSCB) }, length: 0x0118, expected: tlv.Hex("0118")},
		{name: "CAT-TP command", framing: func() (framing, error) { return commandFraming(profile.CATTP) }, length: 0x18, expected: tlv.Hex("01 18")},
		{name: "TCP-IP command long form", framing: func() (framing, error) { return commandFraming(profile.TCPIP) }, length: 0x80, expected: tlv.Hex("01 8180")},
		{name: "USSD command", framing: func() (framing, error) { return commandFraming(profile.USSD) }, length: 0x0118, expected: tlv.Hex("03 820118")},
		{name: "SMS-PP response", framing: func() (framing, error) { return responseFraming(profile.SMSPP) }, length: 0x0E, expected: tlv.Hex("000E")},
		{name: "CAT-TP response", framing: func() (framing, error) { return responseFraming(profile.CATTP) }, length: 0x0E, expected: tlv.Hex("02 0E")},
		{name: "USSD response", framing: func() (framing, error) { return responseFraming(profile.USSD) }, length: 0x0E, expected: tlv.Hex("04 0E")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := tt.framing()
			if err != nil {
				t.Fatalf("framing: %v", err)
			}
			got, err := f.encode(tt.length)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("Mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFraming_Unsupported(t *testing.T) {
	if _, err := responseFraming(profile.SMSCB); !errors.Is(err, ErrConfiguration) {
		t.Errorf("SMS-CB response: %v", err)
	}
	if _, err := commandFraming(profile.TransportUnset); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unset command transport: %v", err)
	}
	if _, err := responseFraming(profile.TransportUnset); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unset response transport: %v", err)
	}
}

func TestFraming_Split(t *testing.T) {
	cat, _ := commandFraming(profile.CATTP)
	sms, _ := commandFraming(profile.SMSPP)

	tests := []struct {
		name    string
		framing framing
		raw     []byte
		prefix  []byte
		body    []byte
		wantErr bool
	}{
		{name: "SMS", framing: sms, raw: tlv.Hex("0002 AABB"), prefix: tlv.Hex("0002"), body: tlv.Hex("AABB")},
		{name: "CAT-TP", framing: cat, raw: tlv.Hex("01 02 AABB"), prefix: tlv.Hex("0102"), body: tlv.Hex("AABB")},
		{name: "CAT-TP long form", framing: cat, raw: append(tlv.Hex("01 8180"), make([]byte, 0x80)...), prefix: tlv.Hex("018180"), body: make([]byte, 0x80)},
		{name: "Short SMS length", framing: sms, raw: tlv.Hex("00"), wantErr: true},
		{name: "Missing byte", framing: sms, raw: tlv.Hex("0003 AABB"), wantErr: true},
		{name: "Extra byte", framing: cat, raw: tlv.Hex("01 01 AABB"), wantErr: true},
		{name: "Wrong identifier", framing: cat, raw: tlv.Hex("03 02 AABB"), wantErr: true},
		{name: "Truncated BER length", framing: cat, raw: tlv.Hex("01 82 01"), wantErr: true},
		{name: "Empty", framing: cat, raw: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, body, err := tt.framing.split(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrCoding) {
					t.Errorf("expected a coding error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("split failed: %v", err)
			}
			if diff := cmp.Diff(tt.prefix, prefix); diff != "" {
				t.Errorf("Prefix mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.body, body); diff != "" {
				t.Errorf("Body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSigningPrefix(t *testing.T) {
	sms, _ := responseFraming(profile.SMSPP)
	cat, _ := responseFraming(profile.CATTP)

	if diff := cmp.Diff(tlv.Hex("027100 001C"), sms.signingPrefix(tlv.Hex("001C"))); diff != "" {
		t.Errorf("SMS mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tlv.Hex("021C"), cat.signingPrefix(tlv.Hex("021C"))); diff != "" {
		t.Errorf("CAT-TP mismatch (-want +got):\n%s", diff)
	}
}

func TestPaddingFor(t *testing.T) {
	tests := []struct{ n, bs, want int }{
		{16, 16, 0},
		{270, 16, 2},
		{17, 16, 15},
		{10, 8, 6},
		{0, 8, 0},
	}
	for _, tt := range tests {
		if got := paddingFor(tt.n, tt.bs); got != tt.want {
			t.Errorf("paddingFor(%d, %d) = %d, want %d", tt.n, tt.bs, got, tt.want)
		}
	}
}
