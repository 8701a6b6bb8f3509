package coding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeKIC(t *testing.T) {
	tests := []struct {
		name    string
		raw     byte
		want    KIC
		wantErr bool
	}{
		{"Known by both, keyset 0", 0x00, KIC{}, false},
		{"Known by both, keyset 1", 0x10, KIC{Keyset: 1}, false},
		{"DES CBC", 0x11, KIC{Algorithm: KICDES, Mode: CipherDESCBC, Keyset: 1}, false},
		{"3DES 2 keys", 0x15, KIC{Algorithm: KICDES, Mode: CipherTripleDES2Key, Keyset: 1}, false},
		{"3DES 3 keys", 0x19, KIC{Algorithm: KICDES, Mode: CipherTripleDES3Key, Keyset: 1}, false},
		{"DES ECB", 0x1D, KIC{Algorithm: KICDES, Mode: CipherDESECB, Keyset: 1}, false},
		{"AES CBC keyset 15", 0xF2, KIC{Algorithm: KICAES, Mode: CipherAESCBC, Keyset: 15}, false},
		{"Proprietary", 0x23, KIC{Algorithm: KICProprietary, Keyset: 2}, false},
		{"AES reserved mode", 0x16, KIC{}, true},
		{"Known by both with mode bits", 0x04, KIC{}, true},
		{"Proprietary with mode bits", 0x0F, KIC{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKIC(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeKIC(0x%02X) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != "KIC" {
					t.Errorf("DecodeKIC(0x%02X) error = %v, want a KIC FieldError", tt.raw, err)
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeKIC(0x%02X) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestKIC_RoundTripAllBytes(t *testing.T) {
	decoded := 0
	for i := 0; i < 256; i++ {
		b := byte(i)
		kic, err := DecodeKIC(b)
		if err != nil {
			if !errors.Is(err, ErrCoding) {
				t.Errorf("DecodeKIC(0x%02X) error %v is not a coding error", b, err)
			}
			continue
		}
		decoded++
		if got, err := kic.Encode(); err != nil || got != b {
			t.Errorf("KIC round trip 0x%02X -> 0x%02X (%v)", b, got, err)
		}
	}

	// Per keyset: 1 known + 4 DES + 1 AES + 1 proprietary.
	if decoded != 16*7 {
		t.Errorf("decoded %d KIC values, want %d", decoded, 16*7)
	}
}

func TestKIC_EncodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		kic  KIC
	}{
		{"Keyset too large", KIC{Algorithm: KICDES, Mode: CipherDESCBC, Keyset: 16}},
		{"AES with DES mode", KIC{Algorithm: KICAES, Mode: CipherDESECB}},
		{"DES with AES mode", KIC{Algorithm: KICDES, Mode: CipherAESCBC}},
		{"DES without mode", KIC{Algorithm: KICDES}},
		{"Proprietary with mode", KIC{Algorithm: KICProprietary, Mode: CipherDESCBC}},
		{"Unknown algorithm", KIC{Algorithm: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.kic.Encode(); !errors.Is(err, ErrCoding) {
				t.Errorf("Encode() error = %v, want ErrCoding", err)
			}
		})
	}
}
