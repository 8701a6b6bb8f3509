package packet

import (
	"errors"
	"hash"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/gsm0348/pkg/coding"
	"github.com/gregLibert/gsm0348/pkg/profile"
	"github.com/gregLibert/gsm0348/pkg/security"
	"github.com/gregLibert/gsm0348/pkg/tlv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure(t *testing.T) {
	tests := []struct {
		name    string
		profile profile.Profile
		wantErr bool
	}{
		{name: "DES", profile: desProfile(profile.SMSPP)},
		{name: "AES", profile: aesProfile(profile.USSD, true, coding.CounterReplayCheckIncrement)},
		{
			name: "Digital signature",
			profile: func() profile.Profile {
				p := desProfile(profile.SMSPP)
				p.SPI.Command.CertificationMode = coding.DS
				return p
			}(),
			wantErr: true,
		},
		{
			name: "Transport missing",
			profile: func() profile.Profile {
				p := desProfile(profile.SMSPP)
				p.Transport = profile.TransportUnset
				return p
			}(),
			wantErr: true,
		},
		{
			name: "Unregistered proprietary cipher",
			profile: func() profile.Profile {
				p := desProfile(profile.SMSPP)
				p.KIC = coding.KIC{Algorithm: coding.KICProprietary}
				p.CipherName = "VENDOR-CIPHER"
				return p
			}(),
			wantErr: true,
		},
		{
			name: "Unregistered proprietary MAC",
			profile: func() profile.Profile {
				p := desProfile(profile.SMSPP)
				p.KID = coding.KID{Algorithm: coding.KIDProprietary}
				p.SignatureName = "VENDOR-MAC"
				return p
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			err := b.Configure(tt.profile)

			if tt.wantErr {
				assertKind(t, err, ErrConfiguration)
				if b.IsConfigured() {
					t.Error("builder configured after a failed Configure")
				}
				return
			}
			if err != nil {
				t.Fatalf("Configure failed: %v", err)
			}
			if !b.IsConfigured() {
				t.Error("IsConfigured() = false")
			}
		})
	}
}

func TestConfigure_FailureKeepsPreviousProfile(t *testing.T) {
	b := newBuilder(t, desProfile(profile.SMSPP))

	bad := desProfile(profile.CATTP)
	bad.SPI.Response.CertificationMode = coding.DS
	if err := b.Configure(bad); err == nil {
		t.Fatal("expected an error")
	}

	got, err := b.Profile()
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if diff := cmp.Diff(desProfile(profile.SMSPP), got); diff != "" {
		t.Errorf("Profile mismatch (-want +got):\n%s", diff)
	}
}

func TestProfile_IsACopy(t *testing.T) {
	p := desProfile(profile.SMSPP)
	b := newBuilder(t, p)

	p.TAR = [3]byte{0xFF, 0xFF, 0xFF}
	got, _ := b.Profile()
	got.TAR[0] = 0x00
	again, _ := b.Profile()

	if again.TAR != [3]byte{0xB0, 0x00, 0x10} {
		t.Errorf("stored TAR changed to %X", again.TAR)
	}
}

// xorBlock is a toy 8-byte block cipher used to exercise external registration.
type xorBlock struct{}

func (xorBlock) BlockSize() int { return 8 }

func (xorBlock) Encrypt(key, data []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("empty key")
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out, nil
}

func (x xorBlock) Decrypt(key, data []byte) ([]byte, error) { return x.Encrypt(key, data) }

// sum2 is a 2-byte additive checksum. The key is ignored.
type sum2 struct{}

func (sum2) Size() int { return 2 }

func (sum2) New([]byte) (hash.Hash, error) { return &sumHash{}, nil }

type sumHash struct{ total uint16 }

func (h *sumHash) Write(p []byte) (int, error) {
	for _, b := range p {
		h.total += uint16(b)
	}
	return len(p), nil
}

func (h *sumHash) Sum(b []byte) []byte { return append(b, byte(h.total>>8), byte(h.total)) }
func (h *sumHash) Reset()              { h.total = 0 }
func (h *sumHash) Size() int           { return 2 }
func (h *sumHash) BlockSize() int      { return 1 }

func TestWithRegistry_ExternalAlgorithms(t *testing.T) {
	reg := security.NewRegistry()
	if err := reg.Ciphers.Register("VENDOR-CIPHER", xorBlock{}); err != nil {
		t.Fatalf("Register cipher: %v", err)
	}
	if err := reg.Signatures.Register("VENDOR-SUM", sum2{}); err != nil {
		t.Fatalf("Register MAC: %v", err)
	}

	p := headerProfile(t, "0D 15 03 03 B00010", profile.TCPIP, "VENDOR-SUM")
	p.CipherName = "VENDOR-CIPHER"

	b := NewBuilder(WithRegistry(reg))
	if err := b.Configure(p); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if err := NewBuilder().Configure(p); !errors.Is(err, ErrConfiguration) {
		t.Errorf("a builder with its own registry accepted the profile: %v", err)
	}

	key := tlv.Hex("A5")
	data := tlv.Hex("D0 0D 81 03 01 21 00 82 02 81 02 8D 02 04 41")
	counter := tlv.Hex("0000000009")

	raw, err := b.BuildCommand(data, counter, key, key)
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	// 01 id, BER length, CHL = 13 + 2.
	if raw[0] != 0x01 || raw[2] != 0x0F {
		t.Errorf("unexpected framing %X", raw[:3])
	}

	cmd, err := b.RecoverCommand(raw, key, key)
	if err != nil {
		t.Fatalf("RecoverCommand failed: %v", err)
	}
	assertHex(t, data, cmd.Data)
	if cmd.Header.PaddingCounter != 1 {
		t.Errorf("PaddingCounter = %d, want 1", cmd.Header.PaddingCounter)
	}

	rsp, err := b.BuildResponse(tlv.Hex("9000"), counter, key, key, coding.PoROK)
	if err != nil {
		t.Fatalf("BuildResponse failed: %v", err)
	}
	got, err := b.RecoverResponse(rsp, key, key)
	if err != nil {
		t.Fatalf("RecoverResponse failed: %v", err)
	}
	assertHex(t, tlv.Hex("9000"), got.Data)
}

func TestWithLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewBuilder(WithLogger(zap.New(core)))

	if err := b.Configure(aesProfile(profile.SMSPP, true, coding.NoCounter)); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	raw, err := b.BuildCommand(tlv.Hex("AABB"), nil, aesKey, aesKey)
	if err != nil {
		t.Fatalf("BuildCommand failed: %v", err)
	}
	if _, err := b.RecoverCommand(raw, aesKey, aesKey); err != nil {
		t.Fatalf("RecoverCommand failed: %v", err)
	}

	var messages []string
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
		for _, f := range e.Context {
			if strings.Contains(strings.ToUpper(f.String), "11223344") {
				t.Errorf("key material logged in %q: %s=%s", e.Message, f.Key, f.String)
			}
		}
	}

	want := []string{"builder configured", "command packet built", "command packet recovered"}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("Log mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_ConcurrentUse(t *testing.T) {
	b := newBuilder(t, desProfile(profile.SMSPP))
	data := tlv.Hex("0102030405")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				raw, err := b.BuildCommand(data, nil, zeroDES, zeroDES)
				if err != nil {
					t.Errorf("BuildCommand: %v", err)
					return
				}
				if _, err := b.RecoverCommand(raw, zeroDES, zeroDES); err != nil && !errors.Is(err, ErrCoding) {
					t.Errorf("RecoverCommand: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr := profile.SMSPP
				if j%2 == 1 {
					tr = profile.SMSCB
				}
				if err := b.Configure(desProfile(tr)); err != nil {
					t.Errorf("Configure: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
