package envelope

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gregLibert/gsm0348/pkg/iso7816"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

var (
	commandPacket = tlv.Hex("0010 0D 0000 0000 B00010 0000000001 00 8002")

	downloadEnvelope = tlv.Hex(
		"D1 2A",
		"82 02 8381",
		"8B 24",
		"40 04 81 2143 7F F6 62015121436500",
		"15 027000",
		"0010 0D 0000 0000 B00010 0000000001 00 8002",
	)

	sendTime = time.Date(2026, time.October, 15, 12, 34, 56, 0, time.UTC)
)

// fakeCard replays canned responses and records what it received.
type fakeCard struct {
	responses [][]byte
	sent      [][]byte
}

func (c *fakeCard) Transmit(cmd []byte) ([]byte, error) {
	c.sent = append(c.sent, cmd)
	if len(c.responses) == 0 {
		return tlv.Hex("6F00"), nil
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func newDownloader(card *fakeCard, opts ...Option) *Downloader {
	opts = append([]Option{WithClock(func() time.Time { return sendTime })}, opts...)
	return New(iso7816.NewClient(card, nil), opts...)
}

func TestDownloader_Encode(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []byte
	}{
		{name: "Default", want: downloadEnvelope},
		{
			name: "With service center",
			opts: []Option{WithServiceCenter("+33612")},
			want: tlv.Hex(
				"D1 30",
				"82 02 8381",
				"86 04 91 3316F2",
				"8B 24",
				"40 04 81 2143 7F F6 62015121436500",
				"15 027000",
				"0010 0D 0000 0000 B00010 0000000001 00 8002",
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newDownloader(&fakeCard{}, tt.opts...).Encode(commandPacket)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDownloader_EncodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		packet []byte
	}{
		{name: "Packet too long", packet: make([]byte, MaxPacketSize+1)},
		{name: "Bad originator", opts: []Option{WithOriginator("12A4")}, packet: commandPacket},
		{name: "Empty originator", opts: []Option{WithOriginator("+")}, packet: commandPacket},
		{name: "Bad service center", opts: []Option{WithServiceCenter("x")}, packet: commandPacket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDownloader(&fakeCard{}, tt.opts...).Encode(tt.packet)
			if !errors.Is(err, ErrSMS) {
				t.Errorf("Encode() error = %v, want ErrSMS", err)
			}
		})
	}
}

func TestDownloader_Download(t *testing.T) {
	envelopeAPDU := append(tlv.Hex("80C20000 2C"), downloadEnvelope...)
	por := tlv.Hex("000E 0A B00010 0000000001 00 00 8003")

	tests := []struct {
		name      string
		opts      []Option
		responses [][]byte
		wantSent  [][]byte
		wantPoR   []byte
		wantErr   error
	}{
		{
			name:      "9000 without PoR",
			responses: [][]byte{tlv.Hex("9000")},
			wantSent:  [][]byte{envelopeAPDU},
			wantPoR:   []byte{},
		},
		{
			name:      "PoR fetched after 61XX",
			responses: [][]byte{tlv.Hex("6110"), append(append([]byte{}, por...), 0x90, 0x00)},
			wantSent:  [][]byte{envelopeAPDU, tlv.Hex("80C00000 10")},
			wantPoR:   por,
		},
		{
			name:      "PoR fetched after 9EXX on a GSM SIM",
			opts:      []Option{WithCLA(iso7816.ClaGSM)},
			responses: [][]byte{tlv.Hex("9E10"), append(append([]byte{}, por...), 0x90, 0x00)},
			wantSent:  [][]byte{append(tlv.Hex("A0C20000 2C"), downloadEnvelope...), tlv.Hex("A0C00000 10")},
			wantPoR:   por,
		},
		{
			name:      "Response packet header removed",
			responses: [][]byte{tlv.Hex("6112"), append(append(tlv.Hex("027100"), por...), 0x90, 0x00)},
			wantSent:  [][]byte{envelopeAPDU, tlv.Hex("80C00000 12")},
			wantPoR:   por,
		},
		{
			name:      "Proactive command pending",
			responses: [][]byte{tlv.Hex("9120")},
			wantSent:  [][]byte{envelopeAPDU},
			wantPoR:   []byte{},
		},
		{
			name:      "Toolkit busy",
			responses: [][]byte{tlv.Hex("9300")},
			wantSent:  [][]byte{envelopeAPDU},
			wantErr:   ErrBusy,
		},
		{
			name:      "Rejected",
			responses: [][]byte{tlv.Hex("6D00")},
			wantSent:  [][]byte{envelopeAPDU},
			wantErr:   ErrCardStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := &fakeCard{responses: tt.responses}
			got, err := newDownloader(card, tt.opts...).Download(commandPacket)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Download() error = %v, want %v", err, tt.wantErr)
				}
				if got != nil {
					t.Errorf("Download() returned %X on error", got)
				}
			} else if err != nil {
				t.Fatalf("Download() error: %v", err)
			}

			if diff := cmp.Diff(tt.wantSent, card.sent); diff != "" {
				t.Errorf("sent APDUs mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPoR, got); diff != "" {
				t.Errorf("PoR mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDownloader_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	card := &fakeCard{responses: [][]byte{tlv.Hex("9E02"), tlv.Hex("AABB 9000")}}
	d := New(iso7816.NewClient(card, zap.New(core)), WithClock(func() time.Time { return sendTime }))

	if _, err := d.Download(commandPacket); err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if n := logs.FilterMessage("data download error reported").Len(); n != 1 {
		t.Errorf("%d download error entries, want 1", n)
	}
	if n := logs.FilterMessage("envelope delivered").Len(); n != 1 {
		t.Errorf("%d delivery entries, want 1", n)
	}
}
