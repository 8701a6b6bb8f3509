package envelope

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/gsm0348/pkg/tlv"
)

func TestParseDownload(t *testing.T) {
	got, err := ParseDownload(downloadEnvelope)
	if err != nil {
		t.Fatalf("ParseDownload() error: %v", err)
	}

	want := &Download{
		DeviceIdentities: [2]byte{0x83, 0x81},
		TPDU:             downloadEnvelope[8:],
		Packet:           commandPacket,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDownload() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDownload_RoundTrip(t *testing.T) {
	packet := make([]byte, MaxPacketSize)
	for i := range packet {
		packet[i] = byte(i)
	}

	d := newDownloader(&fakeCard{}, WithOriginator("+123456789"), WithServiceCenter("4477"))
	data, err := d.Encode(packet)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	got, err := ParseDownload(data)
	if err != nil {
		t.Fatalf("ParseDownload() error: %v", err)
	}
	if diff := cmp.Diff(packet, got.Packet); diff != "" {
		t.Errorf("packet mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(tlv.Hex("81 4477"), got.Address); diff != "" {
		t.Errorf("address mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDownload_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "Not BER-TLV", data: tlv.Hex("D1 05 82")},
		{name: "No TPDU", data: tlv.Hex("D1 04 82028381")},
		{name: "Not a download PID", data: tlv.Hex("D1 14 8B 12 40 04 81 2143 00 F6 62015121436500 03 027000")},
		{name: "UDL mismatch", data: tlv.Hex("D1 14 8B 12 40 04 81 2143 7F F6 62015121436500 05 027000")},
		{name: "No UDHI", data: tlv.Hex("D1 14 8B 12 00 04 81 2143 7F F6 62015121436500 03 027000")},
		{name: "No command packet IEI", data: tlv.Hex("D1 14 8B 12 40 04 81 2143 7F F6 62015121436500 03 020000")},
		{name: "SMS-SUBMIT", data: tlv.Hex("D1 14 8B 12 41 04 81 2143 7F F6 62015121436500 03 027000")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDownload(tt.data); !errors.Is(err, ErrSMS) {
				t.Errorf("ParseDownload() error = %v, want ErrSMS", err)
			}
		})
	}
}
