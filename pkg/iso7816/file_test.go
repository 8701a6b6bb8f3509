package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/gsm0348/pkg/tlv"
)

func TestFileCommands(t *testing.T) {
	read, err := ReadBinary(ClaGSM, 0, EFICCIDSize)
	if err != nil {
		t.Fatalf("ReadBinary() error: %v", err)
	}

	tests := []struct {
		name string
		cmd  *CommandAPDU
		want []byte
	}{
		{name: "SELECT GSM", cmd: SelectFile(ClaGSM, FileICCID), want: tlv.Hex("A0A40000 02 2FE2")},
		{name: "SELECT UICC", cmd: SelectFile(ClaUICC, FileMF), want: tlv.Hex("00A4000C 02 3F00")},
		{name: "READ BINARY", cmd: read, want: tlv.Hex("A0B00000 0A")},
		{name: "ENVELOPE", cmd: Envelope(ClaUICCToolkit, tlv.Hex("D100")), want: tlv.Hex("80C20000 02 D100")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Bytes()
			if err != nil {
				t.Fatalf("Bytes() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadBinary_Errors(t *testing.T) {
	if _, err := ReadBinary(ClaUICC, 0x8000, 1); err == nil {
		t.Error("expected an error for offset 8000")
	}
	if _, err := ReadBinary(ClaUICC, 0, 0); err == nil {
		t.Error("expected an error for an empty read")
	}
}

func TestClient_ReadICCID(t *testing.T) {
	content := tlv.Hex("98 94 00 21 43 65 87 09 21 F3")

	t.Run("Success", func(t *testing.T) {
		card := &scriptedCard{responses: [][]byte{
			tlv.Hex("9F0F"), tlv.Hex("00 9000"),
			tlv.Hex("9F0F"), tlv.Hex("00 9000"),
			append(append([]byte{}, content...), 0x90, 0x00),
		}}

		got, trace, err := NewClient(card, nil).ReadICCID(ClaGSM)
		if err != nil {
			t.Fatalf("ReadICCID() error: %v", err)
		}
		if diff := cmp.Diff(content, got); diff != "" {
			t.Errorf("ICCID mismatch (-want +got):\n%s", diff)
		}
		if len(trace) != 5 {
			t.Errorf("trace has %d transactions, want 5", len(trace))
		}
	})

	t.Run("File not found", func(t *testing.T) {
		card := &scriptedCard{responses: [][]byte{tlv.Hex("9000"), tlv.Hex("6A82")}}
		if _, _, err := NewClient(card, nil).ReadICCID(ClaUICC); err == nil {
			t.Error("expected an error")
		}
	})
}
