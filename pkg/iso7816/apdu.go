package iso7816

import (
	"errors"
	"fmt"
)

// Command APDU (ISO/IEC 7816-3 and 7816-4):
//
//	CLA INS P1 P2 [Lc Data] [Le]
//
// Short form carries up to 255 data bytes and Le up to 256 (coded 00).
// Extended form (Lc or Le on 2 bytes after a 00 marker) is used as soon as
// either limit is exceeded.
//
// Response APDU:
//
//	[Data] SW1 SW2

// APDU limits.
const (
	MaxShortLc    = 255
	MaxShortLe    = 256
	MaxExtendedLc = 65535
	MaxExtendedLe = 65536
)

// Class bytes used with telecom cards.
const (
	// ClaGSM is the class of GSM 11.11 SIM commands.
	ClaGSM byte = 0xA0
	// ClaUICC is the interindustry class on the basic channel.
	ClaUICC byte = 0x00
	// ClaUICCToolkit is the ETSI TS 102 221 class of ENVELOPE, FETCH and TERMINAL RESPONSE.
	ClaUICCToolkit byte = 0x80
)

// ErrResponse is returned for a response APDU that cannot hold a status word.
var ErrResponse = errors.New("malformed response APDU")

// CommandAPDU is a command sent to the card.
type CommandAPDU struct {
	CLA         byte
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length, 0 for none.
}

// NewCommandAPDU creates a command.
func NewCommandAPDU(cla byte, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{CLA: cla, Instruction: ins, P1: p1, P2: p2, Data: data, Ne: ne}
}

// Bytes encodes the command, picking the short or extended form.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc, ne := len(c.Data), c.Ne
	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("data field of %d bytes exceeds %d", nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("expected length %d out of range", ne)
	}

	out := make([]byte, 0, 4+3+nc+3)
	out = append(out, c.CLA, byte(c.Instruction.Code), c.P1, c.P2)

	if nc <= MaxShortLc && ne <= MaxShortLe {
		if nc > 0 {
			out = append(out, byte(nc))
			out = append(out, c.Data...)
		}
		if ne > 0 {
			out = append(out, byte(ne)) // 256 wraps to 00
		}
		return out, nil
	}

	if nc > 0 {
		out = append(out, 0x00, byte(nc>>8), byte(nc))
		out = append(out, c.Data...)
	}
	if ne > 0 {
		if nc == 0 {
			out = append(out, 0x00)
		}
		out = append(out, byte(ne>>8), byte(ne)) // 65536 wraps to 0000
	}
	return out, nil
}

// String returns a one-line summary of the command.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("CLA: %02X | %s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.CLA, c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU is the reply of the card.
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU splits raw into data and status word.
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrResponse, len(raw))
	}

	n := len(raw) - 2
	return &ResponseAPDU{
		Data:   append([]byte(nil), raw[:n]...),
		Status: NewStatusWord(raw[n], raw[n+1]),
	}, nil
}

// String returns a one-line summary of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
